package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/cafe-ordering/kds"
	"github.com/yeremiapane/cafe-ordering/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type KDSController struct {
	Hub *kds.Hub
}

func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{Hub: hub}
}

// KDSHandler -> websocket stream of order events, optionally for one cafe
func (kc *KDSController) KDSHandler(c *gin.Context) {
	cafeID, err := queryUint(c, "cafe_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("kds upgrade failed: %v", err)
		return
	}
	kc.Hub.Register(ws, cafeID)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	kc.Hub.Unregister(ws)
}
