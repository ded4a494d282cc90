package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/utils"
)

// RequireWebSocketUpgrade rejects plain HTTP calls on websocket routes.
func RequireWebSocketUpgrade() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			utils.RespondAbort(c, http.StatusBadRequest, errors.New("websocket upgrade required"))
			return
		}
		c.Next()
	}
}
