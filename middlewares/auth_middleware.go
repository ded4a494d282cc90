package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/utils"
)

const OwnerIDKey = "owner_id"

// OwnerAuthMiddleware accepts a bearer owner token from the Authorization
// header, or from the token query parameter for websocket upgrades.
func OwnerAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if header := c.GetHeader("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				utils.RespondAbort(c, http.StatusUnauthorized, errors.New("invalid authorization header"))
				return
			}
			tokenString = strings.TrimPrefix(header, "Bearer ")
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			utils.RespondAbort(c, http.StatusUnauthorized, errors.New("authorization token missing"))
			return
		}

		ownerID, err := utils.ParseOwnerToken(secret, tokenString)
		if err != nil {
			utils.RespondAbort(c, http.StatusUnauthorized, err)
			return
		}

		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}
