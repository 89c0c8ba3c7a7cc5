package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"airbnb-reconciler/utils"
)

const (
	authCookie = "auth-token"
	claimsKey  = "auth"
)

// AuthMiddleware requires a valid admin token, read from the auth-token
// cookie or an Authorization: Bearer header.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(authCookie)
		if token == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimSpace(auth[len("Bearer "):])
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := utils.JwtValidate(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Claims returns the operator behind the request, or nil outside
// AuthMiddleware.
func Claims(c *gin.Context) *utils.JwtCustomClaim {
	raw, _ := c.Get(claimsKey)
	claims, _ := raw.(*utils.JwtCustomClaim)
	return claims
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("[api] %s %s %d %v", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
