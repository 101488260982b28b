package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"account-linker/internal/service"
)

const webhookClaimsKey = "webhook_claims"

// WebhookAuthMiddleware valida el bearer token de la plataforma de login.
func WebhookAuthMiddleware(tokens *service.WebhookTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(webhookClaimsKey, claims)
		c.Next()
	}
}

// GetWebhookClaims obtiene los claims del webhook desde el contexto.
func GetWebhookClaims(c *gin.Context) (service.WebhookClaims, bool) {
	val, ok := c.Get(webhookClaimsKey)
	if !ok {
		return service.WebhookClaims{}, false
	}
	claims, ok := val.(service.WebhookClaims)
	return claims, ok
}
