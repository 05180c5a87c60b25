package middleware

import (
	"net/http"

	"github.com/HummdG/taza-ticket-clean/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureValidator checks an X-Twilio-Signature against the request it
// claims to sign.
type SignatureValidator interface {
	ValidateSignature(requestURL string, params map[string]string, signature string) bool
}

// TwilioSignatureMiddleware rejects webhook posts whose signature does not
// match. Twilio signs the public URL it was configured with, so the check
// is built from PUBLIC_BASE_URL rather than the proxied request host.
func TwilioSignatureMiddleware(validator SignatureValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.AppConfig.TwilioValidateSig {
			c.Next()
			return
		}

		signature := c.GetHeader("X-Twilio-Signature")
		if signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing webhook signature"})
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed form payload"})
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		requestURL := config.AppConfig.PublicBaseURL + c.Request.URL.RequestURI()
		if config.AppConfig.PublicBaseURL == "" {
			scheme := "https"
			if c.Request.TLS == nil {
				scheme = "http"
			}
			requestURL = scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
		}

		if !validator.ValidateSignature(requestURL, params, signature) {
			zap.L().Warn("rejected webhook with invalid signature",
				zap.String("url", requestURL))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid webhook signature"})
			return
		}
		c.Next()
	}
}
