package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	SignatureHeader    = "X-Signature"
	WebhookTokenHeader = "X-Webhook-Token"

	maxWebhookBody = 1 << 20
	rawBodyKey     = "webhook.body"
)

// Sign returns the hex HMAC-SHA256 of payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, payload []byte, header string) bool {
	header = strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	if header == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, payload)), []byte(strings.ToLower(header)))
}

// VerifySignature reads the raw body once, checks its signature and keeps it
// on the context for the handler.
func VerifySignature(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
			}
			if len(body) > maxWebhookBody {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "body too large")
			}
			if !validSignature(secret, body, c.Request().Header.Get(SignatureHeader)) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
			}

			c.Set(rawBodyKey, body)
			c.Request().Body = io.NopCloser(bytes.NewReader(body))
			return next(c)
		}
	}
}

func rawBody(c echo.Context) []byte {
	body, _ := c.Get(rawBodyKey).([]byte)
	return body
}

// validToken compares a handshake token in constant time.
func validToken(secret, token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(token)) == 1
}
