package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CronSecret guards trigger endpoints with a shared bearer secret.
type CronSecret struct {
	secret string
}

// NewCronSecret constructs middleware. An empty secret disables the check.
func NewCronSecret(secret string) *CronSecret {
	return &CronSecret{secret: secret}
}

// Handle rejects requests whose bearer token does not match the secret.
func (m *CronSecret) Handle(c *fiber.Ctx) error {
	if m == nil || m.secret == "" {
		return c.Next()
	}
	if !m.Authorized(c.Get(fiber.HeaderAuthorization)) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	return c.Next()
}

// Authorized reports whether header carries the expected bearer secret.
func (m *CronSecret) Authorized(header string) bool {
	if m == nil || m.secret == "" {
		return true
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(m.secret)) == 1
}
