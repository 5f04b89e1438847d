package auth

import (
	"strings"

	"ottobite-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "session"
	ctxSessionKey = "session"
)

// Session: isteği yapan kullanıcının kimliği (token'dan gelir, DB'de hâlâ var olduğu garanti değil)
type Session struct {
	UserID     uint
	FullName   string
	Role       models.UserRole
	Department string
}

// SessionMiddleware: önce "session" çerezine, yoksa Authorization header'ına bakar
func SessionMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(SessionCookie)
		if tokenStr == "" {
			authHeader := c.Get("Authorization")
			if authHeader == "" {
				return fiber.NewError(fiber.StatusUnauthorized, "Oturum gerekli.")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
			}
			tokenStr = parts[1]
		}

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş oturum")
		}

		c.Locals(ctxSessionKey, Session{
			UserID:     claims.UserID,
			FullName:   claims.FullName,
			Role:       claims.Role,
			Department: claims.Department,
		})
		return c.Next()
	}
}

// SessionFrom returns the session stored by SessionMiddleware.
func SessionFrom(c *fiber.Ctx) (Session, bool) {
	s, ok := c.Locals(ctxSessionKey).(Session)
	return s, ok
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := SessionFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == s.Role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Yetkisiz işlem.")
	}
}

// HasRole: servis katmanındaki yetki kontrolleri için
func (s Session) HasRole(roles ...models.UserRole) bool {
	for _, r := range roles {
		if r == s.Role {
			return true
		}
	}
	return false
}
