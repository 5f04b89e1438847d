package auth

import (
	"strings"
	"time"

	"ottobite-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/auth/login
// Başarılı girişte oturum token'ı hem çerez olarak yazılır hem de gövdede döner
func LoginHandler(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		if body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kullanıcı adı ve şifre zorunlu")
		}

		var user models.User
		if err := db.Where("username = ?", body.Username).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		}

		token, err := GenerateToken(secret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(sessionTTL),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := SessionFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Oturum gerekli.")
		}
		return c.JSON(fiber.Map{
			"id":         s.UserID,
			"fullName":   s.FullName,
			"role":       s.Role,
			"department": s.Department,
		})
	}
}

// HashPassword: seed ve kullanıcı oluşturma için
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
