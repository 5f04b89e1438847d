package auth

import (
	"fmt"
	"time"

	"ottobite-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 24 * time.Hour

type JWTCustomClaims struct {
	UserID     uint            `json:"id"`
	FullName   string          `json:"fullName"`
	Role       models.UserRole `json:"role"`
	Department string          `json:"department"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User) (string, error) {
	claims := &JWTCustomClaims{
		UserID:     user.ID,
		FullName:   user.FullName,
		Role:       user.Role,
		Department: user.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)), // 1 gün
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken: oturum çerezini/bearer token'ı çözer
func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("geçersiz imzalama yöntemi")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("geçersiz veya süresi dolmuş token")
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok {
		return nil, fmt.Errorf("token çözümlenemedi")
	}
	return claims, nil
}
