package domain

import (
	"github.com/golang-jwt/jwt/v4"
)

type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	IsPaid   bool   `json:"is_paid"`
	jwt.RegisteredClaims
}
