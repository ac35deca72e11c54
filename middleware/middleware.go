package middleware

import (
	"fmt"
	"os"
	"strings"
	"time"

	"familytree/config"
	"familytree/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

func jwtKey() []byte {
	return []byte(os.Getenv("BYTE_KEY"))
}

// GenerateJWT issues a token for an account. Tokens normally come from the
// identity service that shares BYTE_KEY; this is used by tooling and tests.
func GenerateJWT(userID int, username string, isPaid bool) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour) // Token valid for 24 hours
	claims := &domain.Claims{
		UserID:   userID,
		Username: username,
		IsPaid:   isPaid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey())
}

func VerifyJWT(tokenString string) (*domain.Claims, error) {
	claims := &domain.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthRequired rejects requests without a valid bearer token with 401 and
// stores the claims under the "user" local.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if tokenString == "" {
			config.PrintLogInfo(nil, fiber.StatusUnauthorized, "AuthRequired")
			return c.Status(fiber.StatusUnauthorized).JSON(domain.Response{
				Success: false,
				Message: "No token provided",
			})
		}

		claims, err := VerifyJWT(tokenString)
		if err != nil {
			config.PrintLogInfo(nil, fiber.StatusUnauthorized, "AuthRequired")
			return c.Status(fiber.StatusUnauthorized).JSON(domain.Response{
				Success: false,
				Message: "Invalid token",
				Error:   err.Error(),
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

// PaidRequired answers 402 for accounts without an active subscription.
// It must run after AuthRequired.
func PaidRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(*domain.Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(domain.Response{
				Success: false,
				Message: "No token provided",
			})
		}
		if !claims.IsPaid {
			config.PrintLogInfo(&claims.Username, fiber.StatusPaymentRequired, "PaidRequired")
			return c.Status(fiber.StatusPaymentRequired).JSON(domain.Response{
				Success: false,
				Message: "An active subscription is required",
			})
		}
		return c.Next()
	}
}
