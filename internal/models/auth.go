package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of a session token
type TokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
