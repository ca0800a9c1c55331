package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of the bearer credential issued at login
type Claims struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) Identity() Identity {
	return Identity{ID: c.ID, Name: c.Name, Role: c.Role}
}
