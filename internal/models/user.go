package models

import (
	"fmt"
	"time"
)

// Role is the closed set of user roles. The zero value is not a valid role.
type Role string

const (
	RoleCitizen Role = "masyarakat"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a stored role string into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCitizen:
		return RoleCitizen, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// NIKLength is the fixed length of a national identity number
const NIKLength = 16

type User struct {
	ID           int64
	NIK          string
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
	Address      *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the user view that is safe to return to clients.
type PublicUser struct {
	ID      int64   `json:"id"`
	NIK     string  `json:"nik"`
	Name    string  `json:"nama"`
	Email   string  `json:"email"`
	Phone   *string `json:"telepon"`
	Address *string `json:"alamat"`
	Role    Role    `json:"role"`
}

// Public strips the password digest
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:      u.ID,
		NIK:     u.NIK,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
		Role:    u.Role,
	}
}
