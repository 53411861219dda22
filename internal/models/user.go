package models

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleProducer Role = "PRODUCER"
	RoleCompany  Role = "COMPANY"
	RoleAuditor  Role = "AUDITOR"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleProducer, RoleCompany, RoleAuditor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Validate() error {
	if len(strings.TrimSpace(u.Username)) < 3 {
		return errors.New("username too short")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("invalid email")
	}
	if u.Role == "" {
		u.Role = RoleCompany
	}
	if !u.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}
