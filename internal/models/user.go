package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleProctor UserRole = "proctor"
	RoleAdmin   UserRole = "admin"
)

// User is sourced from the identity provider, not persisted locally.
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`

	AvatarURL     *string `json:"avatar_url"`
	EmailVerified bool    `json:"email_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanGrade reports whether the user may assign final scores.
func (u *User) CanGrade() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}
