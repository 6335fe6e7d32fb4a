package domain

import "time"

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Account models a canteen customer or administrator.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	Admin        bool      `json:"admin"`
	ClassGroup   string    `json:"class_group,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role returns the authorization role carried in access tokens.
func (a Account) Role() string {
	if a.Admin {
		return RoleAdmin
	}
	return RoleStudent
}
