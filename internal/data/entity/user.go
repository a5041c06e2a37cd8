package entity

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	Base
	Name string `db:"name"`
	// Email is unique. OAuth-only accounts have a nil PasswordHash and can
	// never log in with credentials.
	Email           string     `db:"email"`
	PasswordHash    *string    `db:"password"`
	Role            UserRole   `db:"role"`
	EmailVerifiedAt *time.Time `db:"email_verified_at"`
	FailedLogins    int        `db:"failed_logins"`
	LastLoginAt     *time.Time `db:"last_login_at"`
}

// IsVerified reports whether the user completed email verification.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}
