package domain

import (
	"errors"
	"time"
)

var (
	// ErrUsernameAlreadyExists indicates the the user with the given username already exists.
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrEmailAlreadyExists indicates the the user with the given email already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrUserNotFound indicates the the user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword indicates the wrong password for the given user.
	ErrWrongPassword = errors.New("wrong password")
	// ErrUserLocked indicates that the user is locked after too many failed logins.
	ErrUserLocked = errors.New("user is locked, try again later")
	// ErrUserInactive indicates that the user is deactivated.
	ErrUserInactive = errors.New("user is inactive")
	// ErrInvalidRole indicates unknown role.
	ErrInvalidRole = errors.New("invalid role")
)

// Role is the authorization role of a user.
type Role string

// Roles.
const (
	RoleCustomer Role = "CUSTOMER"
	RoleTeller   Role = "TELLER"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleTeller, RoleManager, RoleAdmin:
		return true
	}

	return false
}

// Staff reports whether r is a bank employee role.
func (r Role) Staff() bool {
	return r == RoleTeller || r == RoleManager || r == RoleAdmin
}

// User holds user data.
type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	HashedPassword    string    `json:"hashed_password"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Role              Role      `json:"role"`
	IsActive          bool      `json:"is_active"`
	PasswordChangedAt time.Time `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
}

// CreateUserParams is the input data to create a user.
type CreateUserParams struct {
	Username       string `json:"username"`
	HashedPassword string `json:"hashed_password"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
}

// UserWithoutPassword is User data excluding password data.
type UserWithoutPassword struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterUserParams is the sign-up data of a user before hashing the password.
type RegisterUserParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Session is the outcome of a successful login.
type Session struct {
	AccessToken          string              `json:"access_token"`
	AccessTokenExpiresAt time.Time           `json:"access_token_expires_at"`
	User                 UserWithoutPassword `json:"user"`
}
