package identity

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/minegocio/backend/internal/domain/shared"
)

// Role is the coarse permission level of a user
type Role string

const (
	RoleOwner    Role = "owner"
	RoleEmployee Role = "employee"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleEmployee
}

// ParseRole converts a raw string to a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewValidationError("role", "must be owner or employee")
	}
	return r, nil
}

// Password cost for bcrypt
const bcryptCost = 12

var (
	letterPattern = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

// User is someone who can sign in and record sales or purchases
type User struct {
	shared.BaseAggregateRoot
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(name, email, password string, role Role) (*User, error) {
	verr := &shared.ValidationError{}
	if err := validateName(name); err != nil {
		verr.Add("name", err.Error())
	}
	if err := validateEmail(email); err != nil {
		verr.Add("email", err.Error())
	}
	if !role.IsValid() {
		verr.Add("role", "must be owner or employee")
	}
	if err := validatePassword(password); err != nil {
		verr.Add("password", err.Error())
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Email:             normalizeEmail(email),
		PasswordHash:      hash,
		Role:              role,
		IsActive:          true,
	}, nil
}

// IsOwner reports whether the user has the owner role
func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// UpdateProfile changes name and email
func (u *User) UpdateProfile(name, email string) error {
	verr := &shared.ValidationError{}
	if err := validateName(name); err != nil {
		verr.Add("name", err.Error())
	}
	if err := validateEmail(email); err != nil {
		verr.Add("email", err.Error())
	}
	if verr.HasErrors() {
		return verr
	}
	u.Name = strings.TrimSpace(name)
	u.Email = normalizeEmail(email)
	u.Touch()
	return nil
}

// ChangePassword changes the user's password after checking the current one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return shared.NewValidationError("password", err.Error())
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// ChangeRole moves the user to another role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewValidationError("role", "must be owner or employee")
	}
	u.Role = role
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// RecordLogin stamps the last successful sign in
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
}

// Activate activates the user
func (u *User) Activate() error {
	if u.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	}
	u.IsActive = true
	u.Touch()
	return nil
}

// Deactivate deactivates the user
func (u *User) Deactivate() error {
	if !u.IsActive {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "User is already deactivated")
	}
	u.IsActive = false
	u.Touch()
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errText("cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return errText("cannot exceed 100 characters")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errText("cannot be empty")
	}
	if len(email) > 100 {
		return errText("cannot exceed 100 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errText("must be a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errText("must be at least 8 characters")
	}
	if len(password) > 72 {
		return errText("cannot exceed 72 characters")
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return errText("must contain at least one letter and one number")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type errText string

func (e errText) Error() string { return string(e) }
