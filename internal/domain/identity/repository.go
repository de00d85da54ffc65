package identity

import "context"

// UserRepository persists users
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail looks up a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	FindAll(ctx context.Context) ([]User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Count(ctx context.Context) (int64, error)

	// Save inserts a new user or updates an existing one with a version check
	Save(ctx context.Context, user *User) error
}
