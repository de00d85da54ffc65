package business

import "context"

// Repository persists the singleton row
type Repository interface {
	// Find returns the row with id 1 or shared.ErrNotFound
	Find(ctx context.Context) (*Business, error)

	// CreateIfAbsent inserts b unless a row already exists; concurrent callers
	// converge on whichever insert won.
	CreateIfAbsent(ctx context.Context, b *Business) error

	// Save writes every field of the row with id 1
	Save(ctx context.Context, b *Business) error
}
