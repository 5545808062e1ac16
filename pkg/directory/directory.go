// Package directory reads the users an operator can address. The directory
// is read-only; this package never writes users.
package directory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
)

var (
	ErrLoadFailed  = errors.New("directory: failed to load users")
	ErrInvalidUser = errors.New("directory: invalid user record")
)

// User is a directory entry.
type User struct {
	ID    string `db:"id" json:"id" yaml:"id"`
	Name  string `db:"name" json:"name" yaml:"name" label:"Name"`
	Email string `db:"email" json:"email" yaml:"email" label:"Email" validate:"required,email"`
}

// Store lists users ordered by name, then email.
type Store interface {
	List(ctx context.Context) ([]User, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context) ([]User, error)

func (f StoreFunc) List(ctx context.Context) ([]User, error) { return f(ctx) }

// Static is a fixed in-memory directory.
type Static []User

func (s Static) List(context.Context) ([]User, error) {
	users := slices.Clone([]User(s))
	sortUsers(users)
	return users, nil
}

// Healthcheck reports whether the store can currently list users.
func Healthcheck(s Store) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.List(ctx)
		return err
	}
}

func sortUsers(users []User) {
	slices.SortStableFunc(users, func(a, b User) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.Email, b.Email),
		)
	})
}
