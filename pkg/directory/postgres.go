package directory

import (
	"context"
	"embed"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations holds the goose migrations for the users table.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded goose migrations rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// MigrationsTable is the goose version table used for this package.
const MigrationsTable = "directory_migrations"

const listUsersQuery = `SELECT id::text AS id, name, email FROM users ORDER BY lower(name), email`

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// PostgresStore reads users from the users table.
type PostgresStore struct {
	db Querier
}

func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, listUsersQuery)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[User])
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	return users, nil
}
