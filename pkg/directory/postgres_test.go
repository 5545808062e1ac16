package directory_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/db"
	"github.com/dmitrymomot/mailportal/pkg/directory"
	"github.com/dmitrymomot/mailportal/pkg/logger"
)

func TestPostgresStore_List(t *testing.T) {
	url := os.Getenv("MAILPORTAL_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MAILPORTAL_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool, directory.Migrations(), directory.MigrationsTable, logger.Discard()))

	_, err = pool.Exec(ctx, `DELETE FROM users WHERE email LIKE '%@directory-test.example'`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO users (name, email) VALUES ('zed', 'zed@directory-test.example'), ('Ann', 'ann@directory-test.example')`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE email LIKE '%@directory-test.example'`)
	})

	users, err := directory.NewPostgresStore(pool).List(ctx)
	require.NoError(t, err)

	var mine []directory.User
	for _, u := range users {
		if u.Email == "ann@directory-test.example" || u.Email == "zed@directory-test.example" {
			mine = append(mine, u)
		}
	}
	require.Len(t, mine, 2)
	assert.Equal(t, "Ann", mine[0].Name)
	assert.NotEmpty(t, mine[0].ID)
}
