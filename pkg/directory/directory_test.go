package directory_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/cache"
	"github.com/dmitrymomot/mailportal/pkg/directory"
)

func TestStatic_List(t *testing.T) {
	t.Parallel()

	src := directory.Static{
		{ID: "3", Name: "carol", Email: "carol@example.com"},
		{ID: "1", Name: "Ann", Email: "ann@example.com"},
		{ID: "2", Name: "Ann", Email: "aaa@example.com"},
	}

	users, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3"}, ids(users))
	assert.Equal(t, "3", src[0].ID, "source is not reordered")
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	require.NoError(t, directory.Healthcheck(directory.Static{})(context.Background()))

	boom := errors.New("boom")
	failing := directory.StoreFunc(func(context.Context) ([]directory.User, error) { return nil, boom })
	require.ErrorIs(t, directory.Healthcheck(failing)(context.Background()), boom)
}

func TestFileStore_List(t *testing.T) {
	t.Parallel()

	t.Run("reads and sorts", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, `
- id: u2
  name: Zed
  email: zed@example.com
- name: " Ann "
  email: ann@example.com
`)
		users, err := directory.NewFileStore(path).List(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, directory.User{ID: "ann@example.com", Name: "Ann", Email: "ann@example.com"}, users[0])
		assert.Equal(t, "u2", users[1].ID)
	})

	t.Run("picks up edits", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "- {name: Ann, email: ann@example.com}\n")
		store := directory.NewFileStore(path)

		users, err := store.List(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 1)

		require.NoError(t, os.WriteFile(path, []byte("- {name: Ann, email: ann@example.com}\n- {name: Bob, email: bob@example.com}\n"), 0o600))
		users, err = store.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := directory.NewFileStore(filepath.Join(t.TempDir(), "nope.yaml")).List(context.Background())
		require.ErrorIs(t, err, directory.ErrLoadFailed)
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "- {name: Ann, email: not-an-email}\n")
		_, err := directory.NewFileStore(path).List(context.Background())
		require.ErrorIs(t, err, directory.ErrInvalidUser)
		assert.Contains(t, err.Error(), "entry 0")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := directory.ParseYAML([]byte("name: [unterminated"))
		require.ErrorIs(t, err, directory.ErrLoadFailed)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := directory.NewFileStore(writeFile(t, "[]")).List(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCached_List(t *testing.T) {
	t.Parallel()

	t.Run("loads once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		store := directory.StoreFunc(func(context.Context) ([]directory.User, error) {
			calls.Add(1)
			time.Sleep(10 * time.Millisecond)
			return []directory.User{{ID: "1", Name: "Ann", Email: "ann@example.com"}}, nil
		})

		c := cache.NewMemory[[]directory.User]()
		t.Cleanup(func() { _ = c.Close() })
		cached := directory.NewCached(store, c, time.Minute)

		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				users, err := cached.List(context.Background())
				assert.NoError(t, err)
				assert.Len(t, users, 1)
			})
		}
		wg.Wait()

		_, err := cached.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("expired list reloads", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		store := directory.StoreFunc(func(context.Context) ([]directory.User, error) {
			calls.Add(1)
			return nil, nil
		})

		c := cache.NewMemory[[]directory.User]()
		t.Cleanup(func() { _ = c.Close() })
		cached := directory.NewCached(store, c, 10*time.Millisecond)

		_, err := cached.List(context.Background())
		require.NoError(t, err)
		time.Sleep(30 * time.Millisecond)
		_, err = cached.List(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		store := directory.StoreFunc(func(context.Context) ([]directory.User, error) {
			if calls.Add(1) == 1 {
				return nil, directory.ErrLoadFailed
			}
			return []directory.User{{ID: "1", Email: "ann@example.com"}}, nil
		})

		c := cache.NewMemory[[]directory.User]()
		t.Cleanup(func() { _ = c.Close() })
		cached := directory.NewCached(store, c, time.Minute)

		_, err := cached.List(context.Background())
		require.ErrorIs(t, err, directory.ErrLoadFailed)

		users, err := cached.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[[]directory.User]()
		t.Cleanup(func() { _ = c.Close() })
		cached := directory.NewCached(directory.Static{{ID: "1", Name: "Ann", Email: "ann@example.com"}}, c, time.Minute)

		users, err := cached.List(context.Background())
		require.NoError(t, err)
		users[0].Name = "changed"

		users, err = cached.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Ann", users[0].Name)
	})
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(directory.Migrations(), ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_users.sql", entries[0].Name())
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func ids(users []directory.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
