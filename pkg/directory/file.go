package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailportal/pkg/validator"
)

// FileStore reads users from a YAML file holding a list of
// {id, name, email} records. The file is read on every call, so edits show
// up without a restart.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) List(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	return ParseYAML(data)
}

// ParseYAML decodes and validates a YAML user list.
func ParseYAML(data []byte) ([]User, error) {
	var users []User
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	for i := range users {
		u := &users[i]
		u.Name = strings.TrimSpace(u.Name)
		u.Email = strings.TrimSpace(u.Email)
		if u.ID == "" {
			u.ID = u.Email
		}
		if err := validator.Struct(u); err != nil {
			return nil, errors.Join(ErrInvalidUser, fmt.Errorf("entry %d: %w", i, err))
		}
	}

	sortUsers(users)
	return users, nil
}
