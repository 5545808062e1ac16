package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/db"
)

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := db.Connect(context.Background(), "")
	require.ErrorIs(t, err, db.ErrEmptyConnectionURL)

	_, err = db.Connect(context.Background(), "postgres://localhost:notaport/db")
	require.ErrorIs(t, err, db.ErrFailedToParseDBConfig)
}

func TestHealthcheck_NilPool(t *testing.T) {
	t.Parallel()

	err := db.Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, db.ErrHealthcheckFailed)
}
