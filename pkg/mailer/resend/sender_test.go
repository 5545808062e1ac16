package resend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
	"github.com/dmitrymomot/mailportal/pkg/mailer/resend"
)

func testEmail() *mailer.Email {
	return &mailer.Email{
		From:    mailer.Address{Name: "Ops", Email: "ops@example.com"},
		To:      []mailer.Address{{Name: "Ann", Email: "ann@example.com"}, {Email: "bob@example.com"}},
		Subject: "Hello",
		HTML:    "<p>Hello</p>",
		Text:    "Hello",
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := resend.New(resend.Config{})
	require.Error(t, err)
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/emails", r.URL.Path)
			assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
		}))
		defer srv.Close()

		s, err := resend.New(resend.Config{APIKey: "re_test", BaseURL: srv.URL})
		require.NoError(t, err)

		require.NoError(t, s.Send(context.Background(), testEmail()))
		assert.Equal(t, `"Ops" <ops@example.com>`, got["from"])
		assert.Equal(t, []any{`"Ann" <ann@example.com>`, "bob@example.com"}, got["to"])
		assert.Equal(t, "Hello", got["subject"])
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"The ops@example.com domain is not verified."}`))
		}))
		defer srv.Close()

		s, err := resend.New(resend.Config{APIKey: "re_test", BaseURL: srv.URL})
		require.NoError(t, err)

		err = s.Send(context.Background(), testEmail())
		pe, ok := mailer.AsProviderError(err)
		require.True(t, ok, "expected provider error, got %v", err)
		assert.Equal(t, "resend", pe.Provider)
		require.Len(t, pe.Messages, 1)
		assert.Contains(t, pe.Messages[0], "domain is not verified")
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		s, err := resend.New(resend.Config{APIKey: "re_test", BaseURL: url})
		require.NoError(t, err)

		err = s.Send(context.Background(), testEmail())
		require.ErrorIs(t, err, mailer.ErrSendFailed)
		_, ok := mailer.AsProviderError(err)
		assert.False(t, ok)
	})

	t.Run("invalid email never reaches the api", func(t *testing.T) {
		t.Parallel()

		s, err := resend.New(resend.Config{APIKey: "re_test", BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)

		e := testEmail()
		e.To = nil
		require.ErrorIs(t, s.Send(context.Background(), e), mailer.ErrNoRecipient)
	})
}
