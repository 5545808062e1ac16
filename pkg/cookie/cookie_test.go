package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/cookie"
)

const testSecret = "this-is-a-32-byte-or-longer-key!"

// carry copies response cookies onto a fresh request, like a browser would.
func carry(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := cookie.New("short")
	require.ErrorIs(t, err, cookie.ErrBadSecret)

	m, err := cookie.New(testSecret, cookie.WithSecure(true))
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestEncrypted(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(testSecret)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.NoError(t, m.SetEncrypted(w, "token", "secret value", 60))

		c := w.Result().Cookies()[0]
		assert.NotContains(t, c.Value, "secret value")
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

		got, err := m.GetEncrypted(carry(w), "token")
		require.NoError(t, err)
		assert.Equal(t, "secret value", got)
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()

		_, err := m.GetEncrypted(httptest.NewRequest(http.MethodGet, "/", nil), "token")
		require.ErrorIs(t, err, cookie.ErrNotFound)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "bm90LWVuY3J5cHRlZC1hdC1hbGwtanVzdC1iYXNlNjQ"})

		_, err := m.GetEncrypted(r, "token")
		require.ErrorIs(t, err, cookie.ErrDecrypt)
	})

	t.Run("different secret", func(t *testing.T) {
		t.Parallel()

		other, err := cookie.New("another-secret-that-is-32-bytes-long")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		require.NoError(t, other.SetEncrypted(w, "token", "v", 0))

		_, err = m.GetEncrypted(carry(w), "token")
		require.ErrorIs(t, err, cookie.ErrDecrypt)
	})

	t.Run("value bound to cookie name", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.NoError(t, m.SetEncrypted(w, "a", "v", 0))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "b", Value: w.Result().Cookies()[0].Value})

		_, err := m.GetEncrypted(r, "b")
		require.ErrorIs(t, err, cookie.ErrDecrypt)
	})
}

func TestFlash(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(testSecret)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetFlash(w, "errors", []string{"first", "second"}))

	r := carry(w)

	w2 := httptest.NewRecorder()
	var got []string
	require.NoError(t, m.Flash(w2, r, "errors", &got))
	assert.Equal(t, []string{"first", "second"}, got)

	// The flash is expired on the response that read it.
	cookies := w2.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "flash_errors", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)

	var none string
	err = m.Flash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "success", &none)
	require.ErrorIs(t, err, cookie.ErrNotFound)
}

func TestFlash_TooLarge(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(testSecret)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	err = m.SetFlash(w, "errors", []string{strings.Repeat("<p>bad gateway</p>", 300)})
	require.ErrorIs(t, err, cookie.ErrTooLarge)
	assert.Empty(t, w.Result().Cookies(), "nothing is written")

	require.NoError(t, m.SetFlash(w, "errors", []string{strings.Repeat("x", 2000)}))
	c := w.Result().Cookies()
	require.Len(t, c, 1)
	assert.LessOrEqual(t, len(c[0].String()), cookie.MaxSize)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	m, err := cookie.New(testSecret,
		cookie.WithPath("/portal"),
		cookie.WithDomain("example.com"),
		cookie.WithSameSite(http.SameSiteStrictMode),
		cookie.WithSecure(true),
	)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetFlash(w, "success", "ok"))

	c := w.Result().Cookies()[0]
	assert.Equal(t, "/portal", c.Path)
	assert.Equal(t, "example.com", c.Domain)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.True(t, c.Secure)
}
