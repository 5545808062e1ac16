package web_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/internal/web"
)

type signupForm struct {
	Email string   `form:"email" label:"Email" validate:"required,email"`
	Tags  []string `form:"tags[]" label:"Tags" validate:"min=1"`
}

type ctxKey struct{}

type bindHandler struct {
	got  *signupForm
	errs web.ValidationErrors
}

func (h *bindHandler) Routes(r web.Router) {
	r.POST("/bind", func(c web.Context) error {
		var form signupForm
		errs, err := c.Bind(&form)
		if err != nil {
			return c.Error(http.StatusBadRequest, "bad form", web.WithError(err))
		}
		h.got, h.errs = &form, errs
		return c.NoContent(http.StatusNoContent)
	})
	r.GET("/values", func(c web.Context) error {
		c.Set(ctxKey{}, "stored")
		v, _ := c.Get(ctxKey{}).(string)
		c.SetHeader("X-Stored", v)
		c.SetHeader("X-Seen", c.Header("X-Probe"))
		if c.Value(ctxKey{}) != "stored" {
			return c.Error(http.StatusInternalServerError, "context value lost")
		}
		return c.NoContent(http.StatusOK)
	})
}

func postForm(target string, vals url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestContext_Bind(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		h := &bindHandler{}
		app, err := web.New(web.WithHandlers(h))
		require.NoError(t, err)

		rec := serve(app.Handler(), postForm("/bind", url.Values{"email": {" ann@example.com "}, "tags[]": {"a", "b"}}))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, h.errs)
		assert.Equal(t, "ann@example.com", h.got.Email)
		assert.Equal(t, []string{"a", "b"}, h.got.Tags)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		h := &bindHandler{}
		app, err := web.New(web.WithHandlers(h))
		require.NoError(t, err)

		rec := serve(app.Handler(), postForm("/bind", url.Values{"email": {"nope"}}))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, h.errs.Has("email"))
		assert.True(t, h.errs.Has("tags[]"))
		assert.Contains(t, h.errs.Messages(), "Email must be a valid email address")
	})
}

func TestContext_Values(t *testing.T) {
	t.Parallel()

	app, err := web.New(web.WithHandlers(&bindHandler{}))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/values", nil)
	req.Header.Set("X-Probe", "probe")
	rec := serve(app.Handler(), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stored", rec.Header().Get("X-Stored"))
	assert.Equal(t, "probe", rec.Header().Get("X-Seen"))
}
