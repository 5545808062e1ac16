package views_test

import (
	"context"
	"html"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/internal/requests"
	"github.com/dmitrymomot/mailportal/internal/views"
	"github.com/dmitrymomot/mailportal/pkg/directory"
)

var users = []directory.User{
	{ID: "1", Name: "Ann Lee", Email: "ann@example.com"},
	{ID: "2", Email: "bob@example.com"},
}

func TestMailingPage(t *testing.T) {
	t.Parallel()

	t.Run("fresh form", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		err := views.MailingPage(views.MailingPageData{
			Users:       users,
			DefaultFrom: "ops@example.com",
		}).Render(context.Background(), &b)
		require.NoError(t, err)

		out := b.String()
		assert.Contains(t, out, `<form method="post" action="/sendmail">`)
		assert.Contains(t, out, `name="from" value="ops@example.com"`)
		assert.Contains(t, out, `>Ann Lee - ann@example.com</option>`)
		assert.Contains(t, out, `>bob@example.com</option>`)
		assert.Contains(t, out, `value="`+html.EscapeString(views.OptionValue(users[0]))+`"`)
		assert.NotContains(t, out, "alert")
		assert.NotContains(t, out, " selected")
	})

	t.Run("flash state", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		err := views.MailingPage(views.MailingPageData{
			Users:       users,
			DefaultFrom: "ops@example.com",
			Errors:      []string{"Subject is required", "<b>bad</b>"},
			Old: requests.OldInput{
				From:  "me@example.com",
				Body:  "Hello <there>",
				Users: []string{users[1].ID},
			},
			Markdown: true,
		}).Render(context.Background(), &b)
		require.NoError(t, err)

		out := b.String()
		assert.Contains(t, out, `alert-danger`)
		assert.Contains(t, out, `<li>Subject is required</li>`)
		assert.Contains(t, out, `<li>&lt;b&gt;bad&lt;/b&gt;</li>`)
		assert.Contains(t, out, `value="me@example.com"`)
		assert.Contains(t, out, `Hello &lt;there&gt;</textarea>`)
		assert.Equal(t, 1, strings.Count(out, " selected>"))
		assert.Contains(t, out, "Markdown is supported")
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		err := views.MailingPage(views.MailingPageData{Success: "E-mails successfully sent out!!"}).Render(context.Background(), &b)
		require.NoError(t, err)
		assert.Contains(t, b.String(), `<div class="alert alert-success" role="alert">E-mails successfully sent out!!</div>`)
	})
}

func TestErrorPage(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	err := views.ErrorPage(views.ErrorPageData{
		Code:      500,
		Title:     "Internal Server Error",
		Message:   "Something went wrong.",
		RequestID: "req-1",
	}).Render(context.Background(), &b)
	require.NoError(t, err)

	out := b.String()
	assert.Contains(t, out, "<title>Internal Server Error | Mail portal</title>")
	assert.Contains(t, out, `<h1 class="display-5">500</h1>`)
	assert.Contains(t, out, "<code>req-1</code>")
}

func TestOptionValue(t *testing.T) {
	t.Parallel()

	assert.JSONEq(t, `{"id":"1","name":"Ann Lee","email":"ann@example.com"}`, views.OptionValue(users[0]))
}
