// Package views renders the portal's HTML pages with templ.
//
// Run `go tool templ generate` after editing a .templ file.
package views

import (
	"encoding/json"

	"github.com/dmitrymomot/mailportal/internal/requests"
	"github.com/dmitrymomot/mailportal/pkg/directory"
)

// MailingPageData feeds MailingPage.
type MailingPageData struct {
	Users       []directory.User
	Old         requests.OldInput
	DefaultFrom string
	Success     string
	Errors      []string
	Markdown    bool
}

// From is the sender to pre-fill: the previous input or the default.
func (d MailingPageData) From() string {
	if d.Old.From != "" {
		return d.Old.From
	}
	return d.DefaultFrom
}

// UserOption is one entry of the recipient select.
type UserOption struct {
	Value    string
	Label    string
	Selected bool
}

// Options renders the directory as select options. Each value is the JSON
// of the user so the form posts name and email together.
func (d MailingPageData) Options() []UserOption {
	out := make([]UserOption, 0, len(d.Users))
	for _, u := range d.Users {
		value := OptionValue(u)
		label := u.Email
		if u.Name != "" {
			label = u.Name + " - " + u.Email
		}
		out = append(out, UserOption{Value: value, Label: label, Selected: d.Old.Selected(u.ID)})
	}
	return out
}

// OptionValue is the users[] value posted for u.
func OptionValue(u directory.User) string {
	data, err := json.Marshal(struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}{u.ID, u.Name, u.Email})
	if err != nil {
		return ""
	}
	return string(data)
}

// ErrorPageData feeds ErrorPage.
type ErrorPageData struct {
	Code      int
	Title     string
	Message   string
	RequestID string
}
