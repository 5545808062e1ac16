// Package requests holds the form types posted by the portal's pages.
package requests

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
	"github.com/dmitrymomot/mailportal/pkg/validator"
)

// Bounds of the old-input flash. Encrypted and base64 encoded, an
// input of maxOldInput bytes stays well under cookie.MaxSize.
const (
	maxOldBody  = 1 << 10
	maxOldField = 256
	maxOldInput = 2800
)

// SendMailRequest is the POST /sendmail form.
type SendMailRequest struct {
	From    string   `form:"from" label:"Sender" validate:"required,email"`
	Users   []string `form:"users[]" label:"Recipients" validate:"required,min=1,dive,required"`
	Subject string   `form:"subject" label:"Subject" validate:"required"`
	Body    string   `form:"body" label:"Body" validate:"required"`
}

// recipient is the JSON rendered into each option of the recipient select.
type recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Recipients decodes every users[] value into an address. Problems are
// reported per entry so the form can show all of them at once.
func (r *SendMailRequest) Recipients() ([]mailer.Address, validator.ValidationErrors) {
	var (
		out  = make([]mailer.Address, 0, len(r.Users))
		errs validator.ValidationErrors
	)

	for i, raw := range r.Users {
		field := fmt.Sprintf("users[][%d]", i)

		var rc recipient
		if err := json.Unmarshal([]byte(raw), &rc); err != nil {
			errs.Add(field, fmt.Sprintf("Recipients[%d] is not a valid user", i))
			continue
		}

		email := strings.TrimSpace(rc.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			errs.Add(field, fmt.Sprintf("Recipients[%d] has an invalid email address", i))
			continue
		}

		out = append(out, mailer.Address{Name: strings.TrimSpace(rc.Name), Email: email})
	}

	if !errs.IsEmpty() {
		return nil, errs
	}
	return out, nil
}

// OldInput is the form state replayed after a failed submission. Users
// holds the ids of the picked recipients.
type OldInput struct {
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Users   []string `json:"users,omitempty"`
}

// Old returns the state to replay, bounded to fit in a flash cookie: a body
// over maxOldBody is dropped, then the body and the recipients go when the
// encoded input is still over maxOldInput, and the subject last.
func (r *SendMailRequest) Old() OldInput {
	old := OldInput{
		From:    truncateInput(r.From),
		Subject: truncateInput(r.Subject),
		Body:    r.Body,
		Users:   r.userIDs(),
	}
	if len(old.Body) > maxOldBody {
		old.Body = ""
	}
	if old.size() > maxOldInput {
		old.Body = ""
	}
	if old.size() > maxOldInput {
		old.Users = nil
	}
	if old.size() > maxOldInput {
		old.Subject = ""
	}
	return old
}

// Selected reports whether the user with id was picked.
func (o OldInput) Selected(id string) bool {
	return id != "" && slices.Contains(o.Users, id)
}

func (o OldInput) size() int {
	data, err := json.Marshal(o)
	if err != nil {
		return 0
	}
	return len(data)
}

// userIDs returns the ids of the decodable users[] values.
func (r *SendMailRequest) userIDs() []string {
	ids := make([]string, 0, len(r.Users))
	for _, raw := range r.Users {
		var rc recipient
		if err := json.Unmarshal([]byte(raw), &rc); err != nil || rc.ID == "" {
			continue
		}
		ids = append(ids, rc.ID)
	}
	return ids
}

func truncateInput(s string) string {
	if len(s) <= maxOldField {
		return s
	}
	cut := maxOldField
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
