package msgraph

import (
	"maps"
	"slices"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
)

type sendMailRequest struct {
	Message         message `json:"message"`
	SaveToSentItems bool    `json:"saveToSentItems"`
}

type message struct {
	Subject      string        `json:"subject"`
	Body         itemBody      `json:"body"`
	ToRecipients []recipient   `json:"toRecipients"`
	ReplyTo      []recipient   `json:"replyTo,omitempty"`
	Headers      []headerValue `json:"internetMessageHeaders,omitempty"`
	Categories   []string      `json:"categories,omitempty"`
}

type itemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type headerValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func toRecipient(a mailer.Address) recipient {
	return recipient{EmailAddress: emailAddress{Address: a.Email, Name: a.Name}}
}

// buildRequest prefers the HTML body; Graph carries a single body part.
func buildRequest(email *mailer.Email) sendMailRequest {
	body := itemBody{ContentType: "html", Content: email.HTML}
	if email.HTML == "" {
		body = itemBody{ContentType: "text", Content: email.Text}
	}

	msg := message{
		Subject:      email.Subject,
		Body:         body,
		ToRecipients: make([]recipient, 0, len(email.To)),
	}
	for _, to := range email.To {
		msg.ToRecipients = append(msg.ToRecipients, toRecipient(to))
	}
	if email.ReplyTo != "" {
		msg.ReplyTo = []recipient{{EmailAddress: emailAddress{Address: email.ReplyTo}}}
	}
	// Graph only accepts custom headers prefixed with x-.
	for _, name := range sortedKeys(email.Headers) {
		msg.Headers = append(msg.Headers, headerValue{Name: name, Value: email.Headers[name]})
	}
	msg.Categories = sortedKeys(email.Tags)

	return sendMailRequest{Message: msg, SaveToSentItems: true}
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(m))
}
