// Package ses sends mail through Amazon SES (API v2).
package ses

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
)

const (
	providerName = "ses"
	charset      = "UTF-8"
)

// Config selects the region and, optionally, static credentials. Without
// keys the default AWS credential chain is used.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SendEmailAPI is the subset of the SES client used by Sender.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender implements mailer.Sender.
type Sender struct {
	client SendEmailAPI
}

// New loads AWS configuration and creates an SES client.
func New(ctx context.Context, cfg Config) (*Sender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Join(errors.New("ses: failed to load aws config"), err)
	}

	return NewWithClient(sesv2.NewFromConfig(awsCfg)), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client SendEmailAPI) *Sender {
	return &Sender{client: client}
}

// Send submits one message addressed to every recipient.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := mailer.Validate(email); err != nil {
		return err
	}

	if _, err := s.client.SendEmail(ctx, buildInput(email)); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.ErrorMessage()
			if msg == "" {
				msg = apiErr.ErrorCode()
			}
			return mailer.NewProviderError(providerName, httpStatus(err), []string{msg}, err)
		}
		return errors.Join(mailer.ErrSendFailed, err)
	}

	return nil
}

func buildInput(email *mailer.Email) *sesv2.SendEmailInput {
	body := &types.Body{}
	if email.HTML != "" {
		body.Html = &types.Content{Data: aws.String(email.HTML), Charset: aws.String(charset)}
	}
	if email.Text != "" {
		body.Text = &types.Content{Data: aws.String(email.Text), Charset: aws.String(charset)}
	}

	msg := &types.Message{
		Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String(charset)},
		Body:    body,
	}
	for _, name := range slices.Sorted(maps.Keys(email.Headers)) {
		msg.Headers = append(msg.Headers, types.MessageHeader{
			Name:  aws.String(name),
			Value: aws.String(email.Headers[name]),
		})
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(email.From.String()),
		Destination:      &types.Destination{ToAddresses: mailer.Strings(email.To)},
		Content:          &types.EmailContent{Simple: msg},
	}
	if email.ReplyTo != "" {
		in.ReplyToAddresses = []string{email.ReplyTo}
	}
	for _, name := range slices.Sorted(maps.Keys(email.Tags)) {
		in.EmailTags = append(in.EmailTags, types.MessageTag{
			Name:  aws.String(name),
			Value: aws.String(email.Tags[name]),
		})
	}

	return in
}

// httpStatus digs the HTTP status out of an SDK error when one is attached.
func httpStatus(err error) int {
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		return withStatus.HTTPStatusCode()
	}
	return 0
}

var _ mailer.Sender = (*Sender)(nil)
