package main

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/mailportal/internal/config"
	"github.com/dmitrymomot/mailportal/pkg/mailer"
	"github.com/dmitrymomot/mailportal/pkg/mailer/msgraph"
	"github.com/dmitrymomot/mailportal/pkg/mailer/resend"
	"github.com/dmitrymomot/mailportal/pkg/mailer/sendgrid"
	"github.com/dmitrymomot/mailportal/pkg/mailer/ses"
	"github.com/dmitrymomot/mailportal/pkg/mailer/stdout"
)

// newSender builds the sender for the configured provider.
func newSender(ctx context.Context, cfg config.Config) (mailer.Sender, error) {
	switch cfg.Mail.Provider {
	case config.ProviderResend:
		s, err := resend.New(resend.Config{APIKey: cfg.Resend.APIKey})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderSendGrid:
		s, err := sendgrid.New(sendgrid.Config{APIKey: cfg.SendGrid.APIKey, BaseURL: cfg.SendGrid.BaseURL})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderSES:
		s, err := ses.New(ctx, ses.Config{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderMSGraph:
		s, err := msgraph.New(msgraph.Config{
			TenantID:     cfg.MSGraph.TenantID,
			ClientID:     cfg.MSGraph.ClientID,
			ClientSecret: cfg.MSGraph.ClientSecret,
			Sender:       cfg.MSGraph.Sender,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderStdout, "":
		return stdout.New(), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}
