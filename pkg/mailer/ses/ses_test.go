package ses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
	"github.com/dmitrymomot/mailportal/pkg/mailer/ses"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sesv2.SendEmailOutput)
	return out, args.Error(1)
}

func testEmail() *mailer.Email {
	return &mailer.Email{
		From:    mailer.Address{Name: "Ops", Email: "ops@example.com"},
		To:      []mailer.Address{{Name: "Ann", Email: "ann@example.com"}, {Email: "bob@example.com"}},
		ReplyTo: "support@example.com",
		Subject: "Maintenance",
		HTML:    "<p>Tonight</p>",
		Text:    "Tonight",
		Headers: map[string]string{"X-Portal": "1"},
		Tags:    map[string]string{"source": "portal"},
	}
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("builds a simple message", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *sesv2.SendEmailInput) bool {
			simple := in.Content.Simple
			return aws.ToString(in.FromEmailAddress) == `"Ops" <ops@example.com>` &&
				assert.ObjectsAreEqual([]string{`"Ann" <ann@example.com>`, "bob@example.com"}, in.Destination.ToAddresses) &&
				assert.ObjectsAreEqual([]string{"support@example.com"}, in.ReplyToAddresses) &&
				aws.ToString(simple.Subject.Data) == "Maintenance" &&
				aws.ToString(simple.Body.Html.Data) == "<p>Tonight</p>" &&
				aws.ToString(simple.Body.Text.Data) == "Tonight" &&
				aws.ToString(simple.Body.Html.Charset) == "UTF-8" &&
				len(simple.Headers) == 1 && aws.ToString(simple.Headers[0].Name) == "X-Portal" &&
				len(in.EmailTags) == 1 && aws.ToString(in.EmailTags[0].Value) == "portal"
		})).Return(&sesv2.SendEmailOutput{MessageId: aws.String("id-1")}, nil).Once()

		require.NoError(t, ses.NewWithClient(client).Send(context.Background(), testEmail()))
		client.AssertExpectations(t)
	})

	t.Run("api error is relayed", func(t *testing.T) {
		t.Parallel()

		apiErr := &smithy.GenericAPIError{
			Code:    "MessageRejected",
			Message: "Email address is not verified. The following identities failed the check: ops@example.com",
		}
		client := &mockClient{}
		client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

		err := ses.NewWithClient(client).Send(context.Background(), testEmail())
		pe, ok := mailer.AsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, "ses", pe.Provider)
		assert.Equal(t, []string{apiErr.Message}, pe.Messages)
		require.ErrorIs(t, err, apiErr)
	})

	t.Run("api error without message uses code", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		client.On("SendEmail", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccountSendingPausedException"}).Once()

		err := ses.NewWithClient(client).Send(context.Background(), testEmail())
		pe, ok := mailer.AsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, []string{"AccountSendingPausedException"}, pe.Messages)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout")).Once()

		err := ses.NewWithClient(client).Send(context.Background(), testEmail())
		require.ErrorIs(t, err, mailer.ErrSendFailed)
	})

	t.Run("invalid email is not submitted", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		e := testEmail()
		e.From = mailer.Address{}

		require.ErrorIs(t, ses.NewWithClient(client).Send(context.Background(), e), mailer.ErrNoSender)
		client.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})
}
