package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Credentials identify the Twilio account and the two phone numbers. They
// come from the environment and are never compiled in.
type Credentials struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// Complete reports whether every field is set.
func (c Credentials) Complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != "" && c.To != ""
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier sends alerts as SMS through the Twilio REST API.
type TwilioNotifier struct {
	api    messageCreator
	from   string
	to     string
	logger *slog.Logger
}

// NewTwilioNotifier builds a notifier from complete credentials.
func NewTwilioNotifier(creds Credentials, logger *slog.Logger) (*TwilioNotifier, error) {
	if !creds.Complete() {
		return nil, errors.New("twilio credentials are incomplete")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: creds.AccountSID,
		Password: creds.AuthToken,
	})

	return &TwilioNotifier{
		api:    client.Api,
		from:   creds.From,
		to:     creds.To,
		logger: logger,
	}, nil
}

// Send delivers message as a single SMS.
func (n *TwilioNotifier) Send(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(message)

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	n.logger.InfoContext(ctx, "SMS alert sent", slog.String("sid", sid), slog.String("to", n.to))
	return nil
}
