// Package twiliowhatsapp wraps the Twilio REST API for WhatsApp delivery in
// MediQueue.
package twiliowhatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/mediqueue/MediQueue/internal/models"
)

// Sender is the message-sending surface of the Twilio client, split out so
// tests can substitute a mock.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the Twilio WhatsApp client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// Option defines a configuration option for the Twilio WhatsApp client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromWhats sets the sending WhatsApp number, in
// "whatsapp:+1234567890" format.
func WithFromWhats(from string) Option {
	return func(o *Opts) { o.FromWhats = from }
}

// Client wraps the Twilio REST API for WhatsApp.
type Client struct {
	client    *twilio.RestClient
	fromWhats string
}

// NewClient creates a Twilio WhatsApp client, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables for unset options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromWhats_set", cfg.FromWhats != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	client := twilio.NewRestClientWithParams(
		twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		},
	)

	return &Client{
		client:    client,
		fromWhats: cfg.FromWhats,
	}, nil
}

// SendMessage sends a WhatsApp message using the Twilio API.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + to)
	params.SetFrom(c.fromWhats)
	params.SetBody(body)

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio SendMessage failed", "to", to, "error", err)
		return models.NewSendError(classifyTwilioError(err), fmt.Errorf("failed to send message to %s: %w", to, err))
	}

	slog.Debug("Twilio message sent", "to", to)
	return nil
}

// classifyTwilioError maps Twilio REST error codes onto the shared send
// error classification.
func classifyTwilioError(err error) models.SendErrorKind {
	var restErr *twilioclient.TwilioRestError
	if !errors.As(err, &restErr) {
		return models.SendErrorOther
	}
	switch restErr.Code {
	case 21211, 21614, 63024: // invalid or unreachable 'To' number
		return models.SendErrorRecipientNotFound
	case 21610: // recipient has opted out
		return models.SendErrorBlocked
	case 20429, 63017: // API or WhatsApp rate limit
		return models.SendErrorRateLimited
	default:
		return models.SendErrorOther
	}
}

// MockClient implements Sender without calling Twilio, recording every send.
type MockClient struct {
	mu           sync.Mutex
	SentMessages []MockMessage
	Err          error // returned from SendMessage when set
}

// MockMessage is one recorded send.
type MockMessage struct {
	To   string
	Body string
}

// NewMockClient creates a mock Twilio sender for tests.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// SendMessage records the message and returns the configured error, if any.
func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.SentMessages = append(m.SentMessages, MockMessage{To: to, Body: body})
	return nil
}
