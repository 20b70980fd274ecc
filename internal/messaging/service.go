// Package messaging defines the chat-channel abstraction the rest of the
// system sends and receives through.
//
// A Service wraps one concrete transport (WhatsApp via whatsmeow, WhatsApp
// via Twilio) behind a uniform contract: canonicalize recipients, send text,
// and surface inbound messages on a channel.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
)

const (
	// DefaultChannelBufferSize is the buffer size for the responses channel.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout bounds non-blocking channel emits.
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned by SendMessage after Stop.
var ErrServiceStopped = errors.New("messaging service stopped")

var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// canonicalizePhone strips a recipient down to its digits and validates the
// result looks like a phone number. Both WhatsApp transports address
// recipients this way.
func canonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}
	return canonical, nil
}

// Service abstracts a chat transport.
type Service interface {
	// ValidateAndCanonicalizeRecipient normalizes a recipient identifier to
	// the transport's canonical form (e.g. a WhatsApp JID). It returns an
	// error for identifiers the transport cannot address.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a text message to the canonical recipient. Failures
	// carry a models.SendError classification where the transport can tell.
	SendMessage(ctx context.Context, to string, body string) error

	// Channel reports which notification channel this transport delivers on.
	Channel() models.NotificationChannel

	// Start begins receiving inbound messages. It returns once the transport
	// is connected; delivery continues until ctx is cancelled or Stop is
	// called.
	Start(ctx context.Context) error

	// Stop disconnects the transport.
	Stop() error

	// Responses returns the stream of inbound messages.
	Responses() <-chan models.IncomingMessage
}
