package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/twiliowhatsapp"
)

func postWebhook(t *testing.T, svc *TwilioService, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	svc.WebhookHandler(w, req)
	return w
}

func TestWebhookEmitsIncomingMessage(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	w := postWebhook(t, svc, url.Values{
		"From":        {"whatsapp:+962790000001"},
		"Body":        {"hello"},
		"ProfileName": {"Aisha"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	select {
	case msg := <-svc.Responses():
		if msg.ChannelID != "962790000001" {
			t.Errorf("expected canonical channel id, got %q", msg.ChannelID)
		}
		if msg.Text != "hello" || msg.DisplayName != "Aisha" {
			t.Errorf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a message on the responses channel")
	}
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	w := postWebhook(t, svc, url.Values{"From": {"whatsapp:+962790000001"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing body, got %d", w.Code)
	}

	w = postWebhook(t, svc, url.Values{"Body": {"hello"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing sender, got %d", w.Code)
	}

	w = postWebhook(t, svc, url.Values{"From": {"not-a-number"}, "Body": {"hello"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid sender, got %d", w.Code)
	}
}

func TestTwilioSendMessage(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	svc := NewTwilioService(mock)

	if err := svc.SendMessage(context.Background(), "+962 79 000 0001", "test body"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected 1 send, got %d", len(mock.SentMessages))
	}
	if mock.SentMessages[0].To != "962790000001" {
		t.Errorf("expected canonical recipient, got %q", mock.SentMessages[0].To)
	}
}

func TestTwilioSendMessageInvalidRecipient(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	err := svc.SendMessage(context.Background(), "garbage", "test")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if kind := models.SendErrorKindOf(err); kind != models.SendErrorRecipientNotFound {
		t.Errorf("expected recipient_not_found, got %s", kind)
	}
}

func TestTwilioStop(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "962790000001", "late"); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}

	// The responses channel closes shortly after Stop.
	select {
	case _, ok := <-svc.Responses():
		if ok {
			t.Error("expected closed responses channel")
		}
	case <-time.After(time.Second):
		t.Error("expected responses channel to close")
	}
}

func TestTwilioChannel(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	if svc.Channel() != models.ChannelWhatsApp {
		t.Errorf("expected whatsapp channel, got %s", svc.Channel())
	}
}
