package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
)

type scriptedService struct {
	responses chan models.IncomingMessage

	mu   sync.Mutex
	sent []sentReply
}

type sentReply struct {
	to   string
	body string
}

func newScriptedService() *scriptedService {
	return &scriptedService{responses: make(chan models.IncomingMessage, 10)}
}

func (s *scriptedService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return recipient, nil
}

func (s *scriptedService) SendMessage(ctx context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentReply{to: to, body: body})
	return nil
}

func (s *scriptedService) Channel() models.NotificationChannel { return models.ChannelWhatsApp }
func (s *scriptedService) Start(ctx context.Context) error     { return nil }
func (s *scriptedService) Stop() error                         { return nil }

func (s *scriptedService) Responses() <-chan models.IncomingMessage { return s.responses }

func (s *scriptedService) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type echoHandler struct{}

func (echoHandler) Handle(msg models.IncomingMessage) string {
	if msg.Text == "silence" {
		return ""
	}
	return "echo: " + msg.Text
}

func TestDispatcherSendsReplies(t *testing.T) {
	svc := newScriptedService()
	d := NewDispatcher(svc, echoHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	svc.responses <- models.IncomingMessage{ChannelID: "962790000001", Text: "hi"}

	deadline := time.After(2 * time.Second)
	for svc.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected a reply to be sent")
		case <-time.After(10 * time.Millisecond):
		}
	}

	svc.mu.Lock()
	reply := svc.sent[0]
	svc.mu.Unlock()
	if reply.to != "962790000001" || reply.body != "echo: hi" {
		t.Errorf("unexpected reply: %+v", reply)
	}

	close(svc.responses)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected dispatcher to stop when the stream closes")
	}
}

func TestDispatcherSkipsEmptyReplies(t *testing.T) {
	svc := newScriptedService()
	d := NewDispatcher(svc, echoHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	svc.responses <- models.IncomingMessage{ChannelID: "962790000001", Text: "silence"}
	svc.responses <- models.IncomingMessage{ChannelID: "962790000001", Text: "hello"}

	deadline := time.After(2 * time.Second)
	for svc.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected the non-empty reply to be sent")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if n := svc.sentCount(); n != 1 {
		t.Errorf("expected exactly 1 reply, got %d", n)
	}
}

func TestDispatcherStopsOnContextCancel(t *testing.T) {
	svc := newScriptedService()
	d := NewDispatcher(svc, echoHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected dispatcher to stop on cancel")
	}
}
