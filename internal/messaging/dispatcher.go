package messaging

import (
	"context"
	"log/slog"

	"github.com/mediqueue/MediQueue/internal/models"
)

// MessageHandler turns one inbound message into a reply. An empty reply
// means nothing is sent back.
type MessageHandler interface {
	Handle(msg models.IncomingMessage) string
}

// Dispatcher pumps inbound messages from a Service into a handler and sends
// the replies back out.
type Dispatcher struct {
	service Service
	handler MessageHandler
}

// NewDispatcher creates a dispatcher connecting the service to the handler.
func NewDispatcher(service Service, handler MessageHandler) *Dispatcher {
	return &Dispatcher{service: service, handler: handler}
}

// Run consumes the service's response stream until the context is cancelled
// or the stream closes. Each message is handled on its own goroutine; the
// session store serializes turns per channel.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("Dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopping: context cancelled")
			return
		case msg, ok := <-d.service.Responses():
			if !ok {
				slog.Info("Dispatcher stopping: response channel closed")
				return
			}
			go d.dispatch(ctx, msg)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg models.IncomingMessage) {
	reply := d.handler.Handle(msg)
	if reply == "" {
		return
	}
	if err := d.service.SendMessage(ctx, msg.ChannelID, reply); err != nil {
		slog.Error("Dispatcher failed to send reply",
			"to", msg.ChannelID, "kind", models.SendErrorKindOf(err), "error", err)
	}
}
