// Package api provides the front-desk HTTP server and the top-level wiring
// that boots MediQueue.
//
// It exposes RESTful endpoints for the day's queue, appointment status
// transitions and patient lookups, and hosts the Twilio inbound webhook when
// that transport is selected.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediqueue/MediQueue/internal/dialog"
	"github.com/mediqueue/MediQueue/internal/i18n"
	"github.com/mediqueue/MediQueue/internal/messaging"
	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/notify"
	"github.com/mediqueue/MediQueue/internal/queue"
	"github.com/mediqueue/MediQueue/internal/reminder"
	"github.com/mediqueue/MediQueue/internal/scheduler"
	"github.com/mediqueue/MediQueue/internal/scheduling"
	"github.com/mediqueue/MediQueue/internal/session"
	"github.com/mediqueue/MediQueue/internal/store"
	"github.com/mediqueue/MediQueue/internal/twiliowhatsapp"
	"github.com/mediqueue/MediQueue/internal/util"
	"github.com/mediqueue/MediQueue/internal/whatsapp"
)

const (
	// DefaultAddr is the default listen address for the front-desk API.
	DefaultAddr = ":8080"
	// notificationHistoryLimit caps the notification history endpoint.
	notificationHistoryLimit = 50

	// Transport names accepted by WithTransport.
	TransportWhatsmeow = "whatsmeow"
	TransportTwilio    = "twilio"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr      string
	Transport string
	Timezone  string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTransport selects the WhatsApp transport ("whatsmeow" or "twilio").
func WithTransport(transport string) Option {
	return func(o *Opts) { o.Transport = transport }
}

// WithTimezone sets the clinic timezone name (IANA, e.g. "Asia/Amman").
func WithTimezone(tz string) Option {
	return func(o *Opts) { o.Timezone = tz }
}

// Server is the front-desk HTTP API.
type Server struct {
	store      store.Store
	scheduling *scheduling.Service
	queue      *queue.Orchestrator
	notifier   *notify.Notifier
	twilio     *messaging.TwilioService // non-nil only on the twilio transport
}

// NewServer creates the front-desk API server.
func NewServer(st store.Store, sched *scheduling.Service, q *queue.Orchestrator, n *notify.Notifier, twilio *messaging.TwilioService) *Server {
	return &Server{store: st, scheduling: sched, queue: q, notifier: n, twilio: twilio}
}

// Routes returns the HTTP handler with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /queue", s.handleQueue)
	mux.HandleFunc("GET /waiting-room", s.handleWaitingRoom)
	mux.HandleFunc("POST /queue/notify", s.handleNotifyQueue)
	mux.HandleFunc("GET /appointments/{id}", s.handleGetAppointment)
	mux.HandleFunc("POST /appointments/{id}/arrive", s.handleArrive)
	mux.HandleFunc("POST /appointments/{id}/start", s.handleStart)
	mux.HandleFunc("POST /appointments/{id}/finish", s.handleFinish)
	mux.HandleFunc("POST /appointments/{id}/no-show", s.handleNoShow)
	mux.HandleFunc("POST /appointments/{id}/cancel", s.handleCancel)
	mux.HandleFunc("GET /patients", s.handleListPatients)
	mux.HandleFunc("GET /patients/{id}/appointments", s.handlePatientAppointments)
	mux.HandleFunc("GET /patients/{id}/notifications", s.handleNotificationHistory)
	if s.twilio != nil {
		mux.HandleFunc("POST /twilio/webhook", s.twilio.WebhookHandler)
	}
	return mux
}

// Run boots the whole service: storage, messaging transport, dialog engine,
// reminder sweeps and the front-desk API. It blocks until SIGINT/SIGTERM.
func Run(storeOpts []store.Option, waOpts []whatsapp.Option, twilioOpts []twiliowhatsapp.Option, apiOpts []Option) error {
	cfg := Opts{Addr: DefaultAddr, Transport: TransportWhatsmeow}
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	st, err := buildStore(storeOpts)
	if err != nil {
		return err
	}
	defer st.Close()

	msgService, err := buildTransport(cfg.Transport, waOpts, twilioOpts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	translator := i18n.NewCatalog()
	notifier := notify.NewNotifier(st, translator, msgService)
	schedSvc := scheduling.NewService(st, scheduling.WithLocation(loc))
	queueOrch := queue.NewOrchestrator(st, schedSvc, notifier)

	sessions := session.NewStore(
		session.WithTimeout(util.ParseDurationEnv("SESSION_TIMEOUT", models.SessionTimeout)))
	sessions.StartJanitor(ctx, session.DefaultJanitorInterval)

	engine := dialog.NewEngine(sessions, st, schedSvc, queueOrch, translator,
		dialog.WithRecorder(notifier))

	if err := msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer msgService.Stop()

	dispatcher := messaging.NewDispatcher(msgService, engine)
	go dispatcher.Run(ctx)

	cronSched := scheduler.NewScheduler()
	reminders := reminder.NewService(st, notifier, loc)
	if err := reminders.Register(cronSched); err != nil {
		return err
	}
	cronSched.Start()
	defer cronSched.Stop()

	var twilioSvc *messaging.TwilioService
	if t, ok := msgService.(*messaging.TwilioService); ok {
		twilioSvc = t
	}
	server := NewServer(st, schedSvc, queueOrch, notifier, twilioSvc)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.Routes()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("MediQueue API listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("Shutting down on signal", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	return nil
}

// buildStore opens the configured storage backend, defaulting to in-memory
// when no DSN is set.
func buildStore(opts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("No database DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Info("Using PostgreSQL store")
		return store.NewPostgresStore(opts...)
	}
	slog.Info("Using SQLite store", "path", cfg.DSN)
	return store.NewSQLiteStore(opts...)
}

// buildTransport constructs the selected WhatsApp transport.
func buildTransport(transport string, waOpts []whatsapp.Option, twilioOpts []twiliowhatsapp.Option) (messaging.Service, error) {
	switch transport {
	case TransportTwilio:
		client, err := twiliowhatsapp.NewClient(twilioOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		slog.Info("Messaging transport: Twilio WhatsApp")
		return messaging.NewTwilioService(client), nil
	case TransportWhatsmeow, "":
		client, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		slog.Info("Messaging transport: whatsmeow")
		return messaging.NewWhatsAppService(client), nil
	default:
		return nil, fmt.Errorf("unknown messaging transport %q", transport)
	}
}
