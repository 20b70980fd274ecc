// Package session provides the expiring per-channel conversation state store.
//
// It replaces ambient global session maps with an explicit TTL-bearing keyed
// store. All mutation for a given channel id is serialized, so two rapid
// messages from the same channel cannot race on the session's
// read-modify-write cycle.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
)

// DefaultJanitorInterval is how often expired sessions are swept out.
const DefaultJanitorInterval = 5 * time.Minute

type entry struct {
	mu       sync.Mutex // serializes dialog turns for this channel
	lastUnix atomic.Int64
	sess     models.ConversationSession
}

// Store is a TTL-keyed map of conversation sessions.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout overrides the session inactivity timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a session store with the default 30 minute timeout.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		timeout: models.SessionTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	slog.Debug("Session store created", "timeout", s.timeout)
	return s
}

// With runs fn against the live session for channelID, creating a fresh one
// if none exists or the previous one expired. Calls for the same channel id
// are serialized; calls for different channels proceed concurrently. When fn
// returns done=true the session is discarded (dialog completed or aborted).
func (s *Store) With(channelID string, fn func(sess *models.ConversationSession) (done bool)) {
	e := s.acquire(channelID)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if e.sess.ChannelID == "" || now.Sub(e.sess.LastActivityAt) > s.timeout {
		if e.sess.ChannelID != "" {
			slog.Debug("Session expired, starting fresh", "channelID", channelID, "idle", now.Sub(e.sess.LastActivityAt))
		}
		e.sess = models.ConversationSession{
			ChannelID:      channelID,
			Step:           models.StepLanguageSelect,
			Data:           make(map[models.DataKey]string),
			LastActivityAt: now,
		}
	}
	e.sess.LastActivityAt = now
	e.lastUnix.Store(now.UnixNano())

	// The janitor may have dropped this entry between acquire and lock.
	s.mu.Lock()
	if s.entries[channelID] != e {
		s.entries[channelID] = e
	}
	s.mu.Unlock()

	done := fn(&e.sess)

	if done {
		s.mu.Lock()
		if s.entries[channelID] == e {
			delete(s.entries, channelID)
		}
		s.mu.Unlock()
		slog.Debug("Session completed and removed", "channelID", channelID)
	}
}

// Peek returns a copy of the live, unexpired session for channelID.
func (s *Store) Peek(channelID string) (models.ConversationSession, bool) {
	s.mu.Lock()
	e, ok := s.entries[channelID]
	s.mu.Unlock()
	if !ok {
		return models.ConversationSession{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess.ChannelID == "" || s.now().Sub(e.sess.LastActivityAt) > s.timeout {
		return models.ConversationSession{}, false
	}
	return e.sess, true
}

// Len returns the number of tracked sessions, expired entries included until
// the next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes every expired session and reports how many were purged.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.timeout).UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, e := range s.entries {
		if e.lastUnix.Load() < cutoff {
			delete(s.entries, id)
			purged++
		}
	}
	if purged > 0 {
		slog.Debug("Session sweep purged expired sessions", "count", purged)
	}
	return purged
}

// StartJanitor launches a background sweep loop that runs until ctx is done.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Debug("Session janitor stopped")
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *Store) acquire(channelID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[channelID]
	if !ok {
		e = &entry{}
		e.lastUnix.Store(s.now().UnixNano())
		s.entries[channelID] = e
	}
	return e
}
