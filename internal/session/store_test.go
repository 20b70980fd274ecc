package session

import (
	"testing"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
)

func TestWithCreatesFreshSession(t *testing.T) {
	s := NewStore()
	s.With("12345", func(sess *models.ConversationSession) bool {
		if sess.Step != models.StepLanguageSelect {
			t.Errorf("expected fresh session at language select, got %s", sess.Step)
		}
		if sess.ChannelID != "12345" {
			t.Errorf("expected channel id 12345, got %s", sess.ChannelID)
		}
		sess.Step = models.StepMenu
		return false
	})

	sess, ok := s.Peek("12345")
	if !ok {
		t.Fatal("expected session to persist")
	}
	if sess.Step != models.StepMenu {
		t.Errorf("expected step to persist, got %s", sess.Step)
	}
}

func TestWithDiscardsDoneSession(t *testing.T) {
	s := NewStore()
	s.With("12345", func(sess *models.ConversationSession) bool {
		return true
	})
	if _, ok := s.Peek("12345"); ok {
		t.Error("expected done session to be removed")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", s.Len())
	}
}

func TestExpiredSessionRestarts(t *testing.T) {
	current := time.Now()
	s := NewStore(WithClock(func() time.Time { return current }))

	s.With("12345", func(sess *models.ConversationSession) bool {
		sess.Step = models.StepSelectDate
		sess.Data[models.DataFullName] = "Aisha"
		return false
	})

	current = current.Add(models.SessionTimeout + time.Minute)

	s.With("12345", func(sess *models.ConversationSession) bool {
		if sess.Step != models.StepLanguageSelect {
			t.Errorf("expected expired session to restart, got step %s", sess.Step)
		}
		if len(sess.Data) != 0 {
			t.Errorf("expected stale data to be dropped, got %v", sess.Data)
		}
		return false
	})
}

func TestSessionSurvivesWithinTimeout(t *testing.T) {
	current := time.Now()
	s := NewStore(WithClock(func() time.Time { return current }))

	s.With("12345", func(sess *models.ConversationSession) bool {
		sess.Step = models.StepConfirmBooking
		return false
	})

	current = current.Add(models.SessionTimeout - time.Minute)

	s.With("12345", func(sess *models.ConversationSession) bool {
		if sess.Step != models.StepConfirmBooking {
			t.Errorf("expected session to survive, got step %s", sess.Step)
		}
		return false
	})
}

func TestSweepPurgesExpired(t *testing.T) {
	current := time.Now()
	s := NewStore(WithClock(func() time.Time { return current }))

	s.With("stale", func(sess *models.ConversationSession) bool { return false })
	current = current.Add(models.SessionTimeout + time.Minute)
	s.With("fresh", func(sess *models.ConversationSession) bool { return false })

	purged := s.Sweep()
	if purged != 1 {
		t.Errorf("expected 1 purged session, got %d", purged)
	}
	if _, ok := s.Peek("fresh"); !ok {
		t.Error("expected fresh session to survive sweep")
	}
	if _, ok := s.Peek("stale"); ok {
		t.Error("expected stale session to be gone")
	}
}

func TestCustomTimeout(t *testing.T) {
	current := time.Now()
	s := NewStore(WithTimeout(time.Minute), WithClock(func() time.Time { return current }))

	s.With("12345", func(sess *models.ConversationSession) bool {
		sess.Step = models.StepMenu
		return false
	})
	current = current.Add(2 * time.Minute)

	s.With("12345", func(sess *models.ConversationSession) bool {
		if sess.Step != models.StepLanguageSelect {
			t.Errorf("expected restart after custom timeout, got %s", sess.Step)
		}
		return false
	})
}
