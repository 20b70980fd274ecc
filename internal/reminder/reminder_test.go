package reminder

import (
	"errors"
	"testing"
	"time"

	"github.com/mediqueue/MediQueue/internal/i18n"
	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/scheduler"
	"github.com/mediqueue/MediQueue/internal/store"
)

var fixedNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

type fakeSender struct {
	reminders  []models.Appointment
	types      []models.NotificationType
	milestones []i18n.Key
	weeks      []int
	err        error
}

func (f *fakeSender) SendReminder(appt models.Appointment, t models.NotificationType) error {
	if f.err != nil {
		return f.err
	}
	f.reminders = append(f.reminders, appt)
	f.types = append(f.types, t)
	return nil
}

func (f *fakeSender) SendMilestone(patient models.Patient, key i18n.Key, weeks int) error {
	if f.err != nil {
		return f.err
	}
	f.milestones = append(f.milestones, key)
	f.weeks = append(f.weeks, weeks)
	return nil
}

func newTestService(t *testing.T) (*Service, *store.InMemoryStore, *fakeSender) {
	t.Helper()
	st := store.NewInMemoryStore()
	sender := &fakeSender{}
	svc := NewService(st, sender, time.UTC, WithClock(func() time.Time { return fixedNow }))
	return svc, st, sender
}

func addAppointment(t *testing.T, st *store.InMemoryStore, date, slot string, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	appt, err := st.CreateAppointment(models.Appointment{
		PatientID: "p1", VisitType: models.VisitTypeGeneralGyne,
		Date: date, TimeSlot: slot, QueueNumber: 1, Status: status,
	})
	if err != nil {
		t.Fatalf("failed to create appointment: %v", err)
	}
	return appt
}

func TestSweepWindow24H(t *testing.T) {
	svc, st, sender := newTestService(t)
	// 24.5 hours out: inside [24, 25).
	inside := addAppointment(t, st, "2026-09-02", "08:30", models.StatusBooked)
	// 26 hours out: outside.
	addAppointment(t, st, "2026-09-02", "10:00", models.StatusBooked)
	// Exactly 25 hours out: window is half-open, excluded.
	addAppointment(t, st, "2026-09-02", "09:00", models.StatusConfirmed)

	svc.SweepWindow(models.NotificationReminder24H)

	if len(sender.reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(sender.reminders))
	}
	if sender.reminders[0].ID != inside.ID {
		t.Errorf("expected appointment %s, got %s", inside.ID, sender.reminders[0].ID)
	}
	if sender.types[0] != models.NotificationReminder24H {
		t.Errorf("expected 24h type, got %s", sender.types[0])
	}
}

func TestSweepWindow1H(t *testing.T) {
	svc, st, sender := newTestService(t)
	inside := addAppointment(t, st, "2026-09-01", "09:30", models.StatusBooked) // 1.5h out
	addAppointment(t, st, "2026-09-01", "10:30", models.StatusBooked)          // 2.5h out
	addAppointment(t, st, "2026-09-01", "08:45", models.StatusBooked)          // 0.75h out

	svc.SweepWindow(models.NotificationReminder1H)

	if len(sender.reminders) != 1 || sender.reminders[0].ID != inside.ID {
		t.Fatalf("expected only the 1.5h-out appointment, got %v", sender.reminders)
	}
}

func TestSweepWindow30M(t *testing.T) {
	svc, st, sender := newTestService(t)
	inside := addAppointment(t, st, "2026-09-01", "08:30", models.StatusBooked) // 0.5h out
	addAppointment(t, st, "2026-09-01", "09:00", models.StatusBooked)          // 1.0h out, excluded
	addAppointment(t, st, "2026-09-01", "08:15", models.StatusBooked)          // 0.25h out

	svc.SweepWindow(models.NotificationReminder30M)

	if len(sender.reminders) != 1 || sender.reminders[0].ID != inside.ID {
		t.Fatalf("expected only the 30-minutes-out appointment, got %v", sender.reminders)
	}
}

func TestSweepWindowSkipsNonRemindable(t *testing.T) {
	svc, st, sender := newTestService(t)
	addAppointment(t, st, "2026-09-01", "09:30", models.StatusCancelled)
	addAppointment(t, st, "2026-09-01", "09:30", models.StatusArrived)
	addAppointment(t, st, "2026-09-01", "09:30", models.StatusFinished)

	svc.SweepWindow(models.NotificationReminder1H)

	if len(sender.reminders) != 0 {
		t.Errorf("expected no reminders, got %d", len(sender.reminders))
	}
}

func TestSweepWindowSkipsAlreadySent(t *testing.T) {
	svc, st, sender := newTestService(t)
	appt := addAppointment(t, st, "2026-09-01", "09:30", models.StatusBooked)

	now := time.Now()
	if _, err := st.LogNotification(models.NotificationLog{
		PatientID: "p1", AppointmentID: appt.ID,
		Type: models.NotificationReminder1H, Channel: models.ChannelWhatsApp,
		Status: models.NotificationSent, SentAt: &now,
	}); err != nil {
		t.Fatalf("failed to pre-log: %v", err)
	}

	svc.SweepWindow(models.NotificationReminder1H)

	if len(sender.reminders) != 0 {
		t.Errorf("expected already-sent reminder to be skipped, got %d sends", len(sender.reminders))
	}
}

func TestSweepWindowContinuesAfterSendError(t *testing.T) {
	svc, st, sender := newTestService(t)
	addAppointment(t, st, "2026-09-01", "09:30", models.StatusBooked)
	sender.err = errors.New("transport down")

	svc.SweepWindow(models.NotificationReminder1H)

	// The failure is logged, not fatal; a later sweep can retry because no
	// SENT record exists.
	sender.err = nil
	svc.SweepWindow(models.NotificationReminder1H)
	if len(sender.reminders) != 1 {
		t.Errorf("expected retry on the next sweep, got %d sends", len(sender.reminders))
	}
}

func TestMilestoneFor(t *testing.T) {
	cases := map[int]i18n.Key{
		11: i18n.KeyMilestone12W,
		12: i18n.KeyMilestone12W,
		13: i18n.KeyMilestone12W,
		19: i18n.KeyMilestone20W,
		23: i18n.KeyMilestone20W,
		27: i18n.KeyMilestone28W,
		29: i18n.KeyMilestone28W,
	}
	for weeks, want := range cases {
		got, ok := milestoneFor(weeks)
		if !ok || got != want {
			t.Errorf("milestoneFor(%d) = %q, %v; want %q", weeks, got, ok, want)
		}
	}
	for _, weeks := range []int{0, 10, 14, 18, 24, 26, 30, 40} {
		if key, ok := milestoneFor(weeks); ok {
			t.Errorf("milestoneFor(%d) = %q, expected no milestone", weeks, key)
		}
	}
}

func TestSweepMilestones(t *testing.T) {
	svc, st, sender := newTestService(t)
	p, _ := st.CreatePatient(models.Patient{FullName: "Aisha", ChannelID: "962790000001"})
	// 84 days before fixedNow: exactly 12 weeks.
	st.UpsertCurrentPregnancy(models.Pregnancy{PatientID: p.ID, LMPDate: "2026-06-09"})

	svc.SweepMilestones()

	if len(sender.milestones) != 1 {
		t.Fatalf("expected 1 milestone, got %d", len(sender.milestones))
	}
	if sender.milestones[0] != i18n.KeyMilestone12W || sender.weeks[0] != 12 {
		t.Errorf("expected 12-week milestone, got %s at %d weeks", sender.milestones[0], sender.weeks[0])
	}
}

func TestSweepMilestonesOutsideWindows(t *testing.T) {
	svc, st, sender := newTestService(t)
	p, _ := st.CreatePatient(models.Patient{FullName: "Aisha", ChannelID: "962790000001"})
	// 112 days before fixedNow: 16 weeks, between milestone windows.
	st.UpsertCurrentPregnancy(models.Pregnancy{PatientID: p.ID, LMPDate: "2026-05-12"})

	svc.SweepMilestones()

	if len(sender.milestones) != 0 {
		t.Errorf("expected no milestone at 16 weeks, got %v", sender.milestones)
	}
}

func TestRegisterAddsAllSweeps(t *testing.T) {
	svc, _, _ := newTestService(t)
	sched := scheduler.NewScheduler()
	if err := svc.Register(sched); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}
