// Package reminder runs the periodic sweeps that send appointment reminders
// and pregnancy milestone nudges.
//
// Each sweep scans upcoming appointments and fires the reminder whose
// time-until window the appointment currently falls in. Windows are
// half-open, and the notification log's dedup key guarantees at-most-once
// delivery per (appointment, reminder type) even when windows and sweep
// intervals overlap.
package reminder

import (
	"log/slog"
	"time"

	"github.com/mediqueue/MediQueue/internal/i18n"
	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/notify"
	"github.com/mediqueue/MediQueue/internal/scheduler"
	"github.com/mediqueue/MediQueue/internal/store"
)

// Cron specs for the sweeps.
const (
	SpecDayBefore  = "0 * * * *"    // hourly
	SpecHourBefore = "*/15 * * * *" // every 15 minutes
	SpecHalfHour   = "*/5 * * * *"  // every 5 minutes
	SpecMilestones = "0 9 * * *"    // daily at 09:00
)

// Sender delivers reminder and milestone notifications.
type Sender interface {
	SendReminder(appt models.Appointment, t models.NotificationType) error
	SendMilestone(patient models.Patient, key i18n.Key, weeks int) error
}

var _ Sender = (*notify.Notifier)(nil)

// reminderWindow is a half-open [From, To) hours-until-appointment range.
type reminderWindow struct {
	Type     models.NotificationType
	From, To float64
}

var windows = []reminderWindow{
	{models.NotificationReminder24H, 24, 25},
	{models.NotificationReminder1H, 1, 2},
	{models.NotificationReminder30M, 0.5, 1},
}

// Service owns the reminder sweeps.
type Service struct {
	store  store.Store
	sender Sender
	loc    *time.Location
	now    func() time.Time
}

// Option configures the reminder service.
type Option func(*Service)

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the reminder service. loc is the clinic timezone
// appointment times are interpreted in.
func NewService(st store.Store, sender Sender, loc *time.Location, opts ...Option) *Service {
	s := &Service{store: st, sender: sender, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register wires all four sweeps into the scheduler.
func (s *Service) Register(sched *scheduler.Scheduler) error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"reminder-24h", SpecDayBefore, func() { s.SweepWindow(models.NotificationReminder24H) }},
		{"reminder-1h", SpecHourBefore, func() { s.SweepWindow(models.NotificationReminder1H) }},
		{"reminder-30m", SpecHalfHour, func() { s.SweepWindow(models.NotificationReminder30M) }},
		{"pregnancy-milestones", SpecMilestones, s.SweepMilestones},
	}
	for _, j := range jobs {
		if err := sched.AddJob(j.name, j.spec, j.fn); err != nil {
			return err
		}
	}
	return nil
}

// remindable reports whether the appointment still warrants reminders.
func remindable(a models.Appointment) bool {
	return a.Status == models.StatusBooked || a.Status == models.StatusConfirmed
}

// SweepWindow sends the given reminder to every live appointment currently
// inside that reminder's hours-until window. Already-sent pairs are skipped.
func (s *Service) SweepWindow(t models.NotificationType) {
	var win reminderWindow
	found := false
	for _, w := range windows {
		if w.Type == t {
			win, found = w, true
			break
		}
	}
	if !found {
		slog.Error("Unknown reminder window", "type", t)
		return
	}

	now := s.now().In(s.loc)
	sent, checked := 0, 0
	// The widest window is 25 hours out, so today and tomorrow cover it.
	for dayOffset := 0; dayOffset <= 1; dayOffset++ {
		date := now.AddDate(0, 0, dayOffset).Format(models.DateLayout)
		appts, err := s.store.FindAppointmentsByDate(date)
		if err != nil {
			slog.Error("Reminder sweep failed to load appointments", "date", date, "error", err)
			continue
		}
		for _, appt := range appts {
			if !remindable(appt) {
				continue
			}
			start, err := appt.StartTime(s.loc)
			if err != nil {
				slog.Error("Skipping appointment with unparseable time", "appointment_id", appt.ID, "error", err)
				continue
			}
			hoursUntil := start.Sub(now).Hours()
			if hoursUntil < win.From || hoursUntil >= win.To {
				continue
			}
			checked++
			already, err := s.store.HasSentNotification(appt.ID, t)
			if err != nil {
				slog.Error("Reminder dedup check failed", "appointment_id", appt.ID, "error", err)
				continue
			}
			if already {
				continue
			}
			if err := s.sender.SendReminder(appt, t); err != nil {
				slog.Error("Reminder send failed", "appointment_id", appt.ID, "type", t, "error", err)
				continue
			}
			sent++
		}
	}
	slog.Debug("Reminder sweep complete", "type", t, "in_window", checked, "sent", sent)
}

// SweepMilestones sends gestational milestone reminders for every current
// pregnancy whose week count falls in a milestone window. Each milestone
// template goes out at most once per patient.
func (s *Service) SweepMilestones() {
	pregnancies, err := s.store.ListCurrentPregnancies()
	if err != nil {
		slog.Error("Milestone sweep failed to list pregnancies", "error", err)
		return
	}
	now := s.now().In(s.loc)
	sent := 0
	for _, preg := range pregnancies {
		weeks, err := preg.GestationWeeksAt(now)
		if err != nil {
			slog.Error("Skipping pregnancy with invalid LMP", "pregnancy_id", preg.ID, "error", err)
			continue
		}
		key, ok := milestoneFor(weeks)
		if !ok {
			continue
		}
		patient, err := s.store.GetPatient(preg.PatientID)
		if err != nil || patient == nil {
			slog.Error("Milestone patient lookup failed", "patient_id", preg.PatientID, "error", err)
			continue
		}
		if err := s.sender.SendMilestone(*patient, key, weeks); err != nil {
			slog.Error("Milestone send failed", "patient_id", patient.ID, "template", key, "error", err)
			continue
		}
		sent++
	}
	slog.Debug("Milestone sweep complete", "pregnancies", len(pregnancies), "sent", sent)
}

// milestoneFor maps a gestational week count onto its milestone template.
func milestoneFor(weeks int) (i18n.Key, bool) {
	for key, win := range notify.MilestoneTemplateKeys {
		if weeks >= win.FromWeek && weeks <= win.ToWeek {
			return key, true
		}
	}
	return "", false
}
