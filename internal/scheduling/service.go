// Package scheduling owns the clinic calendar: the fixed slot catalog,
// availability queries, appointment creation with queue-number allocation,
// and status transitions.
package scheduling

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/store"
)

// SlotCatalog is the fixed daily slot grid, 09:00 through 16:30 in 30-minute
// steps. Order matters; availability listings preserve it.
var SlotCatalog = []string{
	"09:00", "09:30", "10:00", "10:30",
	"11:00", "11:30", "12:00", "12:30",
	"13:00", "13:30", "14:00", "14:30",
	"15:00", "15:30", "16:00", "16:30",
}

// DefaultHorizonDays is how far ahead AvailableDates looks.
const DefaultHorizonDays = 30

// IsCatalogSlot reports whether slot is a member of the slot catalog.
func IsCatalogSlot(slot string) bool {
	for _, s := range SlotCatalog {
		if s == slot {
			return true
		}
	}
	return false
}

// Opts holds configuration for the scheduling service.
type Opts struct {
	Location *time.Location
	Clock    func() time.Time
}

// Option configures the scheduling service.
type Option func(*Opts)

// WithLocation sets the clinic timezone used for "today" computations.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) {
		o.Location = loc
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(o *Opts) {
		o.Clock = now
	}
}

// Service implements calendar and booking operations on top of the store.
type Service struct {
	store store.Store
	loc   *time.Location
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-date allocation locks
}

// NewService creates a scheduling service over the given store.
func NewService(st store.Store, opts ...Option) *Service {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		store: st,
		loc:   cfg.Location,
		now:   cfg.Clock,
		locks: make(map[string]*sync.Mutex),
	}
}

// Location returns the clinic timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current clinic date in DateLayout.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// dateLock returns the mutex guarding queue allocation for one date.
func (s *Service) dateLock(date string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[date]
	if !ok {
		l = &sync.Mutex{}
		s.locks[date] = l
	}
	return l
}

// AvailableSlots returns the catalog slots on the given date that are not
// held by a live appointment. Cancelled appointments free their slot.
func (s *Service) AvailableSlots(date string) ([]string, error) {
	appts, err := s.store.FindAppointmentsByDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for %s: %w", date, err)
	}
	taken := make(map[string]bool, len(appts))
	for _, a := range appts {
		if a.Status == models.StatusCancelled {
			continue
		}
		taken[a.TimeSlot] = true
	}
	var free []string
	for _, slot := range SlotCatalog {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	slog.Debug("Scheduling computed available slots", "date", date, "free", len(free), "taken", len(taken))
	return free, nil
}

// AvailableDates returns up to horizonDays upcoming weekdays starting the day
// after from, skipping Saturdays and Sundays. A non-positive horizon uses
// DefaultHorizonDays.
func (s *Service) AvailableDates(from time.Time, horizonDays int) []string {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	from = from.In(s.loc)
	var dates []string
	for i := 1; i <= horizonDays; i++ {
		d := from.AddDate(0, 0, i)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dates = append(dates, d.Format(models.DateLayout))
	}
	return dates
}

// IsBookableDate reports whether date parses, falls on a weekday, and is not
// in the past relative to the clinic's today.
func (s *Service) IsBookableDate(date string) bool {
	d, err := time.ParseInLocation(models.DateLayout, date, s.loc)
	if err != nil {
		return false
	}
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return date >= s.Today()
}

// CreateAppointment validates the draft, allocates a queue number when none
// is set, and persists the appointment. The slot is re-checked under the
// per-date lock so two concurrent bookings for the same slot cannot both
// succeed; the loser gets models.ErrSlotTaken.
func (s *Service) CreateAppointment(draft models.AppointmentDraft) (models.Appointment, error) {
	slog.Debug("Scheduling CreateAppointment invoked",
		"patient_id", draft.PatientID, "visit_type", draft.VisitType,
		"date", draft.Date, "slot", draft.TimeSlot, "emergency", draft.EmergencyFlag)

	if !models.IsValidVisitType(draft.VisitType) {
		return models.Appointment{}, models.ErrInvalidVisitType
	}
	if !IsCatalogSlot(draft.TimeSlot) {
		return models.Appointment{}, models.ErrInvalidSlot
	}
	if _, err := time.ParseInLocation(models.DateLayout, draft.Date, s.loc); err != nil {
		return models.Appointment{}, fmt.Errorf("invalid appointment date %q: %w", draft.Date, err)
	}
	patient, err := s.store.GetPatient(draft.PatientID)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to look up patient: %w", err)
	}
	if patient == nil {
		return models.Appointment{}, models.ErrPatientNotFound
	}

	lock := s.dateLock(draft.Date)
	lock.Lock()
	defer lock.Unlock()

	// Re-check the slot now that we hold the allocation lock for this date.
	appts, err := s.store.FindAppointmentsByDate(draft.Date)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to load appointments for %s: %w", draft.Date, err)
	}
	for _, a := range appts {
		if a.TimeSlot == draft.TimeSlot && a.Status != models.StatusCancelled {
			return models.Appointment{}, models.ErrSlotTaken
		}
	}

	queueNumber := draft.QueueNumber
	if queueNumber == 0 {
		max, err := s.store.MaxQueueNumber(draft.Date)
		if err != nil {
			return models.Appointment{}, fmt.Errorf("failed to allocate queue number: %w", err)
		}
		queueNumber = max + 1
	}

	source := draft.Source
	if source == "" {
		source = models.SourceOther
	}

	appt, err := s.store.CreateAppointment(models.Appointment{
		PatientID:     draft.PatientID,
		VisitType:     draft.VisitType,
		Date:          draft.Date,
		TimeSlot:      draft.TimeSlot,
		QueueNumber:   queueNumber,
		Status:        models.StatusBooked,
		EmergencyFlag: draft.EmergencyFlag,
		Source:        source,
		Notes:         draft.Notes,
		BookingData:   draft.BookingData,
	})
	if err != nil {
		return models.Appointment{}, err
	}
	slog.Info("Appointment created",
		"appointment_id", appt.ID, "patient_id", appt.PatientID,
		"date", appt.Date, "slot", appt.TimeSlot, "queue_number", appt.QueueNumber)
	return appt, nil
}

// SetStatus overwrites an appointment's status. Transitions out of a
// terminal status are allowed (front-desk corrections) but logged.
func (s *Service) SetStatus(appointmentID string, status models.AppointmentStatus) (models.Appointment, error) {
	appt, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to look up appointment: %w", err)
	}
	if appt == nil {
		return models.Appointment{}, models.ErrAppointmentNotFound
	}
	if appt.Status.IsTerminal() && !status.IsTerminal() {
		slog.Warn("Appointment leaving terminal status",
			"appointment_id", appointmentID, "from", appt.Status, "to", status)
	}
	appt.Status = status
	if err := s.store.UpdateAppointment(*appt); err != nil {
		return models.Appointment{}, err
	}
	slog.Debug("Appointment status updated", "appointment_id", appointmentID, "status", status)
	return *appt, nil
}

// Cancel marks an appointment cancelled, freeing its slot.
func (s *Service) Cancel(appointmentID string) (models.Appointment, error) {
	return s.SetStatus(appointmentID, models.StatusCancelled)
}

// TodayAppointmentFor returns the patient's live appointment on the given
// date, or nil when there is none. Cancelled appointments do not count.
func (s *Service) TodayAppointmentFor(patientID, date string) (*models.Appointment, error) {
	appts, err := s.store.FindAppointmentsByPatient(patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient appointments: %w", err)
	}
	for i := range appts {
		a := appts[i]
		if a.Date == date && a.Status != models.StatusCancelled {
			return &a, nil
		}
	}
	return nil, nil
}

// EmergencySlot finds the earliest free slot today, falling back to the next
// day. It returns the date and slot, or ok=false when both days are full.
func (s *Service) EmergencySlot(now time.Time) (date, slot string, ok bool, err error) {
	now = now.In(s.loc)
	for i := 0; i <= 1; i++ {
		d := now.AddDate(0, 0, i).Format(models.DateLayout)
		free, err := s.AvailableSlots(d)
		if err != nil {
			return "", "", false, err
		}
		if len(free) > 0 {
			return d, free[0], true, nil
		}
	}
	return "", "", false, nil
}
