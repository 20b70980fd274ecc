// Package store: in-memory Store implementation used by tests and
// single-process development setups.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediqueue/MediQueue/internal/models"
)

// InMemoryStore keeps everything in process memory behind one mutex.
type InMemoryStore struct {
	mu            sync.RWMutex
	patients      map[string]models.Patient
	pregnancies   map[string]models.Pregnancy
	appointments  map[string]models.Appointment
	notifications []models.NotificationLog
	now           func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		patients:     make(map[string]models.Patient),
		pregnancies:  make(map[string]models.Pregnancy),
		appointments: make(map[string]models.Appointment),
		now:          time.Now,
	}
}

// SetClock overrides the time source (used by tests).
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close implements Store.
func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) FindPatientByChannelID(channelID string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ChannelID == channelID {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) FindPatientByPhone(phone string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.PhoneNumber == phone {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) GetPatient(id string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (s *InMemoryStore) CreatePatient(p models.Patient) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.patients[p.ID] = p
	slog.Debug("InMemoryStore CreatePatient", "id", p.ID, "channelID", p.ChannelID)
	return p, nil
}

func (s *InMemoryStore) UpdatePatient(p models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.patients[p.ID]
	if !ok {
		return models.ErrPatientNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.patients[p.ID] = p
	return nil
}

func (s *InMemoryStore) ListPatients() ([]models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CurrentPregnancy(patientID string) (*models.Pregnancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pregnancies {
		if p.PatientID == patientID && p.IsCurrent {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) ListCurrentPregnancies() ([]models.Pregnancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Pregnancy
	for _, p := range s.pregnancies {
		if p.IsCurrent {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) UpsertCurrentPregnancy(p models.Pregnancy) (models.Pregnancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, existing := range s.pregnancies {
		if existing.PatientID == p.PatientID && existing.IsCurrent {
			existing.LMPDate = p.LMPDate
			existing.UpdatedAt = now
			s.pregnancies[id] = existing
			return existing, nil
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsCurrent = true
	p.CreatedAt = now
	p.UpdatedAt = now
	s.pregnancies[p.ID] = p
	return p, nil
}

func (s *InMemoryStore) CreateAppointment(a models.Appointment) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.appointments[a.ID] = a
	slog.Debug("InMemoryStore CreateAppointment", "id", a.ID, "date", a.Date, "slot", a.TimeSlot, "queueNumber", a.QueueNumber)
	return a, nil
}

func (s *InMemoryStore) GetAppointment(id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (s *InMemoryStore) UpdateAppointment(a models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.appointments[a.ID]
	if !ok {
		return models.ErrAppointmentNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now()
	s.appointments[a.ID] = a
	return nil
}

func (s *InMemoryStore) FindAppointmentsByDate(date string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeSlot != out[j].TimeSlot {
			return out[i].TimeSlot < out[j].TimeSlot
		}
		return out[i].QueueNumber < out[j].QueueNumber
	})
	return out, nil
}

func (s *InMemoryStore) FindAppointmentsByStatusAndDate(status models.AppointmentStatus, date string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.Date == date && a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueueNumber < out[j].QueueNumber })
	return out, nil
}

func (s *InMemoryStore) FindAppointmentsByPatient(patientID string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].TimeSlot > out[j].TimeSlot
	})
	return out, nil
}

func (s *InMemoryStore) MaxQueueNumber(date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, a := range s.appointments {
		if a.Date == date && a.QueueNumber > max {
			max = a.QueueNumber
		}
	}
	return max, nil
}

func (s *InMemoryStore) LogNotification(l models.NotificationLog) (models.NotificationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.Status == models.NotificationSent && l.AppointmentID != "" {
		for _, existing := range s.notifications {
			if existing.AppointmentID == l.AppointmentID && existing.Type == l.Type && existing.Status == models.NotificationSent {
				return models.NotificationLog{}, ErrDuplicateSend
			}
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = s.now()
	s.notifications = append(s.notifications, l)
	slog.Debug("InMemoryStore LogNotification", "id", l.ID, "type", l.Type, "status", l.Status, "appointmentID", l.AppointmentID)
	return l, nil
}

func (s *InMemoryStore) HasSentNotification(appointmentID string, t models.NotificationType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.notifications {
		if l.AppointmentID == appointmentID && l.Type == t && l.Status == models.NotificationSent {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) HasSentMilestone(patientID, templateKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.notifications {
		if l.PatientID == patientID && l.Type == models.NotificationPregnancyMilestone &&
			l.TemplateKey == templateKey && l.Status == models.NotificationSent {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) NotificationHistory(patientID string, limit int) ([]models.NotificationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.NotificationLog
	for _, l := range s.notifications {
		if l.PatientID == patientID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
