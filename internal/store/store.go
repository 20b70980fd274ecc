// Package store provides storage backends for MediQueue.
//
// The Store interface bundles the patient directory, pregnancy registry,
// appointment store and notification log behind one contract with in-memory,
// SQLite and PostgreSQL implementations. Lookups that can legitimately miss
// return (nil, nil); errors are reserved for storage failures.
package store

import (
	"errors"
	"strings"

	"github.com/mediqueue/MediQueue/internal/models"
)

// ErrDuplicateSend is returned by LogNotification when a SENT record for the
// same (appointment, notification type) pair already exists.
var ErrDuplicateSend = errors.New("notification already sent for this appointment and type")

// PatientDirectory finds and manages patient records.
type PatientDirectory interface {
	// FindPatientByChannelID looks a patient up by chat channel identity.
	FindPatientByChannelID(channelID string) (*models.Patient, error)

	// FindPatientByPhone looks a patient up by phone number.
	FindPatientByPhone(phone string) (*models.Patient, error)

	// GetPatient fetches a patient by id.
	GetPatient(id string) (*models.Patient, error)

	// CreatePatient persists a new patient, filling in ID and timestamps.
	CreatePatient(p models.Patient) (models.Patient, error)

	// UpdatePatient overwrites an existing patient record.
	UpdatePatient(p models.Patient) error

	// ListPatients returns all patients.
	ListPatients() ([]models.Patient, error)
}

// PregnancyRegistry tracks current pregnancies for milestone reminders.
type PregnancyRegistry interface {
	// CurrentPregnancy returns the patient's pregnancy flagged as current.
	CurrentPregnancy(patientID string) (*models.Pregnancy, error)

	// ListCurrentPregnancies returns every pregnancy flagged as current.
	ListCurrentPregnancies() ([]models.Pregnancy, error)

	// UpsertCurrentPregnancy creates or refreshes the patient's current
	// pregnancy record (LMP date updates in place).
	UpsertCurrentPregnancy(p models.Pregnancy) (models.Pregnancy, error)
}

// AppointmentStore persists appointments. Appointments are never deleted;
// cancellation is a status change.
type AppointmentStore interface {
	// CreateAppointment persists a new appointment, filling in ID and timestamps.
	CreateAppointment(a models.Appointment) (models.Appointment, error)

	// GetAppointment fetches an appointment by id.
	GetAppointment(id string) (*models.Appointment, error)

	// UpdateAppointment overwrites an existing appointment record.
	UpdateAppointment(a models.Appointment) error

	// FindAppointmentsByDate returns all appointments on the given calendar
	// day, ordered by time slot then queue number.
	FindAppointmentsByDate(date string) ([]models.Appointment, error)

	// FindAppointmentsByStatusAndDate filters one day by status, ordered by
	// queue number.
	FindAppointmentsByStatusAndDate(status models.AppointmentStatus, date string) ([]models.Appointment, error)

	// FindAppointmentsByPatient returns a patient's appointments, most
	// recent first.
	FindAppointmentsByPatient(patientID string) ([]models.Appointment, error)

	// MaxQueueNumber returns the highest queue number assigned on the given
	// date, or 0 when the day is empty.
	MaxQueueNumber(date string) (int, error)
}

// NotificationLogRepo records notification send attempts and answers the
// dedup queries the reminder sweeps rely on.
type NotificationLogRepo interface {
	// LogNotification appends an immutable send-attempt record. Writing a
	// second SENT record for the same (appointment, type) pair fails with
	// ErrDuplicateSend.
	LogNotification(l models.NotificationLog) (models.NotificationLog, error)

	// HasSentNotification reports whether a SENT record exists for the
	// (appointment, type) pair.
	HasSentNotification(appointmentID string, t models.NotificationType) (bool, error)

	// HasSentMilestone reports whether a SENT pregnancy-milestone record
	// with the given template key exists for the patient.
	HasSentMilestone(patientID, templateKey string) (bool, error)

	// NotificationHistory returns the patient's most recent notification
	// records, newest first.
	NotificationHistory(patientID string, limit int) ([]models.NotificationLog, error)
}

// Store bundles all persistence concerns behind one interface.
type Store interface {
	PatientDirectory
	PregnancyRegistry
	AppointmentStore
	NotificationLogRepo

	// Close releases underlying resources.
	Close() error
}

// Opts holds configuration options for store construction.
type Opts struct {
	DSN string
}

// Option defines a configuration option for stores.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType inspects a DSN and reports "postgres" or "sqlite".
func DetectDSNType(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}
