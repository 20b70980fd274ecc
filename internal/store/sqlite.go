// Package store: SQLite-backed Store implementation.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/mediqueue/MediQueue/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists everything in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindPatientByChannelID(channelID string) (*models.Patient, error) {
	row := s.db.QueryRow(`SELECT id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at FROM patients WHERE channel_id = ?`, channelID)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find patient by channel id failed: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) FindPatientByPhone(phone string) (*models.Patient, error) {
	row := s.db.QueryRow(`SELECT id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at FROM patients WHERE phone_number = ?`, phone)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find patient by phone failed: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) GetPatient(id string) (*models.Patient, error) {
	row := s.db.QueryRow(`SELECT id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at FROM patients WHERE id = ?`, id)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get patient failed: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) CreatePatient(p models.Patient) (models.Patient, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.Exec(
		`INSERT INTO patients (id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FullName, nilIfEmpty(p.PhoneNumber), nilIfEmpty(p.ChannelID), nilIfEmpty(string(p.Language)), p.IsReturning, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreatePatient failed", "error", err, "id", p.ID)
		return models.Patient{}, fmt.Errorf("create patient failed: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) UpdatePatient(p models.Patient) error {
	res, err := s.db.Exec(
		`UPDATE patients SET full_name = ?, phone_number = ?, channel_id = ?, language = ?, is_returning = ?, updated_at = ? WHERE id = ?`,
		p.FullName, nilIfEmpty(p.PhoneNumber), nilIfEmpty(p.ChannelID), nilIfEmpty(string(p.Language)), p.IsReturning, time.Now(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update patient failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrPatientNotFound
	}
	return nil
}

func (s *SQLiteStore) ListPatients() ([]models.Patient, error) {
	rows, err := s.db.Query(`SELECT id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list patients failed: %w", err)
	}
	defer rows.Close()
	var out []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient row failed: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CurrentPregnancy(patientID string) (*models.Pregnancy, error) {
	row := s.db.QueryRow(`SELECT id, patient_id, lmp_date, is_current, delivery_date, created_at, updated_at FROM pregnancies WHERE patient_id = ? AND is_current = 1`, patientID)
	p, err := scanPregnancy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current pregnancy lookup failed: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListCurrentPregnancies() ([]models.Pregnancy, error) {
	rows, err := s.db.Query(`SELECT id, patient_id, lmp_date, is_current, delivery_date, created_at, updated_at FROM pregnancies WHERE is_current = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list current pregnancies failed: %w", err)
	}
	defer rows.Close()
	var out []models.Pregnancy
	for rows.Next() {
		p, err := scanPregnancy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pregnancy row failed: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertCurrentPregnancy(p models.Pregnancy) (models.Pregnancy, error) {
	now := time.Now()
	existing, err := s.CurrentPregnancy(p.PatientID)
	if err != nil {
		return models.Pregnancy{}, err
	}
	if existing != nil {
		_, err := s.db.Exec(`UPDATE pregnancies SET lmp_date = ?, updated_at = ? WHERE id = ?`, p.LMPDate, now, existing.ID)
		if err != nil {
			return models.Pregnancy{}, fmt.Errorf("update pregnancy failed: %w", err)
		}
		existing.LMPDate = p.LMPDate
		existing.UpdatedAt = now
		return *existing, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsCurrent = true
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err = s.db.Exec(
		`INSERT INTO pregnancies (id, patient_id, lmp_date, is_current, delivery_date, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?, ?)`,
		p.ID, p.PatientID, p.LMPDate, nilIfEmpty(p.DeliveryDate), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return models.Pregnancy{}, fmt.Errorf("insert pregnancy failed: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) CreateAppointment(a models.Appointment) (models.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	bookingData, err := encodeBookingData(a.BookingData)
	if err != nil {
		return models.Appointment{}, err
	}
	_, err = s.db.Exec(
		`INSERT INTO appointments (id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PatientID, a.VisitType, a.Date, a.TimeSlot, a.QueueNumber, a.Status, a.EmergencyFlag, a.Source, nilIfEmpty(a.Notes), bookingData, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateAppointment failed", "error", err, "id", a.ID)
		return models.Appointment{}, fmt.Errorf("create appointment failed: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) GetAppointment(id string) (*models.Appointment, error) {
	row := s.db.QueryRow(`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment failed: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) UpdateAppointment(a models.Appointment) error {
	bookingData, err := encodeBookingData(a.BookingData)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE appointments SET patient_id = ?, visit_type = ?, appointment_date = ?, time_slot = ?, queue_number = ?, status = ?, emergency_flag = ?, source = ?, notes = ?, booking_data = ?, updated_at = ? WHERE id = ?`,
		a.PatientID, a.VisitType, a.Date, a.TimeSlot, a.QueueNumber, a.Status, a.EmergencyFlag, a.Source, nilIfEmpty(a.Notes), bookingData, time.Now(), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update appointment failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAppointmentNotFound
	}
	return nil
}

func (s *SQLiteStore) FindAppointmentsByDate(date string) ([]models.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at
		 FROM appointments WHERE appointment_date = ? ORDER BY time_slot, queue_number`, date)
	if err != nil {
		return nil, fmt.Errorf("find appointments by date failed: %w", err)
	}
	return collectAppointments(rows)
}

func (s *SQLiteStore) FindAppointmentsByStatusAndDate(status models.AppointmentStatus, date string) ([]models.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at
		 FROM appointments WHERE status = ? AND appointment_date = ? ORDER BY queue_number`, status, date)
	if err != nil {
		return nil, fmt.Errorf("find appointments by status and date failed: %w", err)
	}
	return collectAppointments(rows)
}

func (s *SQLiteStore) FindAppointmentsByPatient(patientID string) ([]models.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at
		 FROM appointments WHERE patient_id = ? ORDER BY appointment_date DESC, time_slot DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("find appointments by patient failed: %w", err)
	}
	return collectAppointments(rows)
}

func (s *SQLiteStore) MaxQueueNumber(date string) (int, error) {
	var max int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(queue_number), 0) FROM appointments WHERE appointment_date = ?`, date).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max queue number failed: %w", err)
	}
	return max, nil
}

func (s *SQLiteStore) LogNotification(l models.NotificationLog) (models.NotificationLog, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	var sentAt interface{}
	if l.SentAt != nil {
		sentAt = *l.SentAt
	}
	_, err := s.db.Exec(
		`INSERT INTO notification_logs (id, patient_id, appointment_id, notification_type, channel, template_key, content, status, sent_at, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.PatientID, nilIfEmpty(l.AppointmentID), l.Type, l.Channel, nilIfEmpty(l.TemplateKey), nilIfEmpty(l.Content), l.Status, sentAt, nilIfEmpty(l.ErrorMessage), l.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.NotificationLog{}, ErrDuplicateSend
		}
		slog.Error("SQLiteStore LogNotification failed", "error", err, "id", l.ID)
		return models.NotificationLog{}, fmt.Errorf("log notification failed: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) HasSentNotification(appointmentID string, t models.NotificationType) (bool, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM notification_logs WHERE appointment_id = ? AND notification_type = ? AND status = ? LIMIT 1`,
		appointmentID, t, models.NotificationSent,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sent notification check failed: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) HasSentMilestone(patientID, templateKey string) (bool, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM notification_logs WHERE patient_id = ? AND notification_type = ? AND template_key = ? AND status = ? LIMIT 1`,
		patientID, models.NotificationPregnancyMilestone, templateKey, models.NotificationSent,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sent milestone check failed: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) NotificationHistory(patientID string, limit int) ([]models.NotificationLog, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, appointment_id, notification_type, channel, template_key, content, status, sent_at, error_message, created_at
		 FROM notification_logs WHERE patient_id = ? ORDER BY created_at DESC LIMIT ?`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("notification history failed: %w", err)
	}
	defer rows.Close()
	var out []models.NotificationLog
	for rows.Next() {
		l, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification row failed: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
