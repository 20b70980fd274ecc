// Package store: PostgreSQL-backed Store implementation.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mediqueue/MediQueue/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresStore persists everything in a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running PostgreSQL migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) FindPatientByChannelID(channelID string) (*models.Patient, error) {
	row := s.db.QueryRow(`SELECT id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at FROM patients WHERE channel_id = $1`, channelID)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find patient by channel id failed: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) FindPatientByPhone(phone string) (*models.Patient, error) {
	row := s.db.QueryRow(`SELECT id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at FROM patients WHERE phone_number = $1`, phone)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find patient by phone failed: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetPatient(id string) (*models.Patient, error) {
	row := s.db.QueryRow(`SELECT id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get patient failed: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreatePatient(p models.Patient) (models.Patient, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.Exec(
		`INSERT INTO patients (id, full_name, phone_number, channel_id, language, is_returning, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.FullName, nilIfEmpty(p.PhoneNumber), nilIfEmpty(p.ChannelID), nilIfEmpty(string(p.Language)), p.IsReturning, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore CreatePatient failed", "error", err, "id", p.ID)
		return models.Patient{}, fmt.Errorf("create patient failed: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePatient(p models.Patient) error {
	res, err := s.db.Exec(
		`UPDATE patients SET full_name = $1, phone_number = $2, channel_id = $3, language = $4, is_returning = $5, updated_at = $6 WHERE id = $7`,
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

func (s *PostgresStore) ListPatients() ([]models.Patient, error) {
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

func (s *PostgresStore) CurrentPregnancy(patientID string) (*models.Pregnancy, error) {
	row := s.db.QueryRow(`SELECT id, patient_id, lmp_date, is_current, delivery_date, created_at, updated_at FROM pregnancies WHERE patient_id = $1 AND is_current = TRUE`, patientID)
	p, err := scanPregnancy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current pregnancy lookup failed: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListCurrentPregnancies() ([]models.Pregnancy, error) {
	rows, err := s.db.Query(`SELECT id, patient_id, lmp_date, is_current, delivery_date, created_at, updated_at FROM pregnancies WHERE is_current = TRUE ORDER BY created_at`)
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

func (s *PostgresStore) UpsertCurrentPregnancy(p models.Pregnancy) (models.Pregnancy, error) {
	now := time.Now()
	existing, err := s.CurrentPregnancy(p.PatientID)
	if err != nil {
		return models.Pregnancy{}, err
	}
	if existing != nil {
		_, err := s.db.Exec(`UPDATE pregnancies SET lmp_date = $1, updated_at = $2 WHERE id = $3`, p.LMPDate, now, existing.ID)
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
		`INSERT INTO pregnancies (id, patient_id, lmp_date, is_current, delivery_date, created_at, updated_at) VALUES ($1, $2, $3, TRUE, $4, $5, $6)`,
		p.ID, p.PatientID, p.LMPDate, nilIfEmpty(p.DeliveryDate), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return models.Pregnancy{}, fmt.Errorf("insert pregnancy failed: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) CreateAppointment(a models.Appointment) (models.Appointment, error) {
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.PatientID, a.VisitType, a.Date, a.TimeSlot, a.QueueNumber, a.Status, a.EmergencyFlag, a.Source, nilIfEmpty(a.Notes), bookingData, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore CreateAppointment failed", "error", err, "id", a.ID)
		return models.Appointment{}, fmt.Errorf("create appointment failed: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) GetAppointment(id string) (*models.Appointment, error) {
	row := s.db.QueryRow(`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment failed: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) UpdateAppointment(a models.Appointment) error {
	bookingData, err := encodeBookingData(a.BookingData)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE appointments SET patient_id = $1, visit_type = $2, appointment_date = $3, time_slot = $4, queue_number = $5, status = $6, emergency_flag = $7, source = $8, notes = $9, booking_data = $10, updated_at = $11 WHERE id = $12`,
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

func (s *PostgresStore) FindAppointmentsByDate(date string) ([]models.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at
		 FROM appointments WHERE appointment_date = $1 ORDER BY time_slot, queue_number`, date)
	if err != nil {
		return nil, fmt.Errorf("find appointments by date failed: %w", err)
	}
	return collectAppointments(rows)
}

func (s *PostgresStore) FindAppointmentsByStatusAndDate(status models.AppointmentStatus, date string) ([]models.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at
		 FROM appointments WHERE status = $1 AND appointment_date = $2 ORDER BY queue_number`, status, date)
	if err != nil {
		return nil, fmt.Errorf("find appointments by status and date failed: %w", err)
	}
	return collectAppointments(rows)
}

func (s *PostgresStore) FindAppointmentsByPatient(patientID string) ([]models.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, visit_type, appointment_date, time_slot, queue_number, status, emergency_flag, source, notes, booking_data, created_at, updated_at
		 FROM appointments WHERE patient_id = $1 ORDER BY appointment_date DESC, time_slot DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("find appointments by patient failed: %w", err)
	}
	return collectAppointments(rows)
}

func (s *PostgresStore) MaxQueueNumber(date string) (int, error) {
	var max int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(queue_number), 0) FROM appointments WHERE appointment_date = $1`, date).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max queue number failed: %w", err)
	}
	return max, nil
}

func (s *PostgresStore) LogNotification(l models.NotificationLog) (models.NotificationLog, error) {
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.PatientID, nilIfEmpty(l.AppointmentID), l.Type, l.Channel, nilIfEmpty(l.TemplateKey), nilIfEmpty(l.Content), l.Status, sentAt, nilIfEmpty(l.ErrorMessage), l.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return models.NotificationLog{}, ErrDuplicateSend
		}
		slog.Error("PostgresStore LogNotification failed", "error", err, "id", l.ID)
		return models.NotificationLog{}, fmt.Errorf("log notification failed: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) HasSentNotification(appointmentID string, t models.NotificationType) (bool, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM notification_logs WHERE appointment_id = $1 AND notification_type = $2 AND status = $3 LIMIT 1`,
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

func (s *PostgresStore) HasSentMilestone(patientID, templateKey string) (bool, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM notification_logs WHERE patient_id = $1 AND notification_type = $2 AND template_key = $3 AND status = $4 LIMIT 1`,
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

func (s *PostgresStore) NotificationHistory(patientID string, limit int) ([]models.NotificationLog, error) {
	rows, err := s.db.Query(
		`SELECT id, patient_id, appointment_id, notification_type, channel, template_key, content, status, sent_at, error_message, created_at
		 FROM notification_logs WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2`, patientID, limit)
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
