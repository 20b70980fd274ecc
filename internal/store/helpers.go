package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mediqueue/MediQueue/internal/models"
)

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// encodeBookingData marshals a booking-data snapshot for storage, returning
// nil for an empty map.
func encodeBookingData(data map[string]string) (interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode booking data failed: %w", err)
	}
	return string(b), nil
}

func scanPatient(row rowScanner) (models.Patient, error) {
	var p models.Patient
	var phone, channelID, language sql.NullString
	err := row.Scan(&p.ID, &p.FullName, &phone, &channelID, &language, &p.IsReturning, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.PhoneNumber = phone.String
	p.ChannelID = channelID.String
	p.Language = models.Language(language.String)
	return p, nil
}

func scanPregnancy(row rowScanner) (models.Pregnancy, error) {
	var p models.Pregnancy
	var deliveryDate sql.NullString
	err := row.Scan(&p.ID, &p.PatientID, &p.LMPDate, &p.IsCurrent, &deliveryDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.DeliveryDate = deliveryDate.String
	return p, nil
}

func scanAppointment(row rowScanner) (models.Appointment, error) {
	var a models.Appointment
	var notes, bookingData sql.NullString
	err := row.Scan(
		&a.ID, &a.PatientID, &a.VisitType, &a.Date, &a.TimeSlot, &a.QueueNumber,
		&a.Status, &a.EmergencyFlag, &a.Source, &notes, &bookingData, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}
	a.Notes = notes.String
	if bookingData.Valid && bookingData.String != "" {
		if err := json.Unmarshal([]byte(bookingData.String), &a.BookingData); err != nil {
			return a, fmt.Errorf("decode booking data for appointment %s failed: %w", a.ID, err)
		}
	}
	return a, nil
}

func scanNotification(row rowScanner) (models.NotificationLog, error) {
	var l models.NotificationLog
	var appointmentID, templateKey, content, errorMessage sql.NullString
	var sentAt sql.NullTime
	err := row.Scan(
		&l.ID, &l.PatientID, &appointmentID, &l.Type, &l.Channel,
		&templateKey, &content, &l.Status, &sentAt, &errorMessage, &l.CreatedAt,
	)
	if err != nil {
		return l, err
	}
	l.AppointmentID = appointmentID.String
	l.TemplateKey = templateKey.String
	l.Content = content.String
	l.ErrorMessage = errorMessage.String
	if sentAt.Valid {
		l.SentAt = &sentAt.Time
	}
	return l, nil
}

func collectAppointments(rows *sql.Rows) ([]models.Appointment, error) {
	defer rows.Close()
	var out []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment row failed: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
