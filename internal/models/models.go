// Package models defines the core data structures for MediQueue.
//
// It includes the patient, pregnancy, appointment and notification-log
// entities plus the enumerations shared across modules.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Date and time layouts used throughout the system.
const (
	// DateLayout is the canonical storage format for calendar dates.
	DateLayout = "2006-01-02"
	// SlotLayout is the canonical format for appointment time slots.
	SlotLayout = "15:04"
	// InputDateLayout is the format patients type dates in during a dialog.
	InputDateLayout = "02/01/2006"
)

// VisitType categorizes an appointment.
type VisitType string

const (
	VisitTypePregnancyFirst    VisitType = "pregnancy_first_visit"
	VisitTypePregnancyFollowup VisitType = "pregnancy_followup"
	VisitTypeUltrasound        VisitType = "ultrasound"
	VisitTypePostpartumNormal  VisitType = "postpartum_normal"
	VisitTypePostpartumCSect   VisitType = "postpartum_csection"
	VisitTypeFamilyPlanning    VisitType = "family_planning"
	VisitTypeInfertility       VisitType = "infertility"
	VisitTypeGeneralGyne       VisitType = "general_gyne"
	VisitTypePapSmear          VisitType = "pap_smear"
	VisitTypeEmergency         VisitType = "emergency"
)

// IsValidVisitType checks if the given visit type is supported.
func IsValidVisitType(vt VisitType) bool {
	switch vt {
	case VisitTypePregnancyFirst, VisitTypePregnancyFollowup, VisitTypeUltrasound,
		VisitTypePostpartumNormal, VisitTypePostpartumCSect, VisitTypeFamilyPlanning,
		VisitTypeInfertility, VisitTypeGeneralGyne, VisitTypePapSmear, VisitTypeEmergency:
		return true
	default:
		return false
	}
}

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusBooked     AppointmentStatus = "booked"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusArrived    AppointmentStatus = "arrived"
	StatusWithDoctor AppointmentStatus = "with_doctor"
	StatusFinished   AppointmentStatus = "finished"
	StatusNoShow     AppointmentStatus = "no_show"
	StatusCancelled  AppointmentStatus = "cancelled"
)

// IsTerminal reports whether the status ends the appointment lifecycle.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusNoShow, StatusCancelled:
		return true
	default:
		return false
	}
}

// AppointmentSource identifies which channel created an appointment.
type AppointmentSource string

const (
	SourceWhatsApp AppointmentSource = "whatsapp"
	SourceTelegram AppointmentSource = "telegram"
	SourceWalkIn   AppointmentSource = "walk_in"
	SourcePhone    AppointmentSource = "phone"
	SourceOther    AppointmentSource = "other"
)

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotificationBookingConfirmation  NotificationType = "booking_confirmation"
	NotificationReminder24H          NotificationType = "reminder_24h"
	NotificationReminder1H           NotificationType = "reminder_1h"
	NotificationReminder30M          NotificationType = "reminder_30m"
	NotificationQueueUpdate          NotificationType = "queue_update"
	NotificationThankYou             NotificationType = "thank_you"
	NotificationFeedbackRequest      NotificationType = "feedback_request"
	NotificationPregnancyMilestone   NotificationType = "pregnancy_milestone"
	NotificationAppointmentCancelled NotificationType = "appointment_cancelled"
)

// NotificationChannel identifies the delivery transport for a notification.
type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelTelegram NotificationChannel = "telegram"
	ChannelSMS      NotificationChannel = "sms"
	ChannelEmail    NotificationChannel = "email"
)

// NotificationStatus represents the delivery state of a notification attempt.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Language selects the template language used for outbound messages.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// IsValidLanguage checks if the given language is supported.
func IsValidLanguage(l Language) bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// Error variables shared across modules.
var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPregnancyNotFound   = errors.New("pregnancy not found")
	ErrSlotTaken           = errors.New("time slot is no longer available")
	ErrInvalidSlot         = errors.New("time is not a valid clinic slot")
	ErrInvalidVisitType    = errors.New("invalid visit type")
	ErrEmptyChannelID      = errors.New("channel id cannot be empty")
	ErrEmptyPatientName    = errors.New("patient name cannot be empty")
)

// Patient is a clinic patient reachable through a chat channel.
type Patient struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	ChannelID   string    `json:"channel_id"` // canonical chat identity (JID or chat id)
	Language    Language  `json:"language,omitempty"`
	IsReturning bool      `json:"is_returning"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Pregnancy tracks a patient's pregnancy for milestone reminders.
type Pregnancy struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id"`
	LMPDate      string    `json:"lmp_date"` // DateLayout
	IsCurrent    bool      `json:"is_current"`
	DeliveryDate string    `json:"delivery_date,omitempty"` // DateLayout, empty until delivered
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GestationWeeksAt computes the gestational age in whole weeks at the given
// time, counted from the LMP date.
func (p Pregnancy) GestationWeeksAt(at time.Time) (int, error) {
	lmp, err := time.ParseInLocation(DateLayout, p.LMPDate, at.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid LMP date %q: %w", p.LMPDate, err)
	}
	days := int(at.Sub(lmp).Hours() / 24)
	if days < 0 {
		return 0, nil
	}
	return days / 7, nil
}

// Appointment is a booked clinic visit.
type Appointment struct {
	ID            string            `json:"id"`
	PatientID     string            `json:"patient_id"`
	VisitType     VisitType         `json:"visit_type"`
	Date          string            `json:"date"`      // DateLayout
	TimeSlot      string            `json:"time_slot"` // SlotLayout, member of the slot catalog
	QueueNumber   int               `json:"queue_number"`
	Status        AppointmentStatus `json:"status"`
	EmergencyFlag bool              `json:"emergency_flag"`
	Source        AppointmentSource `json:"source"`
	Notes         string            `json:"notes,omitempty"`
	BookingData   map[string]string `json:"booking_data,omitempty"` // snapshot of the dialog's collected fields
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// StartTime combines the appointment date and slot into a concrete time in
// the given location.
func (a Appointment) StartTime(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+SlotLayout, a.Date+" "+a.TimeSlot, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment time %s %s: %w", a.Date, a.TimeSlot, err)
	}
	return t, nil
}

// AppointmentDraft carries the fields needed to create an appointment.
// A zero QueueNumber means "allocate the next number for the date".
type AppointmentDraft struct {
	PatientID     string
	VisitType     VisitType
	Date          string
	TimeSlot      string
	QueueNumber   int
	EmergencyFlag bool
	Source        AppointmentSource
	Notes         string
	BookingData   map[string]string
}

// NotificationLog records a single notification send attempt. Rows are
// immutable once written.
type NotificationLog struct {
	ID            string              `json:"id"`
	PatientID     string              `json:"patient_id"`
	AppointmentID string              `json:"appointment_id,omitempty"`
	Type          NotificationType    `json:"notification_type"`
	Channel       NotificationChannel `json:"channel"`
	TemplateKey   string              `json:"template_key,omitempty"`
	Content       string              `json:"content,omitempty"`
	Status        NotificationStatus  `json:"status"`
	SentAt        *time.Time          `json:"sent_at,omitempty"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// IncomingMessage is an inbound chat turn handed to the dialog engine.
type IncomingMessage struct {
	ChannelID   string `json:"channel_id"`
	Text        string `json:"text"`
	DisplayName string `json:"display_name,omitempty"`
}

// SendErrorKind classifies channel send failures.
type SendErrorKind string

const (
	SendErrorRecipientNotFound SendErrorKind = "recipient_not_found"
	SendErrorBlocked           SendErrorKind = "blocked"
	SendErrorRateLimited       SendErrorKind = "rate_limited"
	SendErrorOther             SendErrorKind = "other"
)

// SendError wraps a channel delivery failure with its classification.
type SendError struct {
	Kind SendErrorKind
	Err  error
}

// NewSendError builds a SendError of the given kind.
func NewSendError(kind SendErrorKind, err error) *SendError {
	return &SendError{Kind: kind, Err: err}
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// SendErrorKindOf extracts the classification from an error chain, defaulting
// to SendErrorOther.
func SendErrorKindOf(err error) SendErrorKind {
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind
	}
	return SendErrorOther
}
