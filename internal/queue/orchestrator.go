// Package queue derives the live day-of visit queue from appointment state
// and drives the arrival / consultation transitions.
package queue

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/scheduling"
	"github.com/mediqueue/MediQueue/internal/store"
)

// ConsultationMinutes is the assumed length of one consultation, used for
// wait estimates.
const ConsultationMinutes = 15

// ThankYouSender is notified when a consultation finishes so the patient can
// receive a thank-you message. Send failures must not block the queue.
type ThankYouSender interface {
	SendThankYou(appt models.Appointment)
}

// QueueEntry is one patient's place in the day's queue.
type QueueEntry struct {
	Appointment models.Appointment
	Position    int // 1-based position in the ordered queue
}

// WaitingRoomEntry is a queue row safe to show on a public board.
type WaitingRoomEntry struct {
	QueueNumber int                      `json:"queue_number"`
	Name        string                   `json:"name"` // anonymized
	Status      models.AppointmentStatus `json:"status"`
	Emergency   bool                     `json:"emergency"`
}

// Orchestrator orders the day's queue and applies queue-state transitions.
type Orchestrator struct {
	store      store.Store
	scheduling *scheduling.Service
	thankYou   ThankYouSender
}

// NewOrchestrator creates a queue orchestrator. thankYou may be nil, in which
// case FinishConsultation skips the thank-you message.
func NewOrchestrator(st store.Store, sched *scheduling.Service, thankYou ThankYouSender) *Orchestrator {
	return &Orchestrator{store: st, scheduling: sched, thankYou: thankYou}
}

// inQueue reports whether an appointment still occupies a queue position.
func inQueue(a models.Appointment) bool {
	switch a.Status {
	case models.StatusCancelled, models.StatusFinished, models.StatusNoShow:
		return false
	default:
		return true
	}
}

// TodayQueue returns the ordered queue for the given date: emergencies first,
// then by queue number. Finished, cancelled and no-show appointments are
// excluded.
func (o *Orchestrator) TodayQueue(date string) ([]QueueEntry, error) {
	appts, err := o.store.FindAppointmentsByDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue for %s: %w", date, err)
	}
	var live []models.Appointment
	for _, a := range appts {
		if inQueue(a) {
			live = append(live, a)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].EmergencyFlag != live[j].EmergencyFlag {
			return live[i].EmergencyFlag
		}
		return live[i].QueueNumber < live[j].QueueNumber
	})
	entries := make([]QueueEntry, len(live))
	for i, a := range live {
		entries[i] = QueueEntry{Appointment: a, Position: i + 1}
	}
	return entries, nil
}

// CurrentPatient returns the appointment currently with the doctor, or nil.
func (o *Orchestrator) CurrentPatient(date string) (*models.Appointment, error) {
	entries, err := o.TodayQueue(date)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Appointment.Status == models.StatusWithDoctor {
			a := e.Appointment
			return &a, nil
		}
	}
	return nil, nil
}

// NextPatient returns the first arrived appointment in queue order, or nil
// when nobody is waiting.
func (o *Orchestrator) NextPatient(date string) (*models.Appointment, error) {
	entries, err := o.TodayQueue(date)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Appointment.Status == models.StatusArrived {
			a := e.Appointment
			return &a, nil
		}
	}
	return nil, nil
}

// QueuePosition returns the 1-based queue position of the appointment, or 0
// when it is not in the live queue.
func (o *Orchestrator) QueuePosition(appointmentID, date string) (int, error) {
	entries, err := o.TodayQueue(date)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.Appointment.ID == appointmentID {
			return e.Position, nil
		}
	}
	return 0, nil
}

// EstimatedWaitMinutes estimates the wait for the given queue position,
// assuming ConsultationMinutes per patient ahead.
func EstimatedWaitMinutes(position int) int {
	if position <= 1 {
		return 0
	}
	return (position - 1) * ConsultationMinutes
}

// MarkArrived records that the patient checked in at the clinic.
func (o *Orchestrator) MarkArrived(appointmentID string) (models.Appointment, error) {
	appt, err := o.scheduling.SetStatus(appointmentID, models.StatusArrived)
	if err != nil {
		return models.Appointment{}, err
	}
	slog.Info("Patient arrived", "appointment_id", appointmentID, "queue_number", appt.QueueNumber)
	return appt, nil
}

// StartConsultation moves the appointment to with-doctor.
func (o *Orchestrator) StartConsultation(appointmentID string) (models.Appointment, error) {
	appt, err := o.scheduling.SetStatus(appointmentID, models.StatusWithDoctor)
	if err != nil {
		return models.Appointment{}, err
	}
	slog.Info("Consultation started", "appointment_id", appointmentID, "queue_number", appt.QueueNumber)
	return appt, nil
}

// FinishConsultation marks the appointment finished and triggers the
// thank-you message.
func (o *Orchestrator) FinishConsultation(appointmentID string) (models.Appointment, error) {
	appt, err := o.scheduling.SetStatus(appointmentID, models.StatusFinished)
	if err != nil {
		return models.Appointment{}, err
	}
	slog.Info("Consultation finished", "appointment_id", appointmentID, "queue_number", appt.QueueNumber)
	if o.thankYou != nil {
		o.thankYou.SendThankYou(appt)
	}
	return appt, nil
}

// MarkNoShow records that the patient never arrived.
func (o *Orchestrator) MarkNoShow(appointmentID string) (models.Appointment, error) {
	return o.scheduling.SetStatus(appointmentID, models.StatusNoShow)
}

// WaitingRoomView returns the queue for a public display, with patient names
// anonymized.
func (o *Orchestrator) WaitingRoomView(date string) ([]WaitingRoomEntry, error) {
	entries, err := o.TodayQueue(date)
	if err != nil {
		return nil, err
	}
	out := make([]WaitingRoomEntry, 0, len(entries))
	for _, e := range entries {
		name := ""
		if p, err := o.store.GetPatient(e.Appointment.PatientID); err != nil {
			slog.Warn("Waiting room patient lookup failed", "patient_id", e.Appointment.PatientID, "error", err)
		} else if p != nil {
			name = anonymizeName(p.FullName)
		}
		out = append(out, WaitingRoomEntry{
			QueueNumber: e.Appointment.QueueNumber,
			Name:        name,
			Status:      e.Appointment.Status,
			Emergency:   e.Appointment.EmergencyFlag,
		})
	}
	return out, nil
}

// anonymizeName reduces a full name to "F. Last" when it has multiple words,
// otherwise to the first two characters plus "***".
func anonymizeName(full string) string {
	fields := strings.Fields(full)
	if len(fields) >= 2 {
		first := []rune(fields[0])
		return string(first[0]) + ". " + fields[len(fields)-1]
	}
	if len(fields) == 0 {
		return ""
	}
	runes := []rune(fields[0])
	if len(runes) <= 2 {
		return fields[0] + "***"
	}
	return string(runes[:2]) + "***"
}
