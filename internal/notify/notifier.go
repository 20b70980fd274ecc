// Package notify renders and delivers outbound notifications, recording
// every attempt in the notification log.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediqueue/MediQueue/internal/i18n"
	"github.com/mediqueue/MediQueue/internal/messaging"
	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/store"
)

// SendTimeout bounds a single delivery attempt.
const SendTimeout = 30 * time.Second

// MilestoneTemplateKeys maps milestone reminder windows to the template that
// serves them. Dedup for milestones is per patient and template key.
var MilestoneTemplateKeys = map[i18n.Key]struct{ FromWeek, ToWeek int }{
	i18n.KeyMilestone12W: {11, 13},
	i18n.KeyMilestone20W: {19, 23},
	i18n.KeyMilestone28W: {27, 29},
}

// Notifier renders localized notifications, sends them over the messaging
// service and logs the outcome.
type Notifier struct {
	store      store.Store
	translator i18n.Translator
	msgService messaging.Service
}

// NewNotifier creates a notifier over the given store, translator and
// transport.
func NewNotifier(st store.Store, tr i18n.Translator, svc messaging.Service) *Notifier {
	return &Notifier{store: st, translator: tr, msgService: svc}
}

// deliver sends content to the patient and writes the log row. A duplicate
// SENT row for the same (appointment, type) pair is treated as already
// delivered, not an error.
func (n *Notifier) deliver(patient models.Patient, appointmentID string, nType models.NotificationType, templateKey i18n.Key, content string) error {
	if patient.ChannelID == "" {
		return fmt.Errorf("patient %s has no channel identity", patient.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
	defer cancel()

	sendErr := n.msgService.SendMessage(ctx, patient.ChannelID, content)

	log := models.NotificationLog{
		PatientID:     patient.ID,
		AppointmentID: appointmentID,
		Type:          nType,
		Channel:       n.msgService.Channel(),
		TemplateKey:   string(templateKey),
		Content:       content,
	}
	if sendErr != nil {
		log.Status = models.NotificationFailed
		log.ErrorMessage = sendErr.Error()
		slog.Error("Notification send failed",
			"patient_id", patient.ID, "type", nType,
			"kind", models.SendErrorKindOf(sendErr), "error", sendErr)
	} else {
		now := time.Now()
		log.Status = models.NotificationSent
		log.SentAt = &now
	}

	if _, err := n.store.LogNotification(log); err != nil {
		if err == store.ErrDuplicateSend {
			slog.Debug("Notification already sent", "patient_id", patient.ID, "appointment_id", appointmentID, "type", nType)
			return nil
		}
		slog.Error("Failed to log notification", "patient_id", patient.ID, "type", nType, "error", err)
		return err
	}
	if sendErr != nil {
		return sendErr
	}
	slog.Debug("Notification delivered", "patient_id", patient.ID, "type", nType)
	return nil
}

// patientFor loads the appointment's patient record.
func (n *Notifier) patientFor(appt models.Appointment) (models.Patient, error) {
	p, err := n.store.GetPatient(appt.PatientID)
	if err != nil {
		return models.Patient{}, fmt.Errorf("failed to load patient %s: %w", appt.PatientID, err)
	}
	if p == nil {
		return models.Patient{}, models.ErrPatientNotFound
	}
	return *p, nil
}

// SendBookingConfirmation sends the post-booking confirmation message.
func (n *Notifier) SendBookingConfirmation(appt models.Appointment) error {
	patient, err := n.patientFor(appt)
	if err != nil {
		return err
	}
	content := n.translator.Render(i18n.KeyBookingConfirmation, patient.Language,
		appt.Date, appt.TimeSlot, n.translator.VisitTypeLabel(appt.VisitType, patient.Language), appt.QueueNumber)
	return n.deliver(patient, appt.ID, models.NotificationBookingConfirmation, i18n.KeyBookingConfirmation, content)
}

// RecordBookingConfirmation logs a booking confirmation that the dialog
// engine already delivered as its reply, so no second message is sent.
func (n *Notifier) RecordBookingConfirmation(appt models.Appointment, content string) {
	now := time.Now()
	_, err := n.store.LogNotification(models.NotificationLog{
		PatientID:     appt.PatientID,
		AppointmentID: appt.ID,
		Type:          models.NotificationBookingConfirmation,
		Channel:       n.msgService.Channel(),
		TemplateKey:   string(i18n.KeyBookingDone),
		Content:       content,
		Status:        models.NotificationSent,
		SentAt:        &now,
	})
	if err != nil && err != store.ErrDuplicateSend {
		slog.Error("Failed to record booking confirmation", "appointment_id", appt.ID, "error", err)
	}
}

// SendReminder sends one of the timed appointment reminders.
func (n *Notifier) SendReminder(appt models.Appointment, nType models.NotificationType) error {
	var key i18n.Key
	switch nType {
	case models.NotificationReminder24H:
		key = i18n.KeyReminder24H
	case models.NotificationReminder1H:
		key = i18n.KeyReminder1H
	case models.NotificationReminder30M:
		key = i18n.KeyReminder30M
	default:
		return fmt.Errorf("unsupported reminder type %q", nType)
	}
	patient, err := n.patientFor(appt)
	if err != nil {
		return err
	}
	content := n.translator.Render(key, patient.Language, appt.Date, appt.TimeSlot, appt.QueueNumber)
	return n.deliver(patient, appt.ID, nType, key, content)
}

// SendQueueUpdate tells the patient their live queue position and wait.
func (n *Notifier) SendQueueUpdate(appt models.Appointment, position, waitMinutes int) error {
	patient, err := n.patientFor(appt)
	if err != nil {
		return err
	}
	content := n.translator.Render(i18n.KeyQueueUpdate, patient.Language, appt.QueueNumber, position, waitMinutes)
	return n.deliver(patient, appt.ID, models.NotificationQueueUpdate, i18n.KeyQueueUpdate, content)
}

// SendThankYou sends the post-visit thank-you and feedback prompt. It is
// called from the queue orchestrator and must never block the queue, so
// failures are logged and swallowed.
func (n *Notifier) SendThankYou(appt models.Appointment) {
	patient, err := n.patientFor(appt)
	if err != nil {
		slog.Error("Thank-you skipped", "appointment_id", appt.ID, "error", err)
		return
	}
	content := n.translator.Render(i18n.KeyThankYou, patient.Language)
	if err := n.deliver(patient, appt.ID, models.NotificationThankYou, i18n.KeyThankYou, content); err != nil {
		slog.Error("Thank-you delivery failed", "appointment_id", appt.ID, "error", err)
	}
}

// SendAppointmentCancelled notifies the patient their appointment was
// cancelled.
func (n *Notifier) SendAppointmentCancelled(appt models.Appointment) error {
	patient, err := n.patientFor(appt)
	if err != nil {
		return err
	}
	content := n.translator.Render(i18n.KeyApptCancelled, patient.Language, appt.Date, appt.TimeSlot)
	return n.deliver(patient, appt.ID, models.NotificationAppointmentCancelled, i18n.KeyApptCancelled, content)
}

// SendMilestone sends a gestational milestone reminder. Dedup is per patient
// and template key: the call is skipped when a SENT record already exists.
func (n *Notifier) SendMilestone(patient models.Patient, key i18n.Key, weeks int) error {
	sent, err := n.store.HasSentMilestone(patient.ID, string(key))
	if err != nil {
		return fmt.Errorf("milestone dedup check failed: %w", err)
	}
	if sent {
		slog.Debug("Milestone already sent", "patient_id", patient.ID, "template", key)
		return nil
	}
	content := n.translator.Render(key, patient.Language, weeks)
	return n.deliver(patient, "", models.NotificationPregnancyMilestone, key, content)
}
