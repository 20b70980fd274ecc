package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mediqueue/MediQueue/internal/i18n"
	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/store"
)

type fakeService struct {
	sent []sentMessage
	err  error
}

type sentMessage struct {
	to   string
	body string
}

func (f *fakeService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return recipient, nil
}

func (f *fakeService) SendMessage(ctx context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return nil
}

func (f *fakeService) Channel() models.NotificationChannel {
	return models.ChannelWhatsApp
}

func (f *fakeService) Start(ctx context.Context) error { return nil }

func (f *fakeService) Stop() error { return nil }

func (f *fakeService) Responses() <-chan models.IncomingMessage { return nil }

func newTestNotifier(t *testing.T) (*Notifier, *store.InMemoryStore, *fakeService) {
	t.Helper()
	st := store.NewInMemoryStore()
	svc := &fakeService{}
	return NewNotifier(st, i18n.NewCatalog(), svc), st, svc
}

func setupAppointment(t *testing.T, st *store.InMemoryStore) (models.Patient, models.Appointment) {
	t.Helper()
	p, err := st.CreatePatient(models.Patient{
		FullName: "Aisha Hassan", ChannelID: "962790000001", Language: models.LanguageEnglish,
	})
	if err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}
	appt, err := st.CreateAppointment(models.Appointment{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound,
		Date: "2026-09-02", TimeSlot: "09:00", QueueNumber: 3, Status: models.StatusBooked,
	})
	if err != nil {
		t.Fatalf("failed to create appointment: %v", err)
	}
	return p, appt
}

func TestSendReminderDeliversAndLogs(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	p, appt := setupAppointment(t, st)

	if err := n.SendReminder(appt, models.NotificationReminder24H); err != nil {
		t.Fatalf("SendReminder failed: %v", err)
	}
	if len(svc.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(svc.sent))
	}
	if svc.sent[0].to != p.ChannelID {
		t.Errorf("expected message to %s, got %s", p.ChannelID, svc.sent[0].to)
	}
	if !strings.Contains(svc.sent[0].body, "24 hours") || !strings.Contains(svc.sent[0].body, "2026-09-02") {
		t.Errorf("unexpected reminder body: %q", svc.sent[0].body)
	}

	sent, err := st.HasSentNotification(appt.ID, models.NotificationReminder24H)
	if err != nil || !sent {
		t.Errorf("expected SENT log record: %v, %v", sent, err)
	}
}

func TestSendReminderUnknownType(t *testing.T) {
	n, st, _ := newTestNotifier(t)
	_, appt := setupAppointment(t, st)

	if err := n.SendReminder(appt, models.NotificationThankYou); err == nil {
		t.Error("expected error for a non-reminder type")
	}
}

func TestSendFailureLogsFailedAndReturnsError(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	p, appt := setupAppointment(t, st)
	svc.err = models.NewSendError(models.SendErrorRateLimited, errors.New("too many requests"))

	if err := n.SendReminder(appt, models.NotificationReminder1H); err == nil {
		t.Fatal("expected send error to propagate")
	}
	sent, _ := st.HasSentNotification(appt.ID, models.NotificationReminder1H)
	if sent {
		t.Error("expected no SENT record after a failure")
	}
	history, _ := st.NotificationHistory(p.ID, 10)
	if len(history) != 1 || history[0].Status != models.NotificationFailed {
		t.Fatalf("expected one FAILED record, got %+v", history)
	}
	if history[0].ErrorMessage == "" {
		t.Error("expected error message to be recorded")
	}

	// A later attempt succeeds; the earlier failure does not block it.
	svc.err = nil
	if err := n.SendReminder(appt, models.NotificationReminder1H); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	sent, _ = st.HasSentNotification(appt.ID, models.NotificationReminder1H)
	if !sent {
		t.Error("expected retry to record SENT")
	}
}

func TestDuplicateSendTreatedAsDelivered(t *testing.T) {
	n, st, _ := newTestNotifier(t)
	p, appt := setupAppointment(t, st)

	if err := n.SendReminder(appt, models.NotificationReminder30M); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := n.SendReminder(appt, models.NotificationReminder30M); err != nil {
		t.Errorf("expected duplicate to be swallowed, got %v", err)
	}
	history, _ := st.NotificationHistory(p.ID, 10)
	if len(history) != 1 {
		t.Errorf("expected a single log row, got %d", len(history))
	}
}

func TestSendBookingConfirmation(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	_, appt := setupAppointment(t, st)

	if err := n.SendBookingConfirmation(appt); err != nil {
		t.Fatalf("SendBookingConfirmation failed: %v", err)
	}
	if len(svc.sent) != 1 || !strings.Contains(svc.sent[0].body, "Appointment Confirmed") {
		t.Errorf("unexpected confirmation: %+v", svc.sent)
	}
}

func TestRecordBookingConfirmationDoesNotSend(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	p, appt := setupAppointment(t, st)

	n.RecordBookingConfirmation(appt, "confirmation text already delivered in-dialog")

	if len(svc.sent) != 0 {
		t.Errorf("expected no outbound message, got %d", len(svc.sent))
	}
	sent, err := st.HasSentNotification(appt.ID, models.NotificationBookingConfirmation)
	if err != nil || !sent {
		t.Errorf("expected SENT record: %v, %v", sent, err)
	}
	history, _ := st.NotificationHistory(p.ID, 10)
	if len(history) != 1 || history[0].Content != "confirmation text already delivered in-dialog" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestSendQueueUpdate(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	_, appt := setupAppointment(t, st)

	if err := n.SendQueueUpdate(appt, 2, 15); err != nil {
		t.Fatalf("SendQueueUpdate failed: %v", err)
	}
	body := svc.sent[0].body
	if !strings.Contains(body, "Your position: 2") || !strings.Contains(body, "15 minutes") {
		t.Errorf("unexpected queue update body: %q", body)
	}
}

func TestSendThankYouSwallowsErrors(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	_, appt := setupAppointment(t, st)
	svc.err = errors.New("transport down")

	// Must not panic or propagate; the queue flow continues regardless.
	n.SendThankYou(appt)
}

func TestSendMilestoneDedup(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	p, _ := setupAppointment(t, st)

	if err := n.SendMilestone(p, i18n.KeyMilestone20W, 20); err != nil {
		t.Fatalf("first milestone failed: %v", err)
	}
	if len(svc.sent) != 1 || !strings.Contains(svc.sent[0].body, "20 weeks") {
		t.Fatalf("unexpected milestone message: %+v", svc.sent)
	}
	if err := n.SendMilestone(p, i18n.KeyMilestone20W, 20); err != nil {
		t.Fatalf("repeat milestone errored: %v", err)
	}
	if len(svc.sent) != 1 {
		t.Errorf("expected repeat milestone to be skipped, got %d sends", len(svc.sent))
	}

	// A different milestone still goes out.
	if err := n.SendMilestone(p, i18n.KeyMilestone28W, 28); err != nil {
		t.Fatalf("next milestone failed: %v", err)
	}
	if len(svc.sent) != 2 {
		t.Errorf("expected 2 sends, got %d", len(svc.sent))
	}
}

func TestPatientWithoutChannelIdentity(t *testing.T) {
	n, st, svc := newTestNotifier(t)
	p, _ := st.CreatePatient(models.Patient{FullName: "Walk In"})
	appt, _ := st.CreateAppointment(models.Appointment{
		PatientID: p.ID, VisitType: models.VisitTypeGeneralGyne,
		Date: "2026-09-02", TimeSlot: "09:00", QueueNumber: 1, Status: models.StatusBooked,
	})

	if err := n.SendBookingConfirmation(appt); err == nil {
		t.Error("expected error for patient without channel identity")
	}
	if len(svc.sent) != 0 {
		t.Errorf("expected no send attempt, got %d", len(svc.sent))
	}
}

func TestSendReminderMissingPatient(t *testing.T) {
	n, _, _ := newTestNotifier(t)
	appt := models.Appointment{ID: "a1", PatientID: "ghost", Date: "2026-09-02", TimeSlot: "09:00"}
	if err := n.SendReminder(appt, models.NotificationReminder24H); !errors.Is(err, models.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}
