package dialog

import (
	"strings"
	"testing"
	"time"

	"github.com/mediqueue/MediQueue/internal/i18n"
	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/queue"
	"github.com/mediqueue/MediQueue/internal/scheduling"
	"github.com/mediqueue/MediQueue/internal/session"
	"github.com/mediqueue/MediQueue/internal/store"
)

// fixedNow is a Tuesday morning; the first offered booking date is Wednesday
// 02/09/2026.
var fixedNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

type fakeRecorder struct {
	recorded []models.Appointment
	contents []string
}

func (f *fakeRecorder) RecordBookingConfirmation(appt models.Appointment, content string) {
	f.recorded = append(f.recorded, appt)
	f.contents = append(f.contents, content)
}

type testRig struct {
	engine   *Engine
	store    *store.InMemoryStore
	sessions *session.Store
	sched    *scheduling.Service
	recorder *fakeRecorder
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	st := store.NewInMemoryStore()
	sessions := session.NewStore()
	sched := scheduling.NewService(st,
		scheduling.WithLocation(time.UTC),
		scheduling.WithClock(func() time.Time { return fixedNow }))
	q := queue.NewOrchestrator(st, sched, nil)
	rec := &fakeRecorder{}
	engine := NewEngine(sessions, st, sched, q, i18n.NewCatalog(),
		WithClock(func() time.Time { return fixedNow }),
		WithRecorder(rec))
	return &testRig{engine: engine, store: st, sessions: sessions, sched: sched, recorder: rec}
}

// chat plays a scripted conversation and returns the last reply.
func (r *testRig) chat(channelID string, inputs ...string) string {
	var reply string
	for _, text := range inputs {
		reply = r.engine.Handle(models.IncomingMessage{ChannelID: channelID, Text: text})
	}
	return reply
}

func TestFirstContactAsksForLanguage(t *testing.T) {
	r := newTestRig(t)
	reply := r.chat("962790000001", "hi")
	if !strings.Contains(reply, "choose your language") {
		t.Errorf("expected language prompt, got %q", reply)
	}
}

func TestLanguageSelectLeadsToMenu(t *testing.T) {
	r := newTestRig(t)
	reply := r.chat("962790000001", "hi", "1")
	if !strings.Contains(reply, "Welcome to the OB/GYN Clinic") || !strings.Contains(reply, "1️⃣") {
		t.Errorf("expected English main menu, got %q", reply)
	}
}

func TestReturningPatientSkipsLanguageQuestion(t *testing.T) {
	r := newTestRig(t)
	r.store.CreatePatient(models.Patient{
		FullName: "Aisha", ChannelID: "962790000001", Language: models.LanguageArabic,
	})
	reply := r.chat("962790000001", "hello", "anything")
	if !strings.Contains(reply, "أهلاً بك") {
		t.Errorf("expected Arabic menu for returning patient, got %q", reply)
	}
}

func TestInvalidMenuChoiceReprompts(t *testing.T) {
	r := newTestRig(t)
	reply := r.chat("962790000001", "hi", "1", "42")
	if !strings.Contains(reply, "Invalid option") {
		t.Errorf("expected invalid-menu message, got %q", reply)
	}
}

func TestGeneralGyneBookingHappyPath(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000001"

	reply := r.chat(ch, "hi", "1", "6")
	if !strings.Contains(reply, "full name") {
		t.Fatalf("expected name prompt, got %q", reply)
	}
	reply = r.chat(ch, "Aisha Hassan")
	if !strings.Contains(reply, "Select Appointment Date") || !strings.Contains(reply, "02/09/2026") {
		t.Fatalf("expected date list starting tomorrow, got %q", reply)
	}
	reply = r.chat(ch, "02/09/2026")
	if !strings.Contains(reply, "Select Time Slot") || !strings.Contains(reply, "1. 09:00") {
		t.Fatalf("expected slot list, got %q", reply)
	}
	reply = r.chat(ch, "1")
	if !strings.Contains(reply, "Appointment Summary") || !strings.Contains(reply, "General Gynecology") {
		t.Fatalf("expected confirmation summary, got %q", reply)
	}
	reply = r.chat(ch, "1")
	if !strings.Contains(reply, "APPOINTMENT CONFIRMED") || !strings.Contains(reply, "#1") {
		t.Fatalf("expected booking confirmation with queue number, got %q", reply)
	}

	appts, _ := r.store.FindAppointmentsByDate("2026-09-02")
	if len(appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts))
	}
	appt := appts[0]
	if appt.VisitType != models.VisitTypeGeneralGyne || appt.TimeSlot != "09:00" || appt.QueueNumber != 1 {
		t.Errorf("unexpected appointment: %+v", appt)
	}
	if appt.Status != models.StatusBooked {
		t.Errorf("expected booked status, got %s", appt.Status)
	}
	if appt.Source != models.SourceWhatsApp {
		t.Errorf("expected whatsapp source, got %s", appt.Source)
	}

	if len(r.recorder.recorded) != 1 || r.recorder.recorded[0].ID != appt.ID {
		t.Error("expected the confirmation to be recorded once")
	}

	// The finished conversation is discarded.
	if _, ok := r.sessions.Peek(ch); ok {
		t.Error("expected session to be removed after booking")
	}
}

func TestPregnancyFirstVisitRecordsPregnancy(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000002"

	reply := r.chat(ch, "hi", "1", "1", "1")
	if !strings.Contains(reply, "full name") {
		t.Fatalf("expected name prompt, got %q", reply)
	}
	reply = r.chat(ch, "Fatima Omar")
	if !strings.Contains(reply, "Last Menstrual Period") {
		t.Fatalf("expected LMP prompt, got %q", reply)
	}

	// A future LMP is rejected.
	reply = r.chat(ch, "15/11/2026")
	if !strings.Contains(reply, "Invalid date") {
		t.Fatalf("expected future LMP rejection, got %q", reply)
	}

	reply = r.chat(ch, "01/06/2026")
	if !strings.Contains(reply, "first pregnancy") {
		t.Fatalf("expected first-pregnancy question, got %q", reply)
	}
	reply = r.chat(ch, "1", "02/09/2026", "1", "1")
	if !strings.Contains(reply, "APPOINTMENT CONFIRMED") {
		t.Fatalf("expected confirmation, got %q", reply)
	}

	p, _ := r.store.FindPatientByChannelID(ch)
	if p == nil {
		t.Fatal("expected patient record")
	}
	preg, err := r.store.CurrentPregnancy(p.ID)
	if err != nil || preg == nil {
		t.Fatalf("expected pregnancy record: %v, %v", preg, err)
	}
	if preg.LMPDate != "2026-06-01" {
		t.Errorf("expected LMP 2026-06-01, got %s", preg.LMPDate)
	}
}

func TestEmergencyFlowBooksUrgentSlot(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000003"

	reply := r.chat(ch, "hi", "2", "8")
	if !strings.Contains(reply, "حالة طارئة") {
		t.Fatalf("expected Arabic emergency menu, got %q", reply)
	}
	reply = r.chat(ch, "1", "قبل ساعتين", "2")
	if !strings.Contains(reply, "تم تأكيد الموعد") || !strings.Contains(reply, "تم تسجيل الحالة الطارئة") {
		t.Fatalf("expected confirmation plus walk-in notice, got %q", reply)
	}

	appts, _ := r.store.FindAppointmentsByDate("2026-09-01")
	if len(appts) != 1 {
		t.Fatalf("expected 1 same-day appointment, got %d", len(appts))
	}
	appt := appts[0]
	if !appt.EmergencyFlag || appt.VisitType != models.VisitTypeEmergency {
		t.Errorf("expected flagged emergency appointment, got %+v", appt)
	}
	if appt.TimeSlot != "09:00" {
		t.Errorf("expected earliest slot, got %s", appt.TimeSlot)
	}
	if !strings.Contains(appt.Notes, "heavy_bleeding") {
		t.Errorf("expected symptom in notes, got %q", appt.Notes)
	}

	// Intake skipped the name question; the patient got a placeholder record.
	p, _ := r.store.FindPatientByChannelID(ch)
	if p == nil {
		t.Fatal("expected emergency patient record")
	}
}

func TestEmergencyPregnantAsksWeeks(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000004"

	reply := r.chat(ch, "hi", "1", "8", "2", "this morning", "1")
	if !strings.Contains(reply, "weeks pregnant") {
		t.Fatalf("expected gestation question, got %q", reply)
	}
	reply = r.chat(ch, "24")
	if !strings.Contains(reply, "EMERGENCY CASE REGISTERED") {
		t.Fatalf("expected walk-in notice, got %q", reply)
	}
	appts, _ := r.store.FindAppointmentsByDate("2026-09-01")
	if len(appts) != 1 || appts[0].BookingData["emergency_weeks"] != "24" {
		t.Errorf("expected recorded gestation weeks, got %+v", appts)
	}
}

func TestSlotTakenSendsBackToTimeSelection(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000005"

	reply := r.chat(ch, "hi", "1", "2", "Aisha Hassan", "02/09/2026", "1")
	if !strings.Contains(reply, "Appointment Summary") {
		t.Fatalf("expected summary, got %q", reply)
	}

	// Another patient grabs 09:00 before the confirmation lands.
	rival, _ := r.store.CreatePatient(models.Patient{FullName: "Rival", ChannelID: "other"})
	if _, err := r.sched.CreateAppointment(models.AppointmentDraft{
		PatientID: rival.ID, VisitType: models.VisitTypeUltrasound, Date: "2026-09-02", TimeSlot: "09:00",
	}); err != nil {
		t.Fatalf("rival booking failed: %v", err)
	}

	reply = r.chat(ch, "1")
	if !strings.Contains(reply, "just taken") {
		t.Fatalf("expected slot-taken message, got %q", reply)
	}
	// The listed slots no longer include 09:00; option 1 is now 09:30.
	reply = r.chat(ch, "1", "1")
	if !strings.Contains(reply, "APPOINTMENT CONFIRMED") {
		t.Fatalf("expected rebooking to succeed, got %q", reply)
	}
	appts, _ := r.store.FindAppointmentsByDate("2026-09-02")
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}
}

func TestDeclinedConfirmationAbortsBooking(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000006"

	reply := r.chat(ch, "hi", "1", "7", "Aisha Hassan", "02/09/2026", "1", "2")
	if !strings.Contains(reply, "Booking cancelled") {
		t.Fatalf("expected abort message, got %q", reply)
	}
	appts, _ := r.store.FindAppointmentsByDate("2026-09-02")
	if len(appts) != 0 {
		t.Errorf("expected no appointment, got %d", len(appts))
	}
}

func TestPastBookingDateRejected(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000007"

	reply := r.chat(ch, "hi", "1", "2", "Aisha", "31/08/2026")
	if !strings.Contains(reply, "in the past") {
		t.Errorf("expected past-date rejection, got %q", reply)
	}
	reply = r.chat(ch, "05/09/2026") // Saturday
	if !strings.Contains(reply, "Invalid date") {
		t.Errorf("expected weekend rejection, got %q", reply)
	}
}

func TestQueueStatusWithoutRecord(t *testing.T) {
	r := newTestRig(t)
	reply := r.chat("962790000008", "hi", "1", "10")
	if !strings.Contains(reply, "couldn't find your information") {
		t.Errorf("expected no-record message, got %q", reply)
	}
}

func TestQueueStatusForArrivedPatient(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000009"
	p, _ := r.store.CreatePatient(models.Patient{FullName: "Aisha", ChannelID: ch, Language: models.LanguageEnglish})
	r.store.CreateAppointment(models.Appointment{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound,
		Date: "2026-09-01", TimeSlot: "10:00", QueueNumber: 2, Status: models.StatusArrived,
	})
	r.store.CreateAppointment(models.Appointment{
		PatientID: "someone-else", VisitType: models.VisitTypeUltrasound,
		Date: "2026-09-01", TimeSlot: "09:00", QueueNumber: 1, Status: models.StatusArrived,
	})

	reply := r.chat(ch, "hi", "1", "10")
	if !strings.Contains(reply, "Queue position: 2") {
		t.Errorf("expected position 2, got %q", reply)
	}
	if !strings.Contains(reply, "Estimated wait time: 15 minutes") {
		t.Errorf("expected wait estimate, got %q", reply)
	}
}

func TestQueueStatusNoAppointmentToday(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000010"
	r.store.CreatePatient(models.Patient{FullName: "Aisha", ChannelID: ch, Language: models.LanguageEnglish})

	reply := r.chat(ch, "hi", "1", "10")
	if !strings.Contains(reply, "don't have an appointment scheduled for today") {
		t.Errorf("expected no-appointment message, got %q", reply)
	}
}

func TestMenuKeywordRestartsMidFlow(t *testing.T) {
	r := newTestRig(t)
	ch := "962790000011"

	r.chat(ch, "hi", "1", "2", "Aisha")
	reply := r.chat(ch, "menu")
	if !strings.Contains(reply, "Welcome to the OB/GYN Clinic") {
		t.Fatalf("expected menu after reset, got %q", reply)
	}
	sess, ok := r.sessions.Peek(ch)
	if !ok {
		t.Fatal("expected session to survive reset")
	}
	if len(sess.Data) != 0 {
		t.Errorf("expected collected data to be dropped, got %v", sess.Data)
	}
}

func TestBlankChannelIgnored(t *testing.T) {
	r := newTestRig(t)
	if reply := r.engine.Handle(models.IncomingMessage{ChannelID: " ", Text: "hi"}); reply != "" {
		t.Errorf("expected empty reply, got %q", reply)
	}
}
