package scheduling

import (
	"testing"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/store"
)

// fixedNow is a Tuesday morning.
var fixedNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	svc := NewService(st,
		WithLocation(time.UTC),
		WithClock(func() time.Time { return fixedNow }))
	return svc, st
}

func createPatient(t *testing.T, st *store.InMemoryStore) models.Patient {
	t.Helper()
	p, err := st.CreatePatient(models.Patient{FullName: "Aisha Hassan", ChannelID: "962790000001"})
	if err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}
	return p
}

func TestSlotCatalog(t *testing.T) {
	if len(SlotCatalog) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(SlotCatalog))
	}
	if SlotCatalog[0] != "09:00" || SlotCatalog[15] != "16:30" {
		t.Errorf("unexpected catalog bounds: %s .. %s", SlotCatalog[0], SlotCatalog[15])
	}
	if !IsCatalogSlot("12:30") {
		t.Error("expected 12:30 to be a catalog slot")
	}
	if IsCatalogSlot("12:15") {
		t.Error("expected 12:15 to not be a catalog slot")
	}
}

func TestAvailableSlotsExcludesLiveBookings(t *testing.T) {
	svc, st := newTestService(t)
	p := createPatient(t, st)

	if _, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound, Date: "2026-09-02", TimeSlot: "09:00",
	}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	cancelled, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound, Date: "2026-09-02", TimeSlot: "09:30",
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := svc.Cancel(cancelled.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	free, err := svc.AvailableSlots("2026-09-02")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	if len(free) != 15 {
		t.Fatalf("expected 15 free slots, got %d", len(free))
	}
	for _, s := range free {
		if s == "09:00" {
			t.Error("expected 09:00 to be taken")
		}
	}
	if free[0] != "09:30" {
		t.Errorf("expected cancelled 09:30 to be free again, got first slot %s", free[0])
	}
}

func TestAvailableDatesSkipsWeekends(t *testing.T) {
	svc, _ := newTestService(t)
	dates := svc.AvailableDates(fixedNow, DefaultHorizonDays)
	if len(dates) == 0 {
		t.Fatal("expected some available dates")
	}
	if dates[0] != "2026-09-02" {
		t.Errorf("expected first date to be tomorrow, got %s", dates[0])
	}
	for _, d := range dates {
		day, err := time.ParseInLocation(models.DateLayout, d, time.UTC)
		if err != nil {
			t.Fatalf("bad date %q: %v", d, err)
		}
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("weekend date %s offered", d)
		}
	}
}

func TestCreateAppointmentAllocatesQueueNumbers(t *testing.T) {
	svc, st := newTestService(t)
	p := createPatient(t, st)

	first, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeGeneralGyne, Date: "2026-09-02", TimeSlot: "09:00",
	})
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	second, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeGeneralGyne, Date: "2026-09-02", TimeSlot: "09:30",
	})
	if err != nil {
		t.Fatalf("second booking failed: %v", err)
	}
	if first.QueueNumber != 1 || second.QueueNumber != 2 {
		t.Errorf("expected queue numbers 1 and 2, got %d and %d", first.QueueNumber, second.QueueNumber)
	}
	if first.Status != models.StatusBooked {
		t.Errorf("expected booked status, got %s", first.Status)
	}

	// Another day starts counting from 1 again.
	other, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeGeneralGyne, Date: "2026-09-03", TimeSlot: "09:00",
	})
	if err != nil {
		t.Fatalf("other-day booking failed: %v", err)
	}
	if other.QueueNumber != 1 {
		t.Errorf("expected queue number 1 on a fresh day, got %d", other.QueueNumber)
	}
}

func TestCreateAppointmentRejectsTakenSlot(t *testing.T) {
	svc, st := newTestService(t)
	p := createPatient(t, st)

	draft := models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound, Date: "2026-09-02", TimeSlot: "10:00",
	}
	if _, err := svc.CreateAppointment(draft); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.CreateAppointment(draft); err != models.ErrSlotTaken {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}

	// Cancelling frees the slot for rebooking.
	appts, _ := st.FindAppointmentsByDate("2026-09-02")
	if _, err := svc.Cancel(appts[0].ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.CreateAppointment(draft); err != nil {
		t.Errorf("expected cancelled slot to be bookable, got %v", err)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	svc, st := newTestService(t)
	p := createPatient(t, st)

	if _, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitType("dentistry"), Date: "2026-09-02", TimeSlot: "09:00",
	}); err != models.ErrInvalidVisitType {
		t.Errorf("expected ErrInvalidVisitType, got %v", err)
	}
	if _, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound, Date: "2026-09-02", TimeSlot: "09:15",
	}); err != models.ErrInvalidSlot {
		t.Errorf("expected ErrInvalidSlot, got %v", err)
	}
	if _, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: "ghost", VisitType: models.VisitTypeUltrasound, Date: "2026-09-02", TimeSlot: "09:00",
	}); err != models.ErrPatientNotFound {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	svc, st := newTestService(t)
	p := createPatient(t, st)

	appt, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound, Date: "2026-09-02", TimeSlot: "09:00",
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	updated, err := svc.SetStatus(appt.ID, models.StatusArrived)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if updated.Status != models.StatusArrived {
		t.Errorf("expected arrived, got %s", updated.Status)
	}

	// Front desk can reverse a terminal status.
	if _, err := svc.SetStatus(appt.ID, models.StatusFinished); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	reopened, err := svc.SetStatus(appt.ID, models.StatusArrived)
	if err != nil {
		t.Fatalf("SetStatus out of terminal failed: %v", err)
	}
	if reopened.Status != models.StatusArrived {
		t.Errorf("expected arrived after reopen, got %s", reopened.Status)
	}

	if _, err := svc.SetStatus("ghost", models.StatusArrived); err != models.ErrAppointmentNotFound {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestIsBookableDate(t *testing.T) {
	svc, _ := newTestService(t)
	cases := map[string]bool{
		"2026-09-02": true,  // Wednesday
		"2026-09-01": true,  // today
		"2026-08-31": false, // past
		"2026-09-05": false, // Saturday
		"2026-09-06": false, // Sunday
		"02/09/2026": false, // wrong layout
	}
	for date, want := range cases {
		if got := svc.IsBookableDate(date); got != want {
			t.Errorf("IsBookableDate(%q) = %v, want %v", date, got, want)
		}
	}
}

func TestEmergencySlot(t *testing.T) {
	svc, st := newTestService(t)
	p := createPatient(t, st)

	date, slot, ok, err := svc.EmergencySlot(fixedNow)
	if err != nil || !ok {
		t.Fatalf("expected emergency slot today: %v, %v", ok, err)
	}
	if date != "2026-09-01" || slot != "09:00" {
		t.Errorf("expected earliest slot today, got %s %s", date, slot)
	}

	// Fill today completely; the emergency rolls to tomorrow.
	for _, s := range SlotCatalog {
		if _, err := svc.CreateAppointment(models.AppointmentDraft{
			PatientID: p.ID, VisitType: models.VisitTypeGeneralGyne, Date: "2026-09-01", TimeSlot: s,
		}); err != nil {
			t.Fatalf("failed to fill slot %s: %v", s, err)
		}
	}
	date, slot, ok, err = svc.EmergencySlot(fixedNow)
	if err != nil || !ok {
		t.Fatalf("expected emergency slot tomorrow: %v, %v", ok, err)
	}
	if date != "2026-09-02" || slot != "09:00" {
		t.Errorf("expected tomorrow's first slot, got %s %s", date, slot)
	}

	// Fill tomorrow too; no slot remains.
	for _, s := range SlotCatalog {
		if _, err := svc.CreateAppointment(models.AppointmentDraft{
			PatientID: p.ID, VisitType: models.VisitTypeGeneralGyne, Date: "2026-09-02", TimeSlot: s,
		}); err != nil {
			t.Fatalf("failed to fill slot %s: %v", s, err)
		}
	}
	_, _, ok, err = svc.EmergencySlot(fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no emergency slot when both days are full")
	}
}

func TestTodayAppointmentFor(t *testing.T) {
	svc, st := newTestService(t)
	p := createPatient(t, st)

	appt, err := svc.CreateAppointment(models.AppointmentDraft{
		PatientID: p.ID, VisitType: models.VisitTypeUltrasound, Date: "2026-09-01", TimeSlot: "11:00",
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	got, err := svc.TodayAppointmentFor(p.ID, "2026-09-01")
	if err != nil || got == nil {
		t.Fatalf("expected today's appointment: %v, %v", got, err)
	}
	if got.ID != appt.ID {
		t.Errorf("expected appointment %s, got %s", appt.ID, got.ID)
	}

	if _, err := svc.Cancel(appt.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	got, err = svc.TodayAppointmentFor(p.ID, "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected cancelled appointment to not count")
	}
}
