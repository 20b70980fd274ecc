package dialog

import (
	"log/slog"
	"strings"
	"time"

	"github.com/mediqueue/MediQueue/internal/i18n"
	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/queue"
	"github.com/mediqueue/MediQueue/internal/scheduling"
	"github.com/mediqueue/MediQueue/internal/session"
	"github.com/mediqueue/MediQueue/internal/store"
)

// datesShown caps how many upcoming dates a single prompt lists.
const datesShown = 10

// symptomTokens maps the pregnancy follow-up symptom menu to stored values.
var symptomTokens = []string{
	"none", "bleeding", "reduced_fetal_movements", "severe_pain", "other",
}

// emergencySymptomTokens maps the emergency symptom menu to stored values.
var emergencySymptomTokens = []string{
	"heavy_bleeding", "reduced_fetal_movement", "sudden_severe_pain",
	"fluid_leakage", "csection_wound", "fever_headache_visual", "other",
}

// BookingRecorder logs a booking confirmation that was delivered as the
// dialog reply itself, so the notification history stays complete without a
// second send.
type BookingRecorder interface {
	RecordBookingConfirmation(appt models.Appointment, content string)
}

// Opts holds configuration for the dialog engine.
type Opts struct {
	Source   models.AppointmentSource
	Recorder BookingRecorder
	Clock    func() time.Time
}

// Option configures the dialog engine.
type Option func(*Opts)

// WithSource sets the appointment source recorded for bookings made through
// this engine instance.
func WithSource(src models.AppointmentSource) Option {
	return func(o *Opts) { o.Source = src }
}

// WithRecorder sets the booking-confirmation recorder.
func WithRecorder(r BookingRecorder) Option {
	return func(o *Opts) { o.Recorder = r }
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// Engine is the per-channel conversational state machine. One engine serves
// all channels; per-channel state lives in the session store.
type Engine struct {
	sessions   *session.Store
	store      store.Store
	scheduling *scheduling.Service
	queue      *queue.Orchestrator
	translator i18n.Translator
	source     models.AppointmentSource
	recorder   BookingRecorder
	now        func() time.Time
}

// NewEngine creates a dialog engine.
func NewEngine(sessions *session.Store, st store.Store, sched *scheduling.Service, q *queue.Orchestrator, tr i18n.Translator, opts ...Option) *Engine {
	cfg := Opts{Source: models.SourceWhatsApp, Clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		sessions:   sessions,
		store:      st,
		scheduling: sched,
		queue:      q,
		translator: tr,
		source:     cfg.Source,
		recorder:   cfg.Recorder,
		now:        cfg.Clock,
	}
}

// Handle processes one inbound message and returns the reply text. An empty
// reply means nothing should be sent.
func (e *Engine) Handle(msg models.IncomingMessage) string {
	if strings.TrimSpace(msg.ChannelID) == "" {
		slog.Error("Dialog received message without channel id")
		return ""
	}
	var reply string
	e.sessions.With(msg.ChannelID, func(sess *models.ConversationSession) bool {
		var done bool
		reply, done = e.turn(sess, msg)
		slog.Debug("Dialog turn handled", "channelID", msg.ChannelID, "step", sess.Step, "done", done)
		return done
	})
	return reply
}

func (e *Engine) render(sess *models.ConversationSession, key i18n.Key, args ...any) string {
	return e.translator.Render(key, sess.Language, args...)
}

// turn advances the session state machine by one message.
func (e *Engine) turn(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	if isResetKeyword(msg.Text) {
		sess.Data = make(map[models.DataKey]string)
		if sess.Language == "" {
			sess.Step = models.StepLanguageSelect
			return e.render(sess, i18n.KeyChooseLanguage), false
		}
		sess.Step = models.StepMenu
		return e.render(sess, i18n.KeyMainMenu), false
	}

	switch sess.Step {
	case models.StepLanguageSelect:
		return e.stepLanguageSelect(sess, msg)
	case models.StepMenu:
		return e.stepMenu(sess, msg)
	case models.StepPregnancyKind:
		return e.stepPregnancyKind(sess, msg)
	case models.StepPregnancyFirstName, models.StepPregnancyFollowName,
		models.StepUltrasoundName, models.StepPostpartumName,
		models.StepFamilyPlanName, models.StepInfertilityName,
		models.StepGeneralGyneName, models.StepPapSmearName:
		return e.stepName(sess, msg)
	case models.StepPregnancyFirstLMP, models.StepPregnancyFollowLMP:
		return e.stepLMP(sess, msg)
	case models.StepPregnancyFirstPrevious:
		return e.stepFirstPregnancy(sess, msg)
	case models.StepPregnancySymptoms:
		return e.stepSymptoms(sess, msg)
	case models.StepPostpartumKind:
		return e.stepPostpartumKind(sess, msg)
	case models.StepFamilyPlanDelivery:
		return e.stepLastDelivery(sess, msg)
	case models.StepFamilyPlanFeeding:
		return e.stepBreastfeeding(sess, msg)
	case models.StepInfertilityYears:
		return e.stepInfertilityDuration(sess, msg)
	case models.StepEmergencySymptom:
		return e.stepEmergencySymptom(sess, msg)
	case models.StepEmergencyWhen:
		return e.stepEmergencyWhen(sess, msg)
	case models.StepEmergencyPregnant:
		return e.stepEmergencyPregnant(sess, msg)
	case models.StepEmergencyWeeks:
		return e.stepEmergencyWeeks(sess, msg)
	case models.StepSelectDate:
		return e.stepSelectDate(sess, msg)
	case models.StepSelectTime:
		return e.stepSelectTime(sess, msg)
	case models.StepConfirmBooking:
		return e.stepConfirmBooking(sess, msg)
	default:
		slog.Warn("Dialog session in unknown step, restarting", "channelID", sess.ChannelID, "step", sess.Step)
		sess.Step = models.StepLanguageSelect
		return e.render(sess, i18n.KeyChooseLanguage), false
	}
}

func (e *Engine) stepLanguageSelect(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	if choice, ok := parseMenuChoice(msg.Text, 2); ok {
		if choice == 1 {
			sess.Language = models.LanguageEnglish
		} else {
			sess.Language = models.LanguageArabic
		}
		e.savePatientLanguage(sess)
		sess.Step = models.StepMenu
		return e.render(sess, i18n.KeyMainMenu), false
	}
	// Returning patients skip the language question.
	if p, err := e.store.FindPatientByChannelID(sess.ChannelID); err == nil && p != nil && models.IsValidLanguage(p.Language) {
		sess.Language = p.Language
		sess.Step = models.StepMenu
		return e.render(sess, i18n.KeyMainMenu), false
	}
	return e.render(sess, i18n.KeyChooseLanguage), false
}

// savePatientLanguage persists a freshly picked language on the patient
// record, if one exists for this channel.
func (e *Engine) savePatientLanguage(sess *models.ConversationSession) {
	p, err := e.store.FindPatientByChannelID(sess.ChannelID)
	if err != nil || p == nil || p.Language == sess.Language {
		return
	}
	p.Language = sess.Language
	if err := e.store.UpdatePatient(*p); err != nil {
		slog.Warn("Failed to save patient language", "patient_id", p.ID, "error", err)
	}
}

func (e *Engine) stepMenu(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	choice, ok := parseMenuChoice(msg.Text, 10)
	if !ok {
		return e.render(sess, i18n.KeyInvalidMenu), false
	}
	switch choice {
	case 1:
		sess.Step = models.StepPregnancyKind
		return e.render(sess, i18n.KeyAskPregKind), false
	case 2:
		sess.Data[models.DataVisitType] = string(models.VisitTypeUltrasound)
		sess.Step = models.StepUltrasoundName
		return e.render(sess, i18n.KeyAskName), false
	case 3:
		sess.Step = models.StepPostpartumKind
		return e.render(sess, i18n.KeyAskPostKind), false
	case 4:
		sess.Data[models.DataVisitType] = string(models.VisitTypeFamilyPlanning)
		sess.Step = models.StepFamilyPlanName
		return e.render(sess, i18n.KeyAskName), false
	case 5:
		sess.Data[models.DataVisitType] = string(models.VisitTypeInfertility)
		sess.Step = models.StepInfertilityName
		return e.render(sess, i18n.KeyAskName), false
	case 6:
		sess.Data[models.DataVisitType] = string(models.VisitTypeGeneralGyne)
		sess.Step = models.StepGeneralGyneName
		return e.render(sess, i18n.KeyAskName), false
	case 7:
		sess.Data[models.DataVisitType] = string(models.VisitTypePapSmear)
		sess.Step = models.StepPapSmearName
		return e.render(sess, i18n.KeyAskName), false
	case 8:
		sess.Data[models.DataVisitType] = string(models.VisitTypeEmergency)
		sess.Data[models.DataEmergencyFlag] = "true"
		sess.Step = models.StepEmergencySymptom
		return e.render(sess, i18n.KeyEmergencyMenu), false
	case 9:
		return e.render(sess, i18n.KeyModifyInfo), false
	case 10:
		return e.queueStatus(sess), false
	}
	return e.render(sess, i18n.KeyInvalidMenu), false
}

func (e *Engine) stepPregnancyKind(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	choice, ok := parseMenuChoice(msg.Text, 2)
	if !ok {
		return e.render(sess, i18n.KeyAskPregKind), false
	}
	if choice == 1 {
		sess.Data[models.DataVisitType] = string(models.VisitTypePregnancyFirst)
		sess.Step = models.StepPregnancyFirstName
	} else {
		sess.Data[models.DataVisitType] = string(models.VisitTypePregnancyFollowup)
		sess.Step = models.StepPregnancyFollowName
	}
	return e.render(sess, i18n.KeyAskName), false
}

func (e *Engine) stepPostpartumKind(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	choice, ok := parseMenuChoice(msg.Text, 2)
	if !ok {
		return e.render(sess, i18n.KeyAskPostKind), false
	}
	if choice == 1 {
		sess.Data[models.DataVisitType] = string(models.VisitTypePostpartumNormal)
	} else {
		sess.Data[models.DataVisitType] = string(models.VisitTypePostpartumCSect)
	}
	sess.Step = models.StepPostpartumName
	return e.render(sess, i18n.KeyAskName), false
}

// stepName records the patient's name, creates or refreshes the patient
// record, and branches to the funnel's next question.
func (e *Engine) stepName(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	name := strings.TrimSpace(msg.Text)
	if name == "" {
		return e.render(sess, i18n.KeyAskName), false
	}
	sess.Data[models.DataFullName] = name
	if err := e.ensurePatient(sess, name); err != nil {
		slog.Error("Failed to persist patient record", "channelID", sess.ChannelID, "error", err)
		return e.render(sess, i18n.KeyGenericError), true
	}

	switch sess.Step {
	case models.StepPregnancyFirstName:
		sess.Step = models.StepPregnancyFirstLMP
		return e.render(sess, i18n.KeyAskLMP), false
	case models.StepPregnancyFollowName:
		sess.Step = models.StepPregnancyFollowLMP
		return e.render(sess, i18n.KeyAskLMP), false
	case models.StepFamilyPlanName:
		sess.Step = models.StepFamilyPlanDelivery
		return e.render(sess, i18n.KeyAskDelivery), false
	case models.StepInfertilityName:
		sess.Step = models.StepInfertilityYears
		return e.render(sess, i18n.KeyAskInfertility), false
	default:
		// Ultrasound, postpartum, general gyne and pap smear go straight to
		// the calendar.
		return e.beginDateSelection(sess), false
	}
}

func (e *Engine) stepLMP(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	date, err := parseInputDate(msg.Text, e.scheduling.Location())
	if err != nil || date > e.scheduling.Today() {
		return e.render(sess, i18n.KeyInvalidDate), false
	}
	sess.Data[models.DataLMPDate] = date
	if sess.Step == models.StepPregnancyFirstLMP {
		sess.Step = models.StepPregnancyFirstPrevious
		return e.render(sess, i18n.KeyAskFirstPreg), false
	}
	sess.Step = models.StepPregnancySymptoms
	return e.render(sess, i18n.KeyAskSymptoms), false
}

func (e *Engine) stepFirstPregnancy(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	yes, ok := parseYesNo(msg.Text)
	if !ok {
		return e.render(sess, i18n.KeyInvalidYesNo), false
	}
	if yes {
		sess.Data[models.DataFirstPregnancy] = "yes"
	} else {
		sess.Data[models.DataFirstPregnancy] = "no"
	}
	return e.beginDateSelection(sess), false
}

func (e *Engine) stepSymptoms(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	choice, ok := parseMenuChoice(msg.Text, len(symptomTokens))
	if !ok {
		return e.render(sess, i18n.KeyAskSymptoms), false
	}
	sess.Data[models.DataSymptoms] = symptomTokens[choice-1]
	return e.beginDateSelection(sess), false
}

func (e *Engine) stepLastDelivery(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	date, err := parseInputDate(msg.Text, e.scheduling.Location())
	if err != nil || date > e.scheduling.Today() {
		return e.render(sess, i18n.KeyInvalidDate), false
	}
	sess.Data[models.DataLastDeliveryDate] = date
	sess.Step = models.StepFamilyPlanFeeding
	return e.render(sess, i18n.KeyAskFeeding), false
}

func (e *Engine) stepBreastfeeding(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	yes, ok := parseYesNo(msg.Text)
	if !ok {
		return e.render(sess, i18n.KeyInvalidYesNo), false
	}
	if yes {
		sess.Data[models.DataBreastfeeding] = "yes"
	} else {
		sess.Data[models.DataBreastfeeding] = "no"
	}
	return e.beginDateSelection(sess), false
}

func (e *Engine) stepInfertilityDuration(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	duration := strings.TrimSpace(msg.Text)
	if duration == "" {
		return e.render(sess, i18n.KeyAskInfertility), false
	}
	sess.Data[models.DataInfertilityYears] = duration
	return e.beginDateSelection(sess), false
}

func (e *Engine) stepEmergencySymptom(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	choice, ok := parseMenuChoice(msg.Text, len(emergencySymptomTokens))
	if !ok {
		return e.render(sess, i18n.KeyEmergencyMenu), false
	}
	sess.Data[models.DataEmergencySymptom] = emergencySymptomTokens[choice-1]
	sess.Step = models.StepEmergencyWhen
	return e.render(sess, i18n.KeyEmergencyWhen), false
}

func (e *Engine) stepEmergencyWhen(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	sess.Data[models.DataEmergencyWhen] = strings.TrimSpace(msg.Text)
	sess.Step = models.StepEmergencyPregnant
	return e.render(sess, i18n.KeyEmergencyPreg), false
}

func (e *Engine) stepEmergencyPregnant(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	yes, ok := parseYesNo(msg.Text)
	if !ok {
		return e.render(sess, i18n.KeyInvalidYesNo), false
	}
	if yes {
		sess.Data[models.DataEmergencyPregnant] = "yes"
		sess.Step = models.StepEmergencyWeeks
		return e.render(sess, i18n.KeyEmergencyWeeks), false
	}
	sess.Data[models.DataEmergencyPregnant] = "no"
	return e.finalizeEmergency(sess, msg.DisplayName)
}

func (e *Engine) stepEmergencyWeeks(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	sess.Data[models.DataEmergencyWeeks] = strings.TrimSpace(msg.Text)
	return e.finalizeEmergency(sess, msg.DisplayName)
}

// finalizeEmergency registers the urgent case: grab the earliest slot today,
// fall back to tomorrow, or instruct the patient to walk in when both days
// are full. The emergency flag puts the appointment at the head of the queue.
func (e *Engine) finalizeEmergency(sess *models.ConversationSession, displayName string) (string, bool) {
	patient, err := e.emergencyPatient(sess, displayName)
	if err != nil {
		slog.Error("Emergency patient registration failed", "channelID", sess.ChannelID, "error", err)
		return e.render(sess, i18n.KeyEmergencyWalkIn), true
	}

	date, slot, found, err := e.scheduling.EmergencySlot(e.now())
	if err != nil || !found {
		if err != nil {
			slog.Error("Emergency slot lookup failed", "error", err)
		}
		return e.render(sess, i18n.KeyEmergencyWalkIn), true
	}

	appt, err := e.scheduling.CreateAppointment(models.AppointmentDraft{
		PatientID:     patient.ID,
		VisitType:     models.VisitTypeEmergency,
		Date:          date,
		TimeSlot:      slot,
		EmergencyFlag: true,
		Source:        e.source,
		Notes:         "emergency: " + sess.Data[models.DataEmergencySymptom],
		BookingData:   copyData(sess.Data),
	})
	if err != nil {
		slog.Error("Emergency appointment creation failed", "patient_id", patient.ID, "error", err)
		return e.render(sess, i18n.KeyEmergencyWalkIn), true
	}

	reply := e.render(sess, i18n.KeyBookingDone,
		e.translator.VisitTypeLabel(models.VisitTypeEmergency, sess.Language),
		formatInputDate(appt.Date, e.scheduling.Location()), appt.TimeSlot, appt.QueueNumber)
	reply += "\n\n" + e.render(sess, i18n.KeyEmergencyWalkIn)
	if e.recorder != nil {
		e.recorder.RecordBookingConfirmation(appt, reply)
	}
	return reply, true
}

// emergencyPatient resolves or creates the patient for an emergency intake,
// which skips the name question.
func (e *Engine) emergencyPatient(sess *models.ConversationSession, displayName string) (*models.Patient, error) {
	p, err := e.store.FindPatientByChannelID(sess.ChannelID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Emergency patient"
	}
	created, err := e.store.CreatePatient(models.Patient{
		FullName:  name,
		ChannelID: sess.ChannelID,
		Language:  sess.Language,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// beginDateSelection moves the session into the shared calendar tail.
func (e *Engine) beginDateSelection(sess *models.ConversationSession) string {
	dates := e.scheduling.AvailableDates(e.now(), scheduling.DefaultHorizonDays)
	if len(dates) > datesShown {
		dates = dates[:datesShown]
	}
	sess.Step = models.StepSelectDate
	return e.render(sess, i18n.KeySelectDate, renderDateList(dates, e.scheduling.Location()))
}

func (e *Engine) stepSelectDate(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	date, err := parseInputDate(msg.Text, e.scheduling.Location())
	if err != nil {
		return e.render(sess, i18n.KeyInvalidDate), false
	}
	if date < e.scheduling.Today() {
		return e.render(sess, i18n.KeyPastDate), false
	}
	if !e.scheduling.IsBookableDate(date) {
		return e.render(sess, i18n.KeyInvalidDate), false
	}
	free, err := e.scheduling.AvailableSlots(date)
	if err != nil {
		slog.Error("Slot lookup failed", "date", date, "error", err)
		return e.render(sess, i18n.KeyGenericError), false
	}
	if len(free) == 0 {
		return e.render(sess, i18n.KeyNoSlots), false
	}
	sess.Data[models.DataAppointmentDate] = date
	sess.Step = models.StepSelectTime
	return e.render(sess, i18n.KeySelectTime, renderSlotList(free)), false
}

func (e *Engine) stepSelectTime(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	date := sess.Data[models.DataAppointmentDate]
	free, err := e.scheduling.AvailableSlots(date)
	if err != nil {
		slog.Error("Slot lookup failed", "date", date, "error", err)
		return e.render(sess, i18n.KeyGenericError), false
	}
	slot, ok := parseSlotChoice(msg.Text, free)
	if !ok {
		return e.render(sess, i18n.KeyInvalidTime), false
	}
	sess.Data[models.DataAppointmentTime] = slot
	sess.Step = models.StepConfirmBooking
	vt := models.VisitType(sess.Data[models.DataVisitType])
	return e.render(sess, i18n.KeyConfirmSummary,
		e.translator.VisitTypeLabel(vt, sess.Language),
		formatInputDate(date, e.scheduling.Location()), slot), false
}

func (e *Engine) stepConfirmBooking(sess *models.ConversationSession, msg models.IncomingMessage) (string, bool) {
	yes, ok := parseYesNo(msg.Text)
	if !ok {
		return e.render(sess, i18n.KeyInvalidYesNo), false
	}
	if !yes {
		return e.render(sess, i18n.KeyBookingAborted), true
	}
	return e.createBooking(sess)
}

// createBooking turns the collected session data into a persisted
// appointment. A slot lost to a concurrent booking sends the patient back to
// time selection.
func (e *Engine) createBooking(sess *models.ConversationSession) (string, bool) {
	patient, err := e.store.FindPatientByChannelID(sess.ChannelID)
	if err != nil {
		slog.Error("Patient lookup failed at booking", "channelID", sess.ChannelID, "error", err)
		return e.render(sess, i18n.KeyGenericError), true
	}
	if patient == nil {
		return e.render(sess, i18n.KeyMissingPatient), true
	}

	date := sess.Data[models.DataAppointmentDate]
	slot := sess.Data[models.DataAppointmentTime]
	vt := models.VisitType(sess.Data[models.DataVisitType])

	appt, err := e.scheduling.CreateAppointment(models.AppointmentDraft{
		PatientID:   patient.ID,
		VisitType:   vt,
		Date:        date,
		TimeSlot:    slot,
		Source:      e.source,
		BookingData: copyData(sess.Data),
	})
	if err == models.ErrSlotTaken {
		free, ferr := e.scheduling.AvailableSlots(date)
		if ferr != nil || len(free) == 0 {
			sess.Step = models.StepSelectDate
			return e.render(sess, i18n.KeyNoSlots), false
		}
		sess.Step = models.StepSelectTime
		return e.render(sess, i18n.KeySlotTaken, renderSlotList(free)), false
	}
	if err != nil {
		slog.Error("Booking failed", "patient_id", patient.ID, "date", date, "slot", slot, "error", err)
		return e.render(sess, i18n.KeyGenericError), true
	}

	if lmp := sess.Data[models.DataLMPDate]; lmp != "" {
		if _, err := e.store.UpsertCurrentPregnancy(models.Pregnancy{PatientID: patient.ID, LMPDate: lmp}); err != nil {
			slog.Error("Pregnancy upsert failed", "patient_id", patient.ID, "error", err)
		}
	}

	reply := e.render(sess, i18n.KeyBookingDone,
		e.translator.VisitTypeLabel(vt, sess.Language),
		formatInputDate(appt.Date, e.scheduling.Location()), appt.TimeSlot, appt.QueueNumber)
	if e.recorder != nil {
		e.recorder.RecordBookingConfirmation(appt, reply)
	}
	return reply, true
}

// queueStatus answers "check my queue number" without changing the step.
func (e *Engine) queueStatus(sess *models.ConversationSession) string {
	patient, err := e.store.FindPatientByChannelID(sess.ChannelID)
	if err != nil {
		slog.Error("Patient lookup failed for queue status", "channelID", sess.ChannelID, "error", err)
		return e.render(sess, i18n.KeyGenericError)
	}
	if patient == nil {
		return e.render(sess, i18n.KeyNoPatient)
	}
	today := e.scheduling.Today()
	appt, err := e.scheduling.TodayAppointmentFor(patient.ID, today)
	if err != nil {
		slog.Error("Appointment lookup failed for queue status", "patient_id", patient.ID, "error", err)
		return e.render(sess, i18n.KeyGenericError)
	}
	if appt == nil {
		return e.render(sess, i18n.KeyNoApptToday)
	}

	var statusLine string
	switch appt.Status {
	case models.StatusWithDoctor:
		statusLine = e.render(sess, i18n.KeyStatusWithDoc)
	case models.StatusArrived:
		pos, err := e.queue.QueuePosition(appt.ID, today)
		if err != nil {
			slog.Error("Queue position lookup failed", "appointment_id", appt.ID, "error", err)
			pos = appt.QueueNumber
		}
		statusLine = e.render(sess, i18n.KeyStatusArrived, pos) + "\n" +
			e.render(sess, i18n.KeyWaitEstimate, queue.EstimatedWaitMinutes(pos))
	case models.StatusBooked, models.StatusConfirmed:
		statusLine = e.render(sess, i18n.KeyStatusBooked, appt.TimeSlot, appt.QueueNumber)
	default:
		statusLine = e.render(sess, i18n.KeyStatusOther, string(appt.Status))
	}

	return e.render(sess, i18n.KeyQueueStatus, statusLine,
		formatInputDate(appt.Date, e.scheduling.Location()), appt.TimeSlot,
		e.translator.VisitTypeLabel(appt.VisitType, sess.Language))
}

// ensurePatient creates the patient record for this channel or refreshes the
// stored name and language on an existing one.
func (e *Engine) ensurePatient(sess *models.ConversationSession, name string) error {
	existing, err := e.store.FindPatientByChannelID(sess.ChannelID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.FullName = name
		existing.Language = sess.Language
		existing.IsReturning = true
		if err := e.store.UpdatePatient(*existing); err != nil {
			return err
		}
		sess.Data[models.DataPatientID] = existing.ID
		return nil
	}
	created, err := e.store.CreatePatient(models.Patient{
		FullName:  name,
		ChannelID: sess.ChannelID,
		Language:  sess.Language,
	})
	if err != nil {
		return err
	}
	sess.Data[models.DataPatientID] = created.ID
	return nil
}

func copyData(data map[models.DataKey]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
