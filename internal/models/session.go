// Package models: conversation session state shared between the session
// store and the dialog engine.
package models

import "time"

// SessionTimeout is the inactivity window after which a conversation session
// is considered expired and discarded.
const SessionTimeout = 30 * time.Minute

// Step identifies the dialog engine state a session is currently in.
// Steps are grouped into per-visit-type funnels; the dialog engine owns the
// transition graph.
type Step string

const (
	StepLanguageSelect Step = "language_select"
	StepMenu           Step = "menu"

	// Pregnancy visit funnel.
	StepPregnancyKind          Step = "pregnancy_kind" // first visit vs follow-up
	StepPregnancyFirstName     Step = "pregnancy_first_visit_name"
	StepPregnancyFirstLMP      Step = "pregnancy_first_visit_lmp"
	StepPregnancyFirstPrevious Step = "pregnancy_first_visit_previous"
	StepPregnancyFollowName    Step = "pregnancy_followup_name"
	StepPregnancyFollowLMP     Step = "pregnancy_followup_lmp"
	StepPregnancySymptoms      Step = "pregnancy_followup_symptoms"

	// Other booking funnels.
	StepUltrasoundName     Step = "ultrasound_name"
	StepPostpartumKind     Step = "postpartum_kind" // normal vs C-section
	StepPostpartumName     Step = "postpartum_name"
	StepFamilyPlanName     Step = "family_planning_name"
	StepFamilyPlanDelivery Step = "family_planning_last_delivery"
	StepFamilyPlanFeeding  Step = "family_planning_breastfeeding"
	StepInfertilityName    Step = "infertility_name"
	StepInfertilityYears   Step = "infertility_duration"
	StepGeneralGyneName    Step = "general_gyne_name"
	StepPapSmearName       Step = "pap_smear_name"

	// Emergency funnel.
	StepEmergencySymptom  Step = "emergency_symptom"
	StepEmergencyWhen     Step = "emergency_when"
	StepEmergencyPregnant Step = "emergency_pregnant"
	StepEmergencyWeeks    Step = "emergency_weeks"

	// Shared tail of every booking funnel.
	StepSelectDate     Step = "select_date"
	StepSelectTime     Step = "select_time"
	StepConfirmBooking Step = "confirm_booking"
)

// DataKey names a field in a session's collected booking data.
type DataKey = string

const (
	DataPatientID         DataKey = "patient_id"
	DataFullName          DataKey = "full_name"
	DataVisitType         DataKey = "visit_type"
	DataLMPDate           DataKey = "lmp_date"
	DataFirstPregnancy    DataKey = "first_pregnancy"
	DataSymptoms          DataKey = "symptoms"
	DataLastDeliveryDate  DataKey = "last_delivery_date"
	DataBreastfeeding     DataKey = "breastfeeding"
	DataInfertilityYears  DataKey = "infertility_duration"
	DataEmergencySymptom  DataKey = "emergency_symptom"
	DataEmergencyWhen     DataKey = "emergency_when"
	DataEmergencyPregnant DataKey = "emergency_pregnant"
	DataEmergencyWeeks    DataKey = "emergency_weeks"
	DataEmergencyFlag     DataKey = "emergency_flag"
	DataAppointmentDate   DataKey = "appointment_date"
	DataAppointmentTime   DataKey = "appointment_time"
)

// ConversationSession is the per-channel dialog state. Exactly one live
// session exists per channel id; it is discarded after SessionTimeout of
// inactivity.
type ConversationSession struct {
	ChannelID      string             `json:"channel_id"`
	Step           Step               `json:"step"`
	Data           map[DataKey]string `json:"data,omitempty"`
	Language       Language           `json:"language,omitempty"` // empty until the patient picks one
	LastActivityAt time.Time          `json:"last_activity_at"`
}

// ExpiredAt reports whether the session has been idle past SessionTimeout.
func (s *ConversationSession) ExpiredAt(now time.Time) bool {
	return now.Sub(s.LastActivityAt) > SessionTimeout
}
