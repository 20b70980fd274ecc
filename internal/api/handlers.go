package api

import (
	"net/http"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
	"github.com/mediqueue/MediQueue/internal/queue"
)

// queueDate resolves the ?date= query parameter, defaulting to today.
func (s *Server) queueDate(r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return s.scheduling.Today(), true
	}
	if _, err := time.ParseInLocation(models.DateLayout, date, s.scheduling.Location()); err != nil {
		return "", false
	}
	return date, true
}

// handleQueue returns the ordered live queue for a date.
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	date, ok := s.queueDate(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	entries, err := s.queue.TodayQueue(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load queue")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleWaitingRoom returns the anonymized public queue board.
func (s *Server) handleWaitingRoom(w http.ResponseWriter, r *http.Request) {
	date, ok := s.queueDate(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	entries, err := s.queue.WaitingRoomView(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load waiting room")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetAppointment returns one appointment by id.
func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := s.store.GetAppointment(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "appointment lookup failed")
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// transition applies a queue-state transition to the appointment in the path.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, apply func(id string) (models.Appointment, error)) {
	appt, err := apply(r.PathValue("id"))
	if err == models.ErrAppointmentNotFound {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status transition failed")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *Server) handleArrive(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.queue.MarkArrived)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.queue.StartConsultation)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.queue.FinishConsultation)
}

func (s *Server) handleNoShow(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.queue.MarkNoShow)
}

// handleCancel cancels the appointment and notifies the patient.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(id string) (models.Appointment, error) {
		appt, err := s.scheduling.Cancel(id)
		if err != nil {
			return models.Appointment{}, err
		}
		if s.notifier != nil {
			go s.notifier.SendAppointmentCancelled(appt)
		}
		return appt, nil
	})
}

// handleNotifyQueue sends a queue-position update to every arrived patient.
func (s *Server) handleNotifyQueue(w http.ResponseWriter, r *http.Request) {
	date, ok := s.queueDate(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	entries, err := s.queue.TodayQueue(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load queue")
		return
	}
	notified := 0
	for _, e := range entries {
		if e.Appointment.Status != models.StatusArrived {
			continue
		}
		if s.notifier != nil {
			go s.notifier.SendQueueUpdate(e.Appointment, e.Position, queue.EstimatedWaitMinutes(e.Position))
		}
		notified++
	}
	writeJSON(w, http.StatusOK, map[string]int{"notified": notified})
}

// handleListPatients returns all patients.
func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.store.ListPatients()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// handlePatientAppointments returns a patient's appointments, newest first.
func (s *Server) handlePatientAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := s.store.FindAppointmentsByPatient(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// handleNotificationHistory returns a patient's recent notification log.
func (s *Server) handleNotificationHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.NotificationHistory(r.PathValue("id"), notificationHistoryLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notification history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}
