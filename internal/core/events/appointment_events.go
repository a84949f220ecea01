package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAppointmentCreated       = "appointment.created"
	EventTypeAppointmentUpdated       = "appointment.updated"
	EventTypeAppointmentRescheduled   = "appointment.rescheduled"
	EventTypeAppointmentStatusChanged = "appointment.status_changed"
	EventTypeAppointmentCancelled     = "appointment.cancelled"
)

// AppointmentEvent carries the snapshot the notification sink needs; the full
// record stays in storage.
type AppointmentEvent struct {
	BaseEvent
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	Status        string    `json:"status"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	ActorID       string    `json:"actor_id"`
	ActorRole     string    `json:"actor_role"`
}

func NewAppointmentEvent(eventType, appointmentID, patientID, doctorID, status string, startAt, endAt time.Time, actorID, actorRole string) *AppointmentEvent {
	return &AppointmentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"appointment_id": appointmentID,
				"patient_id":     patientID,
				"doctor_id":      doctorID,
				"status":         status,
				"start_at":       startAt,
				"end_at":         endAt,
				"actor_id":       actorID,
				"actor_role":     actorRole,
			},
		},
		AppointmentID: appointmentID,
		PatientID:     patientID,
		DoctorID:      doctorID,
		Status:        status,
		StartAt:       startAt,
		EndAt:         endAt,
		ActorID:       actorID,
		ActorRole:     actorRole,
	}
}
