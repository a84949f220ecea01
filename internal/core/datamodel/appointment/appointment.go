package appointment

import "time"

// Appointment is the persistence shape of a booking. The partial unique index
// over (doctor_id, start_at) for active statuses backs the application-level
// clash check so concurrent writers cannot both win the same slot.
type Appointment struct {
	ID              string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AppointmentID   string     `json:"appointment_id" gorm:"column:appointment_id;uniqueIndex;not null"`
	PatientID       string     `json:"patient_id" gorm:"column:patient_id;not null;index"`
	DoctorID        string     `json:"doctor_id" gorm:"column:doctor_id;not null;index"`
	Specialization  *string    `json:"specialization,omitempty" gorm:"column:specialization"`
	Reason          string     `json:"reason" gorm:"column:reason;size:500"`
	StartAt         time.Time  `json:"start" gorm:"column:start_at;not null;index"`
	EndAt           time.Time  `json:"end" gorm:"column:end_at;not null"`
	DurationMinutes int        `json:"duration_minutes" gorm:"column:duration_minutes"`
	Status          string     `json:"status" gorm:"column:status;default:PENDING;index"`
	SubmissionID    *string    `json:"submission_id,omitempty" gorm:"column:submission_id;index"`
	RescheduleCount int        `json:"reschedule_count" gorm:"column:reschedule_count;default:0"`
	PaymentID       *string    `json:"payment_id,omitempty" gorm:"column:payment_id"`
	CreatedBy       *string    `json:"created_by,omitempty" gorm:"column:created_by"`
	UpdatedBy       *string    `json:"updated_by,omitempty" gorm:"column:updated_by"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}
