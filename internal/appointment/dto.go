package appointment

import (
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
)

type CreateAppointmentDTO struct {
	PatientID       string  `json:"patient_id"`
	DoctorID        string  `json:"doctor_id"`
	Start           string  `json:"start"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	SubmissionID    *string `json:"submission_id,omitempty"`
}

func (dto *CreateAppointmentDTO) Validate() error {
	dto.Reason = strings.TrimSpace(dto.Reason)

	if dto.PatientID == "" {
		return internal.NewValidationFieldError("patient_id", "patient_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.DoctorID == "" {
		return internal.NewValidationFieldError("doctor_id", "doctor_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.Start == "" {
		return internal.NewValidationFieldError("start", "start is required", internal.ErrCodeValidationFailed)
	}
	if _, err := dto.ParseStart(); err != nil {
		return internal.NewValidationFieldError("start", "start must be RFC3339", internal.ErrCodeInvalidDate)
	}
	if dto.DurationMinutes < 0 || dto.DurationMinutes > 240 {
		return internal.NewValidationFieldError("duration_minutes", "duration must be between 1 and 240 minutes", internal.ErrCodeInvalidSlotSize)
	}
	if len(dto.Reason) > 500 {
		return internal.NewValidationFieldError("reason", "reason must be at most 500 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (dto *CreateAppointmentDTO) ParseStart() (time.Time, error) {
	return time.Parse(time.RFC3339, dto.Start)
}

type RescheduleDTO struct {
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Reason          string `json:"reason,omitempty"`
	DoctorID        string `json:"doctor_id,omitempty"`
}

// Validate allows an empty start: a patch without a time is a reason-only or
// doctor-only amendment against the stored slot.
func (dto *RescheduleDTO) Validate() error {
	dto.Reason = strings.TrimSpace(dto.Reason)

	if dto.Start != "" {
		if _, err := dto.ParseStart(); err != nil {
			return internal.NewValidationFieldError("start", "start must be RFC3339", internal.ErrCodeInvalidDate)
		}
	}
	if dto.DurationMinutes < 0 || dto.DurationMinutes > 240 {
		return internal.NewValidationFieldError("duration_minutes", "duration must be between 1 and 240 minutes", internal.ErrCodeInvalidSlotSize)
	}
	if len(dto.Reason) > 500 {
		return internal.NewValidationFieldError("reason", "reason must be at most 500 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (dto *RescheduleDTO) ParseStart() (time.Time, error) {
	return time.Parse(time.RFC3339, dto.Start)
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto *UpdateStatusDTO) Validate() error {
	dto.Status = strings.ToUpper(strings.TrimSpace(dto.Status))
	if dto.Status == "" {
		return internal.NewValidationFieldError("status", "status is required", internal.ErrCodeValidationFailed)
	}
	if !IsValidStatus(dto.Status) {
		return internal.NewValidationFieldError("status", "unknown status", internal.ErrCodeValidationFailed)
	}
	return nil
}
