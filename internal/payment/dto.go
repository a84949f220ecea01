package payment

import (
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	paymentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/payment"
)

type CardDTO struct {
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVC         string `json:"cvc"`
	HolderName  string `json:"holder_name"`
}

type InitiateCardDTO struct {
	Breakdown     paymentDatamodel.Breakdown `json:"breakdown"`
	Card          CardDTO                    `json:"card"`
	PatientID     *string                    `json:"patient_id,omitempty"`
	DoctorID      *string                    `json:"doctor_id,omitempty"`
	AppointmentID *string                    `json:"appointment_id,omitempty"`
	Notes         string                     `json:"notes,omitempty"`
}

func (dto *InitiateCardDTO) Validate(now time.Time) error {
	if dto.Breakdown.ConsultationFee < 0 || dto.Breakdown.LabTests < 0 ||
		dto.Breakdown.Prescription < 0 || dto.Breakdown.ProcessingFee < 0 ||
		dto.Breakdown.Other < 0 {
		return internal.NewValidationFieldError("breakdown", "amounts must be non-negative", internal.ErrCodeInvalidAmount)
	}
	if dto.Breakdown.Total() <= 0 {
		return internal.NewValidationFieldError("breakdown", "total amount must be positive", internal.ErrCodeInvalidAmount)
	}

	dto.Card.Number = strings.ReplaceAll(strings.TrimSpace(dto.Card.Number), " ", "")
	if !luhnValid(dto.Card.Number) {
		return internal.NewValidationFieldError("card.number", "invalid card number", internal.ErrCodeInvalidCard)
	}
	if len(dto.Card.CVC) < 3 || len(dto.Card.CVC) > 4 {
		return internal.NewValidationFieldError("card.cvc", "invalid cvc", internal.ErrCodeInvalidCard)
	}
	if dto.Card.ExpiryMonth < 1 || dto.Card.ExpiryMonth > 12 {
		return internal.NewValidationFieldError("card.expiry_month", "invalid expiry month", internal.ErrCodeInvalidCard)
	}

	// Card is good through the last day of its expiry month.
	expiry := time.Date(dto.Card.ExpiryYear, time.Month(dto.Card.ExpiryMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	if !expiry.After(now) {
		return internal.NewValidationFieldError("card.expiry_year", "card has expired", internal.ErrCodeInvalidCard)
	}

	if len(dto.Notes) > 500 {
		return internal.NewValidationFieldError("notes", "notes must be at most 500 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ConfirmDTO struct {
	PaymentID string `json:"payment_id"`
	OtpRefID  string `json:"otp_ref_id"`
	Code      string `json:"code"`
}

func (dto *ConfirmDTO) Validate() error {
	dto.Code = strings.TrimSpace(dto.Code)

	if dto.PaymentID == "" {
		return internal.NewValidationFieldError("payment_id", "payment_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.OtpRefID == "" {
		return internal.NewValidationFieldError("otp_ref_id", "otp_ref_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.Code == "" {
		return internal.NewValidationFieldError("code", "code is required", internal.ErrCodeValidationFailed)
	}
	return nil
}
