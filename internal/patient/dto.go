package patient

import (
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
)

type CreatePatientDTO struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	DOB       *string `json:"dob,omitempty"`
	Age       *int    `json:"age,omitempty"`
	NIC       *string `json:"nic,omitempty"`
	Passport  *string `json:"passport,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

func (dto *CreatePatientDTO) Validate() error {
	dto.FirstName = strings.TrimSpace(dto.FirstName)
	dto.LastName = strings.TrimSpace(dto.LastName)

	if dto.FirstName == "" {
		return internal.NewValidationFieldError("first_name", "first name is required", internal.ErrCodeValidationFailed)
	}
	if dto.LastName == "" {
		return internal.NewValidationFieldError("last_name", "last name is required", internal.ErrCodeValidationFailed)
	}
	if dto.NIC == nil && dto.Passport == nil {
		return internal.NewValidationFieldError("nic", "either nic or passport is required", internal.ErrCodeValidationFailed)
	}
	if dto.DOB != nil {
		if _, err := dto.ParseDOB(); err != nil {
			return internal.NewValidationFieldError("dob", "dob must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	if dto.Age != nil && (*dto.Age < 0 || *dto.Age > 150) {
		return internal.NewValidationFieldError("age", "age must be between 0 and 150", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (dto *CreatePatientDTO) ParseDOB() (*time.Time, error) {
	if dto.DOB == nil {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *dto.DOB)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

type UpdatePatientDTO struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	DOB       *string `json:"dob,omitempty"`
	Age       *int    `json:"age,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

func (dto *UpdatePatientDTO) Validate() error {
	if dto.FirstName != nil && strings.TrimSpace(*dto.FirstName) == "" {
		return internal.NewValidationFieldError("first_name", "first name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.LastName != nil && strings.TrimSpace(*dto.LastName) == "" {
		return internal.NewValidationFieldError("last_name", "last name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.DOB != nil {
		if _, err := time.Parse("2006-01-02", *dto.DOB); err != nil {
			return internal.NewValidationFieldError("dob", "dob must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	if dto.Age != nil && (*dto.Age < 0 || *dto.Age > 150) {
		return internal.NewValidationFieldError("age", "age must be between 0 and 150", internal.ErrCodeValidationFailed)
	}
	return nil
}
