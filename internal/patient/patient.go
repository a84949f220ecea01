package patient

import (
	"context"
	"time"

	patientDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/patient"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreatePatientDTO, createdBy string) (*patientDatamodel.Patient, error)
	GetByID(ctx context.Context, id string) (*patientDatamodel.Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*patientDatamodel.Patient, error)
	List(ctx context.Context, params ListParams) ([]patientDatamodel.Patient, int64, error)
	Update(ctx context.Context, id string, dto UpdatePatientDTO, updatedBy string) (*patientDatamodel.Patient, error)
	AppendPayment(ctx context.Context, patientID, paymentID string) error
	FindPatientIDByEmail(ctx context.Context, email string) (string, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, record *patientDatamodel.Patient) error
	GetByID(ctx context.Context, id string) (*patientDatamodel.Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*patientDatamodel.Patient, error)
	FindByIdentity(ctx context.Context, nic, passport, email, phone string) (*patientDatamodel.Patient, error)
	List(ctx context.Context, params ListParams) ([]patientDatamodel.Patient, int64, error)
	Update(ctx context.Context, record *patientDatamodel.Patient) error
	AppendPayment(ctx context.Context, patientID, paymentID string) error
}

type ListParams struct {
	Search  string
	Page    int
	PerPage int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
}

// AgeFromDOB derives a whole-year age from a date of birth. The stored age
// column is advisory; DOB wins whenever both are present.
func AgeFromDOB(dob time.Time, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}
