package patient

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	patientDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/patient"
	"github.com/frahmantamala/hospital-management/internal/sequence"
)

type SequencerAPI interface {
	Next(ctx context.Context, kind sequence.Kind) (string, error)
}

type Service struct {
	repo      RepositoryAPI
	sequencer SequencerAPI
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, sequencer SequencerAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sequencer: sequencer,
		logger:    logger,
		now:       time.Now,
	}
}

// Create registers a patient record. If a record already matches the given
// NIC, passport or email, that record is returned instead of minting a
// duplicate.
func (s *Service) Create(ctx context.Context, dto CreatePatientDTO, createdBy string) (*patientDatamodel.Patient, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	nic, passport, email, phone := deref(dto.NIC), deref(dto.Passport), deref(dto.Email), deref(dto.Phone)
	if existing, err := s.repo.FindByIdentity(ctx, nic, passport, email, phone); err == nil && existing != nil {
		s.logger.Info("patient already registered, returning existing record",
			"patient_id", existing.PatientID)
		return existing, nil
	}

	patientID, err := s.sequencer.Next(ctx, sequence.KindPatient)
	if err != nil {
		return nil, internal.NewInternalError("failed to allocate patient identifier", err)
	}

	dob, _ := dto.ParseDOB()
	record := &patientDatamodel.Patient{
		PatientID: patientID,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		DOB:       dob,
		Age:       dto.Age,
		NIC:       dto.NIC,
		Passport:  dto.Passport,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Address:   dto.Address,
		CreatedBy: &createdBy,
	}
	s.reconcileAge(record)

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("failed to create patient", "error", err)
		return nil, internal.NewInternalError("failed to create patient", err)
	}

	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*patientDatamodel.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPatientID(ctx context.Context, patientID string) (*patientDatamodel.Patient, error) {
	return s.repo.GetByPatientID(ctx, patientID)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]patientDatamodel.Patient, int64, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) Update(ctx context.Context, id string, dto UpdatePatientDTO, updatedBy string) (*patientDatamodel.Patient, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.FirstName != nil {
		record.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		record.LastName = *dto.LastName
	}
	if dto.DOB != nil {
		parsed, _ := time.Parse("2006-01-02", *dto.DOB)
		record.DOB = &parsed
	}
	if dto.Age != nil {
		record.Age = dto.Age
	}
	if dto.Email != nil {
		record.Email = dto.Email
	}
	if dto.Phone != nil {
		record.Phone = dto.Phone
	}
	if dto.Address != nil {
		record.Address = dto.Address
	}
	record.UpdatedBy = &updatedBy
	s.reconcileAge(record)

	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("failed to update patient", "error", err, "patient_id", record.PatientID)
		return nil, internal.NewInternalError("failed to update patient", err)
	}

	return record, nil
}

// AppendPayment links a captured payment into the patient history. Callers
// treat failures here as best-effort, so the error is for logging only.
func (s *Service) AppendPayment(ctx context.Context, patientID, paymentID string) error {
	return s.repo.AppendPayment(ctx, patientID, paymentID)
}

// FindPatientIDByEmail resolves the registry id tied to an account email. The
// payment flow uses it to link a payer who didn't name a patient record.
func (s *Service) FindPatientIDByEmail(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", internal.ErrPatientNotFound
	}
	record, err := s.repo.FindByIdentity(ctx, "", "", email, "")
	if err != nil {
		return "", err
	}
	return record.PatientID, nil
}

// reconcileAge keeps the advisory age column in line with the date of birth.
// A stored age that disagrees with DOB is logged and overwritten.
func (s *Service) reconcileAge(record *patientDatamodel.Patient) {
	if record.DOB == nil {
		return
	}
	derived := AgeFromDOB(*record.DOB, s.now())
	if record.Age != nil && *record.Age != derived {
		s.logger.Warn("patient age disagrees with dob, preferring dob",
			"patient_id", record.PatientID, "given_age", *record.Age, "derived_age", derived)
	}
	record.Age = &derived
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
