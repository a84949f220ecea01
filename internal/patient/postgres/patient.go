package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/hospital-management/internal"
	patientDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/patient"
	"github.com/frahmantamala/hospital-management/internal/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) patient.RepositoryAPI {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, record *patientDatamodel.Patient) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*patientDatamodel.Patient, error) {
	var record patientDatamodel.Patient
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrPatientNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *PatientRepository) GetByPatientID(ctx context.Context, patientID string) (*patientDatamodel.Patient, error) {
	var record patientDatamodel.Patient
	err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrPatientNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByIdentity probes for an existing record by any of the identity fields
// that were supplied. Empty fields are skipped.
func (r *PatientRepository) FindByIdentity(ctx context.Context, nic, passport, email, phone string) (*patientDatamodel.Patient, error) {
	query := r.db.WithContext(ctx)
	matched := false
	or := r.db.Session(&gorm.Session{NewDB: true})
	if nic != "" {
		or = or.Or("nic = ?", nic)
		matched = true
	}
	if passport != "" {
		or = or.Or("passport = ?", passport)
		matched = true
	}
	if email != "" {
		or = or.Or("email = ?", email)
		matched = true
	}
	if phone != "" {
		or = or.Or("phone = ?", phone)
		matched = true
	}
	if !matched {
		return nil, internal.ErrPatientNotFound
	}

	var record patientDatamodel.Patient
	err := query.Where(or).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrPatientNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *PatientRepository) List(ctx context.Context, params patient.ListParams) ([]patientDatamodel.Patient, int64, error) {
	query := r.db.WithContext(ctx).Model(&patientDatamodel.Patient{})
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where(
			"patient_id = ? OR first_name LIKE ? OR last_name LIKE ? OR nic = ? OR phone = ?",
			params.Search, like, like, params.Search, params.Search,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []patientDatamodel.Patient
	err := query.
		Order("created_at DESC").
		Offset((params.Page - 1) * params.PerPage).
		Limit(params.PerPage).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *PatientRepository) Update(ctx context.Context, record *patientDatamodel.Patient) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// AppendPayment inserts a payment reference, ignoring replays of the same
// payment id.
func (r *PatientRepository) AppendPayment(ctx context.Context, patientID, paymentID string) error {
	ref := patientDatamodel.PaymentRef{
		PatientID: patientID,
		PaymentID: paymentID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ref).Error
}
