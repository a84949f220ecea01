package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/appointment"
	appointmentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) appointment.RepositoryAPI {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, record *appointmentDatamodel.Appointment) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
	var record appointmentDatamodel.Appointment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *AppointmentRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*appointmentDatamodel.Appointment, error) {
	var record appointmentDatamodel.Appointment
	err := r.db.WithContext(ctx).Where("appointment_id = ?", appointmentID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *AppointmentRepository) FindBySubmission(ctx context.Context, submissionID, patientID string) (*appointmentDatamodel.Appointment, error) {
	var record appointmentDatamodel.Appointment
	err := r.db.WithContext(ctx).
		Where("submission_id = ? AND patient_id = ?", submissionID, patientID).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &record, nil
}

// CountOverlapping counts active appointments whose half-open interval
// [start_at, end_at) intersects [q.StartAt, q.EndAt). Touching boundaries do
// not count as overlap.
func (r *AppointmentRepository) CountOverlapping(ctx context.Context, q appointment.OverlapQuery) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&appointmentDatamodel.Appointment{}).
		Where("status IN ?", appointment.ActiveStatuses).
		Where("start_at < ? AND ? < end_at", q.EndAt, q.StartAt)

	if q.CheckPatient {
		query = query.Where("patient_id = ?", q.PatientID)
	} else {
		query = query.Where("doctor_id = ?", q.DoctorID)
	}
	if q.ExcludeID != "" {
		query = query.Where("id <> ?", q.ExcludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AppointmentRepository) List(ctx context.Context, params appointment.ListParams) ([]appointmentDatamodel.Appointment, int64, error) {
	query := r.db.WithContext(ctx).Model(&appointmentDatamodel.Appointment{})

	if params.PatientID != "" {
		query = query.Where("patient_id = ?", params.PatientID)
	}
	if params.DoctorID != "" {
		query = query.Where("doctor_id = ?", params.DoctorID)
	}
	if params.CreatedBy != "" {
		query = query.Where("created_by = ?", params.CreatedBy)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Search != "" {
		query = query.Where("appointment_id LIKE ?", "%"+params.Search+"%")
	}
	if params.From != nil {
		query = query.Where("start_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("start_at < ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []appointmentDatamodel.Appointment
	err := query.
		Order("start_at DESC").
		Offset((params.Page - 1) * params.PerPage).
		Limit(params.PerPage).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *AppointmentRepository) ListActiveInRange(ctx context.Context, doctorID string, from, to time.Time) ([]appointmentDatamodel.Appointment, error) {
	var records []appointmentDatamodel.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Where("status IN ?", appointment.ActiveStatuses).
		Where("start_at < ? AND ? < end_at", to, from).
		Order("start_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, record *appointmentDatamodel.Appointment) error {
	return r.db.WithContext(ctx).Save(record).Error
}
