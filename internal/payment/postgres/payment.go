package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	paymentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/hospital-management/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) payment.RepositoryAPI {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, record *paymentDatamodel.Payment) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*paymentDatamodel.Payment, error) {
	var record paymentDatamodel.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrPaymentNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]paymentDatamodel.Payment, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&paymentDatamodel.Payment{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []paymentDatamodel.Payment
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *PaymentRepository) Update(ctx context.Context, record *paymentDatamodel.Payment) error {
	return r.db.WithContext(ctx).Save(record).Error
}
