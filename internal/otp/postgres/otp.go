package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
	"github.com/frahmantamala/hospital-management/internal/otp"
)

type OtpRepository struct {
	db *gorm.DB
}

func NewOtpRepository(db *gorm.DB) otp.RepositoryAPI {
	return &OtpRepository{db: db}
}

func (r *OtpRepository) Create(ctx context.Context, challenge *otpDatamodel.Challenge) error {
	if challenge.ID == "" {
		challenge.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *OtpRepository) GetByID(ctx context.Context, id string) (*otpDatamodel.Challenge, error) {
	var challenge otpDatamodel.Challenge
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&challenge).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.NewOtpError(internal.OtpNotFound)
		}
		return nil, err
	}
	return &challenge, nil
}

// MarkConsumed stamps consumed_at only when the row is still unconsumed, so
// two concurrent verifications cannot both succeed.
func (r *OtpRepository) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&otpDatamodel.Challenge{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.NewOtpError(internal.OtpAlreadyUsed)
	}
	return nil
}
