package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	userDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hospital-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	var account userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role, specialization string) ([]userDatamodel.User, error) {
	query := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("name ASC")
	if specialization != "" {
		query = query.Where("specialization = ?", specialization)
	}

	var accounts []userDatamodel.User
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *UserRepository) Create(ctx context.Context, account *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(account).Error
}
