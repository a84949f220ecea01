package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/auth"
	userDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/user"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.RepositoryAPI {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var account userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AuthRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
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
