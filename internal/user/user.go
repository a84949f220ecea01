package user

import (
	"context"

	userDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/user"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetDoctor(ctx context.Context, id string) (*Profile, error)
	ListDoctors(ctx context.Context, specialization string) ([]Profile, error)
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	ListByRole(ctx context.Context, role, specialization string) ([]userDatamodel.User, error)
	Create(ctx context.Context, account *userDatamodel.User) error
}

// Profile is the outward-facing view of an account; it never carries the
// password hash.
type Profile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	Specialization *string `json:"specialization,omitempty"`
}

func profileFromDataModel(dm *userDatamodel.User) *Profile {
	return &Profile{
		ID:             dm.ID,
		Name:           dm.Name,
		Email:          dm.Email,
		Role:           dm.Role,
		Specialization: dm.Specialization,
	}
}
