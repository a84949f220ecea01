package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/auth"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetByID(ctx context.Context, id string) (*Profile, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return profileFromDataModel(account), nil
}

// GetDoctor resolves an account and verifies it actually holds the doctor
// role; slot and appointment booking both depend on this check.
func (s *Service) GetDoctor(ctx context.Context, id string) (*Profile, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.ErrDoctorNotFound
	}
	if account.Role != auth.RoleDoctor {
		return nil, internal.ErrDoctorNotFound
	}
	return profileFromDataModel(account), nil
}

func (s *Service) ListDoctors(ctx context.Context, specialization string) ([]Profile, error) {
	accounts, err := s.repo.ListByRole(ctx, auth.RoleDoctor, specialization)
	if err != nil {
		s.logger.Error("failed to list doctors", "error", err)
		return nil, internal.NewInternalError("failed to list doctors", err)
	}

	profiles := make([]Profile, 0, len(accounts))
	for i := range accounts {
		profiles = append(profiles, *profileFromDataModel(&accounts[i]))
	}
	return profiles, nil
}
