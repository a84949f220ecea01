package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service mints human-facing identifiers like APT-2026-000042. The counter
// lives in the database so concurrent requests never mint the same number.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Next returns the next identifier for kind, formatted <KIND>-<year>-<seq>.
// If the counter cannot be read the caller still needs an identifier, so we
// fall back to a timestamp-based one and log the failure.
func (s *Service) Next(ctx context.Context, kind Kind) (string, error) {
	year := s.now().UTC().Year()

	seq, err := s.repo.NextSeq(ctx, kind, year)
	if err != nil {
		s.logger.Error("sequence increment failed, using timestamp fallback",
			"kind", string(kind), "year", year, "error", err)
		return fmt.Sprintf("%s-%d-%d", kind, year, s.now().UnixMilli()), nil
	}

	return fmt.Sprintf("%s-%d-%06d", kind, year, seq), nil
}
