package sequence

import "context"

// Kind names a per-year counter. Each kind owns an independent sequence so
// appointment and patient numbers never interleave.
type Kind string

const (
	KindAppointment Kind = "APT"
	KindPatient     Kind = "PAT"
)

type RepositoryAPI interface {
	// NextSeq atomically increments and returns the counter for (kind, year).
	NextSeq(ctx context.Context, kind Kind, year int) (int64, error)
}
