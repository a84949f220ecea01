package postgres

import (
	"context"

	"gorm.io/gorm"

	sequenceDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/sequence"
	"github.com/frahmantamala/hospital-management/internal/sequence"
)

type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) sequence.RepositoryAPI {
	return &SequenceRepository{db: db}
}

// NextSeq does a single upsert so two concurrent callers can never read the
// same value: the conflict branch increments the existing row and RETURNING
// hands back the post-increment sequence.
func (r *SequenceRepository) NextSeq(ctx context.Context, kind sequence.Kind, year int) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO counters (kind, year, seq)
		VALUES (?, ?, 1)
		ON CONFLICT (kind, year) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq`,
		string(kind), year,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Current reads the counter without incrementing it; used by the seeder to
// report where a kind's numbering stands.
func (r *SequenceRepository) Current(ctx context.Context, kind sequence.Kind, year int) (int64, error) {
	var counter sequenceDatamodel.Counter
	err := r.db.WithContext(ctx).
		Where("kind = ? AND year = ?", string(kind), year).
		First(&counter).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return counter.Seq, nil
}
