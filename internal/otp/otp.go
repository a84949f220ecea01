package otp

import (
	"context"
	"time"

	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
)

type ServiceAPI interface {
	Generate(ctx context.Context, req GenerateRequest) (*Issued, error)
	Verify(ctx context.Context, challengeID, code string) (*otpDatamodel.Challenge, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, challenge *otpDatamodel.Challenge) error
	GetByID(ctx context.Context, id string) (*otpDatamodel.Challenge, error)
	MarkConsumed(ctx context.Context, id string, at time.Time) error
}

// SenderAPI delivers the plaintext code out-of-band. Delivery failures do not
// void the challenge; the payer can fall back on a resend.
type SenderAPI interface {
	SendOtp(ctx context.Context, target, code, last4 string, amount int64) error
}

// GenerateRequest carries the delivery target and the display metadata the
// out-of-band message includes.
type GenerateRequest struct {
	Purpose    string
	Target     string
	MetaLast4  string
	MetaAmount int64
	TTL        time.Duration
}

// Issued is the result of generating a challenge. Code is the plaintext for
// out-of-band delivery; it is never persisted.
type Issued struct {
	ChallengeID string
	Code        string
	ExpiresAt   time.Time
}
