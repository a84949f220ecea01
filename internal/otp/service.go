package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/hospital-management/internal"
	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
)

// hashCost stays below the password default: codes are six digits with a
// short lifetime, and verification sits on the payment hot path.
const hashCost = 8

const codeDigits = 6

type Service struct {
	repo   RepositoryAPI
	sender SenderAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, sender SenderAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Generate mints a six digit code, stores its bcrypt hash and hands the
// plaintext back for delivery.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Issued, error) {
	code, err := randomCode()
	if err != nil {
		return nil, internal.NewInternalError("failed to generate code", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), hashCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash code", err)
	}

	challenge := &otpDatamodel.Challenge{
		Purpose:    req.Purpose,
		CodeHash:   string(hash),
		Target:     req.Target,
		MetaLast4:  req.MetaLast4,
		MetaAmount: req.MetaAmount,
		ExpiresAt:  s.now().Add(req.TTL),
	}

	if err := s.repo.Create(ctx, challenge); err != nil {
		s.logger.Error("failed to store otp challenge", "error", err)
		return nil, internal.NewInternalError("failed to store challenge", err)
	}

	if s.sender != nil {
		if err := s.sender.SendOtp(ctx, req.Target, code, req.MetaLast4, req.MetaAmount); err != nil {
			s.logger.Error("otp delivery failed", "error", err, "challenge_id", challenge.ID)
		}
	}

	return &Issued{
		ChallengeID: challenge.ID,
		Code:        code,
		ExpiresAt:   challenge.ExpiresAt,
	}, nil
}

// Verify consumes a challenge. Each failure mode gets its own reason so the
// client can tell "resend" apart from "retype". Expiry is evaluated here, at
// verification time; nothing sweeps expired rows in the background.
func (s *Service) Verify(ctx context.Context, challengeID, code string) (*otpDatamodel.Challenge, error) {
	challenge, err := s.repo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, internal.NewOtpError(internal.OtpNotFound)
	}

	if challenge.ConsumedAt != nil {
		return nil, internal.NewOtpError(internal.OtpAlreadyUsed)
	}
	if s.now().After(challenge.ExpiresAt) {
		return nil, internal.NewOtpError(internal.OtpExpired)
	}
	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
		return nil, internal.NewOtpError(internal.OtpInvalid)
	}

	consumedAt := s.now()
	if err := s.repo.MarkConsumed(ctx, challenge.ID, consumedAt); err != nil {
		s.logger.Error("failed to consume otp challenge", "error", err, "challenge_id", challenge.ID)
		return nil, internal.NewInternalError("failed to consume challenge", err)
	}
	challenge.ConsumedAt = &consumedAt

	return challenge, nil
}

func randomCode() (string, error) {
	bound := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		bound.Mul(bound, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
