package otp_test

import (
	"context"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal"
	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
	"github.com/frahmantamala/hospital-management/internal/otp"
)

type memoryOtpRepo struct {
	challenges map[string]*otpDatamodel.Challenge
	nextID     int
}

func newMemoryOtpRepo() *memoryOtpRepo {
	return &memoryOtpRepo{challenges: make(map[string]*otpDatamodel.Challenge)}
}

func (m *memoryOtpRepo) Create(ctx context.Context, challenge *otpDatamodel.Challenge) error {
	m.nextID++
	challenge.ID = "challenge-" + string(rune('0'+m.nextID))
	clone := *challenge
	m.challenges[challenge.ID] = &clone
	return nil
}

func (m *memoryOtpRepo) GetByID(ctx context.Context, id string) (*otpDatamodel.Challenge, error) {
	challenge, ok := m.challenges[id]
	if !ok {
		return nil, internal.NewOtpError(internal.OtpNotFound)
	}
	clone := *challenge
	return &clone, nil
}

func (m *memoryOtpRepo) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	challenge, ok := m.challenges[id]
	if !ok {
		return internal.NewOtpError(internal.OtpNotFound)
	}
	if challenge.ConsumedAt != nil {
		return internal.NewOtpError(internal.OtpAlreadyUsed)
	}
	challenge.ConsumedAt = &at
	return nil
}

type recordingSender struct {
	targets []string
	codes   []string
}

func (r *recordingSender) SendOtp(ctx context.Context, target, code, last4 string, amount int64) error {
	r.targets = append(r.targets, target)
	r.codes = append(r.codes, code)
	return nil
}

var _ = Describe("OTP Service", func() {
	var (
		repo   *memoryOtpRepo
		sender *recordingSender
		svc    *otp.Service
		ctx    context.Context
	)

	request := otp.GenerateRequest{
		Purpose:    otpDatamodel.PurposePayment,
		Target:     "nadia@example.com",
		MetaLast4:  "4242",
		MetaAmount: 250000,
		TTL:        5 * time.Minute,
	}

	BeforeEach(func() {
		repo = newMemoryOtpRepo()
		sender = &recordingSender{}
		svc = otp.NewService(repo, sender, slog.Default())
		ctx = context.Background()
	})

	Describe("Generate", func() {
		It("issues a six digit code and stores only the hash", func() {
			issued, err := svc.Generate(ctx, request)
			Expect(err).NotTo(HaveOccurred())
			Expect(issued.Code).To(MatchRegexp(`^\d{6}$`))

			stored := repo.challenges[issued.ChallengeID]
			Expect(stored).NotTo(BeNil())
			Expect(stored.CodeHash).NotTo(BeEmpty())
			Expect(stored.CodeHash).NotTo(ContainSubstring(issued.Code))
		})

		It("hands the plaintext code to the sender", func() {
			issued, err := svc.Generate(ctx, request)
			Expect(err).NotTo(HaveOccurred())
			Expect(sender.targets).To(Equal([]string{"nadia@example.com"}))
			Expect(sender.codes).To(Equal([]string{issued.Code}))
		})
	})

	Describe("Verify", func() {
		It("accepts the right code exactly once", func() {
			issued, err := svc.Generate(ctx, request)
			Expect(err).NotTo(HaveOccurred())

			challenge, err := svc.Verify(ctx, issued.ChallengeID, issued.Code)
			Expect(err).NotTo(HaveOccurred())
			Expect(challenge.ConsumedAt).NotTo(BeNil())

			_, err = svc.Verify(ctx, issued.ChallengeID, issued.Code)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeOtpAlreadyUsed))
		})

		It("rejects a wrong code without consuming the challenge", func() {
			issued, err := svc.Generate(ctx, request)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Verify(ctx, issued.ChallengeID, "000000")
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeOtpInvalid))

			// the right code still works afterwards
			_, err = svc.Verify(ctx, issued.ChallengeID, issued.Code)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unknown challenge id", func() {
			_, err := svc.Verify(ctx, "no-such-challenge", "123456")
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeOtpNotFound))
		})

		It("rejects an expired challenge", func() {
			issued, err := svc.Generate(ctx, otp.GenerateRequest{
				Purpose: otpDatamodel.PurposePayment,
				Target:  "nadia@example.com",
				TTL:     -time.Minute,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Verify(ctx, issued.ChallengeID, issued.Code)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeOtpExpired))
		})
	})
})
