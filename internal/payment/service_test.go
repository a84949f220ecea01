package payment_test

import (
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/auth"
	appointmentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/appointment"
	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
	paymentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/hospital-management/internal/core/events"
	"github.com/frahmantamala/hospital-management/internal/payment"
)

type memoryPaymentRepo struct {
	records map[string]*paymentDatamodel.Payment
	nextID  int
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{records: make(map[string]*paymentDatamodel.Payment)}
}

func (m *memoryPaymentRepo) Create(ctx context.Context, record *paymentDatamodel.Payment) error {
	m.nextID++
	record.ID = "pay-" + string(rune('0'+m.nextID))
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

func (m *memoryPaymentRepo) GetByID(ctx context.Context, id string) (*paymentDatamodel.Payment, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, internal.ErrPaymentNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *memoryPaymentRepo) ListByUser(ctx context.Context, userID string, page, perPage int) ([]paymentDatamodel.Payment, int64, error) {
	var out []paymentDatamodel.Payment
	for _, record := range m.records {
		if record.UserID == userID {
			out = append(out, *record)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryPaymentRepo) Update(ctx context.Context, record *paymentDatamodel.Payment) error {
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

type mockOtpService struct {
	generateErr error
	verifyErr   error
	issued      *payment.OtpIssued
	verified    []string
}

func (m *mockOtpService) Generate(ctx context.Context, req payment.OtpGenerateRequest) (*payment.OtpIssued, error) {
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	if m.issued == nil {
		m.issued = &payment.OtpIssued{
			ChallengeID: "otp-1",
			Code:        "123456",
			ExpiresAt:   time.Now().Add(req.TTL),
		}
	}
	return m.issued, nil
}

func (m *mockOtpService) Verify(ctx context.Context, challengeID, code string) (*otpDatamodel.Challenge, error) {
	m.verified = append(m.verified, challengeID)
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	now := time.Now()
	return &otpDatamodel.Challenge{ID: challengeID, ConsumedAt: &now}, nil
}

type mockConfirmer struct {
	err     error
	calls   [][2]string
	created [][3]string
}

func (m *mockConfirmer) ConfirmWithPayment(ctx context.Context, appointmentID, paymentID string) (*appointmentDatamodel.Appointment, error) {
	m.calls = append(m.calls, [2]string{appointmentID, paymentID})
	if m.err != nil {
		return nil, m.err
	}
	return &appointmentDatamodel.Appointment{ID: appointmentID}, nil
}

func (m *mockConfirmer) CreateConfirmedForPayment(ctx context.Context, patientID, doctorID, paymentID string) (*appointmentDatamodel.Appointment, error) {
	m.created = append(m.created, [3]string{patientID, doctorID, paymentID})
	if m.err != nil {
		return nil, m.err
	}
	return &appointmentDatamodel.Appointment{AppointmentID: "APT-2026-000042", Status: "CONFIRMED"}, nil
}

type mockLedger struct {
	err      error
	calls    [][2]string
	resolved string
	lookups  []string
}

func (m *mockLedger) AppendPayment(ctx context.Context, patientID, paymentID string) error {
	m.calls = append(m.calls, [2]string{patientID, paymentID})
	return m.err
}

func (m *mockLedger) FindPatientIDByEmail(ctx context.Context, email string) (string, error) {
	m.lookups = append(m.lookups, email)
	if m.resolved == "" {
		return "", internal.ErrPatientNotFound
	}
	return m.resolved, nil
}

var _ = Describe("Payment Service", func() {
	var (
		repo      *memoryPaymentRepo
		otpSvc    *mockOtpService
		confirmer *mockConfirmer
		ledger    *mockLedger
		svc       *payment.Service
		ctx       context.Context
		payer     payment.Actor
	)

	cfg := internal.PaymentConfig{
		Currency: "LKR",
		OtpTTL:   5 * time.Minute,
	}

	strPtr := func(s string) *string { return &s }

	validDTO := func() payment.InitiateCardDTO {
		return payment.InitiateCardDTO{
			Breakdown: paymentDatamodel.Breakdown{ConsultationFee: 250000, ProcessingFee: 5000},
			Card: payment.CardDTO{
				Number:      "4242 4242 4242 4242",
				ExpiryMonth: 12,
				ExpiryYear:  time.Now().Year() + 2,
				CVC:         "123",
				HolderName:  "N RAHMA",
			},
		}
	}

	BeforeEach(func() {
		repo = newMemoryPaymentRepo()
		otpSvc = &mockOtpService{}
		confirmer = &mockConfirmer{}
		ledger = &mockLedger{}
		svc = payment.NewService(repo, otpSvc, confirmer, ledger, events.NewEventBus(slog.Default()), cfg, slog.Default())
		ctx = context.Background()
		payer = payment.Actor{ID: "user-1", Email: "payer@example.com", Role: auth.RolePatient}
	})

	Describe("InitiateCard", func() {
		It("stores a pending payment with only the card tail", func() {
			result, err := svc.InitiateCard(ctx, validDTO(), payer)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Payment.Status).To(Equal(paymentDatamodel.StatusPending))
			Expect(result.Payment.Method).To(Equal(paymentDatamodel.MethodCard))
			Expect(result.Payment.TotalAmount).To(Equal(int64(255000)))
			Expect(*result.Payment.CardLast4).To(Equal("4242"))
			Expect(*result.Payment.CardBrand).To(Equal("VISA"))
			Expect(*result.Payment.CardToken).To(HavePrefix("tok_"))
			Expect(result.OtpRefID).To(Equal("otp-1"))
			Expect(result.DevCode).To(BeEmpty())
		})

		It("exposes the code only when configured for development", func() {
			devCfg := cfg
			devCfg.ExposeDevCode = true
			devSvc := payment.NewService(repo, otpSvc, confirmer, ledger, events.NewEventBus(slog.Default()), devCfg, slog.Default())

			result, err := devSvc.InitiateCard(ctx, validDTO(), payer)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.DevCode).To(Equal("123456"))
		})

		It("rejects a card that fails the mod-10 check", func() {
			dto := validDTO()
			dto.Card.Number = "4242424242424241"

			_, err := svc.InitiateCard(ctx, dto, payer)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("rejects an expired card", func() {
			dto := validDTO()
			dto.Card.ExpiryYear = time.Now().Year() - 1

			_, err := svc.InitiateCard(ctx, dto, payer)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a zero total", func() {
			dto := validDTO()
			dto.Breakdown = paymentDatamodel.Breakdown{}

			_, err := svc.InitiateCard(ctx, dto, payer)
			Expect(err).To(HaveOccurred())
		})

		It("links the payer's registry record when no patient was named", func() {
			ledger.resolved = "PAT-2026-000007"

			result, err := svc.InitiateCard(ctx, validDTO(), payer)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Payment.PatientID).NotTo(BeNil())
			Expect(*result.Payment.PatientID).To(Equal("PAT-2026-000007"))
			Expect(ledger.lookups).To(Equal([]string{"payer@example.com"}))
		})

		It("keeps an explicit patient reference over the derived one", func() {
			ledger.resolved = "PAT-2026-000007"
			dto := validDTO()
			dto.PatientID = strPtr("PAT-2026-000001")

			result, err := svc.InitiateCard(ctx, dto, payer)
			Expect(err).NotTo(HaveOccurred())
			Expect(*result.Payment.PatientID).To(Equal("PAT-2026-000001"))
			Expect(ledger.lookups).To(BeEmpty())
		})

		It("leaves the payment unlinked when the payer has no registry record", func() {
			result, err := svc.InitiateCard(ctx, validDTO(), payer)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Payment.PatientID).To(BeNil())
		})

		It("fails the payment when the challenge cannot be issued", func() {
			otpSvc.generateErr = errors.New("smtp down")

			_, err := svc.InitiateCard(ctx, validDTO(), payer)
			Expect(err).To(HaveOccurred())

			stored := repo.records["pay-1"]
			Expect(stored).NotTo(BeNil())
			Expect(stored.Status).To(Equal(paymentDatamodel.StatusFailed))
		})
	})

	Describe("Confirm", func() {
		initiate := func(mutate func(dto *payment.InitiateCardDTO)) *payment.InitiateResult {
			dto := validDTO()
			if mutate != nil {
				mutate(&dto)
			}
			result, err := svc.InitiateCard(ctx, dto, payer)
			Expect(err).NotTo(HaveOccurred())
			return result
		}

		It("captures the payment on the right code", func() {
			result := initiate(nil)

			captured, err := svc.Confirm(ctx, payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  result.OtpRefID,
				Code:      "123456",
			}, payer)
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.Status).To(Equal(paymentDatamodel.StatusCaptured))
			Expect(captured.AuthorizedAt).NotTo(BeNil())
			Expect(captured.CapturedAt).NotTo(BeNil())
			Expect(otpSvc.verified).To(Equal([]string{"otp-1"}))
		})

		It("rejects a mismatched challenge reference before verifying", func() {
			result := initiate(nil)

			_, err := svc.Confirm(ctx, payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  "otp-other",
				Code:      "123456",
			}, payer)
			Expect(err).To(Equal(internal.ErrOtpMismatch))
			Expect(otpSvc.verified).To(BeEmpty())
		})

		It("keeps the payment pending when the code is wrong", func() {
			result := initiate(nil)
			otpSvc.verifyErr = internal.NewOtpError(internal.OtpInvalid)

			_, err := svc.Confirm(ctx, payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  result.OtpRefID,
				Code:      "999999",
			}, payer)
			Expect(err).To(HaveOccurred())

			stored, _ := repo.GetByID(ctx, result.Payment.ID)
			Expect(stored.Status).To(Equal(paymentDatamodel.StatusPending))
		})

		It("treats a second confirm of a captured payment as a no-op", func() {
			result := initiate(nil)
			confirm := payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  result.OtpRefID,
				Code:      "123456",
			}

			_, err := svc.Confirm(ctx, confirm, payer)
			Expect(err).NotTo(HaveOccurred())

			captured, err := svc.Confirm(ctx, confirm, payer)
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.Status).To(Equal(paymentDatamodel.StatusCaptured))
			Expect(otpSvc.verified).To(HaveLen(1))
		})

		It("confirms the linked appointment and writes patient history", func() {
			result := initiate(func(dto *payment.InitiateCardDTO) {
				dto.AppointmentID = strPtr("appt-1")
				dto.PatientID = strPtr("pat-1")
			})

			_, err := svc.Confirm(ctx, payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  result.OtpRefID,
				Code:      "123456",
			}, payer)
			Expect(err).NotTo(HaveOccurred())

			Expect(confirmer.calls).To(HaveLen(1))
			Expect(confirmer.calls[0][0]).To(Equal("appt-1"))
			Expect(ledger.calls).To(HaveLen(1))
			Expect(ledger.calls[0][0]).To(Equal("pat-1"))
		})

		It("books a confirmed appointment when none was linked", func() {
			result := initiate(func(dto *payment.InitiateCardDTO) {
				dto.PatientID = strPtr("pat-1")
				dto.DoctorID = strPtr("doc-1")
			})

			_, err := svc.Confirm(ctx, payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  result.OtpRefID,
				Code:      "123456",
			}, payer)
			Expect(err).NotTo(HaveOccurred())

			Expect(confirmer.calls).To(BeEmpty())
			Expect(confirmer.created).To(HaveLen(1))
			Expect(confirmer.created[0][0]).To(Equal("pat-1"))
			Expect(confirmer.created[0][1]).To(Equal("doc-1"))

			stored, _ := repo.GetByID(ctx, result.Payment.ID)
			Expect(stored.AppointmentID).NotTo(BeNil())
			Expect(*stored.AppointmentID).To(Equal("APT-2026-000042"))
		})

		It("still captures when the appointment linkage fails", func() {
			confirmer.err = errors.New("appointment gone")
			result := initiate(func(dto *payment.InitiateCardDTO) {
				dto.AppointmentID = strPtr("appt-1")
			})

			captured, err := svc.Confirm(ctx, payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  result.OtpRefID,
				Code:      "123456",
			}, payer)
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.Status).To(Equal(paymentDatamodel.StatusCaptured))
		})

		It("hides another user's payment behind not-found", func() {
			result := initiate(nil)

			_, err := svc.Confirm(ctx, payment.ConfirmDTO{
				PaymentID: result.Payment.ID,
				OtpRefID:  result.OtpRefID,
				Code:      "123456",
			}, payment.Actor{ID: "intruder", Role: auth.RolePatient})
			Expect(err).To(Equal(internal.ErrPaymentNotFound))
		})
	})
})
