package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/auth"
	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
	paymentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/payment"
	"github.com/frahmantamala/hospital-management/internal/core/events"
)

type Service struct {
	repo         RepositoryAPI
	otp          OtpServiceAPI
	appointments AppointmentConfirmerAPI
	patients     PatientLedgerAPI
	eventBus     *events.EventBus
	cfg          internal.PaymentConfig
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(
	repo RepositoryAPI,
	otpSvc OtpServiceAPI,
	appointments AppointmentConfirmerAPI,
	patients PatientLedgerAPI,
	eventBus *events.EventBus,
	cfg internal.PaymentConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		otp:          otpSvc,
		appointments: appointments,
		patients:     patients,
		eventBus:     eventBus,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// InitiateCard records a pending card payment and issues the OTP challenge
// that gates capture. The card number never reaches storage: only the last
// four digits, the sniffed brand and an opaque token survive validation.
func (s *Service) InitiateCard(ctx context.Context, dto InitiateCardDTO, actor Actor) (*InitiateResult, error) {
	if err := dto.Validate(s.now()); err != nil {
		return nil, err
	}

	last4 := dto.Card.Number[len(dto.Card.Number)-4:]
	brand := cardBrand(dto.Card.Number)
	token := "tok_" + uuid.New().String()

	// A patient paying for themselves rarely names a registry record; fall
	// back to the one registered under their account email.
	patientID := dto.PatientID
	if (patientID == nil || *patientID == "") && actor.Role == auth.RolePatient {
		if resolved, err := s.patients.FindPatientIDByEmail(ctx, actor.Email); err == nil && resolved != "" {
			patientID = &resolved
		} else {
			s.logger.Info("no patient record for payer, payment stays unlinked",
				"user_id", actor.ID)
		}
	}

	record := &paymentDatamodel.Payment{
		Method:      paymentDatamodel.MethodCard,
		Status:      paymentDatamodel.StatusPending,
		Currency:    s.cfg.Currency,
		TotalAmount: dto.Breakdown.Total(),
		Breakdown:   dto.Breakdown,
		UserID:      actor.ID,
		PatientID:   patientID,
		DoctorID:    dto.DoctorID,
		Notes:       dto.Notes,
		CardLast4:   &last4,
		CardBrand:   &brand,
		CardToken:   &token,
	}
	if dto.AppointmentID != nil && *dto.AppointmentID != "" {
		record.AppointmentID = dto.AppointmentID
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("failed to create payment", "error", err)
		return nil, internal.NewInternalError("failed to create payment", err)
	}

	issued, err := s.otp.Generate(ctx, OtpGenerateRequest{
		Purpose:    otpDatamodel.PurposePayment,
		Target:     actor.Email,
		MetaLast4:  last4,
		MetaAmount: record.TotalAmount,
		TTL:        s.cfg.OtpTTL,
	})
	if err != nil {
		// Without a challenge the payment can never be captured; fail it.
		record.Status = paymentDatamodel.StatusFailed
		if updateErr := s.repo.Update(ctx, record); updateErr != nil {
			s.logger.Error("failed to mark payment failed", "error", updateErr, "payment_id", record.ID)
		}
		return nil, err
	}

	record.OtpRefID = &issued.ChallengeID
	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("failed to attach otp reference", "error", err, "payment_id", record.ID)
		return nil, internal.NewInternalError("failed to attach challenge", err)
	}

	s.publish(ctx, events.EventTypePaymentInitiated, record)
	s.publish(ctx, events.EventTypePaymentOtpSent, record)

	result := &InitiateResult{
		Payment:   record,
		OtpRefID:  issued.ChallengeID,
		ExpiresAt: issued.ExpiresAt,
	}
	if s.cfg.ExposeDevCode {
		result.DevCode = issued.Code
	}
	return result, nil
}

// Confirm captures a pending payment once its OTP challenge is answered. The
// linkage side effects after capture are best-effort: the money moved, so a
// failure to confirm the appointment or write patient history is logged and
// swallowed, never bounced to the payer.
func (s *Service) Confirm(ctx context.Context, dto ConfirmDTO, actor Actor) (*paymentDatamodel.Payment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, dto.PaymentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(record, actor); err != nil {
		return nil, err
	}

	if record.Status == paymentDatamodel.StatusCaptured {
		// Idempotent confirm: the first capture already did the work.
		return record, nil
	}
	if record.Status != paymentDatamodel.StatusPending {
		return nil, internal.NewConflictError("Payment is not awaiting confirmation", internal.ErrCodeValidationFailed)
	}
	if record.OtpRefID == nil || *record.OtpRefID != dto.OtpRefID {
		return nil, internal.ErrOtpMismatch
	}

	if _, err := s.otp.Verify(ctx, dto.OtpRefID, dto.Code); err != nil {
		return nil, err
	}

	// No separate authorization hop exists for this acquirer, so both
	// timestamps land at capture.
	capturedAt := s.now()
	record.Status = paymentDatamodel.StatusCaptured
	record.AuthorizedAt = &capturedAt
	record.CapturedAt = &capturedAt

	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("failed to capture payment", "error", err, "payment_id", record.ID)
		return nil, internal.NewInternalError("failed to capture payment", err)
	}

	s.applyCaptureSideEffects(ctx, record)
	s.publish(ctx, events.EventTypePaymentCaptured, record)

	return record, nil
}

func (s *Service) Get(ctx context.Context, id string, actor Actor) (*paymentDatamodel.Payment, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(record, actor); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string, page, perPage int) ([]paymentDatamodel.Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.repo.ListByUser(ctx, userID, page, perPage)
}

func (s *Service) applyCaptureSideEffects(ctx context.Context, record *paymentDatamodel.Payment) {
	switch {
	case record.AppointmentID != nil && *record.AppointmentID != "":
		if _, err := s.appointments.ConfirmWithPayment(ctx, *record.AppointmentID, record.ID); err != nil {
			s.logger.Error("captured payment but appointment confirmation failed",
				"error", err, "payment_id", record.ID, "appointment_id", *record.AppointmentID)
		}
	case record.PatientID != nil && *record.PatientID != "" && record.DoctorID != nil && *record.DoctorID != "":
		created, err := s.appointments.CreateConfirmedForPayment(ctx, *record.PatientID, *record.DoctorID, record.ID)
		if err != nil {
			s.logger.Error("captured payment but follow-up booking failed",
				"error", err, "payment_id", record.ID, "doctor_id", *record.DoctorID)
			break
		}
		record.AppointmentID = &created.AppointmentID
		if err := s.repo.Update(ctx, record); err != nil {
			s.logger.Error("failed to link follow-up booking to payment",
				"error", err, "payment_id", record.ID, "appointment_id", created.AppointmentID)
		}
	}
	if record.PatientID != nil && *record.PatientID != "" {
		if err := s.patients.AppendPayment(ctx, *record.PatientID, record.ID); err != nil {
			s.logger.Error("captured payment but patient history append failed",
				"error", err, "payment_id", record.ID, "patient_id", *record.PatientID)
		}
	}
}

func (s *Service) authorize(record *paymentDatamodel.Payment, actor Actor) error {
	if actor.Role == auth.RoleStaff {
		return nil
	}
	if record.UserID == actor.ID {
		return nil
	}
	// NotFound, not Forbidden: a payment id must not be probeable by other
	// accounts.
	return internal.ErrPaymentNotFound
}

func (s *Service) publish(ctx context.Context, eventType string, record *paymentDatamodel.Payment) {
	if s.eventBus == nil {
		return
	}
	event := events.NewPaymentEvent(eventType, record.ID, record.UserID, record.Status, record.TotalAmount, record.Currency)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish payment event", "error", err, "event_type", eventType)
	}
}
