package appointment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/auth"
	appointmentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/appointment"
	"github.com/frahmantamala/hospital-management/internal/core/events"
	"github.com/frahmantamala/hospital-management/internal/sequence"
)

type Service struct {
	repo      RepositoryAPI
	doctors   DoctorDirectoryAPI
	sequencer SequencerAPI
	eventBus  *events.EventBus
	cfg       internal.SchedulingConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	repo RepositoryAPI,
	doctors DoctorDirectoryAPI,
	sequencer SequencerAPI,
	eventBus *events.EventBus,
	cfg internal.SchedulingConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		doctors:   doctors,
		sequencer: sequencer,
		eventBus:  eventBus,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Create books an appointment. Replays carrying the same submission id for
// the same patient return the original booking instead of a second one, and
// the slot is guarded twice: an overlap query up front, then the partial
// unique index catches the race two concurrent requests can still produce.
func (s *Service) Create(ctx context.Context, dto CreateAppointmentDTO, actor Actor) (*appointmentDatamodel.Appointment, error) {
	if actor.Role != auth.RolePatient {
		return nil, internal.ErrAccessDenied
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	startAt, _ := dto.ParseStart()
	startAt = startAt.UTC()
	if !startAt.After(s.now().UTC()) {
		return nil, internal.NewValidationFieldError("start", "start must be in the future", internal.ErrCodeInvalidDate)
	}

	doctor, err := s.doctors.GetDoctor(ctx, dto.DoctorID)
	if err != nil {
		return nil, internal.ErrDoctorNotFound
	}

	duration := dto.DurationMinutes
	if duration == 0 {
		duration = s.cfg.SlotMinutes
	}
	endAt := startAt.Add(time.Duration(duration) * time.Minute)

	if dto.SubmissionID != nil && *dto.SubmissionID != "" {
		existing, err := s.repo.FindBySubmission(ctx, *dto.SubmissionID, dto.PatientID)
		if err == nil && existing != nil {
			s.logger.Info("duplicate submission, returning existing appointment",
				"appointment_id", existing.AppointmentID, "submission_id", *dto.SubmissionID)
			return existing, nil
		}
	}

	if err := s.ensureNoClash(ctx, dto.DoctorID, dto.PatientID, startAt, endAt, ""); err != nil {
		return nil, err
	}

	appointmentID, err := s.sequencer.Next(ctx, sequence.KindAppointment)
	if err != nil {
		return nil, internal.NewInternalError("failed to allocate appointment identifier", err)
	}

	record := &appointmentDatamodel.Appointment{
		AppointmentID:   appointmentID,
		PatientID:       dto.PatientID,
		DoctorID:        dto.DoctorID,
		Specialization:  doctor.Specialization,
		Reason:          dto.Reason,
		StartAt:         startAt,
		EndAt:           endAt,
		DurationMinutes: duration,
		Status:          StatusPending,
		SubmissionID:    dto.SubmissionID,
		CreatedBy:       &actor.ID,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, internal.ErrSlotTaken
		}
		s.logger.Error("failed to create appointment", "error", err)
		return nil, internal.NewInternalError("failed to create appointment", err)
	}

	s.publish(ctx, events.EventTypeAppointmentCreated, record, actor)
	return record, nil
}

func (s *Service) Get(ctx context.Context, ref string, actor Actor) (*appointmentDatamodel.Appointment, error) {
	record, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(record, actor); err != nil {
		return nil, err
	}
	return record, nil
}

// List is role-scoped: patients see bookings they created, doctors see their
// own calendar, staff see everything the filters allow.
func (s *Service) List(ctx context.Context, params ListParams, actor Actor) ([]appointmentDatamodel.Appointment, int64, error) {
	params.Normalize()

	switch actor.Role {
	case auth.RolePatient:
		params.PatientID = ""
		params.CreatedBy = actor.ID
	case auth.RoleDoctor:
		params.DoctorID = actor.ID
	}

	return s.repo.List(ctx, params)
}

// Reschedule moves an appointment to a new slot, optionally to a new doctor,
// or just amends the reason when no time is given. Patients can only touch
// their own pending bookings; staff and the owning doctor can also move
// confirmed ones. Terminal statuses are locked.
func (s *Service) Reschedule(ctx context.Context, ref string, dto RescheduleDTO, actor Actor) (*appointmentDatamodel.Appointment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(record, actor); err != nil {
		return nil, err
	}
	if actor.Role == auth.RolePatient {
		if record.Status != StatusPending {
			return nil, internal.ErrNotPending
		}
	} else if record.Status != StatusPending && record.Status != StatusConfirmed {
		return nil, internal.ErrNotPending
	}

	startAt := record.StartAt
	if dto.Start != "" {
		parsed, _ := dto.ParseStart()
		startAt = parsed.UTC()
		if !startAt.After(s.now().UTC()) {
			return nil, internal.NewValidationFieldError("start", "start must be in the future", internal.ErrCodeInvalidDate)
		}
	}

	doctorID := record.DoctorID
	if dto.DoctorID != "" && dto.DoctorID != record.DoctorID {
		doctor, err := s.doctors.GetDoctor(ctx, dto.DoctorID)
		if err != nil {
			return nil, internal.ErrDoctorNotFound
		}
		doctorID = dto.DoctorID
		record.Specialization = doctor.Specialization
	}

	duration := dto.DurationMinutes
	if duration == 0 {
		duration = record.DurationMinutes
	}
	endAt := startAt.Add(time.Duration(duration) * time.Minute)

	moved := !startAt.Equal(record.StartAt) || !endAt.Equal(record.EndAt) || doctorID != record.DoctorID
	if moved {
		if err := s.ensureNoClash(ctx, doctorID, record.PatientID, startAt, endAt, record.ID); err != nil {
			return nil, err
		}
		record.RescheduleCount++
	}
	record.DoctorID = doctorID
	record.StartAt = startAt
	record.EndAt = endAt
	record.DurationMinutes = duration
	if dto.Reason != "" {
		record.Reason = dto.Reason
	}
	record.UpdatedBy = &actor.ID

	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, internal.ErrSlotTaken
		}
		s.logger.Error("failed to reschedule appointment", "error", err, "appointment_id", record.AppointmentID)
		return nil, internal.NewInternalError("failed to reschedule appointment", err)
	}

	eventType := events.EventTypeAppointmentUpdated
	if moved {
		eventType = events.EventTypeAppointmentRescheduled
	}
	s.publish(ctx, eventType, record, actor)
	return record, nil
}

// UpdateStatus moves an appointment through the state machine. Re-asserting
// the current status is a no-op that returns the record unchanged.
func (s *Service) UpdateStatus(ctx context.Context, ref string, dto UpdateStatusDTO, actor Actor) (*appointmentDatamodel.Appointment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	// Cancellation has its own role gates and skips the transition table.
	if dto.Status == StatusCancelled {
		return s.cancel(ctx, record, actor)
	}

	// Patients only cancel; other moves belong to the back office.
	if actor.Role == auth.RolePatient {
		return nil, internal.ErrAccessDenied
	}
	if err := s.authorizeWrite(record, actor); err != nil {
		return nil, err
	}

	if record.Status == dto.Status {
		return record, nil
	}
	if !CanTransition(record.Status, dto.Status) {
		return nil, internal.NewInvalidTransitionError(record.Status, dto.Status)
	}

	record.Status = dto.Status
	record.UpdatedBy = &actor.ID

	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("failed to update appointment status", "error", err, "appointment_id", record.AppointmentID)
		return nil, internal.NewInternalError("failed to update appointment status", err)
	}

	s.publish(ctx, events.EventTypeAppointmentStatusChanged, record, actor)
	return record, nil
}

func (s *Service) Cancel(ctx context.Context, ref string, actor Actor) (*appointmentDatamodel.Appointment, error) {
	record, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, record, actor)
}

// cancel retires a booking. Patients may cancel only their own pending
// bookings; doctors their own regardless of status; staff anything. An
// already-cancelled record is a no-op.
func (s *Service) cancel(ctx context.Context, record *appointmentDatamodel.Appointment, actor Actor) (*appointmentDatamodel.Appointment, error) {
	if err := s.authorizeWrite(record, actor); err != nil {
		return nil, err
	}
	if actor.Role == auth.RolePatient && record.Status != StatusPending {
		return nil, internal.ErrNotPending
	}
	if record.Status == StatusCancelled {
		return record, nil
	}

	record.Status = StatusCancelled
	record.UpdatedBy = &actor.ID

	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("failed to cancel appointment", "error", err, "appointment_id", record.AppointmentID)
		return nil, internal.NewInternalError("failed to cancel appointment", err)
	}

	s.publish(ctx, events.EventTypeAppointmentCancelled, record, actor)
	return record, nil
}

// ConfirmWithPayment attaches a captured payment and confirms the booking.
// Payment capture calls this best-effort: a failure here is logged by the
// caller, never surfaced to the payer.
func (s *Service) ConfirmWithPayment(ctx context.Context, appointmentID, paymentID string) (*appointmentDatamodel.Appointment, error) {
	record, err := s.resolve(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if record.Status != StatusConfirmed {
		if !CanTransition(record.Status, StatusConfirmed) {
			return nil, internal.NewInvalidTransitionError(record.Status, StatusConfirmed)
		}
		record.Status = StatusConfirmed
	}
	record.PaymentID = &paymentID

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, internal.NewInternalError("failed to confirm appointment", err)
	}

	s.publish(ctx, events.EventTypeAppointmentStatusChanged, record, Actor{ID: "payment", Role: "SYSTEM"})
	return record, nil
}

// CreateConfirmedForPayment books a walk-in appointment for a captured
// payment that arrived without a linked booking. The slot is the next free
// grid window for the doctor; like the rest of the capture side effects this
// runs best-effort.
func (s *Service) CreateConfirmedForPayment(ctx context.Context, patientID, doctorID, paymentID string) (*appointmentDatamodel.Appointment, error) {
	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, internal.ErrDoctorNotFound
	}

	slotSize := time.Duration(s.cfg.SlotMinutes) * time.Minute
	startAt := s.now().UTC().Truncate(slotSize).Add(slotSize)
	endAt := startAt.Add(slotSize)
	for attempts := 0; attempts < 16; attempts++ {
		count, err := s.repo.CountOverlapping(ctx, OverlapQuery{DoctorID: doctorID, StartAt: startAt, EndAt: endAt})
		if err != nil {
			return nil, internal.NewInternalError("failed to check slot availability", err)
		}
		if count == 0 {
			break
		}
		startAt = startAt.Add(slotSize)
		endAt = endAt.Add(slotSize)
	}

	appointmentID, err := s.sequencer.Next(ctx, sequence.KindAppointment)
	if err != nil {
		return nil, internal.NewInternalError("failed to allocate appointment identifier", err)
	}

	record := &appointmentDatamodel.Appointment{
		AppointmentID:   appointmentID,
		PatientID:       patientID,
		DoctorID:        doctorID,
		Specialization:  doctor.Specialization,
		StartAt:         startAt,
		EndAt:           endAt,
		DurationMinutes: s.cfg.SlotMinutes,
		Status:          StatusConfirmed,
		PaymentID:       &paymentID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, internal.NewInternalError("failed to create appointment", err)
	}

	s.publish(ctx, events.EventTypeAppointmentCreated, record, Actor{ID: "payment", Role: "SYSTEM"})
	return record, nil
}

// BookedIntervals returns the active appointments for a doctor inside
// [from, to); the slot calculator subtracts these from the working day.
func (s *Service) BookedIntervals(ctx context.Context, doctorID string, from, to time.Time) ([]appointmentDatamodel.Appointment, error) {
	return s.repo.ListActiveInRange(ctx, doctorID, from, to)
}

func (s *Service) ensureNoClash(ctx context.Context, doctorID, patientID string, startAt, endAt time.Time, excludeID string) error {
	count, err := s.repo.CountOverlapping(ctx, OverlapQuery{
		DoctorID:  doctorID,
		StartAt:   startAt,
		EndAt:     endAt,
		ExcludeID: excludeID,
	})
	if err != nil {
		return internal.NewInternalError("failed to check slot availability", err)
	}
	if count > 0 {
		return internal.ErrSlotTaken
	}

	if s.cfg.BlockPatientOverlap && patientID != "" {
		count, err := s.repo.CountOverlapping(ctx, OverlapQuery{
			PatientID:    patientID,
			StartAt:      startAt,
			EndAt:        endAt,
			ExcludeID:    excludeID,
			CheckPatient: true,
		})
		if err != nil {
			return internal.NewInternalError("failed to check patient availability", err)
		}
		if count > 0 {
			return internal.NewConflictError("Patient already has an appointment in this time range", internal.ErrCodeSlotTaken)
		}
	}

	return nil
}

// resolve accepts either the row uuid or the human-facing APT identifier.
func (s *Service) resolve(ctx context.Context, ref string) (*appointmentDatamodel.Appointment, error) {
	if IsAppointmentID(ref) {
		return s.repo.GetByAppointmentID(ctx, ref)
	}
	return s.repo.GetByID(ctx, ref)
}

func (s *Service) authorizeRead(record *appointmentDatamodel.Appointment, actor Actor) error {
	switch actor.Role {
	case auth.RoleStaff:
		return nil
	case auth.RoleDoctor:
		if record.DoctorID == actor.ID {
			return nil
		}
	case auth.RolePatient:
		if record.CreatedBy != nil && *record.CreatedBy == actor.ID {
			return nil
		}
	}
	return internal.ErrAccessDenied
}

func (s *Service) authorizeWrite(record *appointmentDatamodel.Appointment, actor Actor) error {
	switch actor.Role {
	case auth.RoleStaff:
		return nil
	case auth.RoleDoctor:
		if record.DoctorID == actor.ID {
			return nil
		}
	case auth.RolePatient:
		if record.CreatedBy != nil && *record.CreatedBy == actor.ID {
			return nil
		}
	}
	return internal.ErrAccessDenied
}

func (s *Service) publish(ctx context.Context, eventType string, record *appointmentDatamodel.Appointment, actor Actor) {
	if s.eventBus == nil {
		return
	}
	event := events.NewAppointmentEvent(
		eventType,
		record.AppointmentID,
		record.PatientID,
		record.DoctorID,
		record.Status,
		record.StartAt,
		record.EndAt,
		actor.ID,
		actor.Role,
	)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish appointment event", "error", err, "event_type", eventType)
	}
}
