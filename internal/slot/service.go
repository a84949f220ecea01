package slot

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/appointment"
)

type Service struct {
	bookings BookingReaderAPI
	doctors  DoctorDirectoryAPI
	cfg      internal.SchedulingConfig
	logger   *slog.Logger
}

func NewService(bookings BookingReaderAPI, doctors DoctorDirectoryAPI, cfg internal.SchedulingConfig, logger *slog.Logger) *Service {
	return &Service{
		bookings: bookings,
		doctors:  doctors,
		cfg:      cfg,
		logger:   logger,
	}
}

// ComputeSlots lays the slot grid over the working day and marks each slot
// against the doctor's active bookings. The grid starts at work_start and
// stops before work_end: a trailing window shorter than a full slot is
// dropped, never truncated. slotMinutes overrides the configured granularity;
// zero means use the default.
func (s *Service) ComputeSlots(ctx context.Context, doctorID, date string, slotMinutes int) (*DaySchedule, error) {
	if slotMinutes == 0 {
		slotMinutes = s.cfg.SlotMinutes
	}
	if slotMinutes < 0 || slotMinutes > 240 {
		return nil, internal.NewValidationFieldError("slot_minutes", "slot_minutes must be in (0, 240]", internal.ErrCodeValidationFailed)
	}

	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, internal.ErrDoctorNotFound
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, internal.NewValidationFieldError("date", "date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}

	workStart, err := internal.ParseWorkTime(s.cfg.WorkStart)
	if err != nil {
		return nil, internal.NewInternalError("bad work_start configuration", err)
	}
	workEnd, err := internal.ParseWorkTime(s.cfg.WorkEnd)
	if err != nil {
		return nil, internal.NewInternalError("bad work_end configuration", err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), workStart.Hour(), workStart.Minute(), 0, 0, time.UTC)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), workEnd.Hour(), workEnd.Minute(), 0, 0, time.UTC)
	slotSize := time.Duration(slotMinutes) * time.Minute

	booked, err := s.bookings.BookedIntervals(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		s.logger.Error("failed to load booked intervals", "error", err, "doctor_id", doctorID)
		return nil, internal.NewInternalError("failed to load doctor schedule", err)
	}

	schedule := &DaySchedule{
		DoctorID:    doctorID,
		Date:        date,
		SlotMinutes: slotMinutes,
		Slots:       []Slot{},
	}

	for start := dayStart; !start.Add(slotSize).After(dayEnd); start = start.Add(slotSize) {
		end := start.Add(slotSize)
		available := true
		for i := range booked {
			if appointment.Overlaps(start, end, booked[i].StartAt, booked[i].EndAt) {
				available = false
				break
			}
		}
		schedule.Slots = append(schedule.Slots, Slot{Start: start, End: end, Available: available})
	}

	return schedule, nil
}
