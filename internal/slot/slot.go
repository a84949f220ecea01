package slot

import (
	"context"
	"time"

	appointmentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/appointment"
	"github.com/frahmantamala/hospital-management/internal/user"
)

type ServiceAPI interface {
	ComputeSlots(ctx context.Context, doctorID, date string, slotMinutes int) (*DaySchedule, error)
}

// BookingReaderAPI is the slice of the appointment service slot computation
// needs: the active bookings occupying a doctor's day.
type BookingReaderAPI interface {
	BookedIntervals(ctx context.Context, doctorID string, from, to time.Time) ([]appointmentDatamodel.Appointment, error)
}

type DoctorDirectoryAPI interface {
	GetDoctor(ctx context.Context, id string) (*user.Profile, error)
}

// Slot is one bookable window. Slots are half-open: a booking ending at a
// slot's start does not occupy it.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

type DaySchedule struct {
	DoctorID    string `json:"doctor_id"`
	Date        string `json:"date"`
	SlotMinutes int    `json:"slot_minutes"`
	Slots       []Slot `json:"slots"`
}
