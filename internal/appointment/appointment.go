package appointment

import (
	"context"
	"regexp"
	"time"

	appointmentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/appointment"
	"github.com/frahmantamala/hospital-management/internal/sequence"
	"github.com/frahmantamala/hospital-management/internal/user"
)

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

// ActiveStatuses are the statuses that hold a slot. Only these participate in
// clash detection; a cancelled or finished booking frees its time.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// transitions is the allowed-move table of the appointment state machine.
// Absent source states (COMPLETED, CANCELLED, NO_SHOW) are terminal.
var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
}

// CanTransition reports whether status from may move to to. Re-asserting the
// current status is always allowed so retried requests stay idempotent.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// appointmentIDPattern matches minted identifiers like APT-2026-000123. The
// timestamp fallback form (APT-2026-1756368000000) also matches: both are
// three uppercase letters, a year, then digits.
var appointmentIDPattern = regexp.MustCompile(`^[A-Z]{3}-\d{4}-\d+$`)

func IsAppointmentID(s string) bool {
	return appointmentIDPattern.MatchString(s)
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back bookings sharing a boundary do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateAppointmentDTO, actor Actor) (*appointmentDatamodel.Appointment, error)
	Get(ctx context.Context, ref string, actor Actor) (*appointmentDatamodel.Appointment, error)
	List(ctx context.Context, params ListParams, actor Actor) ([]appointmentDatamodel.Appointment, int64, error)
	Reschedule(ctx context.Context, ref string, dto RescheduleDTO, actor Actor) (*appointmentDatamodel.Appointment, error)
	UpdateStatus(ctx context.Context, ref string, dto UpdateStatusDTO, actor Actor) (*appointmentDatamodel.Appointment, error)
	Cancel(ctx context.Context, ref string, actor Actor) (*appointmentDatamodel.Appointment, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, record *appointmentDatamodel.Appointment) error
	GetByID(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*appointmentDatamodel.Appointment, error)
	FindBySubmission(ctx context.Context, submissionID, patientID string) (*appointmentDatamodel.Appointment, error)
	CountOverlapping(ctx context.Context, q OverlapQuery) (int64, error)
	List(ctx context.Context, params ListParams) ([]appointmentDatamodel.Appointment, int64, error)
	ListActiveInRange(ctx context.Context, doctorID string, from, to time.Time) ([]appointmentDatamodel.Appointment, error)
	Update(ctx context.Context, record *appointmentDatamodel.Appointment) error
}

// DoctorDirectoryAPI is the slice of the account directory booking needs.
type DoctorDirectoryAPI interface {
	GetDoctor(ctx context.Context, id string) (*user.Profile, error)
}

type SequencerAPI interface {
	Next(ctx context.Context, kind sequence.Kind) (string, error)
}

// Actor is the authenticated principal an operation runs as.
type Actor struct {
	ID   string
	Role string
}

// OverlapQuery describes one clash probe: active appointments for the doctor
// (and optionally the patient) intersecting [StartAt, EndAt), minus the
// appointment being rescheduled.
type OverlapQuery struct {
	DoctorID     string
	PatientID    string
	StartAt      time.Time
	EndAt        time.Time
	ExcludeID    string
	CheckPatient bool
}

type ListParams struct {
	PatientID string
	DoctorID  string
	CreatedBy string
	Status    string
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
}
