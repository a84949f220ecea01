package payment

import (
	"context"
	"strings"
	"time"

	appointmentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/appointment"
	paymentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/payment"
	otpDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/otp"
)

type ServiceAPI interface {
	InitiateCard(ctx context.Context, dto InitiateCardDTO, actor Actor) (*InitiateResult, error)
	Confirm(ctx context.Context, dto ConfirmDTO, actor Actor) (*paymentDatamodel.Payment, error)
	Get(ctx context.Context, id string, actor Actor) (*paymentDatamodel.Payment, error)
	ListForUser(ctx context.Context, userID string, page, perPage int) ([]paymentDatamodel.Payment, int64, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, record *paymentDatamodel.Payment) error
	GetByID(ctx context.Context, id string) (*paymentDatamodel.Payment, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]paymentDatamodel.Payment, int64, error)
	Update(ctx context.Context, record *paymentDatamodel.Payment) error
}

// AppointmentConfirmerAPI links a captured payment back to its booking, or
// books a fresh confirmed appointment when none was linked at initiation.
type AppointmentConfirmerAPI interface {
	ConfirmWithPayment(ctx context.Context, appointmentID, paymentID string) (*appointmentDatamodel.Appointment, error)
	CreateConfirmedForPayment(ctx context.Context, patientID, doctorID, paymentID string) (*appointmentDatamodel.Appointment, error)
}

// PatientLedgerAPI resolves payers to registry records and appends captured
// payments to a patient's history.
type PatientLedgerAPI interface {
	AppendPayment(ctx context.Context, patientID, paymentID string) error
	FindPatientIDByEmail(ctx context.Context, email string) (string, error)
}

// OtpServiceAPI is the challenge lifecycle the card flow depends on.
type OtpServiceAPI interface {
	Generate(ctx context.Context, req OtpGenerateRequest) (*OtpIssued, error)
	Verify(ctx context.Context, challengeID, code string) (*otpDatamodel.Challenge, error)
}

// OtpGenerateRequest and OtpIssued mirror the otp package's request and
// result shapes so the payment service never imports it directly.
type OtpGenerateRequest struct {
	Purpose    string
	Target     string
	MetaLast4  string
	MetaAmount int64
	TTL        time.Duration
}

type OtpIssued struct {
	ChallengeID string
	Code        string
	ExpiresAt   time.Time
}

type Actor struct {
	ID    string
	Email string
	Role  string
}

// InitiateResult is what the payer gets back: the pending payment plus the
// challenge to answer. DevCode is only populated when the server is
// configured to expose it (local development).
type InitiateResult struct {
	Payment   *paymentDatamodel.Payment `json:"payment"`
	OtpRefID  string                    `json:"otp_ref_id"`
	ExpiresAt time.Time                 `json:"expires_at"`
	DevCode   string                    `json:"dev_code,omitempty"`
}

// luhnValid runs the standard mod-10 check over a card number.
func luhnValid(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// cardBrand is a coarse issuer sniff off the leading digits; unknown prefixes
// are kept as UNKNOWN rather than rejected.
func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "VISA"
	case len(number) >= 2 && number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return "MASTERCARD"
	case strings.HasPrefix(number, "34") || strings.HasPrefix(number, "37"):
		return "AMEX"
	default:
		return "UNKNOWN"
	}
}
