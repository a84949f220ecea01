package payment

import "time"

const (
	StatusPending    = "PENDING"
	StatusAuthorized = "AUTHORIZED"
	StatusCaptured   = "CAPTURED"
	StatusFailed     = "FAILED"
	StatusRefunded   = "REFUNDED"
	StatusCancelled  = "CANCELLED"
)

const MethodCard = "CARD"

// Breakdown holds the named monetary components of a bill. All amounts are in
// minor units and must be non-negative; TotalAmount on Payment is their sum.
type Breakdown struct {
	ConsultationFee int64 `json:"consultation_fee" gorm:"column:consultation_fee;default:0"`
	LabTests        int64 `json:"lab_tests" gorm:"column:lab_tests;default:0"`
	Prescription    int64 `json:"prescription" gorm:"column:prescription;default:0"`
	ProcessingFee   int64 `json:"processing_fee" gorm:"column:processing_fee;default:0"`
	Other           int64 `json:"other" gorm:"column:other;default:0"`
}

func (b Breakdown) Total() int64 {
	return b.ConsultationFee + b.LabTests + b.Prescription + b.ProcessingFee + b.Other
}

// Payment is stored as a single-table tagged union keyed by Method: the base
// columns are shared, the card_* columns belong to the CARD variant only.
type Payment struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Method      string    `json:"method" gorm:"column:method;not null;index"`
	Status      string    `json:"status" gorm:"column:status;default:PENDING;index"`
	Currency    string    `json:"currency" gorm:"column:currency;not null"`
	TotalAmount int64     `json:"total_amount" gorm:"column:total_amount;not null"`
	Breakdown   Breakdown `json:"breakdown" gorm:"embedded;embeddedPrefix:breakdown_"`

	UserID    string  `json:"user_id" gorm:"column:user_id;not null;index"`
	PatientID *string `json:"patient_id,omitempty" gorm:"column:patient_id;index"`
	DoctorID  *string `json:"doctor_id,omitempty" gorm:"column:doctor_id"`
	Notes     string  `json:"notes" gorm:"column:notes"`

	// CARD variant payload. No raw PAN or CVC is ever stored.
	CardLast4 *string `json:"card_last4,omitempty" gorm:"column:card_last4"`
	CardBrand *string `json:"card_brand,omitempty" gorm:"column:card_brand"`
	CardToken *string `json:"-" gorm:"column:card_token"`
	OtpRefID  *string `json:"otp_ref_id,omitempty" gorm:"column:otp_ref_id"`

	AppointmentID *string    `json:"appointment_id,omitempty" gorm:"column:appointment_id"`
	AuthorizedAt  *time.Time `json:"authorized_at,omitempty" gorm:"column:authorized_at"`
	CapturedAt    *time.Time `json:"captured_at,omitempty" gorm:"column:captured_at"`
	CreatedAt     time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
