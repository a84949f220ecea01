package patient

import "time"

// Patient is the medical record for a person treated at the hospital.
// PatientID is the human-readable key (PAT-<year>-<seq>), distinct from the
// account id in the users table.
type Patient struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PatientID string     `json:"patient_id" gorm:"column:patient_id;uniqueIndex;not null"`
	FirstName string     `json:"first_name" gorm:"column:first_name;not null"`
	LastName  string     `json:"last_name" gorm:"column:last_name;not null"`
	DOB       *time.Time `json:"dob,omitempty" gorm:"column:dob"`
	Age       *int       `json:"age,omitempty" gorm:"column:age"`
	NIC       *string    `json:"nic,omitempty" gorm:"column:nic;index"`
	Passport  *string    `json:"passport,omitempty" gorm:"column:passport;index"`
	Email     *string    `json:"email,omitempty" gorm:"column:email;index"`
	Phone     *string    `json:"phone,omitempty" gorm:"column:phone;index"`
	Address   *string    `json:"address,omitempty" gorm:"column:address"`
	CreatedBy *string    `json:"created_by,omitempty" gorm:"column:created_by"`
	UpdatedBy *string    `json:"updated_by,omitempty" gorm:"column:updated_by"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// PaymentRef links a captured payment into a patient's history. Insertion is
// idempotent (primary key over both columns).
type PaymentRef struct {
	PatientID string    `json:"patient_id" gorm:"column:patient_id;primaryKey"`
	PaymentID string    `json:"payment_id" gorm:"column:payment_id;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (PaymentRef) TableName() string {
	return "patient_payments"
}
