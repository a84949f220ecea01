package otp

import "time"

const PurposePayment = "PAYMENT"

// Challenge is a single-use numeric code bound to a payment. Only the bcrypt
// hash of the code is stored; the plaintext exists in memory just long enough
// to be delivered out-of-band. Expiry is checked at verification time, never
// swept by a background job.
type Challenge struct {
	ID         string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Purpose    string     `json:"purpose" gorm:"column:purpose;not null;index"`
	CodeHash   string     `json:"-" gorm:"column:code_hash;not null"`
	Target     string     `json:"target" gorm:"column:target;not null"`
	MetaLast4  string     `json:"meta_last4" gorm:"column:meta_last4"`
	MetaAmount int64      `json:"meta_amount" gorm:"column:meta_amount"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"column:expires_at;not null"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" gorm:"column:consumed_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Challenge) TableName() string {
	return "otp_challenges"
}
