package user

import "time"

// User is an account in the hospital directory: patients, doctors and
// back-office staff share one table, discriminated by Role.
type User struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string    `json:"name" gorm:"not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"column:password_hash;not null"`
	Role           string    `json:"role" gorm:"not null;index"`
	Specialization *string   `json:"specialization,omitempty" gorm:"column:specialization"`
	IsActive       bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}
