package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentInitiated = "payment.initiated"
	EventTypePaymentCaptured  = "payment.captured"
	EventTypePaymentOtpSent   = "payment.otp_sent"
)

type PaymentEvent struct {
	BaseEvent
	PaymentID   string `json:"payment_id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

func NewPaymentEvent(eventType, paymentID, userID, status string, totalAmount int64, currency string) *PaymentEvent {
	return &PaymentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":   paymentID,
				"user_id":      userID,
				"status":       status,
				"total_amount": totalAmount,
				"currency":     currency,
			},
		},
		PaymentID:   paymentID,
		UserID:      userID,
		Status:      status,
		TotalAmount: totalAmount,
		Currency:    currency,
	}
}
