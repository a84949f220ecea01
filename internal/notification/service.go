package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/hospital-management/internal/core/events"
)

// Service turns domain events into outbound messages. It sits on the
// subscribing side of the event bus so booking and payment flows never block
// on delivery.
type Service struct {
	mailer MailerAPI
	logger *slog.Logger
}

func NewService(mailer MailerAPI, logger *slog.Logger) *Service {
	return &Service{mailer: mailer, logger: logger}
}

// SendOtp delivers a payment confirmation code. This is called synchronously
// by the challenge issuer, not through the bus: the code must not ride on a
// fire-and-forget event payload.
func (s *Service) SendOtp(ctx context.Context, target, code, last4 string, amount int64) error {
	body := fmt.Sprintf(
		"Your confirmation code is %s for the card ending %s (amount %d). The code expires shortly and can be used once.",
		code, last4, amount)
	return s.mailer.Send(ctx, target, "Payment confirmation code", body)
}

// RegisterEventHandlers attaches the notification sinks to the bus.
func (s *Service) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeAppointmentCreated, s.handleAppointmentEvent)
	bus.Subscribe(events.EventTypeAppointmentUpdated, s.handleAppointmentEvent)
	bus.Subscribe(events.EventTypeAppointmentRescheduled, s.handleAppointmentEvent)
	bus.Subscribe(events.EventTypeAppointmentStatusChanged, s.handleAppointmentEvent)
	bus.Subscribe(events.EventTypeAppointmentCancelled, s.handleAppointmentEvent)
	bus.Subscribe(events.EventTypePaymentCaptured, s.handlePaymentEvent)
}

func (s *Service) handleAppointmentEvent(ctx context.Context, event events.Event) error {
	appointmentEvent, ok := event.(*events.AppointmentEvent)
	if !ok {
		s.logger.Warn("unexpected payload for appointment event", "event_type", event.EventType())
		return nil
	}

	var subject string
	switch event.EventType() {
	case events.EventTypeAppointmentCreated:
		subject = "Appointment booked"
	case events.EventTypeAppointmentRescheduled:
		subject = "Appointment rescheduled"
	case events.EventTypeAppointmentCancelled:
		subject = "Appointment cancelled"
	default:
		subject = "Appointment updated"
	}

	body := fmt.Sprintf("Appointment %s with doctor %s is now %s (starts %s).",
		appointmentEvent.AppointmentID,
		appointmentEvent.DoctorID,
		appointmentEvent.Status,
		appointmentEvent.StartAt.Format("2006-01-02 15:04"))

	// Patient contact resolution happens at the mail relay; the bus payload
	// carries the registry reference.
	return s.mailer.Send(ctx, appointmentEvent.PatientID, subject, body)
}

func (s *Service) handlePaymentEvent(ctx context.Context, event events.Event) error {
	paymentEvent, ok := event.(*events.PaymentEvent)
	if !ok {
		s.logger.Warn("unexpected payload for payment event", "event_type", event.EventType())
		return nil
	}

	body := fmt.Sprintf("Payment %s for %d %s was captured.",
		paymentEvent.PaymentID, paymentEvent.TotalAmount, paymentEvent.Currency)
	return s.mailer.Send(ctx, paymentEvent.UserID, "Payment received", body)
}
