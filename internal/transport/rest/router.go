package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/hospital-management/internal/appointment"
	"github.com/frahmantamala/hospital-management/internal/auth"
	"github.com/frahmantamala/hospital-management/internal/patient"
	"github.com/frahmantamala/hospital-management/internal/payment"
	"github.com/frahmantamala/hospital-management/internal/slot"
	"github.com/frahmantamala/hospital-management/internal/transport/middleware"
	"github.com/frahmantamala/hospital-management/internal/transport/swagger"
	"github.com/frahmantamala/hospital-management/internal/user"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	patientHandler *patient.Handler,
	appointmentHandler *appointment.Handler,
	slotHandler *slot.Handler,
	paymentHandler *payment.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			// Current user
			pr.Get("/users/me", userHandler.Me)

			// Doctor directory and slot grid
			pr.Route("/doctors", func(dr chi.Router) {
				dr.Get("/", userHandler.ListDoctors)
				dr.Get("/{id}", userHandler.GetDoctor)
				dr.Get("/{id}/slots", slotHandler.GetDoctorSlots)
			})

			// Patient registry
			pr.Route("/patients", func(ptr chi.Router) {
				ptr.Post("/", patientHandler.CreatePatient)
				ptr.Get("/", patientHandler.ListPatients)
				ptr.Get("/{id}", patientHandler.GetPatient)
				ptr.Patch("/{id}", patientHandler.UpdatePatient)
			})

			// Appointment lifecycle
			pr.Route("/appointments", func(ar chi.Router) {
				ar.Post("/", appointmentHandler.CreateAppointment)
				ar.Get("/", appointmentHandler.ListAppointments)
				ar.Get("/{id}", appointmentHandler.GetAppointment)
				ar.Patch("/{id}/reschedule", appointmentHandler.RescheduleAppointment)
				ar.Patch("/{id}/status", appointmentHandler.UpdateAppointmentStatus)
				ar.Delete("/{id}", appointmentHandler.CancelAppointment)
			})

			// Card payment flow
			pr.Route("/payments", func(pmr chi.Router) {
				pmr.Post("/card", paymentHandler.InitiateCardPayment)
				pmr.Post("/{id}/confirm", paymentHandler.ConfirmPayment)
				pmr.Get("/", paymentHandler.ListMyPayments)
				pmr.Get("/{id}", paymentHandler.GetPayment)
			})
		})
	})
}
