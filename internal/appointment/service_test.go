package appointment_test

import (
	"context"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/appointment"
	"github.com/frahmantamala/hospital-management/internal/auth"
	appointmentDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/appointment"
	"github.com/frahmantamala/hospital-management/internal/core/events"
	"github.com/frahmantamala/hospital-management/internal/sequence"
	"github.com/frahmantamala/hospital-management/internal/user"
)

type mockAppointmentRepo struct {
	createFunc           func(ctx context.Context, record *appointmentDatamodel.Appointment) error
	getByIDFunc          func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error)
	findBySubmissionFunc func(ctx context.Context, submissionID, patientID string) (*appointmentDatamodel.Appointment, error)
	countOverlappingFunc func(ctx context.Context, q appointment.OverlapQuery) (int64, error)
	updateFunc           func(ctx context.Context, record *appointmentDatamodel.Appointment) error

	created       *appointmentDatamodel.Appointment
	updated       *appointmentDatamodel.Appointment
	overlapProbes []appointment.OverlapQuery
}

func (m *mockAppointmentRepo) Create(ctx context.Context, record *appointmentDatamodel.Appointment) error {
	m.created = record
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	return nil
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, internal.ErrAppointmentNotFound
}

func (m *mockAppointmentRepo) GetByAppointmentID(ctx context.Context, appointmentID string) (*appointmentDatamodel.Appointment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, appointmentID)
	}
	return nil, internal.ErrAppointmentNotFound
}

func (m *mockAppointmentRepo) FindBySubmission(ctx context.Context, submissionID, patientID string) (*appointmentDatamodel.Appointment, error) {
	if m.findBySubmissionFunc != nil {
		return m.findBySubmissionFunc(ctx, submissionID, patientID)
	}
	return nil, internal.ErrAppointmentNotFound
}

func (m *mockAppointmentRepo) CountOverlapping(ctx context.Context, q appointment.OverlapQuery) (int64, error) {
	m.overlapProbes = append(m.overlapProbes, q)
	if m.countOverlappingFunc != nil {
		return m.countOverlappingFunc(ctx, q)
	}
	return 0, nil
}

func (m *mockAppointmentRepo) List(ctx context.Context, params appointment.ListParams) ([]appointmentDatamodel.Appointment, int64, error) {
	return nil, 0, nil
}

func (m *mockAppointmentRepo) ListActiveInRange(ctx context.Context, doctorID string, from, to time.Time) ([]appointmentDatamodel.Appointment, error) {
	return nil, nil
}

func (m *mockAppointmentRepo) Update(ctx context.Context, record *appointmentDatamodel.Appointment) error {
	m.updated = record
	if m.updateFunc != nil {
		return m.updateFunc(ctx, record)
	}
	return nil
}

type mockDoctorDirectory struct {
	getDoctorFunc func(ctx context.Context, id string) (*user.Profile, error)
}

func (m *mockDoctorDirectory) GetDoctor(ctx context.Context, id string) (*user.Profile, error) {
	if m.getDoctorFunc != nil {
		return m.getDoctorFunc(ctx, id)
	}
	spec := "Cardiology"
	return &user.Profile{ID: id, Role: auth.RoleDoctor, Specialization: &spec}, nil
}

type mockAppointmentSequencer struct {
	next string
	err  error
}

func (m *mockAppointmentSequencer) Next(ctx context.Context, kind sequence.Kind) (string, error) {
	return m.next, m.err
}

var _ = Describe("Appointment Service", func() {
	var (
		mockRepo *mockAppointmentRepo
		doctors  *mockDoctorDirectory
		seq      *mockAppointmentSequencer
		bus      *events.EventBus
		svc      *appointment.Service
		ctx      context.Context
		staff    appointment.Actor
		patient  appointment.Actor
	)

	futureStart := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Minute)

	schedCfg := internal.SchedulingConfig{
		WorkStart:           "09:00",
		WorkEnd:             "17:00",
		SlotMinutes:         30,
		BlockPatientOverlap: false,
	}

	validDTO := func() appointment.CreateAppointmentDTO {
		return appointment.CreateAppointmentDTO{
			PatientID: "patient-1",
			DoctorID:  "doctor-1",
			Start:     futureStart.Format(time.RFC3339),
		}
	}

	BeforeEach(func() {
		mockRepo = &mockAppointmentRepo{}
		doctors = &mockDoctorDirectory{}
		seq = &mockAppointmentSequencer{next: "APT-2026-000001"}
		bus = events.NewEventBus(slog.Default())
		svc = appointment.NewService(mockRepo, doctors, seq, bus, schedCfg, slog.Default())
		ctx = context.Background()
		staff = appointment.Actor{ID: "staff-1", Role: auth.RoleStaff}
		patient = appointment.Actor{ID: "user-patient-1", Role: auth.RolePatient}
	})

	Describe("Create", func() {
		It("books a pending appointment with the default duration", func() {
			record, err := svc.Create(ctx, validDTO(), patient)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.AppointmentID).To(Equal("APT-2026-000001"))
			Expect(record.Status).To(Equal(appointment.StatusPending))
			Expect(record.DurationMinutes).To(Equal(30))
			Expect(record.EndAt).To(Equal(record.StartAt.Add(30 * time.Minute)))
		})

		It("forbids doctors from booking", func() {
			doctor := appointment.Actor{ID: "doc-1", Role: auth.RoleDoctor}

			_, err := svc.Create(ctx, validDTO(), doctor)
			Expect(err).To(Equal(internal.ErrAccessDenied))
			Expect(mockRepo.created).To(BeNil())
		})

		It("forbids staff from booking on a patient's behalf", func() {
			_, err := svc.Create(ctx, validDTO(), staff)
			Expect(err).To(Equal(internal.ErrAccessDenied))
			Expect(mockRepo.created).To(BeNil())
		})

		It("rejects a start in the past", func() {
			dto := validDTO()
			dto.Start = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

			_, err := svc.Create(ctx, dto, patient)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects an unknown doctor", func() {
			doctors.getDoctorFunc = func(ctx context.Context, id string) (*user.Profile, error) {
				return nil, internal.ErrDoctorNotFound
			}

			_, err := svc.Create(ctx, validDTO(), patient)
			Expect(err).To(Equal(internal.ErrDoctorNotFound))
		})

		It("returns the original booking for a replayed submission id", func() {
			existing := &appointmentDatamodel.Appointment{AppointmentID: "APT-2026-000099"}
			mockRepo.findBySubmissionFunc = func(ctx context.Context, submissionID, patientID string) (*appointmentDatamodel.Appointment, error) {
				Expect(submissionID).To(Equal("sub-123"))
				Expect(patientID).To(Equal("patient-1"))
				return existing, nil
			}

			dto := validDTO()
			sub := "sub-123"
			dto.SubmissionID = &sub

			record, err := svc.Create(ctx, dto, patient)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(Equal(existing))
			Expect(mockRepo.created).To(BeNil())
		})

		It("refuses a slot the doctor already holds", func() {
			mockRepo.countOverlappingFunc = func(ctx context.Context, q appointment.OverlapQuery) (int64, error) {
				return 1, nil
			}

			_, err := svc.Create(ctx, validDTO(), patient)
			Expect(err).To(Equal(internal.ErrSlotTaken))
			Expect(mockRepo.created).To(BeNil())
		})

		It("translates the unique-index race into the slot conflict", func() {
			mockRepo.createFunc = func(ctx context.Context, record *appointmentDatamodel.Appointment) error {
				return gorm.ErrDuplicatedKey
			}

			_, err := svc.Create(ctx, validDTO(), patient)
			Expect(err).To(Equal(internal.ErrSlotTaken))
		})

		It("probes patient overlap only when the guard is enabled", func() {
			record, err := svc.Create(ctx, validDTO(), patient)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).NotTo(BeNil())
			Expect(mockRepo.overlapProbes).To(HaveLen(1))
			Expect(mockRepo.overlapProbes[0].CheckPatient).To(BeFalse())

			cfg := schedCfg
			cfg.BlockPatientOverlap = true
			strictSvc := appointment.NewService(mockRepo, doctors, seq, events.NewEventBus(slog.Default()), cfg, slog.Default())
			mockRepo.overlapProbes = nil

			_, err = strictSvc.Create(ctx, validDTO(), patient)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.overlapProbes).To(HaveLen(2))
			Expect(mockRepo.overlapProbes[1].CheckPatient).To(BeTrue())
			Expect(mockRepo.overlapProbes[1].PatientID).To(Equal("patient-1"))
		})
	})

	Describe("Reschedule", func() {
		pendingRecord := func() *appointmentDatamodel.Appointment {
			createdBy := "user-patient-1"
			return &appointmentDatamodel.Appointment{
				ID:              "row-1",
				AppointmentID:   "APT-2026-000001",
				PatientID:       "patient-1",
				DoctorID:        "doctor-1",
				StartAt:         futureStart,
				EndAt:           futureStart.Add(30 * time.Minute),
				DurationMinutes: 30,
				Status:          appointment.StatusPending,
				CreatedBy:       &createdBy,
			}
		}

		It("moves a pending appointment and bumps the reschedule count", func() {
			record := pendingRecord()
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			newStart := futureStart.Add(2 * time.Hour)
			dto := appointment.RescheduleDTO{Start: newStart.Format(time.RFC3339)}

			updated, err := svc.Reschedule(ctx, "row-1", dto, staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.StartAt).To(Equal(newStart))
			Expect(updated.RescheduleCount).To(Equal(1))
		})

		It("amends the reason in place without burning the reschedule count", func() {
			record := pendingRecord()
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}
			published := make(chan string, 1)
			bus.Subscribe(events.EventTypeAppointmentUpdated, func(ctx context.Context, e events.Event) error {
				published <- e.EventType()
				return nil
			})

			dto := appointment.RescheduleDTO{Reason: "fever is back"}
			updated, err := svc.Reschedule(ctx, "row-1", dto, patient)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Reason).To(Equal("fever is back"))
			Expect(updated.RescheduleCount).To(BeZero())
			Expect(updated.StartAt).To(Equal(futureStart))
			Expect(mockRepo.overlapProbes).To(BeEmpty())
			Eventually(published).Should(Receive(Equal(events.EventTypeAppointmentUpdated)))
		})

		It("excludes the appointment itself from the clash probe", func() {
			record := pendingRecord()
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			dto := appointment.RescheduleDTO{Start: futureStart.Add(time.Hour).Format(time.RFC3339)}
			_, err := svc.Reschedule(ctx, "row-1", dto, staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.overlapProbes[0].ExcludeID).To(Equal("row-1"))
		})

		It("lets staff move a confirmed appointment but not a patient", func() {
			record := pendingRecord()
			record.Status = appointment.StatusConfirmed
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			dto := appointment.RescheduleDTO{Start: futureStart.Add(time.Hour).Format(time.RFC3339)}
			_, err := svc.Reschedule(ctx, "row-1", dto, patient)
			Expect(err).To(Equal(internal.ErrNotPending))

			_, err = svc.Reschedule(ctx, "row-1", dto, staff)
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses to move a completed appointment", func() {
			record := pendingRecord()
			record.Status = appointment.StatusCompleted
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			dto := appointment.RescheduleDTO{Start: futureStart.Add(time.Hour).Format(time.RFC3339)}
			_, err := svc.Reschedule(ctx, "row-1", dto, staff)
			Expect(err).To(Equal(internal.ErrNotPending))
		})

		It("moves the booking to a new doctor and re-derives the specialization", func() {
			record := pendingRecord()
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}
			derm := "Dermatology"
			doctors.getDoctorFunc = func(ctx context.Context, id string) (*user.Profile, error) {
				Expect(id).To(Equal("doctor-2"))
				return &user.Profile{ID: id, Role: auth.RoleDoctor, Specialization: &derm}, nil
			}

			dto := appointment.RescheduleDTO{
				Start:    futureStart.Add(time.Hour).Format(time.RFC3339),
				DoctorID: "doctor-2",
			}
			updated, err := svc.Reschedule(ctx, "row-1", dto, staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.DoctorID).To(Equal("doctor-2"))
			Expect(updated.Specialization).To(Equal(&derm))
			Expect(mockRepo.overlapProbes[0].DoctorID).To(Equal("doctor-2"))
		})

		It("refuses a patient touching someone else's booking", func() {
			record := pendingRecord()
			otherCreator := "someone-else"
			record.CreatedBy = &otherCreator
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			dto := appointment.RescheduleDTO{Start: futureStart.Add(time.Hour).Format(time.RFC3339)}
			_, err := svc.Reschedule(ctx, "row-1", dto, patient)
			Expect(err).To(Equal(internal.ErrAccessDenied))
		})
	})

	Describe("Cancel", func() {
		owned := func(status string) *appointmentDatamodel.Appointment {
			createdBy := "user-patient-1"
			return &appointmentDatamodel.Appointment{
				ID:            "row-1",
				AppointmentID: "APT-2026-000001",
				DoctorID:      "doctor-1",
				Status:        status,
				CreatedBy:     &createdBy,
			}
		}

		It("lets a patient cancel their own pending booking", func() {
			record := owned(appointment.StatusPending)
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			cancelled, err := svc.Cancel(ctx, "row-1", patient)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(appointment.StatusCancelled))
		})

		It("refuses a patient cancelling a booking that is already confirmed", func() {
			record := owned(appointment.StatusConfirmed)
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			_, err := svc.Cancel(ctx, "row-1", patient)
			Expect(err).To(Equal(internal.ErrNotPending))
			Expect(mockRepo.updated).To(BeNil())
		})

		It("lets staff cancel regardless of status", func() {
			record := owned(appointment.StatusCompleted)
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			cancelled, err := svc.Cancel(ctx, "row-1", staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(appointment.StatusCancelled))
		})

		It("lets the owning doctor cancel but nobody else's doctor", func() {
			record := owned(appointment.StatusConfirmed)
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			stranger := appointment.Actor{ID: "doctor-9", Role: auth.RoleDoctor}
			_, err := svc.Cancel(ctx, "row-1", stranger)
			Expect(err).To(Equal(internal.ErrAccessDenied))

			owner := appointment.Actor{ID: "doctor-1", Role: auth.RoleDoctor}
			cancelled, err := svc.Cancel(ctx, "row-1", owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(appointment.StatusCancelled))
		})

		It("treats cancelling a cancelled booking as a no-op", func() {
			record := owned(appointment.StatusCancelled)
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			cancelled, err := svc.Cancel(ctx, "row-1", staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(appointment.StatusCancelled))
			Expect(mockRepo.updated).To(BeNil())
		})
	})

	Describe("UpdateStatus", func() {
		confirmed := func() *appointmentDatamodel.Appointment {
			return &appointmentDatamodel.Appointment{
				ID:            "row-1",
				AppointmentID: "APT-2026-000001",
				DoctorID:      "doctor-1",
				Status:        appointment.StatusConfirmed,
			}
		}

		It("completes a confirmed appointment", func() {
			record := confirmed()
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			updated, err := svc.UpdateStatus(ctx, "row-1", appointment.UpdateStatusDTO{Status: "completed"}, staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(appointment.StatusCompleted))
		})

		It("rejects an illegal transition", func() {
			record := confirmed()
			record.Status = appointment.StatusCompleted
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			_, err := svc.UpdateStatus(ctx, "row-1", appointment.UpdateStatusDTO{Status: appointment.StatusConfirmed}, staff)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
		})

		It("treats a same-status update as a no-op", func() {
			record := confirmed()
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			updated, err := svc.UpdateStatus(ctx, "row-1", appointment.UpdateStatusDTO{Status: appointment.StatusConfirmed}, staff)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(appointment.StatusConfirmed))
			Expect(mockRepo.updated).To(BeNil())
		})

		It("forbids patients from completing appointments", func() {
			record := confirmed()
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			_, err := svc.UpdateStatus(ctx, "row-1", appointment.UpdateStatusDTO{Status: appointment.StatusCompleted}, patient)
			Expect(err).To(Equal(internal.ErrAccessDenied))
		})
	})

	Describe("ConfirmWithPayment", func() {
		It("confirms a pending booking and links the payment", func() {
			createdBy := "user-patient-1"
			record := &appointmentDatamodel.Appointment{
				ID:            "row-1",
				AppointmentID: "APT-2026-000001",
				Status:        appointment.StatusPending,
				CreatedBy:     &createdBy,
			}
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			updated, err := svc.ConfirmWithPayment(ctx, "row-1", "pay-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(appointment.StatusConfirmed))
			Expect(updated.PaymentID).NotTo(BeNil())
			Expect(*updated.PaymentID).To(Equal("pay-1"))
		})

		It("refuses to resurrect a cancelled booking", func() {
			record := &appointmentDatamodel.Appointment{
				ID:     "row-1",
				Status: appointment.StatusCancelled,
			}
			mockRepo.getByIDFunc = func(ctx context.Context, id string) (*appointmentDatamodel.Appointment, error) {
				return record, nil
			}

			_, err := svc.ConfirmWithPayment(ctx, "row-1", "pay-1")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
		})
	})

	Describe("CreateConfirmedForPayment", func() {
		It("books the next free grid slot as a confirmed walk-in", func() {
			record, err := svc.CreateConfirmedForPayment(ctx, "patient-1", "doctor-1", "pay-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Status).To(Equal(appointment.StatusConfirmed))
			Expect(record.PaymentID).NotTo(BeNil())
			Expect(*record.PaymentID).To(Equal("pay-1"))
			Expect(record.StartAt.Minute() % 30).To(BeZero())
			Expect(record.EndAt).To(Equal(record.StartAt.Add(30 * time.Minute)))
		})

		It("skips past occupied slots", func() {
			occupied := 2
			mockRepo.countOverlappingFunc = func(ctx context.Context, q appointment.OverlapQuery) (int64, error) {
				if occupied > 0 {
					occupied--
					return 1, nil
				}
				return 0, nil
			}

			record, err := svc.CreateConfirmedForPayment(ctx, "patient-1", "doctor-1", "pay-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(len(mockRepo.overlapProbes)).To(Equal(3))
			Expect(record.StartAt).To(Equal(mockRepo.overlapProbes[2].StartAt))
		})
	})
})
