package patient_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal"
	patientDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/patient"
	"github.com/frahmantamala/hospital-management/internal/patient"
	"github.com/frahmantamala/hospital-management/internal/sequence"
)

type mockPatientRepo struct {
	createFunc         func(ctx context.Context, record *patientDatamodel.Patient) error
	getByIDFunc        func(ctx context.Context, id string) (*patientDatamodel.Patient, error)
	findByIdentityFunc func(ctx context.Context, nic, passport, email, phone string) (*patientDatamodel.Patient, error)
	appendPaymentFunc  func(ctx context.Context, patientID, paymentID string) error
	created            *patientDatamodel.Patient
}

func (m *mockPatientRepo) Create(ctx context.Context, record *patientDatamodel.Patient) error {
	m.created = record
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	return nil
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id string) (*patientDatamodel.Patient, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, internal.ErrPatientNotFound
}

func (m *mockPatientRepo) GetByPatientID(ctx context.Context, patientID string) (*patientDatamodel.Patient, error) {
	return nil, internal.ErrPatientNotFound
}

func (m *mockPatientRepo) FindByIdentity(ctx context.Context, nic, passport, email, phone string) (*patientDatamodel.Patient, error) {
	if m.findByIdentityFunc != nil {
		return m.findByIdentityFunc(ctx, nic, passport, email, phone)
	}
	return nil, internal.ErrPatientNotFound
}

func (m *mockPatientRepo) List(ctx context.Context, params patient.ListParams) ([]patientDatamodel.Patient, int64, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) Update(ctx context.Context, record *patientDatamodel.Patient) error {
	return nil
}

func (m *mockPatientRepo) AppendPayment(ctx context.Context, patientID, paymentID string) error {
	if m.appendPaymentFunc != nil {
		return m.appendPaymentFunc(ctx, patientID, paymentID)
	}
	return nil
}

type mockSequencer struct {
	next string
	err  error
}

func (m *mockSequencer) Next(ctx context.Context, kind sequence.Kind) (string, error) {
	return m.next, m.err
}

var _ = Describe("Patient Service", func() {
	var (
		mockRepo *mockPatientRepo
		seq      *mockSequencer
		svc      *patient.Service
		ctx      context.Context
	)

	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }

	BeforeEach(func() {
		mockRepo = &mockPatientRepo{}
		seq = &mockSequencer{next: "PAT-2026-000001"}
		svc = patient.NewService(mockRepo, seq, slog.Default())
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("registers a new patient with a minted identifier", func() {
			dto := patient.CreatePatientDTO{
				FirstName: "Nadia",
				LastName:  "Rahma",
				NIC:       strPtr("991234567V"),
			}

			record, err := svc.Create(ctx, dto, "staff-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.PatientID).To(Equal("PAT-2026-000001"))
			Expect(mockRepo.created).NotTo(BeNil())
		})

		It("returns the existing record when the identity already matches", func() {
			existing := &patientDatamodel.Patient{PatientID: "PAT-2026-000009"}
			mockRepo.findByIdentityFunc = func(ctx context.Context, nic, passport, email, phone string) (*patientDatamodel.Patient, error) {
				Expect(nic).To(Equal("991234567V"))
				return existing, nil
			}

			dto := patient.CreatePatientDTO{
				FirstName: "Nadia",
				LastName:  "Rahma",
				NIC:       strPtr("991234567V"),
			}

			record, err := svc.Create(ctx, dto, "staff-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(Equal(existing))
			Expect(mockRepo.created).To(BeNil())
		})

		It("rejects a record without any identity document", func() {
			dto := patient.CreatePatientDTO{FirstName: "Nadia", LastName: "Rahma"}

			_, err := svc.Create(ctx, dto, "staff-1")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("derives age from dob, overriding a conflicting given age", func() {
			dto := patient.CreatePatientDTO{
				FirstName: "Nadia",
				LastName:  "Rahma",
				NIC:       strPtr("991234567V"),
				DOB:       strPtr("1990-05-10"),
				Age:       intPtr(99),
			}

			record, err := svc.Create(ctx, dto, "staff-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Age).NotTo(BeNil())
			Expect(*record.Age).NotTo(Equal(99))
		})
	})

	Describe("FindPatientIDByEmail", func() {
		It("resolves the registry id behind an account email", func() {
			mockRepo.findByIdentityFunc = func(ctx context.Context, nic, passport, email, phone string) (*patientDatamodel.Patient, error) {
				Expect(nic).To(BeEmpty())
				Expect(email).To(Equal("payer@example.com"))
				return &patientDatamodel.Patient{PatientID: "PAT-2026-000003"}, nil
			}

			id, err := svc.FindPatientIDByEmail(ctx, "payer@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("PAT-2026-000003"))
		})

		It("reports not-found for an empty email", func() {
			_, err := svc.FindPatientIDByEmail(ctx, "")
			Expect(err).To(Equal(internal.ErrPatientNotFound))
		})
	})

	Describe("AgeFromDOB", func() {
		It("counts whole years only", func() {
			dob := mustDate("2000-06-15")
			Expect(patient.AgeFromDOB(dob, mustDate("2026-06-14"))).To(Equal(25))
			Expect(patient.AgeFromDOB(dob, mustDate("2026-06-15"))).To(Equal(26))
		})

		It("never goes negative", func() {
			Expect(patient.AgeFromDOB(mustDate("2030-01-01"), mustDate("2026-01-01"))).To(Equal(0))
		})
	})
})
