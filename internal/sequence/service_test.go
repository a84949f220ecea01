package sequence_test

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal/sequence"
)

type mockSequenceRepo struct {
	nextSeqFunc func(ctx context.Context, kind sequence.Kind, year int) (int64, error)
	calls       []sequence.Kind
}

func (m *mockSequenceRepo) NextSeq(ctx context.Context, kind sequence.Kind, year int) (int64, error) {
	m.calls = append(m.calls, kind)
	return m.nextSeqFunc(ctx, kind, year)
}

var _ = Describe("Sequence Service", func() {
	var (
		mockRepo *mockSequenceRepo
		svc      *sequence.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = &mockSequenceRepo{}
		svc = sequence.NewService(mockRepo, slog.Default())
		ctx = context.Background()
	})

	Describe("Next", func() {
		It("formats the identifier with a zero-padded sequence", func() {
			mockRepo.nextSeqFunc = func(ctx context.Context, kind sequence.Kind, year int) (int64, error) {
				return 42, nil
			}

			id, err := svc.Next(ctx, sequence.KindAppointment)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(MatchRegexp(`^APT-\d{4}-000042$`))
		})

		It("uses the patient prefix for patient identifiers", func() {
			mockRepo.nextSeqFunc = func(ctx context.Context, kind sequence.Kind, year int) (int64, error) {
				return 7, nil
			}

			id, err := svc.Next(ctx, sequence.KindPatient)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(MatchRegexp(`^PAT-\d{4}-000007$`))
		})

		It("keeps six digits once the counter passes a million", func() {
			mockRepo.nextSeqFunc = func(ctx context.Context, kind sequence.Kind, year int) (int64, error) {
				return 1234567, nil
			}

			id, err := svc.Next(ctx, sequence.KindAppointment)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(MatchRegexp(`^APT-\d{4}-1234567$`))
		})

		It("falls back to a timestamp identifier when the counter fails", func() {
			mockRepo.nextSeqFunc = func(ctx context.Context, kind sequence.Kind, year int) (int64, error) {
				return 0, errors.New("connection refused")
			}

			id, err := svc.Next(ctx, sequence.KindAppointment)
			Expect(err).NotTo(HaveOccurred())
			// fallback carries a millisecond timestamp instead of the padded seq
			Expect(regexp.MustCompile(`^APT-\d{4}-\d{13}$`).MatchString(id)).To(BeTrue(), id)
		})
	})
})
