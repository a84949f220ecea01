package appointment_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal/appointment"
)

var _ = Describe("Status transitions", func() {
	It("allows pending to be confirmed or cancelled", func() {
		Expect(appointment.CanTransition(appointment.StatusPending, appointment.StatusConfirmed)).To(BeTrue())
		Expect(appointment.CanTransition(appointment.StatusPending, appointment.StatusCancelled)).To(BeTrue())
	})

	It("forbids pending from completing directly", func() {
		Expect(appointment.CanTransition(appointment.StatusPending, appointment.StatusCompleted)).To(BeFalse())
		Expect(appointment.CanTransition(appointment.StatusPending, appointment.StatusNoShow)).To(BeFalse())
	})

	It("allows confirmed to finish, no-show or cancel", func() {
		Expect(appointment.CanTransition(appointment.StatusConfirmed, appointment.StatusCompleted)).To(BeTrue())
		Expect(appointment.CanTransition(appointment.StatusConfirmed, appointment.StatusNoShow)).To(BeTrue())
		Expect(appointment.CanTransition(appointment.StatusConfirmed, appointment.StatusCancelled)).To(BeTrue())
	})

	It("treats completed, cancelled and no-show as terminal", func() {
		for _, terminal := range []string{appointment.StatusCompleted, appointment.StatusCancelled, appointment.StatusNoShow} {
			for _, target := range []string{appointment.StatusPending, appointment.StatusConfirmed, appointment.StatusCompleted, appointment.StatusCancelled, appointment.StatusNoShow} {
				if target == terminal {
					continue
				}
				Expect(appointment.CanTransition(terminal, target)).To(BeFalse(),
					"%s -> %s should be forbidden", terminal, target)
			}
		}
	})

	It("always allows re-asserting the current status", func() {
		for _, status := range []string{appointment.StatusPending, appointment.StatusConfirmed, appointment.StatusCompleted, appointment.StatusCancelled, appointment.StatusNoShow} {
			Expect(appointment.CanTransition(status, status)).To(BeTrue())
		}
	})
})

var _ = Describe("Overlaps", func() {
	at := func(hour, min int) time.Time {
		return time.Date(2026, 9, 1, hour, min, 0, 0, time.UTC)
	}

	It("detects a plain intersection", func() {
		Expect(appointment.Overlaps(at(9, 0), at(9, 30), at(9, 15), at(9, 45))).To(BeTrue())
	})

	It("detects full containment", func() {
		Expect(appointment.Overlaps(at(9, 0), at(10, 0), at(9, 15), at(9, 30))).To(BeTrue())
	})

	It("does not flag back-to-back intervals", func() {
		Expect(appointment.Overlaps(at(9, 0), at(9, 30), at(9, 30), at(10, 0))).To(BeFalse())
		Expect(appointment.Overlaps(at(9, 30), at(10, 0), at(9, 0), at(9, 30))).To(BeFalse())
	})

	It("does not flag disjoint intervals", func() {
		Expect(appointment.Overlaps(at(9, 0), at(9, 30), at(11, 0), at(11, 30))).To(BeFalse())
	})
})
