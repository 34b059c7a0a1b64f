package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/edge-filter/internal/circuitbreaker"
)

var _ = Describe("Breaker", func() {
	var cb *circuitbreaker.Breaker

	BeforeEach(func() {
		cb = circuitbreaker.New(3, 100*time.Millisecond)
	})

	trip := func() {
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordFailure()
		Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
	}

	Context("when closed", func() {
		It("should let requests through", func() {
			Expect(cb.Acquire()).To(Succeed())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should stay closed below the threshold", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Acquire()).To(Succeed())
		})

		It("should forget failures after a success", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should clamp a zero threshold to one", func() {
			cb = circuitbreaker.New(0, time.Second)
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Context("when open", func() {
		BeforeEach(trip)

		It("should refuse requests with ErrOpen", func() {
			Expect(cb.Acquire()).To(MatchError(circuitbreaker.ErrOpen))
		})

		It("should allow a single probe after the reset timeout", func() {
			time.Sleep(150 * time.Millisecond)
			Expect(cb.Acquire()).To(Succeed())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			Expect(cb.Acquire()).To(MatchError(circuitbreaker.ErrOpen))
		})
	})

	Context("when half-open", func() {
		BeforeEach(func() {
			trip()
			time.Sleep(150 * time.Millisecond)
			Expect(cb.Acquire()).To(Succeed())
		})

		It("should close on a successful probe", func() {
			cb.RecordSuccess()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Acquire()).To(Succeed())
		})

		It("should hand the probe to the next caller after a release", func() {
			Expect(cb.Acquire()).To(MatchError(circuitbreaker.ErrOpen))
			cb.Release()
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			Expect(cb.Acquire()).To(Succeed())
		})

		It("should reopen on a failed probe", func() {
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(cb.Acquire()).To(MatchError(circuitbreaker.ErrOpen))
		})
	})

	Describe("State.String", func() {
		It("should name every state", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF-OPEN"))
			Expect(circuitbreaker.State(42).String()).To(Equal("UNKNOWN"))
		})
	})
})
