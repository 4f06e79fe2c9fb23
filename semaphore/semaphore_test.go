package semaphore_test

import (
	"context"
	"time"

	. "github.com/dogmatiq/sharedstream/semaphore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Semaphore", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	})

	AfterEach(func() {
		cancel()
	})

	When("the semaphore is the zero-value", func() {
		It("reports no limit", func() {
			var s Semaphore
			Expect(s.Limit()).To(Equal(0))
		})

		It("never blocks", func() {
			var s Semaphore

			for i := 0; i < 10; i++ {
				release, err := s.Acquire(ctx)
				Expect(err).ShouldNot(HaveOccurred())
				defer release()
			}
		})

		It("returns an error if the context is already canceled", func() {
			var s Semaphore
			cancel()

			_, err := s.Acquire(ctx)
			Expect(err).To(Equal(context.Canceled))
		})
	})

	Describe("func New()", func() {
		It("returns an unlimited semaphore if n is non-positive", func() {
			s := New(0)
			Expect(s.Limit()).To(Equal(0))
		})

		It("sets the limit", func() {
			s := New(3)
			Expect(s.Limit()).To(Equal(3))
		})
	})

	Describe("func Acquire()", func() {
		It("blocks once the limit is reached", func() {
			s := New(1)

			release, err := s.Acquire(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			defer release()

			_, err = s.Acquire(ctx)
			Expect(err).To(Equal(context.DeadlineExceeded))
		})

		It("unblocks when the release function is called", func() {
			s := New(1)

			release, err := s.Acquire(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			go func() {
				time.Sleep(5 * time.Millisecond)
				release()
			}()

			next, err := s.Acquire(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			next()
		})
	})
})
