package future_test

import (
	"context"
	"errors"
	"time"

	. "github.com/dogmatiq/sharedstream/internal/future"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Future", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		fut    *Future[[]int]
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 100*time.Millisecond)
		fut = &Future[[]int]{}
	})

	AfterEach(func() {
		cancel()
	})

	Describe("func Await()", func() {
		It("returns immediately if the future is already resolved", func() {
			fut.Resolve([]int{1, 2}, nil)

			v, err := fut.Await(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(v).To(Equal([]int{1, 2}))
		})

		It("blocks until the future is resolved", func() {
			go func() {
				time.Sleep(5 * time.Millisecond)
				fut.Resolve([]int{3}, nil)
			}()

			v, err := fut.Await(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(v).To(Equal([]int{3}))
		})

		It("returns the error the future was resolved with", func() {
			fut.Resolve(nil, errors.New("<error>"))

			_, err := fut.Await(ctx)
			Expect(err).To(MatchError("<error>"))
		})

		It("returns an error if the context is canceled", func() {
			cancel()

			_, err := fut.Await(ctx)
			Expect(err).To(Equal(context.Canceled))
		})
	})

	Describe("func Resolve()", func() {
		It("ignores all but the first call", func() {
			Expect(fut.Resolve([]int{1}, nil)).To(BeTrue())
			Expect(fut.Resolve([]int{2}, errors.New("<error>"))).To(BeFalse())

			v, err := fut.Await(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(v).To(Equal([]int{1}))
		})

		It("wakes every blocked call to Await()", func() {
			results := make(chan error, 3)

			for i := 0; i < 3; i++ {
				go func() {
					_, err := fut.Await(ctx)
					results <- err
				}()
			}

			time.Sleep(5 * time.Millisecond)
			fut.Resolve(nil, nil)

			for i := 0; i < 3; i++ {
				Expect(<-results).ShouldNot(HaveOccurred())
			}
		})
	})

	Describe("func Done()", func() {
		It("returns a closed channel if the future is already resolved", func() {
			fut.Resolve(nil, nil)
			Expect(fut.Done()).To(BeClosed())
		})

		It("closes the channel when the future is resolved", func() {
			done := fut.Done()
			Expect(done).NotTo(BeClosed())

			fut.Resolve(nil, nil)
			Expect(done).To(BeClosed())
		})
	})

	Describe("func IsResolved()", func() {
		It("returns false until the future is resolved", func() {
			Expect(fut.IsResolved()).To(BeFalse())
			fut.Resolve(nil, nil)
			Expect(fut.IsResolved()).To(BeTrue())
		})
	})
})
