package sharedstream

import (
	"time"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Option", func() {
	Describe("func WithLogger()", func() {
		It("sets the logger", func() {
			opts := resolveOptions([]Option{
				WithLogger(logging.DebugLogger),
			})

			Expect(opts.Logger).To(BeIdenticalTo(logging.DebugLogger))
		})

		It("uses the default if the logger is nil", func() {
			opts := resolveOptions([]Option{
				WithLogger(nil),
			})

			Expect(opts.Logger).To(BeIdenticalTo(DefaultLogger))
		})
	})

	Describe("func WithConcurrencyLimit()", func() {
		It("sets the concurrency limit", func() {
			opts := resolveOptions([]Option{
				WithConcurrencyLimit(10),
			})

			Expect(opts.ConcurrencyLimit).To(BeEquivalentTo(10))
		})

		It("imposes no limit by default", func() {
			m := New[int]()
			Expect(m.Semaphore.Limit()).To(Equal(0))
		})

		It("configures the manager's semaphore", func() {
			m := New[int](WithConcurrencyLimit(3))
			Expect(m.Semaphore.Limit()).To(Equal(3))
		})
	})

	Describe("func WithCancelTimeout()", func() {
		It("sets the cancel timeout", func() {
			opts := resolveOptions([]Option{
				WithCancelTimeout(10 * time.Minute),
			})

			Expect(opts.CancelTimeout).To(Equal(10 * time.Minute))
		})

		It("uses the default if the duration is zero", func() {
			opts := resolveOptions([]Option{
				WithCancelTimeout(0),
			})

			Expect(opts.CancelTimeout).To(Equal(DefaultCancelTimeout))
		})

		It("panics if the duration is negative", func() {
			Expect(func() {
				WithCancelTimeout(-1)
			}).To(Panic())
		})
	})
})
