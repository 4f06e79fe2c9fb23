package streamlog_test

import (
	"errors"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/dogmatiq/sharedstream/internal/streamlog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("log functions", func() {
	var logger *logging.BufferedLogger

	BeforeEach(func() {
		logger = &logging.BufferedLogger{
			CaptureDebug: true,
		}
	})

	Describe("func LogStart()", func() {
		It("logs in the correct format", func() {
			LogStart(logger, "<key>", "<id>")

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ▶    executor started",
					IsDebug: true,
				},
			))
		})

		It("does not log anything if debug logging is disabled", func() {
			logger.CaptureDebug = false
			LogStart(logger, "<key>", "<id>")
			Expect(logger.Messages()).To(BeEmpty())
		})
	})

	Describe("func LogJoin()", func() {
		It("logs in the correct format", func() {
			LogJoin(logger, "<key>", "<id>", 3, 0)

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ⋲ 3  ↪    subscriber attached",
					IsDebug: true,
				},
			))
		})

		It("shows a replay icon if events were replayed", func() {
			LogJoin(logger, "<key>", "<id>", 3, 2)

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ⋲ 3  ↪ ↻  subscriber attached, replayed 2 event(s)",
					IsDebug: true,
				},
			))
		})
	})

	Describe("func LogLeave()", func() {
		It("logs in the correct format", func() {
			LogLeave(logger, "<key>", "<id>", 3, "unsubscribed", 1)

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ⋲ 3  ↩    unsubscribed ● 1 subscriber(s) remaining",
					IsDebug: true,
				},
			))
		})
	})

	Describe("func LogSettle()", func() {
		It("logs failures even if debug logging is disabled", func() {
			logger.CaptureDebug = false
			LogSettle(logger, "<key>", "<id>", 0, errors.New("<error>"))

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ■ ✖  executor failed ● <error>",
				},
			))
		})

		It("logs success as a debug message", func() {
			LogSettle(logger, "<key>", "<id>", 2, nil)

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ■    executor succeeded with 2 event(s)",
					IsDebug: true,
				},
			))
		})
	})

	Describe("func LogPanic()", func() {
		It("logs in the correct format", func() {
			LogPanic(logger, "<key>", "<id>", 3, "OnData", "<panic>")

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ⋲ 3  ✖    OnData panicked ● <panic>",
				},
			))
		})
	})

	Describe("func LogCancelerError()", func() {
		It("logs in the correct format", func() {
			LogCancelerError(logger, "<key>", "<id>", 3, errors.New("<error>"))

			Expect(logger.Messages()).To(ConsistOf(
				logging.BufferedLogMessage{
					Message: "⚿ <key>  = <id>  ⋲ 3  ↩ ✖  canceler failed ● <error>",
				},
			))
		})
	})
})
