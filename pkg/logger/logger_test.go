package logger_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/gemchat/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("NewLogger", func() {
		It("writes console lines with plain level names to a buffer", func() {
			buf := &bytes.Buffer{}
			l := logger.NewLogger(false, buf)
			l.Info("submit accepted", zap.Int("parts", 2))

			Expect(buf.String()).To(ContainSubstring("INFO"))
			Expect(buf.String()).To(ContainSubstring("submit accepted"))
			Expect(buf.String()).To(ContainSubstring(`"parts": 2`))
			Expect(buf.String()).NotTo(ContainSubstring("\x1b["))
		})

		It("drops debug lines unless debug is enabled", func() {
			buf := &bytes.Buffer{}
			logger.NewLogger(false, buf).Debug("hidden")
			Expect(buf.String()).To(BeEmpty())

			logger.NewLogger(true, buf).Debug("shown")
			Expect(buf.String()).To(ContainSubstring("shown"))
		})
	})

	DescribeTable("Truncate",
		func(in string, maxLen int, want string) {
			Expect(logger.Truncate(in, maxLen)).To(Equal(want))
		},
		Entry("short text is kept", "hello", 10, "hello"),
		Entry("exact length is kept", "hello", 5, "hello"),
		Entry("long text is cut", "hello world", 5, "hello..."),
		Entry("newlines are flattened", "a\nb", 10, "a b"),
		Entry("multi-byte runes are not split", "héllo", 2, "h..."),
		Entry("a cut after a whole rune keeps it", "héllo", 3, "hé..."),
	)
})
