package gemini_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gemchat/pkg/gemini"
)

var _ = Describe("Build", func() {
	Context("without an image", func() {
		DescribeTable("holds a single text part equal to the input",
			func(text string) {
				req := gemini.Build(text, nil)

				Expect(req.Contents).To(HaveLen(1))
				parts := req.Contents[0].Parts
				Expect(parts).To(HaveLen(1))
				Expect(parts[0].Text).NotTo(BeNil())
				Expect(*parts[0].Text).To(Equal(text))
				Expect(parts[0].InlineData).To(BeNil())
			},
			Entry("plain text", "Hello"),
			Entry("surrounding whitespace is kept", "  spaced out \n"),
			Entry("empty string", ""),
			Entry("unicode", "Olá, tudo bem? 👋"),
		)

		It("serializes to the expected wire shape", func() {
			data, err := json.Marshal(gemini.Build("Hello", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"contents":[{"parts":[{"text":"Hello"}]}]}`))
		})

		It("keeps an empty text field on the wire", func() {
			data, err := json.Marshal(gemini.Build("", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"contents":[{"parts":[{"text":""}]}]}`))
		})
	})

	Context("with an image", func() {
		image := &gemini.InlineData{MIMEType: "image/jpeg", Data: "aGVsbG8="}

		It("uses the text when it is not empty", func() {
			req := gemini.Build("What is this?", image)

			parts := req.Contents[0].Parts
			Expect(parts).To(HaveLen(2))
			Expect(*parts[0].Text).To(Equal("What is this?"))
			Expect(parts[1].InlineData).To(Equal(image))
			Expect(parts[1].Text).To(BeNil())
		})

		It("uses the default prompt when the text is empty", func() {
			req := gemini.Build("", image)

			parts := req.Contents[0].Parts
			Expect(parts).To(HaveLen(2))
			Expect(*parts[0].Text).To(Equal(gemini.DefaultImagePrompt))
			Expect(parts[1].InlineData.MIMEType).To(Equal("image/jpeg"))
			Expect(parts[1].InlineData.Data).To(Equal("aGVsbG8="))
		})

		It("serializes the inline data part", func() {
			data, err := json.Marshal(gemini.Build("", image))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{
				"contents": [{
					"parts": [
						{"text": "Describe this image"},
						{"inlineData": {"mimeType": "image/jpeg", "data": "aGVsbG8="}}
					]
				}]
			}`))
		})
	})

	It("is deterministic", func() {
		image := &gemini.InlineData{MIMEType: "image/png", Data: "AAAA"}
		Expect(gemini.Build("x", image)).To(Equal(gemini.Build("x", image)))
	})
})
