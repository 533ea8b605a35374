package gemini

// DefaultImagePrompt is sent as the text part when an image is submitted
// without any text.
const DefaultImagePrompt = "Describe this image"

// Build assembles the request body for a single message. Without an image the
// body holds one text part with text verbatim. With an image it holds a text
// part (text, or DefaultImagePrompt when text is empty) followed by the
// inline-data part.
func Build(text string, image *InlineData) *GenerateContentRequest {
	var parts []Part
	if image == nil {
		parts = []Part{TextPart(text)}
	} else {
		prompt := text
		if prompt == "" {
			prompt = DefaultImagePrompt
		}
		parts = []Part{
			TextPart(prompt),
			InlineDataPart(image.MIMEType, image.Data),
		}
	}

	return &GenerateContentRequest{
		Contents: []Content{{Parts: parts}},
	}
}
