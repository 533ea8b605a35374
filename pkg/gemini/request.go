package gemini

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"` // Only the current message; no prior turns are sent
}

// Content is one message worth of parts.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"; omitted on requests
	Parts []Part `json:"parts"`
}

// Part is a single fragment of a content: text or inline binary data.
// Exactly one field is set.
type Part struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 encoded bytes alongside their media type.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // Standard base64 with padding
}

// TextPart returns a text part. The text is kept even when empty.
func TextPart(text string) Part {
	return Part{Text: &text}
}

// InlineDataPart returns an inline-data part.
func InlineDataPart(mimeType, data string) Part {
	return Part{InlineData: &InlineData{MIMEType: mimeType, Data: data}}
}
