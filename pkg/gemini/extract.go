package gemini

// FallbackText replaces the reply when the response carries no usable text.
const FallbackText = "No response could be obtained."

// Extract returns candidates[0].content.parts[0].text, or FallbackText when
// any step of that path is missing or the text is empty. It never fails.
func Extract(resp *GenerateContentResponse) string {
	if text, ok := firstText(resp); ok {
		return text
	}
	return FallbackText
}

func firstText(resp *GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", false
	}
	if len(candidate.Content.Parts) == 0 {
		return "", false
	}
	text := candidate.Content.Parts[0].Text
	if text == nil || *text == "" {
		return "", false
	}
	return *text, true
}
