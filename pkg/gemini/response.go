package gemini

// GenerateContentResponse is the body returned by a successful generateContent
// call. Every level is optional: a malformed or partial body decodes to
// whatever subset is present and Extract falls back accordingly.
type GenerateContentResponse struct {
	Candidates    []*Candidate   `json:"candidates,omitempty"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"` // e.g. "STOP", "SAFETY", "MAX_TOKENS"
}

// UsageMetadata reports token counts (only used for debug logging).
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}
