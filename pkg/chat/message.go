package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/gemchat/pkg/media"
)

// Sender identifies who produced a message.
type Sender string

const (
	// SenderUser is a message typed or attached by the user
	SenderUser Sender = "user"
	// SenderBot is a reply produced from the endpoint's response
	SenderBot Sender = "bot"
)

// ImageRef describes an image attached to a message. The bytes themselves
// are not kept in the conversation.
type ImageRef struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
}

func imageRefOf(r media.Resource) *ImageRef {
	if r == nil {
		return nil
	}
	return &ImageRef{Name: r.Name(), MediaType: r.MediaType(), Size: r.Size()}
}

// Message is a single entry of the conversation. Messages are values and are
// never changed after they are appended.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Image     *ImageRef `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Failed marks a bot message standing in for a reply that could not be
	// obtained (unreadable image or failed endpoint call).
	Failed bool `json:"failed,omitempty"`
}

// PendingInput is what the user is composing: text and at most one image.
type PendingInput struct {
	Text  string
	Image media.Resource // nil when no image is selected
}

// IsEmpty reports whether there is nothing to submit: blank text and no image.
func (p PendingInput) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == "" && p.Image == nil
}

// State is a consistent view of the controller for rendering.
type State struct {
	Messages []Message
	Pending  PendingInput
	Busy     bool
}
