// Package chat owns the state of a single conversation: the message log, the
// input being composed, and the busy flag that keeps at most one request to
// the endpoint in flight.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/gemchat/pkg/gemini"
	"github.com/papercomputeco/gemchat/pkg/logger"
	"github.com/papercomputeco/gemchat/pkg/media"
)

// FailureText is the bot reply appended when a submission could not be
// completed (the image could not be read or the endpoint call failed).
const FailureText = "Sorry, something went wrong while getting a response."

var (
	// ErrBusy is returned by Submit while a previous submission is in flight.
	ErrBusy = errors.New("a message is already being sent")

	// ErrEmptyInput is returned by Submit when there is no text and no image.
	ErrEmptyInput = errors.New("nothing to send: enter text or select an image")

	// ErrNoImage is returned by SelectImage when given a nil resource.
	ErrNoImage = errors.New("no image selected")
)

// Controller mediates every change to a conversation. The zero value is not
// usable; construct one with New. A Controller is safe for concurrent use.
type Controller struct {
	client        gemini.Client
	logger        *zap.Logger
	maxImageBytes int64
	failureText   string
	now           func() time.Time

	mu       sync.Mutex
	messages []Message
	pending  PendingInput
	busy     bool

	subscribers map[int]func(State)
	nextSubID   int

	inflight sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMaxImageBytes overrides media.MaxImageBytes.
func WithMaxImageBytes(n int64) Option {
	return func(c *Controller) { c.maxImageBytes = n }
}

// WithFailureText overrides the reply appended when a submission fails.
func WithFailureText(text string) Option {
	return func(c *Controller) { c.failureText = text }
}

// WithClock sets the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates an empty, idle conversation that sends through client.
func New(client gemini.Client, opts ...Option) *Controller {
	c := &Controller{
		client:        client,
		logger:        zap.NewNop(),
		maxImageBytes: media.MaxImageBytes,
		failureText:   FailureText,
		now:           time.Now,
		subscribers:   make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectImage attaches r to the pending input, replacing any earlier image.
// An image over the size limit is rejected with a *media.OversizedError and
// the pending input is left as it was.
func (c *Controller) SelectImage(r media.Resource) error {
	if r == nil {
		return ErrNoImage
	}
	if err := media.CheckSize(r, c.maxImageBytes); err != nil {
		c.logger.Warn("rejected image selection",
			zap.String("name", r.Name()),
			zap.Int64("size", r.Size()),
			zap.Int64("limit", c.maxImageBytes),
		)
		return err
	}

	c.update(func() {
		c.pending.Image = r
	})
	c.logger.Debug("image selected",
		zap.String("name", r.Name()),
		zap.String("media_type", r.MediaType()),
		zap.Int64("size", r.Size()),
	)
	return nil
}

// RemoveImage detaches the pending image, if any.
func (c *Controller) RemoveImage() {
	c.update(func() {
		c.pending.Image = nil
	})
}

// EditText replaces the pending text.
func (c *Controller) EditText(text string) {
	c.update(func() {
		c.pending.Text = text
	})
}

// Clear empties the conversation log. It does not touch the pending input or
// the busy flag; a reply still in flight is appended to the emptied log when
// it arrives. Callers are expected to have confirmed with the user.
func (c *Controller) Clear() {
	var dropped int
	c.update(func() {
		dropped = len(c.messages)
		c.messages = nil
	})
	c.logger.Info("conversation cleared", zap.Int("dropped_messages", dropped))
}

// Submit sends the pending input. It returns ErrBusy while another submission
// is in flight and ErrEmptyInput when the text is blank and no image is
// selected; in both cases nothing changes.
//
// On acceptance the user message is appended immediately and the controller
// turns busy. The request then runs in the background; when it settles a bot
// message is appended (the reply, or the failure text), the pending input is
// reset and the controller turns idle again, whatever the outcome. The
// returned channel receives that bot message and is then closed.
//
// ctx is handed to the endpoint call and is meant for process shutdown.
func (c *Controller) Submit(ctx context.Context) (<-chan Message, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		c.logger.Debug("submit rejected: busy")
		return nil, ErrBusy
	}
	input := c.pending
	if input.IsEmpty() {
		c.mu.Unlock()
		return nil, ErrEmptyInput
	}

	c.busy = true
	userMsg := c.newMessage(input.Text, SenderUser, imageRefOf(input.Image))
	c.messages = append(c.messages, userMsg)
	c.inflight.Add(1)
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	c.logger.Info("message submitted",
		zap.String("id", userMsg.ID.String()),
		zap.String("text_preview", logger.Truncate(input.Text, 50)),
		zap.Bool("has_image", input.Image != nil),
	)

	done := make(chan Message, 1)
	go c.exchange(ctx, input, done)
	return done, nil
}

// exchange runs the request for a submitted input. The deferred release
// appends the reply and returns the controller to idle on every path.
func (c *Controller) exchange(ctx context.Context, input PendingInput, done chan<- Message) {
	startTime := time.Now()
	reply := c.failureText
	failed := true

	defer func() {
		botMsg := c.newMessage(reply, SenderBot, nil)
		botMsg.Failed = failed

		c.mu.Lock()
		c.messages = append(c.messages, botMsg)
		c.pending = PendingInput{}
		c.busy = false
		state := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(state)

		done <- botMsg
		close(done)
		c.inflight.Done()
	}()

	text, err := c.respond(ctx, input)
	if err != nil {
		c.logger.Error("submission failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return
	}
	reply, failed = text, false

	c.logger.Info("reply received",
		zap.String("text_preview", logger.Truncate(reply, 50)),
		zap.Duration("duration", time.Since(startTime)),
	)
}

// respond encodes, builds, sends and extracts. Only encoding and transport
// failures are errors; a response without text yields gemini.FallbackText.
func (c *Controller) respond(ctx context.Context, input PendingInput) (string, error) {
	var image *gemini.InlineData
	if input.Image != nil {
		data, err := media.Encode(input.Image)
		if err != nil {
			return "", fmt.Errorf("encode image: %w", err)
		}
		image = &gemini.InlineData{MIMEType: input.Image.MediaType(), Data: data}
	}

	resp, err := c.client.GenerateContent(ctx, gemini.Build(input.Text, image))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return gemini.Extract(resp), nil
}

// Wait blocks until no submission is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Messages returns a copy of the conversation log in display order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Pending returns the input being composed.
func (c *Controller) Pending() PendingInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Snapshot returns messages, pending input and busy flag read together.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called with the new state after every change.
// Calls happen outside the controller's lock, from whichever goroutine made
// the change. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) update(mutate func()) {
	c.mu.Lock()
	mutate()
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)
}

func (c *Controller) snapshotLocked() State {
	return State{
		Messages: slices.Clone(c.messages),
		Pending:  c.pending,
		Busy:     c.busy,
	}
}

func (c *Controller) notify(state State) {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.subscribers))
	for id := 0; id < c.nextSubID; id++ {
		if fn, ok := c.subscribers[id]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (c *Controller) newMessage(text string, sender Sender, image *ImageRef) Message {
	return Message{
		ID:        uuid.New(),
		Text:      text,
		Sender:    sender,
		Image:     image,
		CreatedAt: c.now(),
	}
}
