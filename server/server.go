// Package server exposes a chat.Controller over HTTP so any front end
// (a browser page, a script) can render the conversation and drive it with
// the same intents the terminal UI uses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/gemchat/pkg/chat"
	"github.com/papercomputeco/gemchat/pkg/media"
)

// Uploads up to bodyLimitFactor times the image cap reach the handler, which
// rejects oversized images with a JSON 413. formOverhead leaves room for the
// multipart headers.
const (
	bodyLimitFactor = 4
	formOverhead    = 64 << 10
)

// Server serves one conversation.
type Server struct {
	config Config
	chat   *chat.Controller
	logger *zap.Logger
	server *fiber.App
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StateResponse is the full renderable state of the conversation.
type StateResponse struct {
	Messages []chat.Message  `json:"messages"`
	Pending  PendingResponse `json:"pending"`
	Busy     bool            `json:"busy"`
}

// PendingResponse echoes the input being composed.
type PendingResponse struct {
	Text  string         `json:"text"`
	Image *chat.ImageRef `json:"image,omitempty"`
}

// SubmitResponse is returned by POST /submit.
type SubmitResponse struct {
	Accepted bool          `json:"accepted"`
	Reply    *chat.Message `json:"reply,omitempty"` // Only set when ?wait=true
}

type editTextRequest struct {
	Text *string `json:"text"`
}

// New creates a new Server around controller.
func New(config Config, controller *chat.Controller, logger *zap.Logger) *Server {
	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = media.MaxImageBytes
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             int(config.MaxImageBytes)*bodyLimitFactor + formOverhead,
		ErrorHandler:          errorHandler,
	})

	s := &Server{
		config: config,
		chat:   controller,
		logger: logger,
		server: app,
	}
	s.routes(app)

	return s
}

func (s *Server) routes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Get("/state", s.handleState)
	app.Get("/messages", s.handleMessages)
	app.Delete("/messages", s.handleClear)
	app.Put("/pending/text", s.handleEditText)
	app.Post("/pending/image", s.handleSelectImage)
	app.Delete("/pending/image", s.handleRemoveImage)
	app.Post("/submit", s.handleSubmit)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting chat server", zap.String("listen", s.config.ListenAddr))
	return s.server.Listen(s.config.ListenAddr)
}

// Shutdown stops accepting requests and waits for a submission in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.ShutdownWithContext(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.chat.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(toStateResponse(s.chat.Snapshot()))
}

func (s *Server) handleMessages(c *fiber.Ctx) error {
	return c.JSON(nonNil(s.chat.Messages()))
}

// handleClear empties the conversation. The client must have asked the user
// and pass ?confirm=true.
func (s *Server) handleClear(c *fiber.Ctx) error {
	if !c.QueryBool("confirm") {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "clearing requires confirm=true"})
	}

	s.chat.Clear()
	return c.JSON(toStateResponse(s.chat.Snapshot()))
}

func (s *Server) handleEditText(c *fiber.Ctx) error {
	var req editTextRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Text == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "body must be {\"text\": string}"})
	}

	s.chat.EditText(*req.Text)
	return c.JSON(toStateResponse(s.chat.Snapshot()))
}

// handleSelectImage reads the multipart field "image". The declared size is
// checked before the upload is read into memory.
func (s *Server) handleSelectImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "multipart field \"image\" is required"})
	}

	if fh.Size > s.config.MaxImageBytes {
		s.logger.Warn("rejected oversized upload",
			zap.String("name", fh.Filename),
			zap.Int64("size", fh.Size),
		)
		oversized := &media.OversizedError{Name: fh.Filename, Size: fh.Size, Limit: s.config.MaxImageBytes}
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{Error: oversized.Error()})
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.Error("failed to open upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "could not read upload"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("failed to read upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "could not read upload"})
	}

	// Generic multipart types carry no information; let the bytes decide.
	mediaType := fh.Header.Get(fiber.HeaderContentType)
	if mediaType == fiber.MIMEOctetStream {
		mediaType = ""
	}
	resource := media.NewBytesResource(fh.Filename, mediaType, data)
	if err := s.chat.SelectImage(resource); err != nil {
		if errors.Is(err, media.ErrOversizedImage) {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(toStateResponse(s.chat.Snapshot()))
}

func (s *Server) handleRemoveImage(c *fiber.Ctx) error {
	s.chat.RemoveImage()
	return c.JSON(toStateResponse(s.chat.Snapshot()))
}

// handleSubmit sends the pending input. With ?wait=true the response is held
// until the reply arrives; otherwise it returns 202 and clients poll /state.
func (s *Server) handleSubmit(c *fiber.Ctx) error {
	startTime := time.Now()

	// The submission outlives this request unless the caller waits for it.
	done, err := s.chat.Submit(context.Background())
	switch {
	case errors.Is(err, chat.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, chat.ErrEmptyInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("submit failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
	}

	if !c.QueryBool("wait") {
		return c.Status(fiber.StatusAccepted).JSON(SubmitResponse{Accepted: true})
	}

	reply := <-done
	s.logger.Debug("submit completed",
		zap.String("reply_id", reply.ID.String()),
		zap.Duration("duration", time.Since(startTime)),
	)
	return c.JSON(SubmitResponse{Accepted: true, Reply: &reply})
}

// errorHandler renders errors that never reached a route handler, such as an
// unknown route or a body over BodyLimit, as an ErrorResponse.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

func toStateResponse(state chat.State) StateResponse {
	resp := StateResponse{
		Messages: nonNil(state.Messages),
		Pending:  PendingResponse{Text: state.Pending.Text},
		Busy:     state.Busy,
	}
	if img := state.Pending.Image; img != nil {
		resp.Pending.Image = &chat.ImageRef{Name: img.Name(), MediaType: img.MediaType(), Size: img.Size()}
	}
	return resp
}

func nonNil(messages []chat.Message) []chat.Message {
	if messages == nil {
		return []chat.Message{}
	}
	return messages
}
