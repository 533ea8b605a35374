package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/papercomputeco/gemchat/pkg/chat"
	"github.com/papercomputeco/gemchat/pkg/media"
)

// maxLineBytes caps a single input line, well above bufio's 64 KiB default.
const maxLineBytes = 8 << 20

// Plain is a line-oriented front end: one line in, one reply out. It blocks
// on each submission, so it never sees the controller busy.
type Plain struct {
	chat   *chat.Controller
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger

	you, bot, notice, warn func(a ...interface{}) string
}

// NewPlain creates a Plain front end reading from in and writing to out.
func NewPlain(controller *chat.Controller, in io.Reader, out io.Writer, logger *zap.Logger) *Plain {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	return &Plain{
		chat:   controller,
		in:     scanner,
		out:    out,
		logger: logger,
		you:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		bot:    color.New(color.FgCyan, color.Bold).SprintFunc(),
		notice: color.New(color.Faint).SprintFunc(),
		warn:   color.New(color.FgYellow).SprintFunc(),
	}
}

// Run reads lines until EOF, /quit, or ctx is cancelled.
func (p *Plain) Run(ctx context.Context) error {
	fmt.Fprintln(p.out, p.notice("Type a message and press Enter. /help lists commands."))

	for {
		if pending := p.chat.Pending(); pending.Image != nil {
			fmt.Fprintln(p.out, p.notice("attached: "+describeImage(pending.Image.Name(), pending.Image.MediaType(), pending.Image.Size())))
		}
		fmt.Fprint(p.out, p.you("You: "))

		line, ok := p.readLine()
		if !ok {
			fmt.Fprintln(p.out)
			return p.in.Err()
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			fmt.Fprintln(p.out, p.warn(err.Error()))
			continue
		}

		switch cmd.Kind {
		case CommandQuit:
			return nil
		case CommandHelp:
			fmt.Fprintln(p.out, HelpText)
		case CommandImage:
			p.selectImage(cmd.Arg)
		case CommandRemoveImage:
			p.chat.RemoveImage()
			fmt.Fprintln(p.out, p.notice("image removed"))
		case CommandClear:
			p.clear()
		case CommandSend:
			if err := p.send(ctx, cmd.Arg); err != nil {
				return err
			}
		}
	}
}

func (p *Plain) readLine() (string, bool) {
	if !p.in.Scan() {
		return "", false
	}
	return p.in.Text(), true
}

func (p *Plain) selectImage(path string) {
	r, err := selectImageFile(p.chat, path)
	var oversized *media.OversizedError
	switch {
	case errors.As(err, &oversized):
		fmt.Fprintf(p.out, "%s\n", p.warn(fmt.Sprintf("The image is too large (%s). Please select an image smaller than %s.",
			humanSize(oversized.Size), humanSize(oversized.Limit))))
	case err != nil:
		fmt.Fprintln(p.out, p.warn(err.Error()))
	default:
		fmt.Fprintln(p.out, p.notice("attached "+describeImage(r.Name(), r.MediaType(), r.Size())))
	}
}

func (p *Plain) clear() {
	if len(p.chat.Messages()) == 0 {
		fmt.Fprintln(p.out, p.notice("nothing to clear"))
		return
	}

	fmt.Fprint(p.out, p.warn("Clear the conversation? [y/N] "))
	answer, ok := p.readLine()
	if !ok || !isYes(answer) {
		fmt.Fprintln(p.out, p.notice("kept"))
		return
	}

	p.chat.Clear()
	fmt.Fprintln(p.out, p.notice("conversation cleared"))
}

// send submits text and waits for the reply. Only a cancelled ctx is an error.
func (p *Plain) send(ctx context.Context, text string) error {
	p.chat.EditText(text)

	done, err := p.chat.Submit(ctx)
	if errors.Is(err, chat.ErrEmptyInput) {
		return nil
	}
	if err != nil {
		fmt.Fprintln(p.out, p.warn(err.Error()))
		return nil
	}

	select {
	case reply := <-done:
		fmt.Fprintf(p.out, "%s%s\n\n", p.bot("Bot: "), reply.Text)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
