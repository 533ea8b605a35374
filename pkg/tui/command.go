// Package tui is the terminal front end for a chat.Controller: a full screen
// bubbletea program and a plain line-oriented mode for pipes and dumb
// terminals. Both understand the same slash commands.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/gemchat/pkg/chat"
	"github.com/papercomputeco/gemchat/pkg/media"
)

// CommandKind identifies what a line of input asks for.
type CommandKind int

const (
	// CommandSend submits the line as message text.
	CommandSend CommandKind = iota
	// CommandImage selects the image at Arg.
	CommandImage
	// CommandRemoveImage drops the selected image.
	CommandRemoveImage
	// CommandClear asks to clear the conversation (after confirmation).
	CommandClear
	// CommandHelp lists the commands.
	CommandHelp
	// CommandQuit exits.
	CommandQuit
)

// Command is a parsed line of input.
type Command struct {
	Kind CommandKind
	Arg  string
}

// HelpText lists the slash commands.
const HelpText = `/image <path>  attach an image (max 5 MiB)
/remove        drop the attached image
/clear         clear the conversation
/help          show this help
/quit          exit`

// ParseCommand interprets a line of input. Lines that do not start with a
// known slash command are message text and are returned verbatim.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CommandSend, Arg: line}, nil
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/image", "/img":
		if arg == "" {
			return Command{}, errors.New("usage: /image <path>")
		}
		return Command{Kind: CommandImage, Arg: unquote(arg)}, nil
	case "/remove", "/rm":
		return Command{Kind: CommandRemoveImage}, nil
	case "/clear":
		return Command{Kind: CommandClear}, nil
	case "/help", "/?":
		return Command{Kind: CommandHelp}, nil
	case "/quit", "/exit", "/q":
		return Command{Kind: CommandQuit}, nil
	default:
		// Not a command we know, e.g. a path typed as a message.
		return Command{Kind: CommandSend, Arg: line}, nil
	}
}

// selectImageFile opens path and attaches it to the pending input.
func selectImageFile(c *chat.Controller, path string) (media.Resource, error) {
	r, err := media.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	if err := c.SelectImage(r); err != nil {
		return nil, err
	}
	return r, nil
}

// describeImage is the one-line label shown for an attached image.
func describeImage(name, mediaType string, size int64) string {
	return fmt.Sprintf("%s (%s, %s)", name, mediaType, humanSize(size))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// isYes reports whether a confirmation answer is affirmative.
func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
