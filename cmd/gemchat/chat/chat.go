package chatcmder

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/gemchat/cmd/gemchat/bootstrap"
	"github.com/papercomputeco/gemchat/pkg/tui"
)

const chatLongDesc string = `Start an interactive conversation.

Type a message and press Enter to send it. Attach an image
(up to 5 MiB) with /image <path>; it is sent with your next
message, or on its own with an empty message. Only the current
message is sent to the model, never earlier turns.

The full screen interface is used on a terminal; --plain (or a
non-terminal stdin/stdout) switches to line mode.

Examples:
  gemchat chat
  gemchat chat --plain < questions.txt
  gemchat chat --log-file /tmp/gemchat.log --debug`

const chatShortDesc string = "Chat interactively"

type chatCommander struct {
	plain bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Use line mode instead of the full screen interface")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.LoadConfig(cmd)
	if err != nil {
		return err
	}

	// Logs never go to the screen here; use --log-file to keep them.
	logger, closeLog, err := bootstrap.NewLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	controller := bootstrap.NewController(cfg, logger)

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	logger.Info("chat starting",
		zap.String("model", cfg.Endpoint.Model),
		zap.Bool("plain", c.plain || !interactive),
	)

	if c.plain || !interactive {
		return tui.NewPlain(controller, cmd.InOrStdin(), cmd.OutOrStdout(), logger).Run(ctx)
	}
	return tui.Run(ctx, controller)
}
