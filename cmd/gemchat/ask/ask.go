package askcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gemchat/cmd/gemchat/bootstrap"
	"github.com/papercomputeco/gemchat/pkg/chat"
	"github.com/papercomputeco/gemchat/pkg/media"
)

const askLongDesc string = `Send a single message and print the reply.

The text is taken from the arguments. With --image the file is sent
alongside it; without text the model is asked to describe the image.

Examples:
  gemchat ask "What is the capital of Portugal?"
  gemchat ask --image ./receipt.jpg "What is the total?"
  gemchat ask -i ./photo.png`

const askShortDesc string = "Send one message and print the reply"

type askCommander struct {
	imagePath string
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.imagePath, "image", "i", "", "Path to an image to send with the message")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, text string) error {
	cfg, err := bootstrap.LoadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := bootstrap.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	controller := bootstrap.NewController(cfg, logger)
	return ask(ctx, controller, cmd, text, c.imagePath)
}

func ask(ctx context.Context, controller *chat.Controller, cmd *cobra.Command, text, imagePath string) error {
	if imagePath != "" {
		r, err := media.OpenFile(imagePath)
		if err != nil {
			return fmt.Errorf("could not open image: %w", err)
		}
		if err := controller.SelectImage(r); err != nil {
			return err
		}
	}
	controller.EditText(text)

	done, err := controller.Submit(ctx)
	if errors.Is(err, chat.ErrEmptyInput) {
		return errors.New("nothing to ask: pass some text or --image")
	}
	if err != nil {
		return err
	}

	reply := <-done
	fmt.Fprintln(cmd.OutOrStdout(), reply.Text)

	if reply.Failed {
		return errors.New("the request failed; run with --debug for details")
	}
	return nil
}
