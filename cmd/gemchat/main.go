package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/gemchat/cmd/gemchat/ask"
	"github.com/papercomputeco/gemchat/cmd/gemchat/bootstrap"
	chatcmder "github.com/papercomputeco/gemchat/cmd/gemchat/chat"
	servecmder "github.com/papercomputeco/gemchat/cmd/gemchat/serve"
)

const rootLongDesc string = `gemchat is a chat client for Gemini models.

Each message (text, one image, or both) is sent on its own to the
generateContent endpoint and the reply is shown in the conversation.

Configuration is read from the config file, .env, and the environment
(GEMINI_API_KEY, GEMINI_MODEL, GEMINI_BASE_URL, GEMCHAT_TIMEOUT).`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gemchat",
		Short:         "Chat with Gemini from the terminal",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	bootstrap.AddPersistentFlags(cmd)

	chatCmd := chatcmder.NewChatCmd()
	cmd.AddCommand(chatCmd)
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(servecmder.NewServeCmd())

	// Bare `gemchat` starts a chat.
	cmd.RunE = chatCmd.RunE
	cmd.Flags().AddFlagSet(chatCmd.Flags())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
