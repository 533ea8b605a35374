package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/gemchat/cmd/gemchat/bootstrap"
	"github.com/papercomputeco/gemchat/server"
)

const serveLongDesc string = `Serve one conversation over HTTP.

Front ends render GET /state and drive the conversation with:
  PUT    /pending/text        {"text": "..."}
  POST   /pending/image       multipart field "image" (max 5 MiB)
  DELETE /pending/image
  POST   /submit[?wait=true]
  DELETE /messages?confirm=true

Examples:
  gemchat serve
  gemchat serve --listen 127.0.0.1:9000`

const serveShortDesc string = "Serve the conversation over HTTP"

// shutdownTimeout bounds how long a reply in flight may delay exit.
const shutdownTimeout = 30 * time.Second

type serveCommander struct {
	listen string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default :8080)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.ListenAddr = c.listen
	}

	logger, closeLog, err := bootstrap.NewLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	controller := bootstrap.NewController(cfg, logger)
	srv := server.New(server.Config{
		ListenAddr:    cfg.Server.ListenAddr,
		MaxImageBytes: cfg.Chat.MaxImageBytes,
	}, controller, logger.Named("server"))

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Run()
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped", zap.Int("messages", len(controller.Messages())))
	return nil
}
