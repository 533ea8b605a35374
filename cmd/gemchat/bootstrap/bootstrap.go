// Package bootstrap turns the root command's persistent flags into the
// configuration, logger and controller every sub-command needs.
package bootstrap

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/gemchat/pkg/chat"
	"github.com/papercomputeco/gemchat/pkg/config"
	"github.com/papercomputeco/gemchat/pkg/gemini"
	"github.com/papercomputeco/gemchat/pkg/logger"
)

// Persistent flag names registered by AddPersistentFlags.
const (
	FlagConfig  = "config"
	FlagDebug   = "debug"
	FlagLogFile = "log-file"
	FlagModel   = "model"
)

// AddPersistentFlags registers the flags shared by every sub-command.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(FlagConfig, "c", "", "Path to config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().Bool(FlagDebug, false, "Enable debug logging")
	cmd.PersistentFlags().String(FlagLogFile, "", "Write logs to this file")
	cmd.PersistentFlags().StringP(FlagModel, "m", "", "Model name (default "+gemini.DefaultModel+")")
}

// LoadConfig loads the configuration and applies any flags that were set.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed(FlagDebug) {
		cfg.Debug, _ = flags.GetBool(FlagDebug)
	}
	if flags.Changed(FlagLogFile) {
		cfg.LogFile, _ = flags.GetString(FlagLogFile)
	}
	if flags.Changed(FlagModel) {
		cfg.Endpoint.Model, _ = flags.GetString(FlagModel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger returns a logger writing to cfg.LogFile when set, otherwise to
// fallback (nil discards). The returned func flushes and closes.
func NewLogger(cfg *config.Config, fallback io.Writer) (*zap.Logger, func(), error) {
	if cfg.LogFile == "" {
		if fallback == nil {
			fallback = io.Discard
		}
		l := logger.NewLogger(cfg.Debug, fallback)
		return l, func() { _ = l.Sync() }, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open log file %s: %w", cfg.LogFile, err)
	}
	l := logger.NewLogger(cfg.Debug, f)
	return l, func() {
		_ = l.Sync()
		_ = f.Close()
	}, nil
}

// NewController wires the HTTP transport into a fresh conversation.
func NewController(cfg *config.Config, l *zap.Logger) *chat.Controller {
	client := gemini.NewHTTPClient(cfg.GeminiConfig(), l.Named("gemini"))

	opts := []chat.Option{
		chat.WithLogger(l.Named("chat")),
		chat.WithMaxImageBytes(cfg.Chat.MaxImageBytes),
	}
	if cfg.Chat.FailureText != "" {
		opts = append(opts, chat.WithFailureText(cfg.Chat.FailureText))
	}

	l.Debug("conversation ready",
		zap.String("endpoint", client.Endpoint()),
		zap.Duration("timeout", cfg.Endpoint.Timeout),
	)
	return chat.New(client, opts...)
}
