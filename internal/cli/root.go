// Package cli defines the moodchat command line: the HTTP backend, the
// terminal chat page and a headless one-shot sender.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"moodchat/internal/config"
	"moodchat/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "moodchat",
		Short:         "A tiny mood companion chat: backend, terminal widget and client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (json or yaml); defaults to $MOODCHAT_CONFIG or ./config.json")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format override (text or json)")

	root.AddCommand(newServeCommand(opts), newChatCommand(opts), newSayCommand(opts))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load reads the config and sets up the global logger writing to w.
func (o *rootOptions) load(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.BasicConfig.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.BasicConfig.LogFormat = o.logFormat
	}
	logging.Setup(cfg.BasicConfig.LogLevel, cfg.BasicConfig.LogFormat, w)
	return cfg, nil
}
