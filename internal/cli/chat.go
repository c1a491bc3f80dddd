package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"moodchat/internal/client"
	"moodchat/internal/config"
	"moodchat/internal/models"
	"moodchat/internal/tui"
	"moodchat/internal/widget"
)

type widgetOptions struct {
	backendURL string
	local      bool
	ordered    bool
}

func (o *widgetOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.backendURL, "backend-url", "", "chat backend base URL override")
	cmd.Flags().BoolVar(&o.local, "local", false, "answer in-process with the configured responder instead of calling a backend")
	cmd.Flags().BoolVar(&o.ordered, "ordered", false, "show replies in the order messages were sent")
}

// responder returns the widget's responder plus a release func.
func (o *widgetOptions) responder(ctx context.Context, cfg *config.Config) (widget.Responder, func(), error) {
	if o.local {
		return buildResponder(ctx, cfg)
	}
	url := cfg.BasicConfig.BackendURL
	if o.backendURL != "" {
		url = o.backendURL
	}
	return client.New(url), func() {}, nil
}

func (o *widgetOptions) controllerOptions() []widget.Option {
	if o.ordered {
		return []widget.Option{widget.WithOrderedReplies()}
	}
	return nil
}

func newChatCommand(root *rootOptions) *cobra.Command {
	opts := &widgetOptions{}
	var logFile string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chat widget in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal belongs to the widget, so logs go to a file or nowhere
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				w = f
			}
			cfg, err := root.load(w)
			if err != nil {
				return err
			}
			responder, release, err := opts.responder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer release()
			return tui.Run(cmd.Context(), responder, opts.controllerOptions()...)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}

func newSayCommand(root *rootOptions) *cobra.Command {
	opts := &widgetOptions{}
	cmd := &cobra.Command{
		Use:   "say MESSAGE...",
		Short: "Send each argument as a chat message and print the resulting log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			responder, release, err := opts.responder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer release()

			view := widget.NewLog()
			ctrl := widget.New(view, responder, append(opts.controllerOptions(), widget.WithContext(cmd.Context()))...)
			for _, text := range args {
				view.SetInput(text)
				ctrl.Submit()
			}
			ctrl.Wait()
			printLog(cmd.OutOrStdout(), view.Messages())
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func printLog(w io.Writer, msgs []models.ChatMessage) {
	for _, msg := range msgs {
		fmt.Fprintf(w, "%-5s %s\n", string(msg.Origin)+":", strings.TrimRight(msg.Text, "\n"))
	}
}
