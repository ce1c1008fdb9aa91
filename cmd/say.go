package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/domain"
)

const (
	defaultSayTimeout  = 2 * time.Minute
	defaultSayInterval = 250 * time.Millisecond
)

func newSayCmd(apps *appLoader) *cobra.Command {
	var familiar string
	var timeout time.Duration
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "say <message>",
		Short: "Send a message to a familiar and wait for the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := apps.get()
			if err != nil {
				return err
			}

			id := domain.FamiliarID(familiar)
			turnID, err := app.conversations.Chat(cmd.Context(), application.ChatCommand{
				Familiar: id,
				Message:  strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			waitCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			view, err := waitForReply(waitCtx, cmd.ErrOrStderr(), app.conversations, id, turnID, interval)
			if err != nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				if cancelErr := app.conversations.Cancel(cmd.Context(), id, turnID); cancelErr != nil {
					return fmt.Errorf("no reply to turn %s within %s: %w", turnID, timeout, cancelErr)
				}
				return fmt.Errorf("no reply to turn %s within %s; turn cancelled", turnID, timeout)
			}
			if err != nil {
				return err
			}

			return writeReply(cmd, view)
		},
	}

	cmd.Flags().StringVar(&familiar, "familiar", "", "familiar id")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultSayTimeout, "how long to wait for a reply")
	cmd.Flags().DurationVar(&interval, "interval", defaultSayInterval, "poll interval")
	_ = cmd.MarkFlagRequired("familiar")
	_ = cmd.Flags().MarkHidden("interval")
	return cmd
}

func writeReply(cmd *cobra.Command, view application.TurnStatusView) error {
	if view.Status == domain.TurnCancelled {
		return fmt.Errorf("turn %s was cancelled", view.TurnID)
	}

	out := cmd.OutOrStdout()
	lines := []string{view.Reply, "", "emotion: " + view.Emotion}
	if view.Pose != "" {
		lines = append(lines, "pose: "+view.Pose)
	}
	if view.Background != "" {
		lines = append(lines, "background: "+view.Background)
	}
	for _, prompt := range view.Prompts {
		lines = append(lines, "prompt: "+prompt)
	}

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}
