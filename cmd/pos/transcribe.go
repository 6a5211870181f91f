package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/voice-pos/internal/app"
	"github.com/rl1809/voice-pos/internal/common/config"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio.wav>...",
	Short: "Transcribe recorded commands with whisper and apply them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg, log, app.WithConfirmations(os.Stdout))
		if err != nil {
			return err
		}
		defer a.Close()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		timeout := config.GetDuration(cfg.Transcriber.Timeout)

		for _, path := range args {
			text, err := transcribe(cmd.Context(), a, path, timeout)
			if err != nil {
				fmt.Printf("%s: %v\n", path, err)
				continue
			}
			fmt.Printf("You said: %s\n", text)

			if !dryRun {
				app.Feedback(cmd.Context(), os.Stdout, a.Engine, text)
			}
		}
		return nil
	},
}

func transcribe(ctx context.Context, a *app.App, path string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return a.Transcriber.Transcribe(ctx, path)
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().Bool("dry-run", false, "Only print the transcription")
}
