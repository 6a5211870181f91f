package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rl1809/voice-pos/internal/common/config"
	"github.com/rl1809/voice-pos/internal/common/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pos",
	Short: "Voice and text point-of-sale assistant",
	Long: `pos turns spoken or typed commands such as "add two apples and one coffee"
into cart changes checked against live inventory.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("session", "", "Session id, overrides session.id")
}

// loadConfig reads configuration and builds the logger every command uses.
func loadConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if session, _ := cmd.Flags().GetString("session"); session != "" {
		cfg.Session.ID = session
	}

	return cfg, logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format), nil
}
