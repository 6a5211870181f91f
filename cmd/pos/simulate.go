package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rl1809/voice-pos/internal/app"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Type commands instead of speaking them",
	Long:  `Reads one command per line from stdin until "exit" or "quit" and applies it to the cart.`,
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

		fmt.Println("Simulated voice input. Type 'exit' to quit.")
		return app.RunREPL(cmd.Context(), a, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
