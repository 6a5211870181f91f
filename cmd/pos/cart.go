package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/voice-pos/internal/adapter/retrieval"
	"github.com/rl1809/voice-pos/internal/app"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect the checkpointed cart",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the session's cart and total",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newReadOnlyApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		view := a.Engine.Cart()
		if len(view.Lines) == 0 {
			fmt.Printf("Cart for session %s is empty\n", view.SessionID)
			return nil
		}
		for _, line := range view.Lines {
			fmt.Printf("%-20s x%-4d %8.2f\n", line.Name, line.Quantity, line.Price*float64(line.Quantity))
		}
		fmt.Printf("Total: %.2f\n", view.Total)
		return nil
	},
}

// newReadOnlyApp restores the session without calling any model service.
func newReadOnlyApp(cmd *cobra.Command) (*app.App, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Generator.Provider = "none"
	return app.New(cmd.Context(), cfg, log, app.WithEmbedder(retrieval.NewTrigramEmbedder(0)))
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartShowCmd)
}
