package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/voice-pos/internal/adapter/storage"
	"github.com/rl1809/voice-pos/internal/app"
	"github.com/rl1809/voice-pos/internal/core/domain"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <inventory.json|inventory.yaml>",
	Short: "Replace the SQL catalog with the items in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		items, err := storage.ReadCatalogFile(args[0])
		if err != nil {
			return err
		}
		if _, err := domain.NewCatalog(items); err != nil {
			return fmt.Errorf("invalid catalog: %w", err)
		}

		db, err := app.OpenSQL(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.NewSQLAdapter(db).ImportCatalog(cmd.Context(), items); err != nil {
			return err
		}
		fmt.Printf("Imported %d items into %s catalog\n", len(items), cfg.Database.Driver)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newReadOnlyApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, it := range a.Engine.Inventory() {
			fmt.Printf("%-12s %-20s %8.2f %5d\n", it.Key, it.Name, it.Price, it.Stock)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
}
