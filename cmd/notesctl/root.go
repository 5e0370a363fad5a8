package main

import (
	"context"
	"fmt"

	"delivery_notes_app_go/config"
	"delivery_notes_app_go/db"
	"delivery_notes_app_go/services"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	store *services.Store
)

var rootCmd = &cobra.Command{
	Use:   "notesctl",
	Short: "Administrative tasks for the delivery notes service",
	Long:  `Seeds branches, imports the product catalog and re-renders note documents against the service database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		config.SetupLogger(cfg.Environment)

		if err := db.Initialize(cfg); err != nil {
			return err
		}
		snapshots := services.NewGormSnapshotStore(db.DB)
		if err := snapshots.Migrate(); err != nil {
			return err
		}

		var err error
		store, err = services.NewStore(cmd.Context(), snapshots, cfg.NoteNumberSeed)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return db.Close()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.SetContext(context.Background())
	rootCmd.AddCommand(seedBranchesCmd, importProductsCmd, regenerateDocumentCmd)
}
