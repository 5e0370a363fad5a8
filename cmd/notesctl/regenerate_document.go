package main

import (
	"fmt"
	"strconv"
	"time"

	"delivery_notes_app_go/services"
	"delivery_notes_app_go/templates"

	"github.com/spf13/cobra"
)

var regenerateDocumentCmd = &cobra.Command{
	Use:   "regenerate-document <note-id>",
	Short: "Render and store a note's document again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid note id %q", args[0])
		}

		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			loc = time.UTC
		}
		company := templates.Company{Name: cfg.CompanyName, TaxID: cfg.CompanyTaxID, Activity: cfg.CompanyActivity}
		documents := services.NewDocumentPublisher(
			services.NewPDFDocumentRenderer(company, cfg.ChromePath),
			services.NewStorage(cfg),
		)
		notes := services.NewNoteService(store, documents, nil, services.NoteServiceConfig{
			DefaultOrigin: cfg.DefaultOrigin,
			Location:      loc,
		})

		note, err := notes.RegenerateDocument(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note %d rendered to %s\n", note.Number, note.DocumentKey)
		return nil
	},
}
