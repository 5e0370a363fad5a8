package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"delivery_notes_app_go/services"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var assumeYes bool

var importProductsCmd = &cobra.Command{
	Use:   "import-products <workbook.xlsx>",
	Short: "Load products and codes from an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		rows, headerSkipped, err := services.ParseProductWorkbook(f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d rows read (header skipped: %t), catalog has %d products\n",
			len(rows), headerSkipped, store.View().ProductCount())

		if !assumeYes && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(out, "Import into the catalog? [y/N]: ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Fprintln(out, "Aborted")
				return nil
			}
		}

		summary, err := services.NewProductImporter(store).ImportRows(cmd.Context(), rows)
		if err != nil {
			return err
		}
		summary.HeaderSkipped = headerSkipped

		fmt.Fprintf(out, "Created: %d\nCodes added: %d\nDuplicates skipped: %d\nCodes over cap: %d\nInvalid rows: %d\n",
			summary.Created, summary.CodesAdded, summary.DuplicatesSkipped, summary.CapSkipped, summary.InvalidRows)
		return nil
	},
}

func init() {
	importProductsCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}
