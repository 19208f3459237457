package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/miwtoo/credit-card-extraction/extractor"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
	"github.com/spf13/cobra"
)

var rowsFile string

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Print the normalized rows of a statement PDF",
	Long: `Prints the reconstructed rows of a PDF in the page|y|text fixture format.
The output can be saved and fed back to extract as a .txt file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rowsFile == "" {
			return fmt.Errorf("--file/-f is required")
		}

		p, err := extractor.NewPipeline()
		if err != nil {
			return err
		}

		f, err := os.Open(rowsFile)
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := p.Rows(f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", filepath.Base(rowsFile))
		return common.WriteFixture(out, rows)
	},
}

func init() {
	rootCmd.AddCommand(rowsCmd)

	rowsCmd.Flags().StringVarP(&rowsFile, "file", "f", "", "PDF file to read (required)")
	rowsCmd.MarkFlagRequired("file")
}
