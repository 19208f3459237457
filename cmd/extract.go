package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/miwtoo/credit-card-extraction/extractor"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts statement(s)",
	Long: `Extracts a statement PDF, a row fixture, or every such file in a directory.
The layout is detected from the document text unless --layout is given.`,
	RunE: runExtract,
}

type outputOptions struct {
	format           string
	statementOnly    bool
	transactionsOnly bool
}

// fileOutput is one entry of a directory run.
type fileOutput struct {
	Source string      `json:"source"`
	Output interface{} `json:"output,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func runExtract(cmd *cobra.Command, _ []string) error {
	target := viper.GetString("target")
	opts := outputOptions{
		format:           viper.GetString("output.format"),
		statementOnly:    viper.GetBool("output.statement_only"),
		transactionsOnly: viper.GetBool("output.transactions_only"),
	}
	if opts.format != "json" && opts.format != "csv" && opts.format != "" {
		return fmt.Errorf("unknown format %q (want json or csv)", opts.format)
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	p, err := extractor.NewPipeline()
	if err != nil {
		return err
	}

	results, err := extractor.ExecuteAgainstPath(cmd.Context(), p, target, viper.GetInt("extraction.concurrency"))
	if err != nil {
		return err
	}

	if err := writeResults(cmd.OutOrStdout(), results, info.IsDir(), opts); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			log.Error("extraction failed", "source", r.Source, "err", r.Error)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func writeResults(w io.Writer, results []extractor.FileResult, many bool, opts outputOptions) error {
	if opts.format == "csv" {
		var txs []common.Transaction
		for _, r := range results {
			if r.Result != nil {
				txs = append(txs, r.Result.Transactions...)
			}
		}
		return extractor.WriteTransactionsCSV(w, txs)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if !many && len(results) == 1 && results[0].Result != nil {
		return enc.Encode(extractor.CreateFinalOutput(results[0].Result, opts.transactionsOnly, opts.statementOnly))
	}

	out := make([]fileOutput, 0, len(results))
	for _, r := range results {
		entry := fileOutput{Source: r.Source, Error: r.Error}
		if r.Result != nil {
			entry.Output = extractor.CreateFinalOutput(r.Result, opts.transactionsOnly, opts.statementOnly)
		}
		out = append(out, entry)
	}
	return enc.Encode(out)
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("file", "f", ".", "File or folder to extract")
	extractCmd.Flags().String("format", "json", "Output format: json or csv")
	extractCmd.Flags().Bool("statement-only", false, "Output only the statement summary, rewards and validation")
	extractCmd.Flags().Bool("transactions-only", false, "Output only the transactions")
	extractCmd.Flags().Int("concurrency", 0, "Files processed in parallel (default from extraction.concurrency)")
	extractCmd.MarkFlagsMutuallyExclusive("statement-only", "transactions-only")

	viper.BindPFlag("target", extractCmd.Flags().Lookup("file"))
	viper.BindPFlag("output.format", extractCmd.Flags().Lookup("format"))
	viper.BindPFlag("output.statement_only", extractCmd.Flags().Lookup("statement-only"))
	viper.BindPFlag("output.transactions_only", extractCmd.Flags().Lookup("transactions-only"))
	viper.BindPFlag("extraction.concurrency", extractCmd.Flags().Lookup("concurrency"))
}
