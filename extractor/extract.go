package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of one file in a directory run.
type FileResult struct {
	Source string                   `json:"source"`
	Result *common.ExtractionResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// ExecuteAgainstPath processes a single file or every PDF and fixture in a
// directory, at most concurrency files at a time. Per-file failures are
// reported in the results; only a cancelled context or an unreadable
// directory fails the whole run.
func ExecuteAgainstPath(ctx context.Context, p *Pipeline, path string, concurrency int) ([]FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		log.Info("scanning file", "path", path)
		result, err := p.ProcessFile(path)
		if err != nil {
			return nil, err
		}
		return []FileResult{{Source: sourceName(path), Result: result}}, nil
	}

	log.Info("scanning directory", "path", path)
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsStatementFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	slices.Sort(files)

	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]FileResult, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i].Source = sourceName(file)
			result, err := p.ProcessFile(file)
			if err != nil {
				log.Warn("failed to extract statement", "file", file, "error", err)
				results[i].Error = err.Error()
				return nil
			}
			log.Debug("extracted statement", "file", file, "transactions", len(result.Transactions))
			results[i].Result = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// IsStatementFile reports whether name is a PDF or a row fixture.
func IsStatementFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}

func sourceName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// CreateFinalOutput shapes a result for output: only the transactions, only
// the statement summary, or everything.
func CreateFinalOutput(result *common.ExtractionResult, transactionsOnly bool, statementOnly bool) interface{} {
	if transactionsOnly {
		return result.Transactions
	}

	if statementOnly {
		return map[string]interface{}{
			"statement":  result.Statement,
			"rewards":    result.Rewards,
			"validation": result.Validation,
		}
	}

	return result
}
