package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/miwtoo/credit-card-extraction/extractor"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

// Extractor turns a statement file into a result. *extractor.Pipeline
// satisfies it.
type Extractor interface {
	ProcessFile(path string) (*common.ExtractionResult, error)
}

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

func (r *ImportResult) add(processed, skipped, failed int, errs []string) {
	r.Processed += processed
	r.Skipped += skipped
	r.Failed += failed
	r.Errors = append(r.Errors, errs...)
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	Extractor Extractor
	// Force replaces statements that were already imported.
	Force     bool
	// RunID tags every statement written by one import. Import fills it in
	// when empty.
	RunID     string
}

var logger = log.WithPrefix("IMPORT")

// ImportFile extracts a single statement file and stores it.
// Returns: processed count, skipped count, failed count, error messages
func (db *DB) ImportFile(ctx context.Context, filePath string, opts ImportOptions) (processed int, skipped int, failed int, errs []string) {
	fileName := filepath.Base(filePath)
	fail := func(format string, args ...any) (int, int, int, []string) {
		return 0, 0, 1, []string{fileName + ": " + fmt.Sprintf(format, args...)}
	}

	result, err := opts.Extractor.ProcessFile(filePath)
	if err != nil {
		return fail("extraction failed: %v", err)
	}

	h := result.Statement
	if h.AccountLast4 == "" || h.AccountLast4 == common.UnknownAccount {
		return fail("no account number extracted")
	}
	if h.StatementDate == nil {
		return fail("[%s] no statement date extracted", h.AccountLast4)
	}

	accountID, err := db.GetOrCreateAccount(ctx, h.BankName, h.AccountLast4)
	if err != nil {
		return fail("[%s] account error: %v", h.AccountLast4, err)
	}

	exists, existingID, err := db.StatementExists(ctx, accountID, h.StatementDate.Time)
	if err != nil {
		return fail("[%s] check error: %v", h.AccountLast4, err)
	}
	if exists && !opts.Force {
		logger.Debug("skip", "file", fileName, "account", h.AccountLast4, "reason", "already imported")
		return 0, 1, 0, nil
	}

	rec := StatementRecord{
		AccountID: accountID,
		RunID:     opts.RunID,
		Source:    fileName,
		Result:    result,
	}
	err = db.inTx(ctx, func(q Querier) error {
		if exists {
			if _, err := q.Exec(ctx, `DELETE FROM statements WHERE id = $1`, existingID); err != nil {
				return fmt.Errorf("failed to delete statement: %w", err)
			}
		}
		statementID, err := createStatement(ctx, q, rec)
		if err != nil {
			return err
		}
		return createTransactions(ctx, q, statementID, result.Transactions)
	})
	if err != nil {
		return fail("[%s] %v", h.AccountLast4, err)
	}

	logger.Debug("ok", "file", fileName, "account", h.AccountLast4,
		"transactions", len(result.Transactions), "replaced", exists)
	return 1, 0, 0, nil
}

// ImportDirectory processes all statement files in a directory
func (db *DB) ImportDirectory(ctx context.Context, dirPath string, opts ImportOptions) (*ImportResult, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !extractor.IsStatementFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dirPath, e.Name()))
	}
	sort.Strings(files)

	logger.Info("scanning", "dir", dirPath, "files", len(files))

	result := &ImportResult{RunID: opts.RunID}
	for _, filePath := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		processed, skipped, failed, errs := db.ImportFile(ctx, filePath, opts)
		result.add(processed, skipped, failed, errs)
		for _, msg := range errs {
			logger.Warn("failed", "err", msg)
		}
	}

	return result, nil
}

// Import handles both file and directory imports
func (db *DB) Import(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	if opts.Extractor == nil {
		return nil, fmt.Errorf("no extractor configured")
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, path, opts)
	}

	result := &ImportResult{RunID: opts.RunID}
	result.add(db.ImportFile(ctx, path, opts))
	return result, nil
}
