package extractor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
	"github.com/miwtoo/credit-card-extraction/extractor/statement"
	"github.com/spf13/viper"
)

// Pipeline runs fragment extraction, line normalization and statement
// parsing for one document at a time. It is safe for concurrent use.
type Pipeline struct {
	Source    common.FragmentSource
	Tolerance float64
	Registry  *Registry
	// Layout forces a layout by name. Empty means detect from content.
	Layout string
}

// NewPipeline builds a pipeline from the extraction.*, normalizer.* and
// layout config keys.
func NewPipeline() (*Pipeline, error) {
	src, err := common.NewFragmentSource(
		viper.GetString("extraction.backend"),
		viper.GetString("extraction.unipdf_license_key"),
	)
	if err != nil {
		return nil, err
	}

	tolerance := viper.GetFloat64("normalizer.tolerance")
	if tolerance <= 0 {
		tolerance = common.DefaultRowTolerance
	}

	p := &Pipeline{
		Source:    src,
		Tolerance: tolerance,
		Registry:  DefaultRegistry(),
		Layout:    viper.GetString("layout"),
	}
	if p.Layout != "" {
		if _, ok := p.Registry.Get(p.Layout); !ok {
			return nil, fmt.Errorf("unknown layout %q (available: %s)", p.Layout, strings.Join(p.Registry.List(), ", "))
		}
	}
	return p, nil
}

// Rows extracts and normalizes the rows of a PDF.
func (p *Pipeline) Rows(r io.Reader) ([]common.NormalizedRow, error) {
	rAt, size, err := common.ReaderAtFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	if size == 0 {
		return nil, fmt.Errorf("pdf is empty")
	}

	fragments, err := p.Source.Fragments(rAt, size)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	return common.NormalizeLines(fragments, p.tolerance()), nil
}

// ProcessReader parses a PDF read from r. name is only used for logging.
func (p *Pipeline) ProcessReader(r io.Reader, name string) (*common.ExtractionResult, error) {
	rows, err := p.Rows(r)
	if err != nil {
		return nil, err
	}
	log.Debug("normalized rows", "source", name, "rows", len(rows))
	return p.ProcessRows(rows)
}

// ProcessFile parses a PDF file, or a page|y|text fixture when the file
// name ends in .txt.
func (p *Pipeline) ProcessFile(path string) (*common.ExtractionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		rows, err := common.ReadFixture(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return p.ProcessRows(rows)
	}

	result, err := p.ProcessReader(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

// ProcessFragments normalizes and parses already extracted fragments.
func (p *Pipeline) ProcessFragments(fragments []common.Fragment) (*common.ExtractionResult, error) {
	return p.ProcessRows(common.NormalizeLines(fragments, p.tolerance()))
}

// ProcessRows parses normalized rows with the forced or detected layout.
func (p *Pipeline) ProcessRows(rows []common.NormalizedRow) (*common.ExtractionResult, error) {
	layout, detected, err := p.resolveLayout(rows)
	if err != nil {
		return nil, err
	}

	result := statement.Parse(layout.Rules(), rows)
	if !detected {
		result.Validation.Warnf("statement layout not recognised, parsed as %s", layout.Name)
	}

	log.Debug("parsed statement",
		"layout", layout.Name,
		"account", result.Statement.AccountLast4,
		"transactions", len(result.Transactions),
		"warnings", len(result.Validation.Warnings))
	return result, nil
}

func (p *Pipeline) resolveLayout(rows []common.NormalizedRow) (Layout, bool, error) {
	registry := p.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}

	if p.Layout != "" {
		l, ok := registry.Get(p.Layout)
		if !ok {
			return Layout{}, false, fmt.Errorf("unknown layout %q", p.Layout)
		}
		return l, true, nil
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Text
	}
	if l, ok := registry.Detect(strings.Join(texts, "\n")); ok {
		return l, true, nil
	}

	l, ok := registry.Default()
	if !ok {
		return Layout{}, false, fmt.Errorf("no statement layouts registered")
	}
	return l, false, nil
}

func (p *Pipeline) tolerance() float64 {
	if p.Tolerance <= 0 {
		return common.DefaultRowTolerance
	}
	return p.Tolerance
}
