package common

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var (
	licenseOnce sync.Once
	licenseErr  error
)

// UniPDFSource extracts fragments from unipdf text marks. It handles more
// font encodings than PDFSource but needs a metered license key.
type UniPDFSource struct{}

func NewUniPDFSource(licenseKey string) (UniPDFSource, error) {
	if licenseKey == "" {
		return UniPDFSource{}, fmt.Errorf("unipdf backend requires extraction.unipdf_license_key")
	}
	licenseOnce.Do(func() {
		licenseErr = license.SetMeteredKey(licenseKey)
	})
	if licenseErr != nil {
		return UniPDFSource{}, fmt.Errorf("failed to load unipdf license: %w", licenseErr)
	}
	return UniPDFSource{}, nil
}

func (UniPDFSource) Fragments(rAt io.ReaderAt, size int64) ([]Fragment, error) {
	reader, err := model.NewPdfReader(io.NewSectionReader(rAt, 0, size))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	var fragments []Fragment
	for no := 1; no <= numPages; no++ {
		page, err := reader.GetPage(no)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", no, err)
		}
		mbox, err := page.GetMediaBox()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", no, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", no, err)
		}
		pageText, _, _, err := ex.ExtractPageText()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", no, err)
		}
		fragments = append(fragments, marksToFragments(no, mbox.Ury, pageText.Marks().Elements())...)
	}

	return fragments, nil
}

// marksToFragments joins consecutive character marks on one line into words.
func marksToFragments(pageNo int, top float64, marks []extractor.TextMark) []Fragment {
	var (
		out     []Fragment
		b       strings.Builder
		box     [4]float64
		started bool
	)

	emit := func() {
		if started {
			if text := strings.TrimSpace(b.String()); text != "" {
				out = append(out, Fragment{Text: text, Page: pageNo, BBox: box})
			}
		}
		b.Reset()
		started = false
	}

	for _, m := range marks {
		if m.Meta || strings.TrimFunc(m.Text, unicode.IsSpace) == "" {
			emit()
			continue
		}
		// Flip to a top-left origin.
		x0, y0 := m.BBox.Llx, top-m.BBox.Ury
		x1, y1 := m.BBox.Urx, top-m.BBox.Lly
		if started && math.Abs(y0-box[1]) > (box[3]-box[1])/2 {
			emit()
		}
		if !started {
			box = [4]float64{x0, y0, x1, y1}
			started = true
		} else {
			box[0] = math.Min(box[0], x0)
			box[1] = math.Min(box[1], y0)
			box[2] = math.Max(box[2], x1)
			box[3] = math.Max(box[3], y1)
		}
		b.WriteString(m.Text)
	}
	emit()

	return out
}
