package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"
)

// FragmentSource turns a PDF into positioned text fragments.
type FragmentSource interface {
	Fragments(r io.ReaderAt, size int64) ([]Fragment, error)
}

// Supported extraction backends.
const (
	BackendPDF    = "pdf"
	BackendUniPDF = "unipdf"
)

// NewFragmentSource returns the source for the named backend. An empty name
// selects the default pure-Go reader.
func NewFragmentSource(backend, licenseKey string) (FragmentSource, error) {
	switch strings.ToLower(backend) {
	case "", BackendPDF:
		return PDFSource{WordGap: defaultWordGap}, nil
	case BackendUniPDF:
		return NewUniPDFSource(licenseKey)
	}
	return nil, fmt.Errorf("unknown extraction backend %q", backend)
}

// ReaderAtFromReader makes an io.ReaderAt with a known size out of any reader,
// buffering it in memory when needed.
func ReaderAtFromReader(reader io.Reader) (io.ReaderAt, int64, error) {
	switch v := reader.(type) {
	case io.ReaderAt:
		seeker, ok := reader.(io.Seeker)
		if !ok {
			return nil, 0, errors.New("reader is io.ReaderAt but not io.Seeker, cannot determine size")
		}
		cur, _ := seeker.Seek(0, io.SeekCurrent)
		end, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return v, end, nil
	default:
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(reader); err != nil {
			return nil, 0, err
		}
		b := buf.Bytes()
		return bytes.NewReader(b), int64(len(b)), nil
	}
}

// ExtractFragmentsFromPDF opens path and extracts its fragments with src.
func ExtractFragmentsFromPDF(src FragmentSource, path string) ([]Fragment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rAt, size, err := ReaderAtFromReader(file)
	if err != nil {
		return nil, err
	}
	return src.Fragments(rAt, size)
}

// defaultWordGap is the horizontal gap, as a fraction of the font size,
// above which two glyphs start separate fragments.
const defaultWordGap = 0.3

// PDFSource reads glyph runs with github.com/dslipak/pdf and merges adjacent
// glyphs on the same baseline into word fragments.
type PDFSource struct {
	WordGap float64
}

func (s PDFSource) Fragments(rAt io.ReaderAt, size int64) (fragments []Fragment, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			fragments = nil
			err = fmt.Errorf("pdf content could not be read: %v", r)
		}
	}()

	r, err := pdf.NewReader(rAt, size)
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	fragments = make([]Fragment, 0, numPages*200)

	for no := 1; no <= numPages; no++ {
		page := r.Page(no)
		if page.V.IsNull() {
			continue
		}
		texts := page.Content().Text
		height := pageHeight(page, texts)
		fragments = append(fragments, s.mergeGlyphs(no, height, texts)...)
	}

	return fragments, nil
}

func pageHeight(page pdf.Page, texts []pdf.Text) float64 {
	box := page.V.Key("MediaBox")
	if box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	// Fall back to the highest glyph when the box is inherited or missing.
	maxY := 0.0
	for _, t := range texts {
		maxY = math.Max(maxY, t.Y+t.FontSize)
	}
	return maxY
}

// mergeGlyphs converts glyphs (y up, baseline origin) into fragments
// (y down, top-left origin).
func (s PDFSource) mergeGlyphs(pageNo int, height float64, texts []pdf.Text) []Fragment {
	gap := s.WordGap
	if gap <= 0 {
		gap = defaultWordGap
	}

	var (
		out     []Fragment
		b       strings.Builder
		x0, x1  float64
		baseY   float64
		size    float64
		started bool
	)

	emit := func() {
		if !started {
			return
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			top := height - baseY - size
			out = append(out, Fragment{
				Text: text,
				Page: pageNo,
				BBox: [4]float64{x0, top, x1, top + size},
			})
		}
		b.Reset()
		started = false
	}

	for _, t := range texts {
		if strings.TrimFunc(t.S, unicode.IsSpace) == "" {
			emit()
			continue
		}
		if started {
			sameLine := math.Abs(t.Y-baseY) < 0.5
			adjacent := t.X >= x0 && t.X-x1 <= gap*math.Max(size, t.FontSize)
			if !sameLine || !adjacent {
				emit()
			}
		}
		if !started {
			x0, x1, baseY, size = t.X, t.X+t.W, t.Y, t.FontSize
			started = true
		} else {
			x1 = math.Max(x1, t.X+t.W)
		}
		b.WriteString(t.S)
	}
	emit()

	return out
}
