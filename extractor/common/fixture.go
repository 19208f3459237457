package common

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadFixture reads rows in the `page|y|text` format. Blank lines and lines
// starting with # are skipped.
func ReadFixture(r io.Reader) ([]NormalizedRow, error) {
	rows := []NormalizedRow{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("line %d: expected page|y|text, got %q", lineNo, line)
		}
		page, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid page: %w", lineNo, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid y: %w", lineNo, err)
		}
		rows = append(rows, NormalizedRow{
			Text: strings.TrimSpace(parts[2]),
			Page: page,
			Y:    y,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return rows, nil
}

// WriteFixture writes rows in the format ReadFixture accepts.
func WriteFixture(w io.Writer, rows []NormalizedRow) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		text := strings.ReplaceAll(row.Text, "\n", " ")
		if _, err := fmt.Fprintf(bw, "%d|%s|%s\n", row.Page, strconv.FormatFloat(row.Y, 'f', -1, 64), text); err != nil {
			return err
		}
	}
	return bw.Flush()
}
