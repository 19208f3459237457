package common

import (
	"math"
	"slices"
	"strings"
)

// DefaultRowTolerance is the y distance under which two fragments share a row.
const DefaultRowTolerance = 3.0

// NormalizeLines groups positioned fragments into ordered rows.
//
// Fragments are stably sorted by (page, y0, x0). Within a page a fragment
// joins the current row when its y0 is within tolerance of the previous
// fragment added to that row, so a row may drift across many fragments.
// Row text is the x0-ordered member text joined by single spaces and the
// row y is the smallest member y0.
func NormalizeLines(fragments []Fragment, tolerance float64) []NormalizedRow {
	if len(fragments) == 0 {
		return []NormalizedRow{}
	}

	sorted := slices.Clone(fragments)
	slices.SortStableFunc(sorted, func(a, b Fragment) int {
		if a.Page != b.Page {
			return a.Page - b.Page
		}
		if c := compareFloat(a.Y0(), b.Y0()); c != 0 {
			return c
		}
		return compareFloat(a.X0(), b.X0())
	})

	rows := make([]NormalizedRow, 0, len(sorted)/4+1)
	var current []Fragment

	flush := func() {
		if len(current) > 0 {
			rows = append(rows, buildRow(current))
			current = nil
		}
	}

	for _, f := range sorted {
		if len(current) > 0 {
			last := current[len(current)-1]
			if f.Page != last.Page || math.Abs(f.Y0()-last.Y0()) > tolerance {
				flush()
			}
		}
		current = append(current, f)
	}
	flush()

	return rows
}

func buildRow(members []Fragment) NormalizedRow {
	byX := slices.Clone(members)
	slices.SortStableFunc(byX, func(a, b Fragment) int {
		return compareFloat(a.X0(), b.X0())
	})

	texts := make([]string, 0, len(byX))
	minY := byX[0].Y0()
	for _, f := range byX {
		texts = append(texts, f.Text)
		minY = math.Min(minY, f.Y0())
	}

	return NormalizedRow{
		Text: strings.Join(texts, " "),
		Page: byX[0].Page,
		Y:    minY,
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
