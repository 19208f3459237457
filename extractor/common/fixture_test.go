package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFixture(t *testing.T) {
	input := `# header comment
1|10|Card Number: 1234-XXXX-XXXX-5678

1|20.5|Statement Date: 01/01/2026
2|100| A|B with pipes 
`
	rows, err := ReadFixture(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []NormalizedRow{
		{Text: "Card Number: 1234-XXXX-XXXX-5678", Page: 1, Y: 10},
		{Text: "Statement Date: 01/01/2026", Page: 1, Y: 20.5},
		{Text: "A|B with pipes", Page: 2, Y: 100},
	}, rows)
}

func TestReadFixture_Errors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"1|10", "line 1: expected page|y|text"},
		{"# ok\nx|10|text", "line 2: invalid page"},
		{"1|top|text", "line 1: invalid y"},
	}

	for _, tt := range tests {
		_, err := ReadFixture(strings.NewReader(tt.input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), tt.msg)
	}
}

func TestWriteFixture_RoundTrip(t *testing.T) {
	rows := []NormalizedRow{
		{Text: "08/12/2025 11/12/2025 KINSHO 393.71", Page: 1, Y: 210.25},
		{Text: "JPY 2,580.00", Page: 2, Y: 12},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFixture(&buf, rows))
	assert.Equal(t, "1|210.25|08/12/2025 11/12/2025 KINSHO 393.71\n2|12|JPY 2,580.00\n", buf.String())

	back, err := ReadFixture(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}
