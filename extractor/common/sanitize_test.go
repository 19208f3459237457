package common

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "KINSHO STORE", "KINSHO STORE"},
		{"trim and collapse", "  KINSHO   STORE  ", "KINSHO STORE"},
		{"tabs and newlines stripped", "KINSHO\tSTORE\nJP", "KINSHOSTOREJP"},
		{"tab beside space", "KINSHO \tSTORE", "KINSHO STORE"},
		{"no-break space", "KINSHO\u00a0STORE", "KINSHO STORE"},
		{"narrow no-break space", "KINSHO\u202fSTORE", "KINSHO STORE"},
		{"zero width space stripped", "KINSHO\u200bSTORE", "KINSHOSTORE"},
		{"byte order mark stripped", "\ufeffKINSHO STORE", "KINSHO STORE"},
		{"control characters", "KIN\x00SHO\x1b STORE\x7f", "KINSHO STORE"},
		{"c1 controls", "KINSHO\u0085\u009f STORE", "KINSHO STORE"},
		{"thai kept", "วันที่ใช้บัตร  ", "วันที่ใช้บัตร"},
		{"only whitespace", " \t  ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
