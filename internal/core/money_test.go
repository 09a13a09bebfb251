package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"-12.34", -1234, false},
		{"+12.34", 1234, false},
		{"12.346", 1235, false}, // half-up on the third decimal
		{"12.344", 1234, false},
		{"12", 1200, false},
		{"12.3", 1230, false},
		{"0,5", 50, false},
		{".5", 50, false},
		{"3.500,00", 350000, false}, // pt-BR thousands separator
		{"3,500.00", 350000, false},
		{"1.234.567,89", 123456789, false},
		{"", 0, true},
		{"abc", 0, true},
		{"12.34.56,7.8", 0, true},
		{"12.", 1200, false},
		{"--5", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatReais(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "R$ 12,34"},
		{100000, "R$ 1000,00"},
		{5, "R$ 0,05"},
		{0, "R$ 0,00"},
		{-1234, "-R$ 12,34"},
	}
	for _, tc := range tests {
		if got := FormatReais(tc.cents); got != tc.want {
			t.Errorf("FormatReais(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyReais(t *testing.T) {
	if got := (Money{Cents: 4250}).Reais(); got != 42.50 {
		t.Errorf("Reais = %v, want 42.5", got)
	}
}
