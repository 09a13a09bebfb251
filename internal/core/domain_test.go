package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionTypeLabel(t *testing.T) {
	tests := []struct {
		typ  TransactionType
		want string
	}{
		{TypeCartao, "Cartão"},
		{TypeBoleto, "Boleto"},
		{TypePix, "Pix"},
		{TransactionType("cheque"), "N/A"},
		{TransactionType(""), "N/A"},
	}
	for _, tc := range tests {
		if got := tc.typ.Label(); got != tc.want {
			t.Errorf("Label(%q) = %q, want %q", tc.typ, got, tc.want)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in     string
		want   TransactionType
		wantOK bool
	}{
		{"pix", TypePix, true},
		{"  PIX  ", TypePix, true},
		{"Cartao", TypeCartao, true},
		{"boleto", TypeBoleto, true},
		{"cheque", TypeCartao, false},
		{"", TypeCartao, false},
	}
	for _, tc := range tests {
		got, ok := ParseType(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseType(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Title:  "Mercado",
		Amount: Money{Cents: 4250},
		Type:   TypePix,
		Date:   time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"empty title", func(tx *Transaction) { tx.Title = "  " }, ErrEmptyTitle},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -100 }, ErrInvalidAmount},
		{"unknown type", func(tx *Transaction) { tx.Type = "cheque" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrZeroDate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}

	t.Run("title too long", func(t *testing.T) {
		tx := valid
		tx.Title = string(make([]byte, 201))
		if err := tx.Validate(); err == nil {
			t.Error("201-byte title accepted")
		}
	})
}

func TestUserValidate(t *testing.T) {
	valid := User{Name: "Maria", Email: "maria@example.com"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}

	tests := []struct {
		name    string
		user    User
		wantErr error
	}{
		{"empty name", User{Name: " ", Email: "maria@example.com"}, ErrEmptyName},
		{"empty email", User{Name: "Maria", Email: ""}, ErrInvalidEmail},
		{"email without at", User{Name: "Maria", Email: "maria.example.com"}, ErrInvalidEmail},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.user.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTransactionFiltersValidate(t *testing.T) {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filters TransactionFilters
		wantErr bool
	}{
		{"empty", TransactionFilters{}, false},
		{"direction entrada", TransactionFilters{Direction: DirectionEntrada}, false},
		{"direction all", TransactionFilters{Direction: DirectionAll}, false},
		{"bad direction", TransactionFilters{Direction: "sideways"}, true},
		{"type pix", TransactionFilters{Type: "pix"}, false},
		{"type all passthrough", TransactionFilters{Type: "all"}, false},
		{"bad type", TransactionFilters{Type: "cheque"}, true},
		{"valid range", TransactionFilters{Start: &end, End: &start}, false},
		{"end before start", TransactionFilters{Start: &start, End: &end}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.filters.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
