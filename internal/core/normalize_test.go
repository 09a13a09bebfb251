package core

import (
	"testing"
	"time"
)

func TestNormalizeCleanRecord(t *testing.T) {
	raw := map[string]any{
		"id":         "tx-1",
		"userId":     "user-1",
		"title":      "Mercado",
		"amount":     42.5,
		"isNegative": true,
		"type":       "pix",
		"date":       "2024-09-15T00:00:00Z",
	}

	n := Normalize(raw)
	if !n.Clean() {
		t.Fatalf("defaulted fields: %v", n.Defaulted)
	}
	tx := n.Transaction
	if tx.ID != "tx-1" || tx.UserID != "user-1" || tx.Title != "Mercado" {
		t.Errorf("identity fields = %+v", tx)
	}
	if tx.Amount.Cents != 4250 || !tx.IsNegative || tx.Type != TypePix {
		t.Errorf("value fields = %+v", tx)
	}
	if !tx.Date.Equal(time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", tx.Date)
	}
}

func TestNormalizeDateShapes(t *testing.T) {
	want := time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		date any
	}{
		{"iso string", "2024-09-05T00:00:00Z"},
		{"bare date string", "2024-09-05"},
		{"epoch seconds float", float64(1725494400)},
		{"firestore wrapper", map[string]any{"seconds": float64(1725494400)}},
		{"native time", want},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := Normalize(map[string]any{
				"title": "x", "amount": 1.0, "isNegative": false, "type": "pix",
				"date": tc.date,
			})
			if !n.Clean() {
				t.Fatalf("defaulted: %v", n.Defaulted)
			}
			if !n.Transaction.Date.Equal(want) {
				t.Errorf("date = %v, want %v", n.Transaction.Date, want)
			}
		})
	}
}

func TestNormalizeUnparsableDateFallsBackToNow(t *testing.T) {
	before := time.Now().UTC()
	n := Normalize(map[string]any{
		"title": "x", "amount": 1.0, "isNegative": false, "type": "pix",
		"date": "not a date",
	})
	after := time.Now().UTC()

	if n.Clean() {
		t.Fatal("expected date to be marked defaulted")
	}
	d := n.Transaction.Date
	if d.Before(before) || d.After(after) {
		t.Errorf("fallback date %v not between %v and %v", d, before, after)
	}
}

func TestNormalizeSignHandling(t *testing.T) {
	// Explicit flag wins over the amount's sign.
	n := Normalize(map[string]any{
		"title": "x", "amount": -50.0, "isNegative": false, "type": "pix",
		"date": "2024-09-05",
	})
	if n.Transaction.IsNegative {
		t.Error("explicit isNegative=false was overridden")
	}
	if n.Transaction.Amount.Cents != 5000 {
		t.Errorf("amount = %d, want magnitude 5000", n.Transaction.Amount.Cents)
	}

	// Missing flag is derived from the sign and marked defaulted.
	n = Normalize(map[string]any{
		"title": "x", "amount": -50.0, "type": "pix", "date": "2024-09-05",
	})
	if !n.Transaction.IsNegative {
		t.Error("sign not derived from negative amount")
	}
	if n.Clean() {
		t.Error("derived isNegative should be marked defaulted")
	}
}

func TestNormalizeAmountShapes(t *testing.T) {
	tests := []struct {
		name   string
		amount any
		want   int64
	}{
		{"float", 12.34, 1234},
		{"int", 12, 1200},
		{"decimal string", "12,34", 1234},
		{"missing", nil, 0},
		{"garbage string", "muitos reais", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := map[string]any{
				"title": "x", "isNegative": false, "type": "pix", "date": "2024-09-05",
			}
			if tc.amount != nil {
				raw["amount"] = tc.amount
			}
			n := Normalize(raw)
			if n.Transaction.Amount.Cents != tc.want {
				t.Errorf("amount = %d, want %d", n.Transaction.Amount.Cents, tc.want)
			}
		})
	}
}

func TestNormalizeUnknownTypeDefaultsToCartao(t *testing.T) {
	n := Normalize(map[string]any{
		"title": "x", "amount": 1.0, "isNegative": false, "type": "cheque",
		"date": "2024-09-05",
	})
	if n.Transaction.Type != TypeCartao {
		t.Errorf("type = %s, want cartao", n.Transaction.Type)
	}
	if n.Clean() {
		t.Error("unknown type should be marked defaulted")
	}
}

func TestNormalizeEmptyRecord(t *testing.T) {
	n := Normalize(map[string]any{})
	if n.Clean() {
		t.Fatal("empty record should default amount, isNegative, type, and date")
	}
	tx := n.Transaction
	if tx.Amount.Cents != 0 || tx.IsNegative || tx.Type != TypeCartao {
		t.Errorf("transaction = %+v", tx)
	}
	if tx.Date.IsZero() {
		t.Error("date fallback should be now, not zero")
	}
}
