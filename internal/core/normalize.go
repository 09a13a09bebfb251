package core

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Normalized is the tagged result of coercing a raw document into a
// Transaction. Defaulted lists the fields that could not be read and
// fell back to a safe value; an empty list means the record was clean.
type Normalized struct {
	Transaction Transaction
	Defaulted   []string
}

// Clean reports whether the record was normalized without any fallback.
func (n Normalized) Clean() bool {
	return len(n.Defaulted) == 0
}

// Normalize coerces a raw document, as exported from the legacy
// Firestore backend, into a Transaction.
//
// Dates arrive as ISO-8601 strings, epoch seconds, {"seconds": N}
// wrapper objects, or native times; anything unparsable falls back to
// now. A missing or non-numeric amount resolves to zero. The isNegative
// flag is authoritative for the sign: the amount contributes only its
// magnitude. When the flag is absent it is derived from the amount's
// sign, inflow being the default.
//
// Malformed input never produces an error; leniency here is
// intentional.
func Normalize(raw map[string]any) Normalized {
	var n Normalized

	n.Transaction.ID = stringField(raw, "id")
	n.Transaction.UserID = stringField(raw, "userId")
	n.Transaction.Title = stringField(raw, "title")

	amount, amountOK := numericField(raw["amount"])
	if !amountOK {
		n.fallback("amount")
		amount = 0
	}

	if v, ok := raw["isNegative"].(bool); ok {
		n.Transaction.IsNegative = v
	} else {
		// Some revisions stored signed amounts with no flag.
		n.Transaction.IsNegative = amount < 0
		n.fallback("isNegative")
	}
	n.Transaction.Amount = Money{Cents: int64(math.Round(math.Abs(amount) * 100))}

	typ, ok := ParseType(stringField(raw, "type"))
	n.Transaction.Type = typ
	if !ok {
		n.fallback("type")
	}

	date, ok := normalizeDate(raw["date"])
	n.Transaction.Date = date
	if !ok {
		n.fallback("date")
	}

	n.Transaction.ReceiptURL = stringField(raw, "receiptUrl")
	n.Transaction.ReceiptFileName = stringField(raw, "receiptFileName")

	if t, ok := normalizeDate(raw["createdAt"]); ok {
		n.Transaction.CreatedAt = t
	}
	if t, ok := normalizeDate(raw["updatedAt"]); ok {
		n.Transaction.UpdatedAt = t
	}

	return n
}

func (n *Normalized) fallback(field string) {
	n.Defaulted = append(n.Defaulted, field)
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// numericField accepts the number representations JSON decoding can
// produce, plus decimal strings.
func numericField(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		cents, err := ParseDecimalToCents(x)
		if err != nil {
			return 0, false
		}
		return float64(cents) / 100.0, true
	}
	return 0, false
}

// normalizeDate resolves the date representations observed across the
// legacy exports. It returns ok=false when the fallback to now was
// taken.
func normalizeDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if !x.IsZero() {
			return x, true
		}
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", x); err == nil {
			return t, true
		}
	case float64:
		if x > 0 {
			return time.Unix(int64(x), 0).UTC(), true
		}
	case int64:
		if x > 0 {
			return time.Unix(x, 0).UTC(), true
		}
	case json.Number:
		if secs, err := x.Int64(); err == nil && secs > 0 {
			return time.Unix(secs, 0).UTC(), true
		}
	case map[string]any:
		// Firestore timestamp wrapper: {"seconds": N, "nanoseconds": M}.
		if secs, ok := numericField(x["seconds"]); ok && secs > 0 {
			return time.Unix(int64(secs), 0).UTC(), true
		}
	}
	return time.Now().UTC(), false
}
