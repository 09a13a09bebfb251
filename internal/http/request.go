package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"banko/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// amountField accepts a monetary amount as either a JSON number of
// reais (42.5) or a decimal string ("42,50"). The sign is captured
// separately so the isNegative flag can stay authoritative.
type amountField struct {
	cents    int64
	negative bool
	set      bool
}

func (a *amountField) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}

	var cents int64
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		var err error
		cents, err = core.ParseDecimalToCents(str)
		if err != nil {
			return err
		}
	} else {
		var reais float64
		if err := json.Unmarshal(b, &reais); err != nil {
			return err
		}
		if math.IsNaN(reais) || math.IsInf(reais, 0) {
			return errors.New("invalid amount")
		}
		cents = int64(math.Round(reais * 100))
	}

	a.negative = cents < 0
	if cents < 0 {
		cents = -cents
	}
	a.cents = cents
	a.set = true
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// parseDateParam accepts RFC 3339 or a bare YYYY-MM-DD.
func parseDateParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), nil
}

// parseFilters reads the list query parameters. The end date is
// clamped to the end of its day so a user picking "until 2024-09-30"
// sees that whole day.
func parseFilters(r *http.Request) (core.TransactionFilters, error) {
	q := r.URL.Query()
	f := core.TransactionFilters{
		Type:      strings.TrimSpace(q.Get("type")),
		Direction: strings.TrimSpace(q.Get("direction")),
	}

	if v := strings.TrimSpace(q.Get("start")); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return f, err
		}
		f.Start = &t
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return f, err
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.End = &t
	}
	return f, nil
}

func parsePageSize(r *http.Request, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get("pageSize"))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 100 {
		return fallback
	}
	return n
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
