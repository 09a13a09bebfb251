// Package ledger implements the pure aggregation and balance
// reconciliation logic over a user's transactions: monthly bucketing
// for charts, month-over-month trends, and the incremental deltas that
// keep the stored account balance consistent with the transaction set.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"banko/internal/core"
)

// NoDataLabel is the placeholder bucket label returned for an empty
// transaction set, so chart consumers never receive an empty series.
const NoDataLabel = "Sem dados"

// MonthPoint is one chart bucket: all transactions of a calendar month
// summed by direction. Amounts are magnitudes in cents.
type MonthPoint struct {
	Month   string `json:"month"`
	Inflow  int64  `json:"inflow"`
	Outflow int64  `json:"outflow"`
}

// Summary holds the dashboard metrics for the current calendar month.
// Trends compare against the immediately preceding month and are nil
// when that month has no data to compare against.
type Summary struct {
	MonthInflow  int64    `json:"monthInflow"`
	MonthOutflow int64    `json:"monthOutflow"`
	InflowTrend  *float64 `json:"inflowTrend"`
	OutflowTrend *float64 `json:"outflowTrend"`
	MostUsedType string   `json:"mostUsedType"`
	Total        int      `json:"totalTransactions"`
}

// SumByDirection sums the magnitude of every transaction matching the
// wanted direction. Callers pre-filter by period before calling.
func SumByDirection(txs []core.Transaction, wantOutflow bool) int64 {
	var sum int64
	for _, t := range txs {
		if t.IsNegative == wantOutflow {
			sum += abs(t.Amount.Cents)
		}
	}
	return sum
}

// MonthKey formats a date as "YYYY-MM". The 4-digit-year-first layout
// makes lexical order equal chronological order, which GroupByMonth
// relies on when sorting buckets.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// GroupByMonth partitions transactions into calendar-month buckets,
// ascending. Every transaction lands in exactly one bucket. An empty
// input yields a single NoDataLabel placeholder so downstream chart
// renderers always have a series to draw.
func GroupByMonth(txs []core.Transaction) []MonthPoint {
	if len(txs) == 0 {
		return []MonthPoint{{Month: NoDataLabel}}
	}

	buckets := make(map[string]*MonthPoint)
	for _, t := range txs {
		key := MonthKey(t.Date)
		p, ok := buckets[key]
		if !ok {
			p = &MonthPoint{Month: key}
			buckets[key] = p
		}
		if t.IsNegative {
			p.Outflow += abs(t.Amount.Cents)
		} else {
			p.Inflow += abs(t.Amount.Cents)
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthPoint, len(keys))
	for i, k := range keys {
		out[i] = *buckets[k]
	}
	return out
}

// TrendPercent returns the percentage change of current versus
// previous, or nil when there is no previous-period data to compare
// against. The raw sign is kept for both directions; any red/green
// polarity flip for outflows is presentation, not arithmetic.
func TrendPercent(current, previous int64) *float64 {
	if previous == 0 {
		return nil
	}
	pct := float64(current-previous) / float64(previous) * 100
	return &pct
}

// MostFrequentType returns the display label of the most used payment
// type, "N/A" when there are no transactions. Ties break toward the
// type encountered first, which a map iteration cannot guarantee, so
// counting keeps explicit insertion order.
func MostFrequentType(txs []core.Transaction) string {
	counts := make(map[core.TransactionType]int)
	var order []core.TransactionType
	for _, t := range txs {
		if _, seen := counts[t.Type]; !seen {
			order = append(order, t.Type)
		}
		counts[t.Type]++
	}

	best := ""
	bestCount := 0
	for _, typ := range order {
		if counts[typ] > bestCount {
			best = typ.Label()
			bestCount = counts[typ]
		}
	}
	if best == "" {
		return "N/A"
	}
	return best
}

// Metrics computes the dashboard summary for the month containing now.
func Metrics(txs []core.Transaction, now time.Time) Summary {
	curYear, curMonth := now.Year(), now.Month()
	prevYear, prevMonth := curYear, curMonth-1
	if curMonth == time.January {
		prevYear, prevMonth = curYear-1, time.December
	}

	var current, previous []core.Transaction
	for _, t := range txs {
		switch {
		case t.Date.Year() == curYear && t.Date.Month() == curMonth:
			current = append(current, t)
		case t.Date.Year() == prevYear && t.Date.Month() == prevMonth:
			previous = append(previous, t)
		}
	}

	inflow := SumByDirection(current, false)
	outflow := SumByDirection(current, true)

	return Summary{
		MonthInflow:  inflow,
		MonthOutflow: outflow,
		InflowTrend:  TrendPercent(inflow, SumByDirection(previous, false)),
		OutflowTrend: TrendPercent(outflow, SumByDirection(previous, true)),
		MostUsedType: MostFrequentType(txs),
		Total:        len(txs),
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
