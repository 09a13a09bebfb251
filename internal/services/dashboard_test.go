package services

import (
	"context"
	"testing"
	"time"

	"banko/internal/core"
	"banko/internal/ledger"
)

type fakeDashboardStore struct {
	txs     []core.Transaction
	balance int64
}

func (f *fakeDashboardStore) AllTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDashboardStore) Balance(_ context.Context, userID string) (int64, int64, error) {
	return f.balance, InitialBalanceCents, nil
}

func dashTx(userID string, cents int64, negative bool, typ core.TransactionType, date string) core.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return core.Transaction{
		UserID:     userID,
		Amount:     core.Money{Cents: cents},
		IsNegative: negative,
		Type:       typ,
		Date:       d,
	}
}

func TestDashboard(t *testing.T) {
	store := &fakeDashboardStore{
		balance: 123456,
		txs: []core.Transaction{
			dashTx("user-1", 10000, false, core.TypePix, "2024-09-15"),
			dashTx("user-1", 3000, true, core.TypeCartao, "2024-10-02"),
			dashTx("user-2", 99999, false, core.TypePix, "2024-09-01"),
		},
	}
	svc := NewDashboardService(store)

	d, err := svc.Dashboard(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.BalanceCents != 123456 {
		t.Errorf("BalanceCents = %d, want 123456", d.BalanceCents)
	}
	want := []ledger.MonthPoint{
		{Month: "2024-09", Inflow: 10000},
		{Month: "2024-10", Outflow: 3000},
	}
	if len(d.Months) != len(want) {
		t.Fatalf("got %d months, want %d", len(d.Months), len(want))
	}
	for i := range want {
		if d.Months[i] != want[i] {
			t.Errorf("month %d = %+v, want %+v", i, d.Months[i], want[i])
		}
	}
}

func TestDashboardEmptyUser(t *testing.T) {
	svc := NewDashboardService(&fakeDashboardStore{})

	d, err := svc.Dashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(d.Months) != 1 || d.Months[0].Month != ledger.NoDataLabel {
		t.Errorf("Months = %+v, want the placeholder series", d.Months)
	}
	if d.BalanceCents != 0 {
		t.Errorf("BalanceCents = %d, want 0", d.BalanceCents)
	}
}

func TestBalanceEmptyUserFailsSoft(t *testing.T) {
	svc := NewDashboardService(&fakeDashboardStore{balance: 123456})

	cents, err := svc.Balance(context.Background(), "")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if cents != 0 {
		t.Errorf("cents = %d, want 0", cents)
	}
}

func TestMetricsUsesFrozenClock(t *testing.T) {
	store := &fakeDashboardStore{
		txs: []core.Transaction{
			dashTx("user-1", 20000, false, core.TypePix, "2024-10-05"),
			dashTx("user-1", 10000, false, core.TypePix, "2024-09-05"),
		},
	}
	svc := NewDashboardService(store)
	svc.now = func() time.Time { return time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC) }

	m, err := svc.Metrics(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.MonthInflow != 20000 {
		t.Errorf("MonthInflow = %d, want 20000", m.MonthInflow)
	}
	if m.InflowTrend == nil || *m.InflowTrend != 100 {
		t.Errorf("InflowTrend = %v, want 100", m.InflowTrend)
	}
	if m.MostUsedType != "Pix" {
		t.Errorf("MostUsedType = %q, want Pix", m.MostUsedType)
	}
}
