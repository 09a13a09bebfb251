package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"banko/internal/core"
	"banko/internal/ledger"
)

// DashboardStore is the read surface the dashboard needs.
type DashboardStore interface {
	AllTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	Balance(ctx context.Context, userID string) (balance, initial int64, err error)
}

// Dashboard is the monthly chart series plus the account balance.
type Dashboard struct {
	Months       []ledger.MonthPoint `json:"months"`
	BalanceCents int64               `json:"balanceCents"`
}

// DashboardService computes the aggregated read views.
type DashboardService struct {
	store DashboardStore
	now   func() time.Time
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard returns the monthly in/out series and current balance. An
// empty user id degrades to the placeholder series with zero balance.
func (s *DashboardService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	if userID == "" {
		slog.WarnContext(ctx, "Dashboard requested without user")
		return Dashboard{Months: ledger.GroupByMonth(nil)}, nil
	}

	txs, err := s.store.AllTransactions(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load transactions: %w", err)
	}
	balance, _, err := s.store.Balance(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load balance: %w", err)
	}

	return Dashboard{
		Months:       ledger.GroupByMonth(txs),
		BalanceCents: balance,
	}, nil
}

// Metrics returns the current-month summary with trends.
func (s *DashboardService) Metrics(ctx context.Context, userID string) (ledger.Summary, error) {
	if userID == "" {
		slog.WarnContext(ctx, "Metrics requested without user")
		return ledger.Metrics(nil, s.now()), nil
	}

	txs, err := s.store.AllTransactions(ctx, userID)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("load transactions: %w", err)
	}
	return ledger.Metrics(txs, s.now()), nil
}

// Balance returns the maintained account balance in cents. An empty
// user id degrades to zero, like the other read paths.
func (s *DashboardService) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		slog.WarnContext(ctx, "Balance requested without user")
		return 0, nil
	}
	balance, _, err := s.store.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load balance: %w", err)
	}
	return balance, nil
}
