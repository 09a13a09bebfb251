// Package worker drives the statement export: it drains ledger events
// from the queue, sweeps rows the queue missed, and audits account
// balances at startup.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"banko/internal/amqp"
	"banko/internal/core"
	"banko/internal/export"
	"banko/internal/storage"
)

// ExportStore is the storage surface the worker needs.
type ExportStore interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	PendingExports(ctx context.Context, limit int) ([]storage.PendingExport, error)
	PendingDeletions(ctx context.Context, limit int) ([]core.Transaction, error)
	DeleteTombstone(ctx context.Context, id string) error
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
	AuditBalances(ctx context.Context) ([]storage.BalanceDrift, error)
	RecomputeBalance(ctx context.Context, userID string) (int64, error)
}

// ExportWorker appends transaction changes to the statement export.
type ExportWorker struct {
	store     ExportStore
	appender  export.Appender
	batchSize int
}

func NewExportWorker(store ExportStore, appender export.Appender, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleLedgerEvent processes one queued event. Returning an error
// requeues the delivery; the row's export flags track the outcome so
// the pending sweep stays authoritative.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"id", msg.ID,
		"action", msg.Action)

	// Deletions carry their row data in the message; there is no row
	// left to load or flag. The tombstone written at delete time is
	// cleared once the reversal is in the export, so a lost or failed
	// delivery leaves it for the pending sweep.
	if msg.Action == amqp.ActionDeleted {
		row := export.RowFor(msg.Action, core.Transaction{
			ID:         msg.ID,
			UserID:     msg.UserID,
			Title:      msg.Title,
			Amount:     core.Money{Cents: msg.AmountCents},
			IsNegative: msg.IsNegative,
			Type:       core.TransactionType(msg.Type),
			Date:       msg.Date,
		})
		if err := w.appender.AppendStatementRow(ctx, row); err != nil {
			return fmt.Errorf("append deletion row: %w", err)
		}
		if err := w.store.DeleteTombstone(ctx, msg.ID); err != nil {
			return fmt.Errorf("clear tombstone: %w", err)
		}
		return nil
	}

	t, err := w.store.GetTransaction(ctx, msg.UserID, msg.ID)
	if err != nil {
		// The row may already be gone; its deletion event follows.
		slog.WarnContext(ctx, "Transaction missing for ledger event",
			"id", msg.ID, "error", err)
		return nil
	}

	if err := w.appender.AppendStatementRow(ctx, export.RowFor(msg.Action, t)); err != nil {
		if markErr := w.store.MarkExportError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to flag export error",
				"id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append statement row: %w", err)
	}

	if err := w.store.MarkExported(ctx, t.ID); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// ProcessPending exports rows and deletion tombstones whose queued
// event was lost or failed. Returns how many rows were appended.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	exported := 0

	tombstones, err := w.store.PendingDeletions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending deletions: %w", err)
	}
	for _, t := range tombstones {
		if err := w.appender.AppendStatementRow(ctx, export.RowFor(amqp.ActionDeleted, t)); err != nil {
			slog.ErrorContext(ctx, "Failed to export deletion reversal",
				"id", t.ID, "error", err)
			continue
		}
		if err := w.store.DeleteTombstone(ctx, t.ID); err != nil {
			return exported, fmt.Errorf("clear tombstone: %w", err)
		}
		exported++
	}

	pending, err := w.store.PendingExports(ctx, w.batchSize)
	if err != nil {
		return exported, fmt.Errorf("load pending exports: %w", err)
	}
	for _, p := range pending {
		if err := w.appender.AppendStatementRow(ctx, export.RowFor(p.Action, p.Tx)); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction",
				"id", p.Tx.ID, "error", err)
			if markErr := w.store.MarkExportError(ctx, p.Tx.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to flag export error",
					"id", p.Tx.ID, "error", markErr)
			}
			continue
		}
		if err := w.store.MarkExported(ctx, p.Tx.ID); err != nil {
			return exported, fmt.Errorf("mark exported: %w", err)
		}
		exported++
	}

	if exported > 0 {
		slog.InfoContext(ctx, "Pending sweep finished", "exported", exported)
	}
	return exported, nil
}

// StartupCheck runs once when the worker boots: it repairs any account
// whose stored balance drifted from its rows, then drains the pending
// backlog.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	drifts, err := w.store.AuditBalances(ctx)
	if err != nil {
		return fmt.Errorf("audit balances: %w", err)
	}
	for _, d := range drifts {
		slog.WarnContext(ctx, "Balance drift detected",
			"user_id", d.UserID,
			"stored", d.Stored,
			"computed", d.Computed)
		if _, err := w.store.RecomputeBalance(ctx, d.UserID); err != nil {
			return fmt.Errorf("repair balance for %s: %w", d.UserID, err)
		}
		slog.InfoContext(ctx, "Balance repaired", "user_id", d.UserID)
	}

	if _, err := w.ProcessPending(ctx); err != nil {
		return err
	}
	return nil
}

// RunPendingSweep re-runs ProcessPending on an interval until ctx
// ends.
func (w *ExportWorker) RunPendingSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}
