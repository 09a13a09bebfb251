// Package export defines the outbound statement-export port and the
// factory that selects its backend.
package export

import (
	"context"
	"time"

	"banko/internal/core"
	"banko/internal/ledger"
)

// StatementRow is one line of the exported account statement.
type StatementRow struct {
	Date   time.Time
	Title  string
	Reais  float64 // signed, outflows negative
	Type   string  // display label
	Action string  // created, updated, deleted
	UserID string
	TxID   string
}

// Appender writes statement rows to the export destination.
type Appender interface {
	AppendStatementRow(ctx context.Context, row StatementRow) error
}

// RowFor builds the statement row recording an action on t. The export
// is an append-only action log, not a ledger: updates append the row's
// full new state rather than a delta, and deletions append the signed
// amount reversed.
func RowFor(action string, t core.Transaction) StatementRow {
	signed := ledger.SignedCents(t)
	if action == "deleted" {
		signed = -signed
	}
	return StatementRow{
		Date:   t.Date,
		Title:  t.Title,
		Reais:  float64(signed) / 100.0,
		Type:   t.Type.Label(),
		Action: action,
		UserID: t.UserID,
		TxID:   t.ID,
	}
}
