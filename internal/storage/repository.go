// Package storage persists users, accounts, and transactions in
// SQLite. Balance maintenance is transactional: every write to the
// transactions table adjusts the owning account's balance in the same
// database transaction, so the stored balance can never drift from the
// rows under normal operation.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"banko/internal/core"
	"banko/internal/ledger"

	_ "modernc.org/sqlite"
)

// DefaultPageSize is the transaction page size served to clients.
const DefaultPageSize = 10

const txColumns = `id, user_id, title, amount_cents, is_negative, type, date,
	receipt_url, receipt_file_name, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations brings the schema up to date. It opens its own
// connection so the repository's pool never sees a half-applied
// migration.
func runMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("assemble migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts the user and their account, seeded with the
// initial balance, atomically.
func (r *Repository) CreateUser(ctx context.Context, u core.User, passwordHash string, initialCents int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), passwordHash, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (user_id, balance_cents, initial_cents, updated_at) VALUES (?, ?, ?, ?)`,
		u.ID, initialCents, initialCents, now)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID)
	return nil
}

// GetUserByEmail returns the user and their password hash.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, string, error) {
	var u core.User
	var hash string
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(email)).Scan(&u.ID, &u.Name, &u.Email, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", core.ErrNotFound
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, hash, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	var u core.User
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`,
		id).Scan(&u.ID, &u.Name, &u.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

// CreateTransaction inserts the row and applies its signed amount to
// the account balance in one database transaction.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (`+txColumns+`, export_pending, export_action)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 'created')`,
		t.ID, t.UserID, t.Title, t.Amount.Cents, t.IsNegative, string(t.Type),
		t.Date.UnixMilli(), t.ReceiptURL, t.ReceiptFileName,
		t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := adjustBalance(ctx, tx, t.UserID, ledger.CreateDelta(t)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"amount_cents", t.Amount.Cents,
		"is_negative", t.IsNegative)
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND id = ?`,
		userID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction replaces the row's editable fields and shifts the
// account balance by the difference between the old and new signed
// amounts. Returns the stored result.
func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND id = ?`,
		t.UserID, t.ID)
	old, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	t.CreatedAt = old.CreatedAt
	_, err = tx.ExecContext(ctx,
		`UPDATE transactions
		 SET title = ?, amount_cents = ?, is_negative = ?, type = ?, date = ?,
		     receipt_url = ?, receipt_file_name = ?, updated_at = ?,
		     export_pending = 1, export_action = 'updated'
		 WHERE user_id = ? AND id = ?`,
		t.Title, t.Amount.Cents, t.IsNegative, string(t.Type), t.Date.UnixMilli(),
		t.ReceiptURL, t.ReceiptFileName, t.UpdatedAt.UnixMilli(),
		t.UserID, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := adjustBalance(ctx, tx, t.UserID, ledger.UpdateDelta(old, t)); err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", t.ID, "user_id", t.UserID)
	return t, nil
}

// DeleteTransaction removes the row, reverses its balance
// contribution, and returns the deleted row so callers can publish it.
// A tombstone is written in the same database transaction: the deleted
// row leaves the transactions table, so the statement reversal needs
// its own durable record until the export worker appends it.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND id = ?`,
		userID, id)
	old, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO export_tombstones (id, user_id, title, amount_cents, is_negative, type, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		old.ID, userID, old.Title, old.Amount.Cents, old.IsNegative, string(old.Type),
		old.Date.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert tombstone: %w", err)
	}

	if err := adjustBalance(ctx, tx, userID, ledger.DeleteDelta(old)); err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return old, nil
}

// ListTransactions returns one page ordered by (date DESC, id DESC),
// optionally filtered, resuming after the given cursor.
func (r *Repository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilters, cursorStr string, pageSize int) (core.TransactionPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	query := `SELECT ` + txColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}

	// "all" is the client's explicit no-constraint value, same as empty.
	if f.Type != "" && f.Type != core.DirectionAll {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	switch f.Direction {
	case core.DirectionEntrada:
		query += ` AND is_negative = 0`
	case core.DirectionSaida:
		query += ` AND is_negative = 1`
	}
	if f.Start != nil {
		query += ` AND date >= ?`
		args = append(args, f.Start.UnixMilli())
	}
	if f.End != nil {
		query += ` AND date <= ?`
		args = append(args, f.End.UnixMilli())
	}
	if cursorStr != "" {
		c, err := decodeCursor(cursorStr)
		if err != nil {
			return core.TransactionPage{}, err
		}
		query += ` AND (date < ? OR (date = ? AND id < ?))`
		args = append(args, c.Date, c.Date, c.ID)
	}

	// One extra row decides hasMore without a second query.
	query += ` ORDER BY date DESC, id DESC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return core.TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var items []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return core.TransactionPage{}, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return core.TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}

	page := core.TransactionPage{Items: items}
	if len(items) > pageSize {
		page.Items = items[:pageSize]
		page.HasMore = true
		last := page.Items[pageSize-1]
		page.NextCursor = encodeCursor(last.Date.UnixMilli(), last.ID)
	}
	return page, nil
}

// AllTransactions returns every transaction of a user, newest first.
func (r *Repository) AllTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("all transactions: %w", err)
	}
	defer rows.Close()

	var items []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all transactions: %w", err)
	}
	return items, nil
}

// Balance returns the maintained and initial balance of an account.
func (r *Repository) Balance(ctx context.Context, userID string) (balance, initial int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT balance_cents, initial_cents FROM accounts WHERE user_id = ?`,
		userID).Scan(&balance, &initial)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, core.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, initial, nil
}

// RecomputeBalance rederives the balance from the transaction rows and
// stores it, repairing any drift. Returns the recomputed value.
func (r *Repository) RecomputeBalance(ctx context.Context, userID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var initial int64
	err = tx.QueryRowContext(ctx,
		`SELECT initial_cents FROM accounts WHERE user_id = ?`, userID).Scan(&initial)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}

	var signed sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT SUM(CASE WHEN is_negative THEN -amount_cents ELSE amount_cents END)
		 FROM transactions WHERE user_id = ?`, userID).Scan(&signed)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}

	computed := initial + signed.Int64
	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = ?, updated_at = ? WHERE user_id = ?`,
		computed, time.Now().UnixMilli(), userID)
	if err != nil {
		return 0, fmt.Errorf("store balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return computed, nil
}

// BalanceDrift reports an account whose stored balance disagrees with
// the sum of its transactions.
type BalanceDrift struct {
	UserID   string
	Stored   int64
	Computed int64
}

// AuditBalances compares every account's stored balance against the
// value recomputed from its rows.
func (r *Repository) AuditBalances(ctx context.Context) ([]BalanceDrift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.user_id, a.balance_cents,
		        a.initial_cents + COALESCE(SUM(CASE WHEN t.is_negative THEN -t.amount_cents ELSE t.amount_cents END), 0)
		 FROM accounts a
		 LEFT JOIN transactions t ON t.user_id = a.user_id
		 GROUP BY a.user_id
		 HAVING a.balance_cents <> a.initial_cents + COALESCE(SUM(CASE WHEN t.is_negative THEN -t.amount_cents ELSE t.amount_cents END), 0)`)
	if err != nil {
		return nil, fmt.Errorf("audit balances: %w", err)
	}
	defer rows.Close()

	var drifts []BalanceDrift
	for rows.Next() {
		var d BalanceDrift
		if err := rows.Scan(&d.UserID, &d.Stored, &d.Computed); err != nil {
			return nil, fmt.Errorf("scan drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit balances: %w", err)
	}
	return drifts, nil
}

// PendingExport is a row awaiting statement export together with the
// action that queued it, so the sweep labels a re-queued edit as an
// update rather than a fresh creation.
type PendingExport struct {
	Tx     core.Transaction
	Action string
}

// PendingExports returns transactions not yet appended to the
// statement export, oldest first.
func (r *Repository) PendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+`, export_action FROM transactions
		 WHERE export_pending = 1 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending exports: %w", err)
	}
	defer rows.Close()

	var items []PendingExport
	for rows.Next() {
		var p PendingExport
		var typ string
		var date, createdAt, updatedAt int64
		err := rows.Scan(&p.Tx.ID, &p.Tx.UserID, &p.Tx.Title, &p.Tx.Amount.Cents,
			&p.Tx.IsNegative, &typ, &date, &p.Tx.ReceiptURL, &p.Tx.ReceiptFileName,
			&createdAt, &updatedAt, &p.Action)
		if err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		p.Tx.Type = core.TransactionType(typ)
		p.Tx.Date = time.UnixMilli(date).UTC()
		p.Tx.CreatedAt = time.UnixMilli(createdAt).UTC()
		p.Tx.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending exports: %w", err)
	}
	return items, nil
}

// PendingDeletions returns tombstones of deleted transactions whose
// statement reversal has not been appended yet, oldest first.
func (r *Repository) PendingDeletions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, amount_cents, is_negative, type, date
		 FROM export_tombstones ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending deletions: %w", err)
	}
	defer rows.Close()

	var items []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var typ string
		var date int64
		err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Amount.Cents,
			&t.IsNegative, &typ, &date)
		if err != nil {
			return nil, fmt.Errorf("scan tombstone: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Date = time.UnixMilli(date).UTC()
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending deletions: %w", err)
	}
	return items, nil
}

// DeleteTombstone removes a tombstone once its reversal row is in the
// export. Deleting an already-drained tombstone is a no-op.
func (r *Repository) DeleteTombstone(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM export_tombstones WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tombstone: %w", err)
	}
	return nil
}

// MarkExported clears a transaction's pending flag.
func (r *Repository) MarkExported(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_pending = 0, export_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError flags a transaction whose export append failed. The
// pending flag stays set so the next sweep retries it.
func (r *Repository) MarkExportError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var t core.Transaction
	var typ string
	var date, createdAt, updatedAt int64
	err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Amount.Cents, &t.IsNegative, &typ,
		&date, &t.ReceiptURL, &t.ReceiptFileName, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Date = time.UnixMilli(date).UTC()
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return t, nil
}

// adjustBalance shifts the account balance inside the caller's
// transaction. A zero rows-affected result means the account row is
// missing, which create/update/delete treat as an unknown user.
func adjustBalance(ctx context.Context, tx *sql.Tx, userID string, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ? WHERE user_id = ?`,
		delta, time.Now().UnixMilli(), userID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if n == 0 {
		return core.ErrNoUser
	}
	return nil
}
