// Package services orchestrates the domain operations: transaction
// CRUD with ledger event publishing, the aggregated dashboard views,
// and account registration/login.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"banko/internal/amqp"
	"banko/internal/core"
)

// TransactionStore is the storage surface the service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f core.TransactionFilters, cursor string, pageSize int) (core.TransactionPage, error)
}

// EventPublisher pushes ledger events toward the export worker.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// TransactionInput carries the editable fields of a transaction.
type TransactionInput struct {
	Title           string
	AmountCents     int64
	IsNegative      bool
	Type            core.TransactionType
	Date            time.Time
	ReceiptURL      string
	ReceiptFileName string
}

// TransactionService orchestrates transaction writes across storage
// and the event queue.
type TransactionService struct {
	store  TransactionStore
	events EventPublisher
	now    func() time.Time
}

func NewTransactionService(store TransactionStore, events EventPublisher) *TransactionService {
	return &TransactionService{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new transaction, then publishes its
// ledger event. A failed publish never fails the request; the worker's
// pending sweep picks the row up later.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.ErrNoUser
	}

	now := s.now()
	t := core.Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           in.Title,
		Amount:          core.Money{Cents: in.AmountCents},
		IsNegative:      in.IsNegative,
		Type:            in.Type,
		Date:            in.Date,
		ReceiptURL:      in.ReceiptURL,
		ReceiptFileName: in.ReceiptFileName,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.ActionCreated, t)
	return t, nil
}

// Update replaces a transaction's editable fields.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in TransactionInput) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.ErrNoUser
	}

	t := core.Transaction{
		ID:              id,
		UserID:          userID,
		Title:           in.Title,
		Amount:          core.Money{Cents: in.AmountCents},
		IsNegative:      in.IsNegative,
		Type:            in.Type,
		Date:            in.Date,
		ReceiptURL:      in.ReceiptURL,
		ReceiptFileName: in.ReceiptFileName,
		UpdatedAt:       s.now(),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	stored, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, amqp.ActionUpdated, stored)
	return stored, nil
}

// Delete removes a transaction. The published event carries the
// deleted row's data so the export can record the reversal.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.ErrNoUser
	}

	deleted, err := s.store.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, amqp.ActionDeleted, deleted)
	return deleted, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.store.GetTransaction(ctx, userID, id)
}

// List returns one page of a user's transactions. An empty user id
// yields an empty page rather than an error so stale sessions degrade
// to "no data" instead of failing the client.
func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilters, cursor string, pageSize int) (core.TransactionPage, error) {
	if userID == "" {
		slog.WarnContext(ctx, "List called without user, returning empty page")
		return core.TransactionPage{Items: []core.Transaction{}}, nil
	}
	if err := f.Validate(); err != nil {
		return core.TransactionPage{}, err
	}
	return s.store.ListTransactions(ctx, userID, f, cursor, pageSize)
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported  int      `json:"imported"`
	Defaulted int      `json:"defaulted"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Import normalizes and stores a batch of raw records, typically
// exported from the app's previous backend. Records that fail
// validation after normalization are skipped, not fatal.
func (s *TransactionService) Import(ctx context.Context, userID string, records []map[string]any) (ImportResult, error) {
	if userID == "" {
		return ImportResult{}, core.ErrNoUser
	}

	var res ImportResult
	for i, raw := range records {
		n := core.Normalize(raw)
		t := n.Transaction
		t.UserID = userID
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		now := s.now()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now

		if len(n.Defaulted) > 0 {
			res.Defaulted++
			slog.WarnContext(ctx, "Imported record needed defaults",
				"index", i, "fields", n.Defaulted)
		}

		if err := t.Validate(); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}

		if err := s.store.CreateTransaction(ctx, t); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		s.publish(ctx, amqp.ActionCreated, t)
		res.Imported++
	}
	return res, nil
}

func (s *TransactionService) publish(ctx context.Context, action string, t core.Transaction) {
	if s.events == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping ledger event")
		return
	}
	msg := &amqp.LedgerEventMessage{
		ID:          t.ID,
		Action:      action,
		UserID:      t.UserID,
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		IsNegative:  t.IsNegative,
		Type:        string(t.Type),
		Date:        t.Date,
		Timestamp:   s.now(),
	}
	if err := s.events.PublishLedgerEvent(ctx, msg); err != nil {
		// The export worker's pending sweep will catch the row.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"id", t.ID, "action", action, "error", err)
	}
}
