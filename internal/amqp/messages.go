package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEventMessage notifies the worker that a transaction changed.
// It carries the row data itself because for deletions there is no
// longer a database row to fetch.
type LedgerEventMessage struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	AmountCents int64     `json:"amountCents"`
	IsNegative  bool      `json:"isNegative"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
