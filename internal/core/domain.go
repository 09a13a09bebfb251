package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeCartao TransactionType = "cartao"
	TypeBoleto TransactionType = "boleto"
	TypePix    TransactionType = "pix"
)

const (
	DirectionAll     = "all"
	DirectionEntrada = "entrada"
	DirectionSaida   = "saida"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single inflow or outflow movement of one user.
	// Amount always holds the magnitude; IsNegative carries the sign.
	Transaction struct {
		ID              string
		UserID          string
		Title           string
		Amount          Money
		IsNegative      bool
		Type            TransactionType
		Date            time.Time
		ReceiptURL      string
		ReceiptFileName string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// TransactionFilters narrows a user's transaction listing.
	// Zero values mean "no constraint"; Direction uses the
	// entrada/saida vocabulary of the mobile client.
	TransactionFilters struct {
		Type      string
		Direction string
		Start     *time.Time
		End       *time.Time
	}

	// TransactionPage is one page of a cursor-based listing. HasMore is
	// false exactly when the store returned a short page.
	TransactionPage struct {
		Items      []Transaction
		NextCursor string
		HasMore    bool
	}
)

var (
	ErrEmptyTitle     = errors.New("empty title")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrZeroDate       = errors.New("date cannot be zero")
	ErrNoUser         = errors.New("no authenticated user")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidEmail   = errors.New("invalid email")
	ErrShortPassword  = errors.New("password too short")
	ErrEmailTaken     = errors.New("email already registered")
	ErrNotFound       = errors.New("not found")
	ErrBadCredentials = errors.New("invalid credentials")
)

// typeLabels maps stored type values to their display labels.
var typeLabels = map[TransactionType]string{
	TypeCartao: "Cartão",
	TypeBoleto: "Boleto",
	TypePix:    "Pix",
}

// Label returns the display name of the payment type, or "N/A" for an
// unknown value.
func (t TransactionType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return "N/A"
}

// Valid reports whether t is one of the three known payment types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeCartao, TypeBoleto, TypePix:
		return true
	}
	return false
}

// ParseType coerces a free-form string to a TransactionType, defaulting
// to cartao for anything unknown.
func ParseType(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t, true
	}
	return TypeCartao, false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Reais returns the value in reais for display purposes. Use cents for
// any arithmetic.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// Validate checks a transaction as submitted through the form flow.
// The normalizer deliberately skips this: imported legacy records are
// accepted with defaulted fields.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	email := strings.TrimSpace(u.Email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Validate rejects filter combinations the store cannot serve.
func (f TransactionFilters) Validate() error {
	switch f.Direction {
	case "", DirectionAll, DirectionEntrada, DirectionSaida:
	default:
		return errors.New("invalid direction filter")
	}
	if f.Type != "" && f.Type != DirectionAll {
		if !(TransactionType(f.Type)).Valid() {
			return ErrInvalidType
		}
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return errors.New("end date before start date")
	}
	return nil
}
