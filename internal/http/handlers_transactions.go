package http

import (
	"net/http"
	"strings"
	"time"

	"banko/internal/core"
	"banko/internal/services"
	"banko/internal/storage"
)

type transactionRequest struct {
	Title           string      `json:"title"`
	Amount          amountField `json:"amount"`
	IsNegative      *bool       `json:"isNegative"`
	Type            string      `json:"type"`
	Date            string      `json:"date"`
	ReceiptURL      string      `json:"receiptUrl"`
	ReceiptFileName string      `json:"receiptFileName"`
}

// toInput converts the wire shape into service input. An explicit
// isNegative wins over the amount's sign; unknown payment types fall
// back to card, matching how legacy records are normalized.
func (req transactionRequest) toInput() (services.TransactionInput, error) {
	var date time.Time
	if v := strings.TrimSpace(req.Date); v != "" {
		var err error
		date, err = parseDateParam(v)
		if err != nil {
			return services.TransactionInput{}, err
		}
	}

	negative := req.Amount.negative
	if req.IsNegative != nil {
		negative = *req.IsNegative
	}

	typ, _ := core.ParseType(req.Type)

	return services.TransactionInput{
		Title:           sanitizeInput(req.Title),
		AmountCents:     req.Amount.cents,
		IsNegative:      negative,
		Type:            typ,
		Date:            date,
		ReceiptURL:      sanitizeInput(req.ReceiptURL),
		ReceiptFileName: sanitizeInput(req.ReceiptFileName),
	}, nil
}

type transactionResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Amount          float64 `json:"amount"` // magnitude in reais
	IsNegative      bool    `json:"isNegative"`
	Type            string  `json:"type"`
	TypeLabel       string  `json:"typeLabel"`
	Date            string  `json:"date"`
	ReceiptURL      string  `json:"receiptUrl,omitempty"`
	ReceiptFileName string  `json:"receiptFileName,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

type pageResponse struct {
	Items      []transactionResponse `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
	HasMore    bool                  `json:"hasMore"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		Title:           t.Title,
		Amount:          t.Amount.Reais(),
		IsNegative:      t.IsNegative,
		Type:            string(t.Type),
		TypeLabel:       t.Type.Label(),
		Date:            t.Date.UTC().Format(time.RFC3339),
		ReceiptURL:      t.ReceiptURL,
		ReceiptFileName: t.ReceiptFileName,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toPageResponse(p core.TransactionPage) pageResponse {
	items := make([]transactionResponse, len(p.Items))
	for i, t := range p.Items {
		items[i] = toTransactionResponse(t)
	}
	return pageResponse{Items: items, NextCursor: p.NextCursor, HasMore: p.HasMore}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	// The client labels each fetch (initial, load_more, refresh) so its
	// error handling can tell them apart; echo that label back.
	source := sanitizeInput(r.URL.Query().Get("source"))
	if source == "" {
		source = "transactions_list"
	}

	key := userID + "|" + r.URL.RawQuery
	if page, ok := s.listCache.Get(key); ok {
		respondJSON(w, http.StatusOK, toPageResponse(page))
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, source, err.Error())
		return
	}

	page, err := s.transactions.List(r.Context(), userID, filters,
		strings.TrimSpace(r.URL.Query().Get("cursor")),
		parsePageSize(r, storage.DefaultPageSize))
	if err != nil {
		respondDomainError(w, r, source, err)
		return
	}

	s.listCache.Set(key, page)
	respondJSON(w, http.StatusOK, toPageResponse(page))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "transactions_create", "malformed request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "transactions_create", err.Error())
		return
	}

	userID := UserID(r.Context())
	created, err := s.transactions.Create(r.Context(), userID, in)
	if err != nil {
		respondDomainError(w, r, "transactions_create", err)
		return
	}

	s.invalidateUser(userID)
	respondJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, "transactions_get", err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "transactions_update", "malformed request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "transactions_update", err.Error())
		return
	}

	userID := UserID(r.Context())
	updated, err := s.transactions.Update(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		respondDomainError(w, r, "transactions_update", err)
		return
	}

	s.invalidateUser(userID)
	respondJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	deleted, err := s.transactions.Delete(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, "transactions_delete", err)
		return
	}

	// Remove the orphaned receipt, if any. Best effort.
	if deleted.ReceiptFileName != "" && s.receipts != nil {
		_ = s.receipts.Delete(deleted.ReceiptFileName)
	}

	s.invalidateUser(userID)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	var records []map[string]any
	if err := decodeJSON(r, &records); err != nil {
		respondError(w, http.StatusBadRequest, "transactions_import", "malformed request body")
		return
	}

	userID := UserID(r.Context())
	res, err := s.transactions.Import(r.Context(), userID, records)
	if err != nil {
		respondDomainError(w, r, "transactions_import", err)
		return
	}

	s.invalidateUser(userID)
	respondJSON(w, http.StatusOK, res)
}
