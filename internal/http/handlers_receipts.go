package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"banko/internal/blob"
)

const maxReceiptBytes = 10 << 20 // 10 MiB

type receiptResponse struct {
	ReceiptURL      string `json:"receiptUrl"`
	ReceiptFileName string `json:"receiptFileName"`
}

// handleUploadReceipt stores a multipart "file" upload and returns the
// URL and stored name to attach to a transaction.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		respondError(w, http.StatusBadRequest, "receipts_upload", "malformed multipart body or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "receipts_upload", `missing "file" part`)
		return
	}
	defer file.Close()

	name, err := s.receipts.Save(header.Filename, file)
	if err != nil {
		respondDomainError(w, r, "receipts_upload", err)
		return
	}

	respondJSON(w, http.StatusCreated, receiptResponse{
		ReceiptURL:      "/receipts/" + name,
		ReceiptFileName: name,
	})
}

func (s *Server) handleServeReceipt(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, err := s.receipts.Open(name)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			respondError(w, http.StatusNotFound, "receipts_get", "not found")
			return
		}
		respondDomainError(w, r, "receipts_get", err)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = io.Copy(w, rc)
}
