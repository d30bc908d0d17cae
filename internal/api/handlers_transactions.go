// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hbarton/ledgerd/internal/auth"
	"github.com/hbarton/ledgerd/internal/logging"
	"github.com/hbarton/ledgerd/internal/models"
	"github.com/hbarton/ledgerd/internal/realtime"
	"github.com/hbarton/ledgerd/internal/store"
	"github.com/hbarton/ledgerd/internal/validation"
)

type transactionRequest struct {
	Description string                 `json:"description" validate:"required,max=100"`
	Amount      float64                `json:"amount" validate:"required"`
	Category    string                 `json:"category" validate:"required"`
	Type        models.TransactionType `json:"type" validate:"required,oneof=income expense"`
	Date        time.Time              `json:"date"`
}

func (req *transactionRequest) toModel() *models.Transaction {
	return &models.Transaction{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        req.Type,
		Date:        req.Date,
	}
}

// transactionPatch mirrors models.TransactionPatch for request
// decoding; absent fields stay nil and are not applied.
type transactionPatch struct {
	Description *string                 `json:"description" validate:"omitempty,max=100"`
	Amount      *float64                `json:"amount"`
	Category    *string                 `json:"category"`
	Type        *models.TransactionType `json:"type" validate:"omitempty,oneof=income expense"`
	Date        *time.Time              `json:"date"`
}

func (req *transactionPatch) toPatch() *models.TransactionPatch {
	return &models.TransactionPatch{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        req.Type,
		Date:        req.Date,
	}
}

// filterFromQuery builds a TransactionFilter from list query params.
// Unparseable values are ignored rather than rejected.
func filterFromQuery(r *http.Request) *models.TransactionFilter {
	q := r.URL.Query()
	f := &models.TransactionFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	if t := models.TransactionType(q.Get("type")); t.Valid() {
		f.Type = t
	}
	if v := q.Get("from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = ts
		}
	}
	if v := q.Get("to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = ts
		}
	}
	if v := q.Get("min_amount"); v != "" {
		if amt, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinAmount = &amt
		}
	}
	if v := q.Get("max_amount"); v != "" {
		if amt, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxAmount = &amt
		}
	}
	return f
}

// handleListTransactions returns the caller's transactions, newest
// first, optionally filtered.
//
// GET /api/transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	txns, err := s.transactions.List(id.UserID, filterFromQuery(r))
	if err != nil {
		logging.Err(err).Msg("failed to list transactions")
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, txns)
}

// handleCreateTransaction creates a transaction and notifies the
// owner's live connections.
//
// POST /api/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := s.transactions.Create(id.UserID, req.toModel())
	if err != nil {
		logging.Err(err).Msg("failed to create transaction")
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.hub.Publish(id.UserID, realtime.EventTransactionCreated, txn)
	respondJSON(w, http.StatusOK, txn)
}

// handleGetTransaction returns one transaction owned by the caller.
//
// GET /api/transactions/{id}
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	txn, err := s.transactions.Get(id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			respondMsg(w, http.StatusNotFound, "Transaction not found")
			return
		}
		logging.Err(err).Msg("failed to get transaction")
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

// handleUpdateTransaction applies a partial update to a transaction.
// Absent fields keep their stored values.
//
// PUT /api/transactions/{id}
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req transactionPatch
	if err := decodeJSON(r, &req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := s.transactions.Update(id.UserID, chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			respondMsg(w, http.StatusNotFound, "Transaction not found")
			return
		}
		logging.Err(err).Msg("failed to update transaction")
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.hub.Publish(id.UserID, realtime.EventTransactionUpdated, txn)
	respondJSON(w, http.StatusOK, txn)
}

// handleDeleteTransaction removes a transaction.
//
// DELETE /api/transactions/{id}
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	txnID := chi.URLParam(r, "id")

	if err := s.transactions.Delete(id.UserID, txnID); err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			respondMsg(w, http.StatusNotFound, "Transaction not found")
			return
		}
		logging.Err(err).Msg("failed to delete transaction")
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.hub.Publish(id.UserID, realtime.EventTransactionDeleted, map[string]string{"id": txnID})
	respondMsg(w, http.StatusOK, "Transaction removed")
}
