// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package models defines the persistent entities shared across stores,
// handlers and the realtime hub.
package models

import (
	"strings"
	"time"
)

// TransactionType is the direction of money movement.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// User is an account created lazily on the first successful OTP
// verification for an email address.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	FamilyID  string    `json:"familyId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns the client-facing projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name}
}

// UserSummary is the shape returned by the auth endpoints.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NormalizeEmail lowercases and trims an email address. All lookups and
// throttle keys operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NameFromEmail derives a display name from the local part of an email
// address ("ada.l@example.com" -> "ada.l").
func NameFromEmail(email string) string {
	email = NormalizeEmail(email)
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// Transaction is a single ledger entry owned by exactly one user.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Description string          `json:"description" validate:"required,max=100"`
	Amount      float64         `json:"amount" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Type        TransactionType `json:"type" validate:"required,oneof=income expense"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionPatch carries a partial update. Nil fields are left
// untouched.
type TransactionPatch struct {
	Description *string          `json:"description" validate:"omitempty,max=100"`
	Amount      *float64         `json:"amount"`
	Category    *string          `json:"category"`
	Type        *TransactionType `json:"type" validate:"omitempty,oneof=income expense"`
	Date        *time.Time       `json:"date"`
}

// Apply copies the set fields of the patch onto txn.
func (p *TransactionPatch) Apply(txn *Transaction) {
	if p.Description != nil {
		txn.Description = *p.Description
	}
	if p.Amount != nil {
		txn.Amount = *p.Amount
	}
	if p.Category != nil {
		txn.Category = *p.Category
	}
	if p.Type != nil {
		txn.Type = *p.Type
	}
	if p.Date != nil {
		txn.Date = *p.Date
	}
}

// TransactionFilter narrows List results. Zero values mean "no
// constraint" for every field.
type TransactionFilter struct {
	Category  string
	Type      TransactionType
	From      time.Time
	To        time.Time
	MinAmount *float64
	MaxAmount *float64
	Search    string
}

// Match reports whether txn satisfies every set constraint.
func (f *TransactionFilter) Match(txn *Transaction) bool {
	if f.Category != "" && !strings.EqualFold(txn.Category, f.Category) {
		return false
	}
	if f.Type != "" && txn.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && txn.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && txn.Date.After(f.To) {
		return false
	}
	if f.MinAmount != nil && txn.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && txn.Amount > *f.MaxAmount {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(txn.Description), needle) &&
			!strings.Contains(strings.ToLower(txn.Category), needle) {
			return false
		}
	}
	return true
}
