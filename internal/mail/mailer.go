// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package mail delivers transactional email over SMTP.
package mail

import "context"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends messages. Implementations must respect ctx cancellation
// during connection and delivery.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
