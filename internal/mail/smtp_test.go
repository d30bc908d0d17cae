// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package mail

import (
	"strings"
	"testing"

	"github.com/hbarton/ledgerd/internal/config"
)

func TestNewSMTPMailerExplicitConfig(t *testing.T) {
	m, err := NewSMTPMailer(config.MailConfig{
		SMTPHost: "mail.example.com",
		SMTPPort: 2525,
		SMTPUser: "ledger",
		SMTPPass: "s3cret",
		From:     "noreply@example.com",
	})
	if err != nil {
		t.Fatalf("NewSMTPMailer() error = %v", err)
	}
	if m.host != "mail.example.com" || m.port != 2525 {
		t.Errorf("endpoint = %s:%d", m.host, m.port)
	}
	if m.from != "noreply@example.com" {
		t.Errorf("from = %q", m.from)
	}
}

func TestNewSMTPMailerProviderFallback(t *testing.T) {
	m, err := NewSMTPMailer(config.MailConfig{
		EmailUser: "sender@gmail.com",
		EmailPass: "app-password",
	})
	if err != nil {
		t.Fatalf("NewSMTPMailer() error = %v", err)
	}
	if m.host != "smtp.gmail.com" || m.port != 587 {
		t.Errorf("endpoint = %s:%d, want smtp.gmail.com:587", m.host, m.port)
	}
	if m.from != "sender@gmail.com" {
		t.Errorf("from = %q, want sender address", m.from)
	}
}

func TestNewSMTPMailerUnconfigured(t *testing.T) {
	if _, err := NewSMTPMailer(config.MailConfig{}); err == nil {
		t.Error("NewSMTPMailer() with empty config should fail")
	}
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		contains []string
		excludes []string
	}{
		{
			name: "text only",
			msg:  Message{To: "to@example.com", Subject: "Your code", Text: "123456"},
			contains: []string{
				"From: from@example.com\r\n",
				"To: to@example.com\r\n",
				"Subject: Your code\r\n",
				"Content-Type: text/plain; charset=UTF-8",
				"123456",
			},
			excludes: []string{"multipart"},
		},
		{
			name: "html only",
			msg:  Message{To: "to@example.com", Subject: "s", HTML: "<b>123456</b>"},
			contains: []string{
				"Content-Type: text/html; charset=UTF-8",
				"<b>123456</b>",
			},
			excludes: []string{"multipart"},
		},
		{
			name: "multipart",
			msg:  Message{To: "to@example.com", Subject: "s", Text: "plain", HTML: "<b>rich</b>"},
			contains: []string{
				"multipart/alternative",
				"Content-Type: text/plain; charset=UTF-8",
				"Content-Type: text/html; charset=UTF-8",
				"plain",
				"<b>rich</b>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildMessage("from@example.com", tt.msg)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("message missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("message should not contain %q", bad)
				}
			}
		})
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	if _, ok := r.Last(); ok {
		t.Error("empty recorder should have no last message")
	}
	_ = r.Send(t.Context(), Message{To: "a@example.com", Subject: "one"})
	_ = r.Send(t.Context(), Message{To: "b@example.com", Subject: "two"})

	last, ok := r.Last()
	if !ok || last.Subject != "two" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
	if got := r.Messages(); len(got) != 2 {
		t.Errorf("Messages() len = %d, want 2", len(got))
	}
}
