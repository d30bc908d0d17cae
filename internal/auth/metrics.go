// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	otpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerd_otp_requests_total",
			Help: "OTP issuance requests by result (sent, throttled, delivery_failed, invalid).",
		},
		[]string{"result"},
	)

	otpVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerd_otp_verifications_total",
			Help: "OTP verification attempts by outcome.",
		},
		[]string{"outcome"},
	)

	sessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerd_sessions_issued_total",
			Help: "Session tokens minted after successful verification.",
		},
	)
)
