// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerd_websocket_connections_active",
			Help: "Currently open websocket connections.",
		},
	)

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerd_events_published_total",
			Help: "Events accepted for fan-out, by event name.",
		},
		[]string{"event"},
	)

	eventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerd_events_dropped_total",
			Help: "Events dropped because the publish queue was full.",
		},
		[]string{"event"},
	)
)
