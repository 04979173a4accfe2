/*
Package metrics exposes prometheus collectors for the channel/message engine.

Collectors are registered on the default registry; Handler serves them for scraping.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flockr"

// Message creation paths.
const (
	PathSend    = "send"
	PathLater   = "later"
	PathStandup = "standup"
)

var (
	// MessagesCreated counts messages appended to a channel log, by path.
	MessagesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_created_total",
		Help:      "Messages appended to channel logs.",
	}, []string{"path"})

	// MessagesRemoved counts messages removed by remove, edit-to-empty or prune.
	MessagesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_removed_total",
		Help:      "Messages removed from channel logs.",
	})

	// StandupsStarted counts opened standup windows.
	StandupsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "standups_started_total",
		Help:      "Standup windows opened.",
	})

	// StandupsFlushed counts standup windows that closed with a packaged message.
	StandupsFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "standups_flushed_total",
		Help:      "Standup windows that produced a packaged message.",
	})

	// DeferredPending tracks scheduled tasks that have not fired yet.
	DeferredPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "deferred_tasks_pending",
		Help:      "Deferred deliveries waiting for their timer.",
	})

	// DeferredDropped counts deferred tasks that fired after their channel was gone.
	DeferredDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deferred_tasks_dropped_total",
		Help:      "Deferred deliveries dropped because the target no longer exists.",
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
