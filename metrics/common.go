// Package metrics defines the prometheus collectors reported by the ballot
// service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace is the basic namespace where all metrics are defined under.
	Namespace = "tinyballot"

	subsystemLedger = "ledger"
	subsystemStore  = "store"
)

// NewCounter creates a Counter metrics under the global namespace.
func NewCounter(name, subsystem, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Namespace: Namespace, Subsystem: subsystem, Name: name, Help: help}, labels)
}

// NewGauge creates a Gauge metrics under the global namespace.
func NewGauge(name, subsystem, help string, labels []string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{Namespace: Namespace, Subsystem: subsystem, Name: name, Help: help}, labels)
}

var (
	votesCast = NewCounter("votes_cast_total", subsystemLedger,
		"Votes admitted, by option", []string{"option"})
	votesRejected = NewCounter("votes_rejected_total", subsystemLedger,
		"Vote attempts rejected, by reason", []string{"reason"})
	ledgersCreated = NewCounter("created_total", subsystemLedger,
		"Ledgers created", nil)
	ledgersLoaded = NewGauge("loaded", subsystemLedger,
		"Ledgers currently held in memory", nil)
	storeFailures = NewCounter("failures_total", subsystemStore,
		"Storage operations that returned an error, by operation", []string{"op"})
)

func VoteCast(option string) {
	votesCast.WithLabelValues(option).Inc()
}

func VoteRejected(reason string) {
	votesRejected.WithLabelValues(reason).Inc()
}

func LedgerCreated() {
	ledgersCreated.WithLabelValues().Inc()
}

func SetLedgersLoaded(n int) {
	ledgersLoaded.WithLabelValues().Set(float64(n))
}

func StoreFailure(op string) {
	storeFailures.WithLabelValues(op).Inc()
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
