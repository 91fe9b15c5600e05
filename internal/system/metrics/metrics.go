// Package metrics holds the prometheus collectors exported by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Idempotency outcomes
const (
	IdempotencyReplayed = "replayed"
	IdempotencyProceed  = "proceed"
	IdempotencyStale    = "stale"
	IdempotencyRejected = "rejected"
	IdempotencyRecorded = "recorded"
	IdempotencyError    = "error"
)

type Metrics struct {
	ConsentsInitiated        *prometheus.CounterVec
	ConsentStatusTransitions *prometheus.CounterVec
	AuthorisationAggregates  *prometheus.CounterVec
	IdempotencyOutcomes      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConsentsInitiated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "berlin_consents_initiated_total",
			Help: "Total number of consents initiated, by consent type",
		}, []string{"consent_type"}),
		ConsentStatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "berlin_consent_status_transitions_total",
			Help: "Total number of consent status changes, by consent type and new status",
		}, []string{"consent_type", "status"}),
		AuthorisationAggregates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "berlin_authorisation_aggregates_total",
			Help: "Total number of authorisation aggregations, by consent type, auth type and result",
		}, []string{"consent_type", "auth_type", "aggregate"}),
		IdempotencyOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "berlin_idempotency_outcomes_total",
			Help: "Total number of idempotency cache decisions, by outcome",
		}, []string{"outcome"}),
		gatherer: reg,
	}
}

// NewNoop returns metrics registered against a private registry.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncrementConsentsInitiated(consentType string) {
	m.ConsentsInitiated.WithLabelValues(consentType).Inc()
}

func (m *Metrics) IncrementStatusTransition(consentType, status string) {
	m.ConsentStatusTransitions.WithLabelValues(consentType, status).Inc()
}

func (m *Metrics) IncrementAggregate(consentType, authType, aggregate string) {
	m.AuthorisationAggregates.WithLabelValues(consentType, authType, aggregate).Inc()
}

func (m *Metrics) IncrementIdempotency(outcome string) {
	m.IdempotencyOutcomes.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
