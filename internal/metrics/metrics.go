package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Marketplace
	PurchasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_purchases_total",
			Help: "Total completed credit purchases",
		},
	)
	PurchaseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_purchase_failures_total",
			Help: "Total rejected purchase attempts",
		},
		[]string{"reason"},
	)

	// Credit lifecycle
	CreditsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_created_total",
			Help: "Total credits registered by producers",
		},
	)
	CreditsValidated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_validated_total",
			Help: "Total auditor validation decisions",
		},
		[]string{"result"}, // APPROVED|REJECTED
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler for the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(PurchasesTotal)
	prometheus.MustRegister(PurchaseFailures)
	prometheus.MustRegister(CreditsCreated)
	prometheus.MustRegister(CreditsValidated)
	prometheus.MustRegister(WorkerQueueDepth)
}
