package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cet_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	TicketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cet_tickets_sold_total",
			Help: "Total tickets sold (sum of quantities)",
		},
	)

	SoldOutRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cet_sold_out_rejections_total",
			Help: "Purchases rejected for insufficient remaining capacity",
		},
	)

	ApprovalDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cet_approval_decisions_total",
			Help: "Moderation decisions on pending event requests",
		},
		[]string{"decision"},
	)

	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cet_events_published_total",
			Help: "Events made publicly bookable",
		},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cet_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cet_outbox_lag_seconds",
			Help: "Age of the most recently published outbox record",
		},
	)

	RabbitPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cet_rabbit_publish_retries_total",
			Help: "Total rabbit publish retries",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cet_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
