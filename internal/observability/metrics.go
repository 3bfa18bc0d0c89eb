package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarshare_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of active live-tally connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solarshare_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarshare_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// CommunitiesCreated counts communities created.
	CommunitiesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarshare_communities_created_total",
		Help: "Total number of communities created",
	})

	// CommunityJoins counts join attempts by outcome.
	CommunityJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarshare_community_joins_total",
		Help: "Community join attempts by outcome",
	}, []string{"outcome"})

	// EnergyEntriesSubmitted counts stored consumption rows.
	EnergyEntriesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarshare_energy_entries_submitted_total",
		Help: "Total number of energy consumption entries stored",
	})

	// QuotesSubmitted counts provider quotes.
	QuotesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarshare_quotes_submitted_total",
		Help: "Total number of provider quotes submitted",
	})

	// VotesCast counts vote upserts; switched is "true" when a member changed their choice.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarshare_votes_cast_total",
		Help: "Total number of votes cast",
	}, []string{"switched"})

	// VotingClosed counts quote requests closed with a selected provider.
	VotingClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarshare_voting_closed_total",
		Help: "Total number of quote requests closed",
	})

	// TallyCacheLookups counts tally cache hits and misses.
	TallyCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarshare_tally_cache_lookups_total",
		Help: "Vote tally cache lookups by result",
	}, []string{"result"})

	// OutboxDeliveries counts relayed outbox events by event type and result.
	OutboxDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarshare_outbox_deliveries_total",
		Help: "Outbox event deliveries by type and result",
	}, []string{"event_type", "result"})

	// OutboxRelayLatency records the duration of one relay batch.
	OutboxRelayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solarshare_outbox_relay_seconds",
		Help:    "Duration of one outbox relay batch",
		Buckets: prometheus.DefBuckets,
	})

	// MailsSent counts outgoing mail by template and result.
	MailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarshare_mails_sent_total",
		Help: "Outgoing mail by template and result",
	}, []string{"template", "result"})
)
