package events

import (
	"context"
	"log/slog"
	"time"

	"solarshare/internal/models"
	"solarshare/internal/observability"
	"solarshare/internal/repository"
)

// Handler runs a side effect for a delivered event.
type Handler func(ctx context.Context, ev *models.OutboxEvent) error

// RelayerOptions tunes the polling loop.
type RelayerOptions struct {
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

// Relayer polls the outbox and publishes pending events. Delivery is at least
// once: an event is marked sent only after the sender and its handlers succeed.
type Relayer struct {
	repo      repository.OutboxRepository
	sender    Sender
	handlers  map[string][]Handler
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewRelayer builds a relayer. A nil sender falls back to LogSender.
func NewRelayer(repo repository.OutboxRepository, sender Sender, opts RelayerOptions) *Relayer {
	if sender == nil {
		sender = LogSender
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Relayer{
		repo:      repo,
		sender:    sender,
		handlers:  make(map[string][]Handler),
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
	}
}

// Handle registers h for events of eventType. Not safe to call after Run starts.
func (r *Relayer) Handle(eventType string, h Handler) {
	r.handlers[eventType] = append(r.handlers[eventType], h)
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *Relayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	r.logger.Info("outbox relayer started", slog.Duration("interval", r.interval), slog.Int("batch_size", r.batchSize))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relayer stopped")
			return
		case <-t.C:
			if _, err := r.DrainOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox drain failed", slog.String("error", err.Error()))
			}
		}
	}
}

// DrainOnce relays one batch and returns the number of events marked sent.
func (r *Relayer) DrainOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { observability.OutboxRelayLatency.Observe(time.Since(start).Seconds()) }()

	rows, err := r.repo.ListPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range rows {
		ev := &rows[i]
		if err := r.deliver(ctx, ev); err != nil {
			observability.OutboxDeliveries.WithLabelValues(ev.EventType, "error").Inc()
			r.logger.Warn("outbox delivery failed",
				slog.Uint64("id", uint64(ev.ID)),
				slog.String("event_type", ev.EventType),
				slog.Int("retry", ev.Retry+1),
				slog.String("error", err.Error()),
			)
			if markErr := r.repo.MarkFailed(ctx, ev.ID); markErr != nil {
				return sent, markErr
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ev.ID); err != nil {
			return sent, err
		}
		observability.OutboxDeliveries.WithLabelValues(ev.EventType, "ok").Inc()
		sent++
	}
	return sent, nil
}

func (r *Relayer) deliver(ctx context.Context, ev *models.OutboxEvent) error {
	span, ctx := observability.StartOutboxSpan(ctx, ev.EventType, ev.ID, ev.AggregateID)
	defer span.End()

	if err := r.sender(ctx, ev); err != nil {
		return span.Fail(err)
	}
	for _, h := range r.handlers[ev.EventType] {
		if err := h(ctx, ev); err != nil {
			return span.Fail(err)
		}
	}
	return nil
}
