package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const (
	// DefaultChannel is the pub/sub channel events are published on.
	DefaultChannel = "chains:events"
	// DefaultBuffer is the number of events queued before new ones are dropped.
	DefaultBuffer = 256
)

// Publisher forwards chain lifecycle events to Redis as JSON.
// Hooks only enqueue, so the goroutine driving the chains never waits on the network;
// Run does the publishing.
type Publisher struct {
	client    *backend.Client
	channel   string
	stream    string
	streamLen int64

	events  chan *domain.ChainEvent
	dropped atomic.Int64
	logger  *slog.Logger
}

type Option func(*Publisher)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithStream also appends every event to a capped stream, so late consumers can read
// recent history.
func WithStream(key string, maxLen int64) Option {
	return func(p *Publisher) {
		p.stream = key
		p.streamLen = maxLen
	}
}

// WithBuffer sets the event queue size.
func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.events = make(chan *domain.ChainEvent, n)
		}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a publisher connected to address.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
		events:  make(chan *domain.ChainEvent, DefaultBuffer),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hooks returns lifecycle hooks that queue every event for publishing.
func (p *Publisher) Hooks() domain.LifecycleHooks {
	enqueue := func(_ context.Context, e *domain.ChainEvent) {
		select {
		case p.events <- e:
		default:
			n := p.dropped.Add(1)
			p.logger.Warn("event dropped, publisher queue full", domain.KeyChainID, e.ChainID, "dropped", n)
		}
	}
	return domain.LifecycleHooks{
		OnChainStart:    enqueue,
		OnStepActivate:  enqueue,
		OnChainFinish:   enqueue,
		OnChainStop:     enqueue,
		OnChainReplaced: enqueue,
	}
}

// Dropped returns the number of events lost to a full queue.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Run publishes queued events until ctx is done. Publish failures are logged and
// the event is skipped.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-p.events:
			if err := p.Publish(ctx, e); err != nil {
				p.logger.Error("failed to publish event", domain.KeyChainID, e.ChainID, "error", err)
			}
		}
	}
}

// Publish sends one event right away.
func (p *Publisher) Publish(ctx context.Context, e *domain.ChainEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.stream == "" {
		if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		return nil
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, p.channel, data)
	pipe.XAdd(ctx, &backend.XAddArgs{
		Stream: p.stream,
		MaxLen: p.streamLen,
		Values: map[string]any{
			"type":            string(e.Type),
			domain.KeyChainID: e.ChainID,
			"event":           string(data),
		},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
