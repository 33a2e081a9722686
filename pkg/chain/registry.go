package chain

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/google/uuid"
)

// Registry maps chain ids to live chains and enforces at most one live chain per id.
// It is owned by the host and is not safe for concurrent use.
type Registry struct {
	chains    map[string]*Chain
	scheduler Scheduler
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	ctx       context.Context
	now       func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		chains:    make(map[string]*Chain),
		scheduler: timeScheduler{},
		logger:    logging.NewNop(),
		ctx:       context.Background(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// New creates a chain and registers it under id. An empty id gets a generated one.
// If id is held by a live chain, that chain is stopped with forced completion before
// the new one takes the slot.
func (r *Registry) New(id string, onCompleted func()) *Chain {
	if id == "" {
		id = uuid.NewString()
	}

	if old, ok := r.chains[id]; ok {
		if old.finished {
			// Natural completion in progress: its teardown will not touch the new holder.
			delete(r.chains, id)
		} else {
			r.logger.Warn("chain replaced", "chain_id", id)
			r.emit(domain.EventChainReplaced, old, old.cursor, true)
			old.Stop(true)
		}
	}

	c := &Chain{
		id:          id,
		reg:         r,
		mode:        domain.ModeSequential,
		onCompleted: onCompleted,
	}
	r.chains[id] = c
	return c
}

// Get returns the live chain registered under id.
func (r *Registry) Get(id string) (*Chain, bool) {
	c, ok := r.chains[id]
	return c, ok
}

// Has reports whether a live chain is registered under id.
func (r *Registry) Has(id string) bool {
	_, ok := r.chains[id]
	return ok
}

// Len returns the number of live chains.
func (r *Registry) Len() int {
	return len(r.chains)
}

// IDs returns the ids of the live chains, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot returns the info of every live chain, sorted by id.
func (r *Registry) Snapshot() []domain.ChainInfo {
	infos := make([]domain.ChainInfo, 0, len(r.chains))
	for _, id := range r.IDs() {
		infos = append(infos, r.chains[id].Info())
	}
	return infos
}

// Stop stops the chain registered under id. Unknown ids are ignored.
func (r *Registry) Stop(id string, forceComplete bool) {
	if c, ok := r.chains[id]; ok {
		c.Stop(forceComplete)
	}
}

// StopAll stops every live chain without forcing completion.
func (r *Registry) StopAll() {
	for _, id := range r.IDs() {
		if c, ok := r.chains[id]; ok {
			c.Stop(false)
		}
	}
}

// IsFinished reports whether the chain under id has finished. Unknown ids are
// vacuously finished.
func (r *Registry) IsFinished(id string) bool {
	if c, ok := r.chains[id]; ok {
		return c.finished
	}
	return true
}

// remove deletes id only while it still maps to c, so a chain never evicts its successor.
func (r *Registry) remove(id string, c *Chain) {
	if cur, ok := r.chains[id]; ok && cur == c {
		delete(r.chains, id)
	}
}

func (r *Registry) event(typ domain.EventType, c *Chain, step int, forced bool) *domain.ChainEvent {
	return &domain.ChainEvent{
		EventBase: domain.EventBase{
			Timestamp: r.now(),
			Type:      typ,
			ID:        uuid.NewString(),
		},
		ChainID: c.id,
		Mode:    c.mode,
		Step:    step,
		Steps:   len(c.steps),
		Forced:  forced,
	}
}

func (r *Registry) emit(typ domain.EventType, c *Chain, step int, forced bool) {
	r.publish(r.event(typ, c, step, forced))
}

func (r *Registry) publish(e *domain.ChainEvent) {
	r.hooks.Emit(r.ctx, e)
}
