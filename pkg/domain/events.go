package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventChainStart    EventType = "chain_start"
	EventStepActivate  EventType = "step_activate"
	EventChainFinish   EventType = "chain_finish"
	EventChainStop     EventType = "chain_stop"
	EventChainReplaced EventType = "chain_replaced"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ID        string    `json:"id,omitempty"`
}

// ChainEvent describes a transition in a chain's lifecycle.
type ChainEvent struct {
	EventBase
	ChainID string    `json:"chain_id"`
	Mode    ChainMode `json:"mode,omitempty"`
	Step    int       `json:"step"`
	Steps   int       `json:"steps"`
	Forced  bool      `json:"forced,omitempty"`
}

// LifecycleHooks defines callbacks for chain observability.
// Hooks run synchronously on the goroutine that drives the registry.
type LifecycleHooks struct {
	OnChainStart    func(context.Context, *ChainEvent)
	OnStepActivate  func(context.Context, *ChainEvent)
	OnChainFinish   func(context.Context, *ChainEvent)
	OnChainStop     func(context.Context, *ChainEvent)
	OnChainReplaced func(context.Context, *ChainEvent)
}

// MergeHooks fans every event out to each of the given hook sets, in order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	pick := func(get func(LifecycleHooks) func(context.Context, *ChainEvent)) func(context.Context, *ChainEvent) {
		var fns []func(context.Context, *ChainEvent)
		for _, s := range sets {
			if fn := get(s); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *ChainEvent) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}

	return LifecycleHooks{
		OnChainStart:    pick(func(h LifecycleHooks) func(context.Context, *ChainEvent) { return h.OnChainStart }),
		OnStepActivate:  pick(func(h LifecycleHooks) func(context.Context, *ChainEvent) { return h.OnStepActivate }),
		OnChainFinish:   pick(func(h LifecycleHooks) func(context.Context, *ChainEvent) { return h.OnChainFinish }),
		OnChainStop:     pick(func(h LifecycleHooks) func(context.Context, *ChainEvent) { return h.OnChainStop }),
		OnChainReplaced: pick(func(h LifecycleHooks) func(context.Context, *ChainEvent) { return h.OnChainReplaced }),
	}
}

// Emit dispatches the event to the hook matching its type, if any.
func (h LifecycleHooks) Emit(ctx context.Context, e *ChainEvent) {
	var fn func(context.Context, *ChainEvent)
	switch e.Type {
	case EventChainStart:
		fn = h.OnChainStart
	case EventStepActivate:
		fn = h.OnStepActivate
	case EventChainFinish:
		fn = h.OnChainFinish
	case EventChainStop:
		fn = h.OnChainStop
	case EventChainReplaced:
		fn = h.OnChainReplaced
	}
	if fn != nil {
		fn(ctx, e)
	}
}
