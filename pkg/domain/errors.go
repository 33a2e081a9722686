package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyChain is returned when a chain is started without any step at the cursor.
var ErrEmptyChain = errors.New("chain has no step at cursor")

// ErrMissingAction is raised when an activated step carries no action.
var ErrMissingAction = errors.New("step has no action")

// ErrChainNotFound is returned by adapters when no live chain holds the requested id.
var ErrChainNotFound = errors.New("chain not found")

// ErrLoopClosed is returned when work is submitted to a loop that no longer runs.
var ErrLoopClosed = errors.New("loop closed")

// ErrUnknownClip is returned when an audio id is not present in the catalog.
var ErrUnknownClip = errors.New("unknown audio clip")

// ErrUnknownAction is returned when a call step names an action nobody registered.
var ErrUnknownAction = errors.New("unknown action")

// ErrDuplicateClip is returned when two catalog entries resolve to the same namespaced id.
var ErrDuplicateClip = errors.New("duplicate audio clip")

// ErrInvalidScenario is returned when a scenario document fails validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// ConfigError reports a chain that was built or driven in a way that cannot run.
// It is fatal: the core never skips a broken step, since that would desynchronize
// the number of completion signals a parallel chain waits for.
type ConfigError struct {
	ChainID string
	Cursor  int
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chain %q: cursor %d: %v", e.ChainID, e.Cursor, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AsConfigError extracts a *ConfigError from an arbitrary recovered value.
func AsConfigError(v any) (*ConfigError, bool) {
	err, ok := v.(error)
	if !ok {
		return nil, false
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}

// NotFoundError reports a lookup of an id that no live chain holds.
// Suggestion is the closest live id, if any is close enough to be a likely typo.
type NotFoundError struct {
	ID         string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("chain %q not found, did you mean %q?", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("chain %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrChainNotFound
}
