package audio

import (
	"time"

	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
)

// Namespace is a view of a Manager that prefixes every clip name.
type Namespace struct {
	m      *Manager
	prefix string
}

// Namespace returns a view whose ids are resolved as prefix + " " + name.
func (m *Manager) Namespace(prefix string) *Namespace {
	return &Namespace{m: m, prefix: NamespacePrefix(prefix)}
}

func (n *Namespace) id(name string) string {
	return n.prefix + name
}

// Play plays the namespaced clip. See Manager.Play.
func (n *Namespace) Play(name string, volume float64, onFinished func()) time.Duration {
	return n.m.Play(n.id(name), volume, onFinished)
}

// Stop silences the namespaced clip.
func (n *Namespace) Stop(name string) {
	n.m.Stop(n.id(name))
}

// Has reports whether the namespaced clip is in the catalog.
func (n *Namespace) Has(name string) bool {
	return n.m.Has(n.id(name))
}

// Remaining returns how long the namespaced clip has left to play.
func (n *Namespace) Remaining(name string) time.Duration {
	return n.m.Remaining(n.id(name))
}

// Duration returns the full length of the namespaced clip.
func (n *Namespace) Duration(name string) time.Duration {
	return n.m.Duration(n.id(name))
}

// PlayStep returns a blocking chain step that plays the clip under id and completes
// when it ends. Stopping the chain, with or without forced completion, silences the
// clip if this step is still the one playing it.
func (m *Manager) PlayStep(id string, volume float64) chain.Step {
	s := &clipStep{m: m, id: id, volume: volume}
	return chain.Step{
		Action:        s.act,
		Cancel:        s,
		ForceComplete: s.Stop,
		Mode:          domain.StepBlocking,
	}
}

// clipStep adapts one playback of a clip to chain.Cancelable.
type clipStep struct {
	m      *Manager
	id     string
	volume float64

	active bool
	play   int
}

func (s *clipStep) act(done func()) {
	s.m.Play(s.id, s.volume, done)
	if c, ok := s.m.clips[s.id]; ok && c.playing {
		s.active = true
		s.play = c.play
	}
}

// Start is a no-op: the step action starts playback.
func (s *clipStep) Start() {}

func (s *clipStep) Stop() {
	if !s.active {
		return
	}
	s.active = false
	if c, ok := s.m.clips[s.id]; ok && c.play == s.play {
		s.m.Stop(s.id)
	}
}
