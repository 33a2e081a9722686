package audio

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
)

// clipState is a catalog clip plus its playback bookkeeping.
type clipState struct {
	Clip
	handle    int // effect handle, -1 when idle
	playing   bool
	startedAt time.Time
	timer     chain.Cancelable // finish timer of a long clip
	play      int              // bumped on every play and stop so stale finish callbacks are inert
}

func (c *clipState) reset() {
	c.play++
	c.playing = false
	c.handle = -1
	c.startedAt = time.Time{}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Manager plays clips by namespaced id. It is not safe for concurrent use.
type Manager struct {
	engine    Engine
	scheduler chain.Scheduler
	logger    *slog.Logger
	now       func() time.Time

	clips    map[string]*clipState
	lastLong *clipState

	music        string
	musicVolume  float64
	musicOn      bool
	musicStarted bool
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithScheduler sets the timer source that ends long clips. Pass the chain loop so that
// completion callbacks run on the loop goroutine.
func WithScheduler(s chain.Scheduler) Option {
	return func(m *Manager) {
		m.scheduler = s
	}
}

// WithClock overrides the time source used by Remaining.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager with an empty catalog. Music starts switched on.
func NewManager(engine Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		logger:  logging.NewNop(),
		now:     time.Now,
		clips:   make(map[string]*clipState),
		musicOn: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.scheduler == nil {
		m.scheduler = chain.SystemScheduler()
	}
	return m
}

// Load registers the clips of cat under its prefix. It fails without registering
// anything if an id is already taken. The first catalog that names a music track
// provides the background music.
func (m *Manager) Load(cat *Catalog) error {
	p := NamespacePrefix(cat.Prefix)
	seen := make(map[string]struct{}, len(cat.Clips))
	for _, clip := range cat.Clips {
		id := p + clip.Name
		if _, ok := m.clips[id]; ok {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateClip, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateClip, id)
		}
		seen[id] = struct{}{}
	}

	for _, clip := range cat.Clips {
		if clip.File == "" {
			clip.File = clip.Name
		}
		m.clips[p+clip.Name] = &clipState{Clip: clip, handle: -1}
	}
	if cat.Music != "" && m.music == "" {
		m.music = cat.Music
		m.musicVolume = cat.MusicVolume
	}
	m.logger.Debug("audio catalog loaded", "prefix", cat.Prefix, "clips", len(cat.Clips))
	return nil
}

// Play starts the clip under id and returns its duration. onFinished runs when the
// clip ends on its own; stopping the clip discards it. An unknown id is logged and
// onFinished runs immediately so that a waiting chain is not stuck.
func (m *Manager) Play(id string, volume float64, onFinished func()) time.Duration {
	c, ok := m.clips[id]
	if !ok {
		m.logger.Error("audio clip not found", "clip", id, "error", domain.ErrUnknownClip)
		if onFinished != nil {
			onFinished()
		}
		return 0
	}

	volume = clamp01(volume)
	if c.Long {
		return m.playLong(c, volume, onFinished)
	}
	return m.playEffect(c, volume, onFinished)
}

func (m *Manager) finisher(c *clipState, onFinished func()) func() {
	play := c.play
	return func() {
		if c.play != play {
			return
		}
		c.reset()
		if m.lastLong == c {
			m.lastLong = nil
		}
		if onFinished != nil {
			onFinished()
		}
	}
}

func (m *Manager) playLong(c *clipState, volume float64, onFinished func()) time.Duration {
	m.clearLong()
	m.engine.StopSource()

	c.reset()
	if err := m.engine.PlaySource(c.File, volume); err != nil {
		m.logger.Error("failed to play clip", "clip", c.Name, "error", err)
		if onFinished != nil {
			onFinished()
		}
		return 0
	}
	if c.Duration == 0 {
		c.Duration = m.engine.Duration(c.File)
	}

	c.playing = true
	c.startedAt = m.now()
	c.timer = m.scheduler.NewTimer(c.Duration, m.finisher(c, onFinished))
	c.timer.Start()
	m.lastLong = c
	return c.Duration
}

func (m *Manager) playEffect(c *clipState, volume float64, onFinished func()) time.Duration {
	if c.playing && c.handle >= 0 {
		m.engine.StopEffect(c.handle)
	}
	c.reset()

	handle, err := m.engine.PlayEffect(c.File)
	if err != nil {
		m.logger.Error("failed to play clip", "clip", c.Name, "error", err)
		if onFinished != nil {
			onFinished()
		}
		return 0
	}
	if c.Duration == 0 {
		c.Duration = m.engine.Duration(c.File)
	}

	c.handle = handle
	c.playing = true
	c.startedAt = m.now()
	m.engine.SetEffectsVolume(volume)
	m.engine.OnFinish(handle, m.finisher(c, onFinished))
	return c.Duration
}

// Stop silences the clip under id without running its finish callback.
func (m *Manager) Stop(id string) {
	c, ok := m.clips[id]
	if !ok {
		return
	}
	if c.Long {
		if c.playing {
			m.engine.StopSource()
		}
		if m.lastLong == c {
			m.lastLong = nil
		}
	} else if c.playing && c.handle >= 0 {
		m.engine.StopEffect(c.handle)
	}
	c.reset()
}

// StopAllEffects cuts the long-clip source and drops its pending finish callback.
func (m *Manager) StopAllEffects() {
	m.clearLong()
	m.engine.StopSource()
}

func (m *Manager) clearLong() {
	if m.lastLong != nil {
		m.lastLong.reset()
		m.lastLong = nil
	}
}

// Has reports whether id is in the catalog.
func (m *Manager) Has(id string) bool {
	_, ok := m.clips[id]
	return ok
}

// IDs returns every registered id, sorted.
func (m *Manager) IDs() []string {
	ids := make([]string, 0, len(m.clips))
	for id := range m.clips {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Remaining returns how long the clip under id still has to play. Idle clips report zero.
func (m *Manager) Remaining(id string) time.Duration {
	c, ok := m.clips[id]
	if !ok || !c.playing {
		return 0
	}
	return max(c.Duration-m.now().Sub(c.startedAt), 0)
}

// Duration returns the length of the clip under id, asking the engine once if the
// catalog did not declare it.
func (m *Manager) Duration(id string) time.Duration {
	c, ok := m.clips[id]
	if !ok {
		return 0
	}
	if c.Duration == 0 {
		c.Duration = m.engine.Duration(c.File)
	}
	return c.Duration
}

// StartMusic plays the background music in a loop, paused if music is switched off.
// It does nothing without a music track or if the music already started.
func (m *Manager) StartMusic() error {
	if m.music == "" || m.musicStarted {
		return nil
	}
	if err := m.engine.PlayMusic(m.music, m.musicVolume, true); err != nil {
		return fmt.Errorf("failed to play music %q: %w", m.music, err)
	}
	m.musicStarted = true
	if !m.musicOn {
		m.engine.PauseMusic()
	}
	return nil
}

// SetMusic switches the background music on or off.
func (m *Manager) SetMusic(on bool) {
	m.musicOn = on
	if m.music == "" || !m.musicStarted {
		return
	}
	if on {
		m.engine.ResumeMusic()
	} else {
		m.engine.PauseMusic()
	}
}

// MusicOn reports the music switch.
func (m *Manager) MusicOn() bool {
	return m.musicOn
}

// Reset silences everything and forgets the catalog. The music switch survives.
func (m *Manager) Reset() {
	m.engine.StopAll()
	m.clearLong()
	for _, c := range m.clips {
		c.reset()
	}
	clear(m.clips)
	m.music = ""
	m.musicVolume = 0
	m.musicStarted = false
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
