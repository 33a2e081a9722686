package audio

import (
	"log/slog"
	"time"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/chain"
)

// DefaultClipDuration is the length ConsoleEngine reports for every clip.
const DefaultClipDuration = time.Second

// ConsoleEngine is an Engine without sound: it logs playback and finishes effects
// after a fixed duration on the given scheduler. It lets scenarios with play steps
// run where no sound backend exists.
type ConsoleEngine struct {
	scheduler chain.Scheduler
	duration  time.Duration
	logger    *slog.Logger

	next    int
	playing map[int]*consoleEffect
}

type consoleEffect struct {
	timer  chain.Cancelable
	finish func()
}

// NewConsoleEngine creates a silent engine. A non-positive d means DefaultClipDuration.
func NewConsoleEngine(sched chain.Scheduler, d time.Duration, logger *slog.Logger) *ConsoleEngine {
	if d <= 0 {
		d = DefaultClipDuration
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ConsoleEngine{
		scheduler: sched,
		duration:  d,
		logger:    logger,
		playing:   make(map[int]*consoleEffect),
	}
}

func (e *ConsoleEngine) PlayEffect(file string) (int, error) {
	e.next++
	h := e.next
	fx := &consoleEffect{}
	fx.timer = e.scheduler.NewTimer(e.duration, func() {
		delete(e.playing, h)
		if fx.finish != nil {
			fx.finish()
		}
	})
	e.playing[h] = fx
	fx.timer.Start()
	e.logger.Info("play effect", "file", file, "handle", h)
	return h, nil
}

func (e *ConsoleEngine) StopEffect(handle int) {
	if fx, ok := e.playing[handle]; ok {
		fx.timer.Stop()
		delete(e.playing, handle)
	}
}

func (e *ConsoleEngine) SetEffectsVolume(v float64) {
	e.logger.Debug("effects volume", "volume", v)
}

func (e *ConsoleEngine) OnFinish(handle int, fn func()) {
	if fx, ok := e.playing[handle]; ok {
		fx.finish = fn
	}
}

func (e *ConsoleEngine) Duration(string) time.Duration {
	return e.duration
}

func (e *ConsoleEngine) PlaySource(file string, volume float64) error {
	e.logger.Info("play source", "file", file, "volume", volume)
	return nil
}

func (e *ConsoleEngine) StopSource() {
	e.logger.Debug("stop source")
}

func (e *ConsoleEngine) PlayMusic(file string, volume float64, loop bool) error {
	e.logger.Info("play music", "file", file, "volume", volume, "loop", loop)
	return nil
}

func (e *ConsoleEngine) PauseMusic()  { e.logger.Debug("pause music") }
func (e *ConsoleEngine) ResumeMusic() { e.logger.Debug("resume music") }

func (e *ConsoleEngine) StopAll() {
	for h := range e.playing {
		e.StopEffect(h)
	}
	e.logger.Debug("stop all")
}

// Playing returns the number of effects that have not finished.
func (e *ConsoleEngine) Playing() int {
	return len(e.playing)
}
