// Package audio plays catalog clips over an external sound engine and keeps clips
// from stepping on each other: an effect restarts instead of overlapping itself, and
// long clips share a single source so a new one cuts the previous one off.
//
// The Manager is driven from the same goroutine as the chains it serves. PlayStep
// turns a clip into a chain step that completes when the clip ends.
package audio

import "time"

// Engine is the sound backend.
// OnFinish callbacks must be delivered on the goroutine that drives the Manager.
type Engine interface {
	// PlayEffect starts a one-shot effect and returns its handle.
	PlayEffect(file string) (int, error)
	StopEffect(handle int)
	SetEffectsVolume(v float64)
	OnFinish(handle int, fn func())

	// Duration reports the length of a clip. Zero means unknown.
	Duration(file string) time.Duration

	// PlaySource plays on the single long-clip source, replacing whatever it played.
	PlaySource(file string, volume float64) error
	StopSource()

	PlayMusic(file string, volume float64, loop bool) error
	PauseMusic()
	ResumeMusic()

	// StopAll silences effects, the source and the music.
	StopAll()
}
