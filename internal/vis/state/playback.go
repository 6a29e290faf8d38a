package state

import (
	"math"
	"time"
)

// PlaybackState manages path playback timing. Time is measured in plan
// steps.
type PlaybackState struct {
	CurrentTime float64 // Current playback time in steps
	MaxTime     float64 // Solution makespan
	Speed       float64 // Steps per second
	Playing     bool
	lastUpdate  time.Time
	now         func() time.Time
}

// NewPlaybackState creates a new playback state.
func NewPlaybackState(maxTime float64) *PlaybackState {
	return &PlaybackState{
		MaxTime: maxTime,
		Speed:   2.0,
		now:     time.Now,
	}
}

// TogglePlay toggles playback on/off.
func (p *PlaybackState) TogglePlay() {
	if p.Playing {
		p.Pause()
		return
	}
	// Restart from the beginning when at the end.
	if p.CurrentTime >= p.MaxTime {
		p.CurrentTime = 0
	}
	p.Play()
}

// Play starts playback.
func (p *PlaybackState) Play() {
	p.Playing = true
	p.lastUpdate = p.now()
}

// Pause stops playback.
func (p *PlaybackState) Pause() {
	p.Playing = false
}

// Reset rewinds to step 0 and stops.
func (p *PlaybackState) Reset() {
	p.CurrentTime = 0
	p.Playing = false
}

// Advance moves playback forward by the wall time since the last update.
func (p *PlaybackState) Advance() {
	if !p.Playing {
		return
	}
	now := p.now()
	elapsed := now.Sub(p.lastUpdate).Seconds()
	p.lastUpdate = now

	p.CurrentTime += elapsed * p.Speed
	if p.CurrentTime >= p.MaxTime {
		p.CurrentTime = p.MaxTime
		p.Playing = false
	}
}

// SetTime seeks, clamped to [0, MaxTime].
func (p *PlaybackState) SetTime(t float64) {
	p.CurrentTime = math.Max(0, math.Min(t, p.MaxTime))
}

// StepForward pauses and jumps to the next whole step.
func (p *PlaybackState) StepForward() {
	p.Pause()
	p.SetTime(math.Floor(p.CurrentTime) + 1)
}

// StepBack pauses and jumps to the previous whole step.
func (p *PlaybackState) StepBack() {
	p.Pause()
	p.SetTime(math.Ceil(p.CurrentTime) - 1)
}

// Step returns the whole step being shown.
func (p *PlaybackState) Step() int {
	return int(math.Floor(p.CurrentTime))
}

// SetSpeed sets the playback speed, clamped to [0.25, 20] steps per second.
func (p *PlaybackState) SetSpeed(speed float64) {
	p.Speed = math.Max(0.25, math.Min(speed, 20))
}

// Progress returns current progress as 0-1.
func (p *PlaybackState) Progress() float64 {
	if p.MaxTime <= 0 {
		return 0
	}
	return p.CurrentTime / p.MaxTime
}
