package review

import (
	"sync"

	"github.com/joescharf/adreview/internal/models"
)

// Player controls the media element that shows the current item.
type Player interface {
	Load(source string)
	Play() error
	Pause()
	Toggle() bool
	Clear()
	State() models.PlayerState
}

// MirrorPlayer records the desired player state for a remote renderer (the
// browser) to mirror. Play never fails here; the renderer reports refused
// playback through Session.ReportPlaybackFailed.
type MirrorPlayer struct {
	mu    sync.Mutex
	state models.PlayerState
}

// NewMirrorPlayer returns an empty, paused player.
func NewMirrorPlayer() *MirrorPlayer {
	return &MirrorPlayer{}
}

func (p *MirrorPlayer) Load(source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = models.PlayerState{Source: source}
}

func (p *MirrorPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Source != "" {
		p.state.Playing = true
	}
	return nil
}

func (p *MirrorPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Playing = false
}

// Toggle flips between playing and paused and returns the new playing flag.
// With no source loaded it stays paused.
func (p *MirrorPlayer) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Source == "" {
		return false
	}
	p.state.Playing = !p.state.Playing
	return p.state.Playing
}

func (p *MirrorPlayer) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = models.PlayerState{}
}

func (p *MirrorPlayer) State() models.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
