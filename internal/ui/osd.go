package ui

import "github.com/charmbracelet/harmonica"

// osdFade drives a one-dimensional spring from 1 (just-changed, fully
// visible) down toward 0 (settled, invisible). Game triggers one on each
// volume/mute and seek control and steps both every tick; no on-screen
// overlay is drawn from their values.
type osdFade struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newOSDFade(fps int) osdFade {
	return osdFade{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0)}
}

// Trigger snaps the overlay back to fully visible.
func (f *osdFade) Trigger() {
	f.pos = 1
	f.vel = 0
}

// Step advances the spring one tick toward 0 and returns the current
// opacity in 0..1.
func (f *osdFade) Step() float64 {
	f.pos, f.vel = f.spring.Update(f.pos, f.vel, 0)
	if f.pos < 0 {
		f.pos = 0
	}
	return f.pos
}
