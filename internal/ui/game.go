// Package ui implements the player's event loop: a windowed ebiten.Game for
// normal playback and a Bubble Tea console program for -nodisp mode, both
// translating the same key bindings into session.State control calls.
package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/display"
	"github.com/erparts/avplay/internal/engineconst"
	"github.com/erparts/avplay/internal/session"
)

var statusWriter = os.Stderr

// Game implements ebiten.Game, wiring keyboard input to session.State and
// drawing through a display.Sink every frame.
type Game struct {
	State *session.State
	Sink  *display.Sink

	volumeFade osdFade
	seekFade   osdFade
	lastStatus time.Time

	lastCursorX, lastCursorY int
	lastCursorMove           time.Time
	cursorHidden             bool
}

// NewGame builds a Game for an already-open session.
func NewGame(st *session.State, sink *display.Sink) *Game {
	return &Game{
		State:      st,
		Sink:       sink,
		volumeFade: newOSDFade(60),
		seekFade:   newOSDFade(60),
	}
}

// Update implements ebiten.Game: handles one tick's worth of key bindings
// before yielding back to the refresh-timer-driven video presenter, which
// runs on its own goroutine.
func (g *Game) Update() error {
	select {
	case <-g.State.Done():
		return ebiten.Termination
	default:
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace), inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.State.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.State.Quit()
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		g.State.ToggleMute()
		g.volumeFade.Trigger()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.State.CycleSyncMaster()
	case inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
		g.State.StepFrame()
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.State.AdjustVolume(1)
		g.volumeFade.Trigger()
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.State.AdjustVolume(-1)
		g.volumeFade.Trigger()
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.State.SeekRelative(-g.State.DefaultSeekStep())
		g.seekFade.Trigger()
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.State.SeekRelative(g.State.DefaultSeekStep())
		g.seekFade.Trigger()
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		g.State.SeekRelative(-10 * time.Minute)
		g.seekFade.Trigger()
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		g.State.SeekRelative(10 * time.Minute)
		g.seekFade.Trigger()
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		_ = g.State.CycleStream(demux.StreamVideo)
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		_ = g.State.CycleStream(demux.StreamAudio)
	}

	g.volumeFade.Step()
	g.seekFade.Step()

	if g.State.Config.CursorAutoHide {
		g.updateCursorAutoHide()
	}

	if g.State.Config.ShowStatus && time.Since(g.lastStatus) > time.Second {
		fmt.Fprintln(statusWriter, g.State.StatusLine())
		g.lastStatus = time.Now()
	}
	return nil
}

// updateCursorAutoHide implements "-cursor_autohide": hide the mouse
// cursor after engineconst.CursorHideDelay of no movement, showing it again
// immediately on the next move.
func (g *Game) updateCursorAutoHide() {
	x, y := ebiten.CursorPosition()
	if x != g.lastCursorX || y != g.lastCursorY {
		g.lastCursorX, g.lastCursorY = x, y
		g.lastCursorMove = time.Now()
		if g.cursorHidden {
			ebiten.SetCursorMode(ebiten.CursorModeVisible)
			g.cursorHidden = false
		}
		return
	}
	if !g.cursorHidden && time.Since(g.lastCursorMove) > engineconst.CursorHideDelay {
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
		g.cursorHidden = true
	}
}

// Draw implements ebiten.Game: blit whatever frame the video presenter most
// recently handed to the Sink.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.Sink == nil {
		return
	}
	g.Sink.DrawInto(screen)
}

// Layout implements ebiten.Game, honoring the configured window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.State.Config.WindowWidth > 0 && g.State.Config.WindowHeight > 0 {
		return g.State.Config.WindowWidth, g.State.Config.WindowHeight
	}
	return outsideWidth, outsideHeight
}
