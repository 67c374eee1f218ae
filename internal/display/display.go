// Package display provides the ebitengine presentation helpers (aspect-fit
// projection, audio context setup) behind a Sink that the video presenter
// writes into. ebiten.Image operations are only safe from the goroutine
// ebiten itself drives Update/Draw on, but the video presenter runs on its
// own refresh-timer goroutine, so Sink splits "receive the latest decoded
// frame" (PresentVideo, callable from any goroutine) from "actually blit
// it" (DrawInto, called from Game.Draw).
package display

import (
	"errors"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/erparts/avplay/internal/frame"
)

var ErrContextAlreadyInitialized = errors.New("display: audio context already initialized")

// NewAudioContext creates the process-wide ebiten audio context at the
// given sample rate. ebiten only allows one context per process, so this is
// called once at startup from the selected audio stream's sample rate
// rather than reopening the media file a second time.
func NewAudioContext(sampleRate int) (*audio.Context, error) {
	if audio.CurrentContext() != nil {
		return nil, ErrContextAlreadyInitialized
	}
	return audio.NewContext(sampleRate), nil
}

// pendingFrame is the latest decoded video/subtitle pair, copied out of the
// frame queue's slot so the presenter can immediately call Queue.Next()
// without the data being overwritten before DrawInto consumes it.
type pendingFrame struct {
	pix           []byte
	width, height int
	subtitle      *frame.SubtitlePayload
}

// Sink is the windowed presentation target. PresentVideo is called from the
// video presenter's goroutine; DrawInto is called from Game.Draw on
// ebiten's own goroutine.
type Sink struct {
	Viewport *ebiten.Image

	mu      sync.Mutex
	pending *pendingFrame

	frameImg   *ebiten.Image
	subImg     *ebiten.Image
	curW, curH int
}

// NewSink builds a Sink that draws into viewport. Viewport may be replaced
// later (e.g. on window resize) by assigning Sink.Viewport directly.
func NewSink(viewport *ebiten.Image) *Sink {
	return &Sink{Viewport: viewport}
}

// PresentVideo implements presenter.Display: stashes a copy of the decoded
// frame for the next DrawInto call. Safe to call from any goroutine.
func (s *Sink) PresentVideo(video, subtitle *frame.Frame) error {
	if video == nil {
		return nil
	}
	pf := &pendingFrame{
		pix:    append([]byte(nil), video.Video.Pix...),
		width:  video.Video.Width,
		height: video.Video.Height,
	}
	if subtitle != nil {
		sub := subtitle.Subtitle
		pf.subtitle = &sub
	}
	s.mu.Lock()
	s.pending = pf
	s.mu.Unlock()
	return nil
}

// DrawInto blits the most recently presented frame into screen at the
// aspect-fit projection, and overlays subtitle regions as translucent boxes
// (no real rasterizer backs this; regions are drawn as solid placeholders).
// Must be called from ebiten's own goroutine (i.e. from Game.Draw).
func (s *Sink) DrawInto(screen *ebiten.Image) {
	s.mu.Lock()
	pf := s.pending
	s.mu.Unlock()
	if pf == nil || pf.width <= 0 || pf.height <= 0 {
		return
	}

	s.ensureFrameImage(pf.width, pf.height)
	s.frameImg.WritePixels(pf.pix)

	geom, filter := CalcProjection(screen, s.frameImg)
	var opts ebiten.DrawImageOptions
	opts.GeoM = geom
	opts.Filter = filter
	screen.DrawImage(s.frameImg, &opts)

	if pf.subtitle != nil {
		s.drawSubtitle(screen, pf.subtitle, geom)
	}
}

func (s *Sink) ensureFrameImage(w, h int) {
	if s.frameImg != nil && s.curW == w && s.curH == h {
		return
	}
	s.frameImg = ebiten.NewImage(w, h)
	s.curW, s.curH = w, h
}

// drawSubtitle draws each region as a translucent black box at its
// bitmap's declared bounds, projected through the same transform as the
// video frame.
func (s *Sink) drawSubtitle(screen *ebiten.Image, sub *frame.SubtitlePayload, geom ebiten.GeoM) {
	for _, region := range sub.Regions {
		if region.W <= 0 || region.H <= 0 {
			continue
		}
		if s.subImg == nil || s.subImg.Bounds().Dx() != region.W || s.subImg.Bounds().Dy() != region.H {
			s.subImg = ebiten.NewImage(region.W, region.H)
		}
		s.subImg.Fill(image.Black)
		var opts ebiten.DrawImageOptions
		opts.GeoM = geom
		opts.GeoM.Translate(float64(region.X), float64(region.Y))
		opts.ColorScale.ScaleAlpha(0.5)
		screen.DrawImage(s.subImg, &opts)
	}
}

// Draw blits frameImg into viewport at the recommended aspect-fit
// projection, a standalone entry point for callers that don't need a full
// Sink.
func Draw(viewport, frameImg *ebiten.Image) {
	geom, filter := CalcProjection(viewport, frameImg)
	var opts ebiten.DrawImageOptions
	opts.GeoM = geom
	opts.Filter = filter
	viewport.DrawImage(frameImg, &opts)
}

// CalcProjection returns the GeoM and recommended ebiten.Filter to project
// frameImg into viewport, filling as much space as possible while
// preserving aspect ratio and centering any leftover space.
func CalcProjection(viewport, frameImg *ebiten.Image) (ebiten.GeoM, ebiten.Filter) {
	frameBounds := frameImg.Bounds()
	viewBounds := viewport.Bounds()
	vwWidth, vwHeight := viewBounds.Dx(), viewBounds.Dy()
	frWidth, frHeight := frameBounds.Dx(), frameBounds.Dy()

	tx, ty := float64(viewBounds.Min.X), float64(viewBounds.Min.Y)

	var geom ebiten.GeoM
	filter := ebiten.FilterLinear
	if frWidth == 0 || frHeight == 0 {
		return geom, filter
	}
	wf, hf := float64(vwWidth)/float64(frWidth), float64(vwHeight)/float64(frHeight)
	sf := wf
	if hf < wf {
		sf = hf
	}
	if sf == 1.0 {
		offx := (float64(vwWidth) - float64(frWidth)) / 2
		offy := (float64(vwHeight) - float64(frHeight)) / 2
		geom.Translate(tx+offx, ty+offy)
	} else {
		sfrWidth := float64(frWidth) * sf
		sfrHeight := float64(frHeight) * sf
		geom.Scale(sf, sf)
		geom.Translate(tx+(float64(vwWidth)-sfrWidth)/2, ty+(float64(vwHeight)-sfrHeight)/2)
	}
	return geom, filter
}
