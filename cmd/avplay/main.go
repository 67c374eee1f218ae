// Command avplay is the CLI entry point: parse flags, open a session, and
// drive either the windowed ebiten UI or the -nodisp console TUI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hajimehoshi/ebiten/v2"
	flag "github.com/spf13/pflag"

	"github.com/erparts/avplay/internal/config"
	"github.com/erparts/avplay/internal/display"
	"github.com/erparts/avplay/internal/logging"
	"github.com/erparts/avplay/internal/session"
	"github.com/erparts/avplay/internal/ui"
	"github.com/erparts/avplay/internal/visualizer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "avplay:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	logging.SetDefault(logging.NewSlog(level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := session.Open(ctx, cfg)
	if err != nil {
		return err
	}

	if st.Audio.Worker != nil && st.AudioPresenter != nil {
		if err := wireAudio(st); err != nil {
			logging.Warnf("audio output unavailable: %v", err)
		}
	}

	if cfg.NoDisp {
		return runConsole(st)
	}
	return runWindowed(st)
}

// wireAudio starts the ebiten audio context and a streaming player reading
// from the session's audio presenter.
func wireAudio(st *session.State) error {
	actx, err := display.NewAudioContext(st.AudioPresenter.OutputSampleRate)
	if err != nil {
		return err
	}
	player, err := actx.NewPlayer(st.AudioPresenter)
	if err != nil {
		return err
	}
	player.Play()
	return nil
}

func runWindowed(st *session.State) error {
	ebiten.SetWindowSize(st.Config.WindowWidth, st.Config.WindowHeight)
	ebiten.SetWindowTitle(st.Config.Input)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	sink := display.NewSink(nil)
	if st.VideoPresenter != nil {
		st.VideoPresenter.Display = sink
		go st.VideoPresenter.Run(st.Context())
	}

	game := ui.NewGame(st, sink)
	err := ebiten.RunGame(game)
	waitErr := st.Wait()
	if err != nil && err != ebiten.Termination {
		return err
	}
	return waitErr
}

func runConsole(st *session.State) error {
	ring := visualizer.NewRingBuffer(1 << 16)
	if st.VideoPresenter != nil {
		go st.VideoPresenter.Run(st.Context())
	}

	model := ui.NewTUI(st, ring)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return err
	}
	return st.Wait()
}
