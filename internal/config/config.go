// Package config parses the player's CLI surface into an immutable Config,
// using pflag's VarP-style registration.
package config

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/decode"
)

// Config is built once by Parse and never mutated afterward; components
// read it directly rather than through getters.
type Config struct {
	Input string

	NoDisp    bool
	NoAudio   bool
	NoVideo   bool
	NoSubtitle bool

	Volume     int // 0..100
	StartTime  time.Duration
	Duration   time.Duration // 0 means unbounded
	ByteSeek   bool
	LoopCount  int // 0 = play once and stop at eof, negative = loop forever
	AutoExit   bool

	Framedrop   decode.FramedropMode
	SyncMaster  clock.MasterType
	Infbuf      bool // disable the enough-packets throttle even for non-realtime sources

	WindowWidth, WindowHeight int
	ShowStatus                bool
	SeekInterval               time.Duration
	CursorAutoHide             bool

	ReportPath string
}

// Parse registers and parses flags against fs (pass flag.CommandLine for the
// real CLI, or a fresh flag.FlagSet in tests), returning the resulting
// Config. args excludes the program name.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	var syncStr, framedropStr string
	var startSeconds, durationSeconds, seekIntervalSeconds float64

	fs.BoolVarP(&cfg.NoDisp, "nodisp", "", false, "disable the graphical window, run a console-only player")
	fs.BoolVarP(&cfg.NoAudio, "an", "", false, "disable audio")
	fs.BoolVarP(&cfg.NoVideo, "vn", "", false, "disable video")
	fs.BoolVarP(&cfg.NoSubtitle, "sn", "", false, "disable subtitles")
	fs.IntVarP(&cfg.Volume, "volume", "", 100, "startup volume, 0-100")
	fs.Float64VarP(&startSeconds, "ss", "", 0, "seek to this position (seconds) before playing")
	fs.Float64VarP(&durationSeconds, "t", "", 0, "play for at most this many seconds (0 = unbounded)")
	fs.BoolVarP(&cfg.ByteSeek, "bytes", "", false, "seek by bytes instead of time")
	fs.IntVarP(&cfg.LoopCount, "loop", "", 1, "number of times to play (0 or 1 = once, negative = loop forever)")
	fs.BoolVarP(&cfg.AutoExit, "autoexit", "", false, "exit when playback finishes")
	fs.StringVarP(&framedropStr, "framedrop", "", "auto", "framedrop policy: auto, always, never")
	fs.StringVarP(&syncStr, "sync", "", "audio", "master clock: audio, video, ext")
	fs.BoolVarP(&cfg.Infbuf, "infbuf", "", false, "don't limit input buffer size, useful for realtime streams")
	fs.IntVarP(&cfg.WindowWidth, "x", "", 1280, "window width")
	fs.IntVarP(&cfg.WindowHeight, "y", "", 720, "window height")
	fs.BoolVarP(&cfg.ShowStatus, "stats", "", true, "print periodic status lines to stderr")
	fs.Float64VarP(&seekIntervalSeconds, "seek_interval", "", 10, "seconds to seek on left/right arrow")
	fs.BoolVarP(&cfg.CursorAutoHide, "cursor_autohide", "", true, "auto-hide the mouse cursor over the video window")
	fs.StringVarP(&cfg.ReportPath, "report", "", "", "diagnostic report path (stored in Config.ReportPath; no report is written)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) < 1 {
		return nil, fmt.Errorf("config: missing input url/file argument")
	}
	cfg.Input = rest[0]

	cfg.StartTime = time.Duration(startSeconds * float64(time.Second))
	cfg.Duration = time.Duration(durationSeconds * float64(time.Second))
	cfg.SeekInterval = time.Duration(seekIntervalSeconds * float64(time.Second))
	if cfg.SeekInterval <= 0 {
		cfg.SeekInterval = 0 // 0 means "use the default ladder", see State.DefaultSeekStep
	}

	switch framedropStr {
	case "always":
		cfg.Framedrop = decode.FramedropAlways
	case "never":
		cfg.Framedrop = decode.FramedropNever
	default:
		cfg.Framedrop = decode.FramedropAuto
	}

	switch syncStr {
	case "video":
		cfg.SyncMaster = clock.MasterVideo
	case "ext":
		cfg.SyncMaster = clock.MasterExternal
	default:
		cfg.SyncMaster = clock.MasterAudio
	}

	if cfg.Volume < 0 {
		cfg.Volume = 0
	}
	if cfg.Volume > 100 {
		cfg.Volume = 100
	}

	return cfg, nil
}
