package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/config"
	"github.com/erparts/avplay/internal/decode"
	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/frame"
	"github.com/erparts/avplay/internal/logging"
	"github.com/erparts/avplay/internal/packet"
	"github.com/erparts/avplay/internal/presenter"
)

// Open runs the component lifecycle: open the source, select one stream
// per enabled kind, build each kind's queue/clock/worker chain, and start
// the demuxer and decoder goroutines under an errgroup.Group.
func Open(ctx context.Context, cfg *config.Config) (*State, error) {
	src, err := demux.Open(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("session: open %q: %w", cfg.Input, err)
	}

	s := &State{
		Config:        cfg,
		Source:        src,
		quitCh:        make(chan struct{}),
		loopCount:     cfg.LoopCount,
		volumePercent: cfg.Volume,
		syncMaster:    cfg.SyncMaster,
		Video:         component{Index: -1},
		Audio:         component{Index: -1},
		Subtitle:      component{Index: -1},
	}

	streams := src.Streams()
	var videoInfo, audioInfo, subInfo *demux.StreamInfo
	for i := range streams {
		info := &streams[i]
		switch info.Type {
		case demux.StreamVideo:
			if videoInfo == nil && !cfg.NoVideo && !info.AttachedPicture {
				videoInfo = info
			}
		case demux.StreamAudio:
			if audioInfo == nil && !cfg.NoAudio {
				audioInfo = info
			}
		case demux.StreamSubtitle:
			if subInfo == nil && !cfg.NoSubtitle {
				subInfo = info
			}
		}
	}

	if err := src.OpenDecode(); err != nil {
		return nil, fmt.Errorf("session: open decode: %w", err)
	}

	if videoInfo != nil {
		if err := src.OpenStream(videoInfo.Index); err != nil {
			return nil, fmt.Errorf("session: open video stream: %w", err)
		}
		s.Video = newComponent(videoInfo.Index, frame.VideoCapacity, true)
		s.VideoDecoder = &decode.VideoDecoder{
			FrameRateNum: max1(videoInfo.FrameRateNum),
			FrameRateDen: max1(videoInfo.FrameRateDen),
			FramedropMode: cfg.Framedrop,
		}
		s.Video.Worker.Decoder = s.VideoDecoder
	}
	if audioInfo != nil {
		if err := src.OpenStream(audioInfo.Index); err != nil {
			return nil, fmt.Errorf("session: open audio stream: %w", err)
		}
		s.Audio = newComponent(audioInfo.Index, frame.AudioCapacity, false)
		s.AudioDecoder = &decode.AudioDecoder{}
		s.Audio.Worker.Decoder = s.AudioDecoder
	}
	if subInfo != nil {
		if err := src.OpenStream(subInfo.Index); err != nil {
			return nil, fmt.Errorf("session: open subtitle stream: %w", err)
		}
		s.Subtitle = newComponent(subInfo.Index, frame.SubtitleCapacity, true)
		s.SubtitleDecoder = &decode.SubtitleDecoder{}
		s.Subtitle.Worker.Decoder = s.SubtitleDecoder
	}

	s.VideoClock = clock.New(func() int64 { return queueSerial(s.Video) })
	s.AudioClock = clock.New(func() int64 { return queueSerial(s.Audio) })
	s.ExternalClock = clock.New(func() int64 { return s.ExternalClock.Serial() })

	if s.VideoDecoder != nil {
		s.VideoDecoder.GetMaster = func() (float64, bool) {
			return s.masterClock().Get(), s.MasterType() == clock.MasterVideo
		}
	}

	s.DemuxLoop = &demux.Loop{
		Source:   src,
		Host:     s,
		Video:    demux.StreamQueue{Index: s.Video.Index, Queue: queueOrNil(s.Video)},
		Audio:    demux.StreamQueue{Index: s.Audio.Index, Queue: queueOrNil(s.Audio)},
		Subtitle: demux.StreamQueue{Index: s.Subtitle.Index, Queue: queueOrNil(s.Subtitle)},
		Realtime: demux.IsRealtime(src.FormatName(), cfg.Input),
		URL:      cfg.Input,
	}

	if s.Video.active() {
		s.VideoPresenter = &presenter.VideoPresenter{
			Queue:            s.Video.FrameQueue,
			VideoClock:       s.VideoClock,
			AudioClock:       s.AudioClock,
			ExternalClock:    s.ExternalClock,
			MasterType:       s.MasterType,
			Paused:           s.Paused,
			StepRequested:    s.stepPendingFlag,
			ConsumeStep:      s.clearStepPending,
			FramedropEnabled: func() bool {
				switch cfg.Framedrop {
				case decode.FramedropAlways:
					return true
				case decode.FramedropAuto:
					return s.MasterType() != clock.MasterVideo
				default:
					return false
				}
			},
		}
		if s.Subtitle.active() {
			s.VideoPresenter.SubtitleQueue = s.Subtitle.FrameQueue
		}
	}
	if s.Audio.active() {
		outRate := audioInfo.SampleRate
		if outRate <= 0 {
			outRate = 44100
		}
		s.AudioPresenter = &presenter.AudioPresenter{
			Queue:            s.Audio.FrameQueue,
			Clock:            s.AudioClock,
			VideoClock:       s.VideoClock,
			ExternalClock:    s.ExternalClock,
			MasterType:       s.MasterType,
			Volume:           s.volumeGain,
			Muted:            s.Muted,
			OutputSampleRate: outRate,
			OutputChannels:   2,
			Reconfigured:     s.AudioDecoder.Reconfigured,
		}
		s.AudioPresenter.SetPaused(s.Paused)
	}

	gctx, cancel := context.WithCancel(ctx)
	s.ctx = gctx
	s.cancel = cancel
	g, gctx2 := errgroup.WithContext(gctx)
	s.group = g

	for _, c := range []component{s.Video, s.Audio, s.Subtitle} {
		if !c.active() {
			continue
		}
		c.PacketQueue.Start()
		worker := c.Worker
		g.Go(func() error {
			if err := worker.Run(); err != nil {
				logging.Errorf("decoder worker stopped: %v", err)
				return err
			}
			return nil
		})
	}
	g.Go(func() error { return s.DemuxLoop.Run(gctx2) })

	if cfg.StartTime > 0 {
		s.RequestSeek(cfg.StartTime, 0, false)
	}

	return s, nil
}

// Wait blocks until every pipeline goroutine has returned, then releases the
// source.
func (s *State) Wait() error {
	err := s.group.Wait()
	for _, c := range []component{s.Video, s.Audio, s.Subtitle} {
		if c.active() {
			c.PacketQueue.Abort()
			c.FrameQueue.Signal()
		}
	}
	_ = s.Source.CloseDecode()
	if cerr := s.Source.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newComponent(index, capacity int, keepLast bool) component {
	pq := packet.New()
	fq := frame.NewQueue(pq, capacity, keepLast)
	return component{
		Index:       index,
		PacketQueue: pq,
		FrameQueue:  fq,
		Worker:      &decode.Worker{PacketQueue: pq, FrameQueue: fq},
	}
}

func queueSerial(c component) int64 {
	if !c.active() {
		return 0
	}
	return c.PacketQueue.Serial()
}

func queueOrNil(c component) *packet.Queue {
	if !c.active() {
		return packet.New()
	}
	return c.PacketQueue
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
