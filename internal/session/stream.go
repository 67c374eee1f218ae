package session

import (
	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/frame"
)

// CycleStream is the runtime stream switch (ffplay's 'v'/'a' keys): close
// the active stream of kind, open the next one of the same kind, and
// rewire that component's queue/worker/clock chain in place. It must be
// called from the same goroutine that owns UI input, not concurrently with
// itself, since it mutates the fields the demuxer loop reads every
// iteration.
func (s *State) CycleStream(kind demux.StreamType) error {
	infos := s.Source.Streams()
	var ofKind []demux.StreamInfo
	for _, info := range infos {
		if info.Type == kind {
			ofKind = append(ofKind, info)
		}
	}
	if len(ofKind) < 2 {
		return nil
	}

	cur := s.componentFor(kind)
	nextIdx := ofKind[0].Index
	for i, info := range ofKind {
		if info.Index == cur.Index {
			nextIdx = ofKind[(i+1)%len(ofKind)].Index
			break
		}
	}
	if nextIdx == cur.Index {
		return nil
	}

	if cur.active() {
		cur.PacketQueue.Abort()
		cur.FrameQueue.Signal()
		_ = s.Source.CloseStream(cur.Index)
	}
	if err := s.Source.OpenStream(nextIdx); err != nil {
		return err
	}

	capacity := frame.AudioCapacity
	keepLast := false
	switch kind {
	case demux.StreamVideo:
		capacity, keepLast = frame.VideoCapacity, true
	case demux.StreamSubtitle:
		capacity, keepLast = frame.SubtitleCapacity, true
	}
	next := newComponent(nextIdx, capacity, keepLast)
	switch kind {
	case demux.StreamVideo:
		next.Worker.Decoder = s.VideoDecoder
		s.Video = next
		s.DemuxLoop.Video = demux.StreamQueue{Index: next.Index, Queue: next.PacketQueue}
		if s.VideoPresenter != nil {
			s.VideoPresenter.Queue = next.FrameQueue
		}
	case demux.StreamAudio:
		next.Worker.Decoder = s.AudioDecoder
		s.Audio = next
		s.DemuxLoop.Audio = demux.StreamQueue{Index: next.Index, Queue: next.PacketQueue}
		if s.AudioPresenter != nil {
			s.AudioPresenter.Queue = next.FrameQueue
		}
	case demux.StreamSubtitle:
		next.Worker.Decoder = s.SubtitleDecoder
		s.Subtitle = next
		s.DemuxLoop.Subtitle = demux.StreamQueue{Index: next.Index, Queue: next.PacketQueue}
		if s.VideoPresenter != nil {
			s.VideoPresenter.SubtitleQueue = next.FrameQueue
		}
	}

	next.PacketQueue.Start()
	worker := next.Worker
	s.group.Go(func() error { return worker.Run() })
	return nil
}

func (s *State) componentFor(kind demux.StreamType) component {
	switch kind {
	case demux.StreamVideo:
		return s.Video
	case demux.StreamAudio:
		return s.Audio
	case demux.StreamSubtitle:
		return s.Subtitle
	}
	return component{Index: -1}
}
