package session

import (
	"fmt"

	"github.com/erparts/avplay/internal/clock"
)

// StatusLine formats the periodic diagnostic line ("-stats"): master clock
// position, sync-type tag, queue sizes in KiB, early/late frame drops, and
// the video decoder's faulty dts/pts counters. Unlike ffplay's status printf
// it carries no clock-difference column, and the tag names the master clock
// (A-V, M-V, M-C) rather than which streams are active.
func (s *State) StatusLine() string {
	pos := s.masterClock().Get()
	tag := "A-V"
	switch s.MasterType() {
	case clock.MasterVideo:
		tag = "M-V"
	case clock.MasterExternal:
		tag = "M-C"
	}

	aqSize, vqSize, sqSize := 0, 0, 0
	if s.Audio.active() {
		aqSize = s.Audio.PacketQueue.Size() / 1024
	}
	if s.Video.active() {
		vqSize = s.Video.PacketQueue.Size() / 1024
	}
	if s.Subtitle.active() {
		sqSize = s.Subtitle.PacketQueue.Size() / 1024
	}

	var dropsEarly, dropsLate, faultyDTS, faultyPTS int64
	if s.VideoDecoder != nil {
		dropsEarly = s.VideoDecoder.FrameDropsEarly
		faultyDTS, faultyPTS = s.VideoDecoder.FaultyDTS, s.VideoDecoder.FaultyPTS
	}
	if s.VideoPresenter != nil {
		dropsLate = s.VideoPresenter.FrameDropsLate
	}

	return fmt.Sprintf("%7.2f %s aq=%5dKB vq=%5dKB sq=%5dKB fd=%d/%d f=%d/%d",
		pos, tag, aqSize, vqSize, sqSize, dropsEarly, dropsLate, faultyDTS, faultyPTS)
}
