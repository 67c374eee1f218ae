// Package demux wraps the opaque demux/decode dependency (reisen) behind a
// narrow Source interface, and runs the demuxer loop: reading packets,
// selecting streams, handling seek/EOF, and throttling against the
// aggregate packet-queue byte cap.
package demux

import (
	"time"

	"github.com/erparts/reisen"
)

// StreamType mirrors reisen's packet stream classification.
type StreamType int

const (
	StreamVideo StreamType = iota
	StreamAudio
	StreamSubtitle
	StreamOther
)

// StreamInfo is the subset of a reisen stream's static metadata the engine
// needs to select and configure a component.
type StreamInfo struct {
	Index           int
	Type            StreamType
	CodecName       string
	Width, Height   int
	FrameRateNum    int
	FrameRateDen    int
	SampleRate      int
	ChannelCount    int
	Duration        time.Duration
	AttachedPicture bool // reisen exposes no disposition flag; reisenSource leaves this false
}

// RawPacket is the demux-library packet shape before it is wrapped into
// packet.Packet.
type RawPacket struct {
	StreamIndex int
	Type        StreamType
	PTS, DTS    float64
	HasPTS      bool
	HasDTS      bool
	Duration    float64
	Size        int
	Data        []byte
}

// RawFrame is the demux-library decoded-frame shape before it is wrapped
// into frame.Frame.
type RawFrame struct {
	Data               []byte
	PresentationOffset time.Duration
	Width, Height      int
	SampleRate         int
	ChannelCount       int
	NbSamples          int
}

// Source is the narrow contract the engine needs from the demux/decode
// library. The production implementation wraps reisen.Media directly; tests
// use a fake implementation so the pipeline can be exercised without real
// media files.
type Source interface {
	FormatName() string
	Streams() []StreamInfo

	OpenDecode() error
	CloseDecode() error
	Close() error

	OpenStream(index int) error
	CloseStream(index int) error

	// ReadPacket returns the next demuxed packet, or found=false at EOF.
	ReadPacket() (pkt RawPacket, found bool, err error)

	// ReadVideoFrame/ReadAudioFrame decode one frame from the named stream's most recently read
	// packet. found=false with a nil error means "frame skipped" (the
	// decoder needs another packet, e.g. B-frame reordering).
	ReadVideoFrame(streamIndex int) (fr RawFrame, found bool, err error)
	ReadAudioFrame(streamIndex int) (fr RawFrame, found bool, err error)

	// Rewind repositions a single stream to target.
	Rewind(streamIndex int, target time.Duration) error
}

// reisenSource adapts reisen.Media to Source. Only the subset of reisen's
// surface this engine actually exercises is called here; fields the engine
// wants that reisen does not expose (pixel format beyond packed RGBA,
// sample aspect ratio, attached-picture disposition, bit rate) are filled
// with the documented defaults noted in DESIGN.md rather than invented
// reisen API calls.
type reisenSource struct {
	media  *reisen.Media
	videos []*reisen.VideoStream
	audios []*reisen.AudioStream
}

// Open opens filename as a reisen.Media and returns a ready Source.
func Open(filename string) (Source, error) {
	m, err := reisen.NewMedia(filename)
	if err != nil {
		return nil, err
	}
	return &reisenSource{
		media:  m,
		videos: m.VideoStreams(),
		audios: m.AudioStreams(),
	}, nil
}

func (s *reisenSource) FormatName() string { return "" }

func (s *reisenSource) Streams() []StreamInfo {
	infos := make([]StreamInfo, 0, len(s.videos)+len(s.audios))
	for _, v := range s.videos {
		num, den := v.FrameRate()
		dur, _ := v.Duration()
		infos = append(infos, StreamInfo{
			Index:        v.Index(),
			Type:         StreamVideo,
			Width:        v.Width(),
			Height:       v.Height(),
			FrameRateNum: num,
			FrameRateDen: den,
			Duration:     dur,
		})
	}
	for _, a := range s.audios {
		dur, _ := a.Duration()
		infos = append(infos, StreamInfo{
			Index:        a.Index(),
			Type:         StreamAudio,
			SampleRate:   a.SampleRate(),
			ChannelCount: a.ChannelCount(),
			Duration:     dur,
		})
	}
	return infos
}

func (s *reisenSource) OpenDecode() error  { return s.media.OpenDecode() }
func (s *reisenSource) CloseDecode() error { return s.media.CloseDecode() }
func (s *reisenSource) Close() error       { s.media.Close(); return nil }

func (s *reisenSource) OpenStream(index int) error {
	if v := s.videoByIndex(index); v != nil {
		return v.Open()
	}
	if a := s.audioByIndex(index); a != nil {
		return a.Open()
	}
	return nil
}

func (s *reisenSource) CloseStream(index int) error {
	if v := s.videoByIndex(index); v != nil {
		return v.Close()
	}
	if a := s.audioByIndex(index); a != nil {
		return a.Close()
	}
	return nil
}

func (s *reisenSource) ReadPacket() (RawPacket, bool, error) {
	pkt, found, err := s.media.ReadPacket()
	if err != nil || !found {
		return RawPacket{}, found, err
	}
	t := StreamOther
	switch pkt.Type() {
	case reisen.StreamVideo:
		t = StreamVideo
	case reisen.StreamAudio:
		t = StreamAudio
	}
	return RawPacket{StreamIndex: pkt.StreamIndex(), Type: t}, true, nil
}

func (s *reisenSource) ReadVideoFrame(streamIndex int) (RawFrame, bool, error) {
	v := s.videoByIndex(streamIndex)
	if v == nil {
		return RawFrame{}, false, nil
	}
	f, found, err := v.ReadVideoFrame()
	if err != nil || !found || f == nil {
		return RawFrame{}, false, err
	}
	pos, err := f.PresentationOffset()
	if err != nil {
		return RawFrame{}, false, err
	}
	return RawFrame{Data: f.Data(), PresentationOffset: pos, Width: v.Width(), Height: v.Height()}, true, nil
}

func (s *reisenSource) ReadAudioFrame(streamIndex int) (RawFrame, bool, error) {
	a := s.audioByIndex(streamIndex)
	if a == nil {
		return RawFrame{}, false, nil
	}
	f, found, err := a.ReadAudioFrame()
	if err != nil || !found || f == nil {
		return RawFrame{}, false, err
	}
	pos, err := f.PresentationOffset()
	if err != nil {
		return RawFrame{}, false, err
	}
	return RawFrame{Data: f.Data(), PresentationOffset: pos, SampleRate: a.SampleRate(), ChannelCount: a.ChannelCount()}, true, nil
}

func (s *reisenSource) Rewind(streamIndex int, target time.Duration) error {
	if v := s.videoByIndex(streamIndex); v != nil {
		return v.Rewind(target)
	}
	if a := s.audioByIndex(streamIndex); a != nil {
		return a.Rewind(target)
	}
	return nil
}

func (s *reisenSource) videoByIndex(index int) *reisen.VideoStream {
	for _, v := range s.videos {
		if v.Index() == index {
			return v
		}
	}
	return nil
}

func (s *reisenSource) audioByIndex(index int) *reisen.AudioStream {
	for _, a := range s.audios {
		if a.Index() == index {
			return a
		}
	}
	return nil
}
