package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/errs"
	"github.com/erparts/avplay/internal/packet"
)

func TestAudioDecoderDecodeOneRejectsWrongAttachment(t *testing.T) {
	d := &AudioDecoder{}
	_, err := d.DecodeOne(packet.Packet{}, 42)
	assert.ErrorIs(t, err, errs.ErrAgain)
}

func TestAudioDecoderDerivesSampleCountFromDataWhenMissing(t *testing.T) {
	d := &AudioDecoder{}
	raw := demux.RawFrame{Data: make([]byte, 16), SampleRate: 48000, ChannelCount: 2}
	fr, err := d.DecodeOne(packet.Packet{Serial: 1}, raw)

	assert.NoError(t, err)
	assert.Equal(t, 4, fr.Audio.NbSamples) // 16 bytes / (2 channels * 2 bytes)
	assert.InDelta(t, 4.0/48000.0, fr.Duration, 1e-9)
	assert.Equal(t, "stereo", fr.Audio.ChannelLayout)
}

func TestAudioDecoderReconfiguredOnFormatChangeAndClearsOnRead(t *testing.T) {
	d := &AudioDecoder{}
	_, err := d.DecodeOne(packet.Packet{Serial: 1}, demux.RawFrame{SampleRate: 44100, ChannelCount: 2})
	assert.NoError(t, err)
	assert.True(t, d.Reconfigured())
	assert.False(t, d.Reconfigured()) // cleared after first read

	_, err = d.DecodeOne(packet.Packet{Serial: 1}, demux.RawFrame{SampleRate: 44100, ChannelCount: 2})
	assert.NoError(t, err)
	assert.False(t, d.Reconfigured()) // same format/serial, no reconfiguration

	_, err = d.DecodeOne(packet.Packet{Serial: 2}, demux.RawFrame{SampleRate: 44100, ChannelCount: 2})
	assert.NoError(t, err)
	assert.True(t, d.Reconfigured()) // serial bump alone triggers reconfiguration
}

func TestChannelLayoutNameMapping(t *testing.T) {
	assert.Equal(t, "mono", channelLayoutName(1))
	assert.Equal(t, "stereo", channelLayoutName(2))
	assert.Equal(t, "multichannel", channelLayoutName(6))
}
