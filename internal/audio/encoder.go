package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const (
	SampleRate      = 48000
	Channels        = 2
	FrameDuration   = 20 * time.Millisecond
	SamplesPerFrame = SampleRate / 1000 * 20
	FrameBytes      = SamplesPerFrame * Channels * 2
	MaxPacketBytes  = 4000
)

var ErrEncoderUnavailable = errors.New("opus encoder unavailable: binary built without the opus tag")

// Encoder turns one interleaved stereo PCM frame into one Opus packet.
type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
}

type EncoderFactory func() (Encoder, error)

// ReadFrame fills frame with the next 20ms of s16le stereo PCM from r.
// A short final chunk is padded with silence. It returns io.EOF once r is
// exhausted.
func ReadFrame(r io.Reader, frame []int16) error {
	buf := make([]byte, FrameBytes)
	n, err := io.ReadFull(r, buf)
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		clear(buf[n:])
	case err != nil:
		return err
	}
	for i := 0; i < len(frame) && i*2+1 < len(buf); i++ {
		frame[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return nil
}
