//go:build opus

package audio

import (
	"fmt"

	"github.com/foxseedlab/roomwarden/internal/audio"
	"github.com/hraban/opus"
)

type OpusEncoder struct {
	enc *opus.Encoder
	buf []byte
}

func NewOpusEncoder() (audio.Encoder, error) {
	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	return &OpusEncoder{enc: enc, buf: make([]byte, audio.MaxPacketBytes)}, nil
}

func (e *OpusEncoder) Encode(pcm []int16) ([]byte, error) {
	n, err := e.enc.Encode(pcm, e.buf)
	if err != nil {
		return nil, fmt.Errorf("encode opus frame: %w", err)
	}
	packet := make([]byte, n)
	copy(packet, e.buf[:n])
	return packet, nil
}
