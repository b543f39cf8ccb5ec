//go:build opus

package audio

import (
	"testing"

	"github.com/foxseedlab/roomwarden/internal/audio"
)

func TestOpusEncoder_EncodesSilenceFrame(t *testing.T) {
	enc, err := NewOpusEncoder()
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	packet, err := enc.Encode(make([]int16, audio.SamplesPerFrame*audio.Channels))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(packet) == 0 || len(packet) > audio.MaxPacketBytes {
		t.Fatalf("unexpected packet size %d", len(packet))
	}
}
