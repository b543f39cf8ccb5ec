package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestReadFrame_PadsShortFinalFrame(t *testing.T) {
	pcm := make([]byte, FrameBytes+4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(1000))
	binary.LittleEndian.PutUint16(pcm[FrameBytes:], uint16(0xfc18)) // -1000
	binary.LittleEndian.PutUint16(pcm[FrameBytes+2:], uint16(7))
	r := bytes.NewReader(pcm)
	frame := make([]int16, SamplesPerFrame*Channels)

	if err := ReadFrame(r, frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame[0] != 1000 {
		t.Fatalf("expected first sample 1000, got %d", frame[0])
	}

	if err := ReadFrame(r, frame); err != nil {
		t.Fatalf("unexpected error on short frame: %v", err)
	}
	if frame[0] != -1000 || frame[1] != 7 || frame[2] != 0 || frame[len(frame)-1] != 0 {
		t.Fatalf("expected padded frame, got %v...%v", frame[:3], frame[len(frame)-1])
	}

	if err := ReadFrame(r, frame); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestFrameConstants(t *testing.T) {
	if SamplesPerFrame != 960 {
		t.Fatalf("expected 960 samples per channel per frame, got %d", SamplesPerFrame)
	}
	if FrameBytes != 3840 {
		t.Fatalf("expected 3840 bytes per frame, got %d", FrameBytes)
	}
}
