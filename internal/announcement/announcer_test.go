package announcement

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/foxseedlab/roomwarden/internal/audio"
	"github.com/foxseedlab/roomwarden/internal/discord"
)

type mockEncoder struct {
	calls int
}

func (m *mockEncoder) Encode(pcm []int16) ([]byte, error) {
	m.calls++
	return []byte{byte(m.calls)}, nil
}

type mockVoiceConnection struct {
	speaking     []bool
	frames       [][]byte
	disconnected bool
	sendErr      error
}

func (m *mockVoiceConnection) Speaking(v bool) error {
	m.speaking = append(m.speaking, v)
	return nil
}

func (m *mockVoiceConnection) SendOpus(_ context.Context, frame []byte) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.frames = append(m.frames, frame)
	return nil
}

func (m *mockVoiceConnection) Disconnect() error {
	m.disconnected = true
	return nil
}

type mockJoiner struct {
	vc      *mockVoiceConnection
	joined  []string
	joinErr error
}

func (m *mockJoiner) JoinVoiceChannel(_ context.Context, channelID string) (discord.VoiceConnection, error) {
	if m.joinErr != nil {
		return nil, m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return m.vc, nil
}

func newTestAnnouncer(joiner *mockJoiner, enc audio.Encoder, pcm []byte) *Announcer {
	a := NewAnnouncer(joiner, func() (audio.Encoder, error) { return enc, nil }, "vc-hall", "/announce.pcm")
	a.open = func(string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(pcm)), nil
	}
	return a
}

func TestRun_StreamsEveryFrameThenLeaves(t *testing.T) {
	vc := &mockVoiceConnection{}
	joiner := &mockJoiner{vc: vc}
	enc := &mockEncoder{}
	pcm := make([]byte, audio.FrameBytes*2+100)
	a := newTestAnnouncer(joiner, enc, pcm)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(joiner.joined) != 1 || joiner.joined[0] != "vc-hall" {
		t.Fatalf("unexpected joins: %v", joiner.joined)
	}
	if len(vc.frames) != 3 {
		t.Fatalf("expected 3 frames including padded tail, got %d", len(vc.frames))
	}
	if len(vc.speaking) != 2 || !vc.speaking[0] || vc.speaking[1] {
		t.Fatalf("expected speaking on then off, got %v", vc.speaking)
	}
	if !vc.disconnected {
		t.Fatal("expected voice connection closed")
	}
}

func TestRun_EncoderUnavailableDoesNotJoin(t *testing.T) {
	joiner := &mockJoiner{vc: &mockVoiceConnection{}}
	a := NewAnnouncer(joiner, func() (audio.Encoder, error) { return nil, audio.ErrEncoderUnavailable }, "vc-hall", "/announce.pcm")

	if err := a.Run(context.Background()); !errors.Is(err, audio.ErrEncoderUnavailable) {
		t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
	}
	if len(joiner.joined) != 0 {
		t.Fatalf("expected no join, got %v", joiner.joined)
	}
}

func TestRun_SendFailureStillLeavesChannel(t *testing.T) {
	vc := &mockVoiceConnection{sendErr: context.Canceled}
	joiner := &mockJoiner{vc: vc}
	a := newTestAnnouncer(joiner, &mockEncoder{}, make([]byte, audio.FrameBytes))

	if err := a.Run(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected send error, got %v", err)
	}
	if !vc.disconnected {
		t.Fatal("expected voice connection closed after failure")
	}
}

func TestRun_NotConfiguredIsNoop(t *testing.T) {
	joiner := &mockJoiner{vc: &mockVoiceConnection{}}
	a := NewAnnouncer(joiner, nil, "", "")

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(joiner.joined) != 0 {
		t.Fatal("expected no join when unconfigured")
	}
}
