package announcement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/foxseedlab/roomwarden/internal/audio"
	"github.com/foxseedlab/roomwarden/internal/discord"
)

const JobName = "announcement"

type VoiceJoiner interface {
	JoinVoiceChannel(ctx context.Context, channelID string) (discord.VoiceConnection, error)
}

// Announcer joins a voice channel and plays a raw s16le 48kHz stereo PCM
// file as Opus frames.
type Announcer struct {
	joiner     VoiceJoiner
	newEncoder audio.EncoderFactory
	channelID  string
	audioPath  string
	open       func(path string) (io.ReadCloser, error)
}

func NewAnnouncer(joiner VoiceJoiner, newEncoder audio.EncoderFactory, channelID, audioPath string) *Announcer {
	return &Announcer{
		joiner:     joiner,
		newEncoder: newEncoder,
		channelID:  channelID,
		audioPath:  audioPath,
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func (a *Announcer) Run(ctx context.Context) error {
	if a.channelID == "" || a.audioPath == "" {
		slog.Info("announcement not configured; skipping")
		return nil
	}
	enc, err := a.newEncoder()
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	src, err := a.open(a.audioPath)
	if err != nil {
		return fmt.Errorf("open announcement audio: %w", err)
	}
	defer src.Close()

	vc, err := a.joiner.JoinVoiceChannel(ctx, a.channelID)
	if err != nil {
		return err
	}
	defer func() {
		if err := vc.Disconnect(); err != nil {
			slog.Warn("failed to leave announcement channel", "channel_id", a.channelID, "error", err)
		}
	}()
	slog.Info("announcement started", "channel_id", a.channelID, "audio_path", a.audioPath)

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("set speaking: %w", err)
	}
	defer func() { _ = vc.Speaking(false) }()

	frames, err := stream(ctx, src, enc, vc)
	if err != nil {
		return fmt.Errorf("stream announcement after %d frames: %w", frames, err)
	}
	slog.Info("announcement finished", "channel_id", a.channelID, "frames", frames, "duration", (audio.FrameDuration * time.Duration(frames)).String())
	return nil
}

func stream(ctx context.Context, src io.Reader, enc audio.Encoder, vc discord.VoiceConnection) (int, error) {
	pcm := make([]int16, audio.SamplesPerFrame*audio.Channels)
	frames := 0
	for {
		err := audio.ReadFrame(src, pcm)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		packet, err := enc.Encode(pcm)
		if err != nil {
			return frames, err
		}
		if err := vc.SendOpus(ctx, packet); err != nil {
			return frames, err
		}
		frames++
	}
}
