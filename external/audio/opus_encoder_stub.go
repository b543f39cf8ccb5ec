//go:build !opus

package audio

import "github.com/foxseedlab/roomwarden/internal/audio"

func NewOpusEncoder() (audio.Encoder, error) {
	return nil, audio.ErrEncoderUnavailable
}
