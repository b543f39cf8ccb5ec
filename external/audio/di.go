package audio

import (
	"github.com/foxseedlab/roomwarden/internal/audio"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.ProvideValue(injector, audio.EncoderFactory(NewOpusEncoder))
}
