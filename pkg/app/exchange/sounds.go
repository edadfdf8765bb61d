package exchange

import (
	"go.uber.org/zap"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/engine"
)

// SoundURLs are the cues a browser client plays for each sound effect.
var SoundURLs = map[engine.Sound]string{
	engine.SoundPlaced: "https://assets.mixkit.co/active_storage/sfx/2568/2568-preview.mp3",
	engine.SoundFilled: "https://assets.mixkit.co/active_storage/sfx/2000/2000-preview.mp3",
}

// SoundPlayer performs PlaySound effects.
type SoundPlayer interface {
	Play(s engine.Sound)
}

// LogSoundPlayer has no speaker; it records each cue in the log.
type LogSoundPlayer struct {
	logger *zap.Logger
}

func NewLogSoundPlayer(logger *zap.Logger) *LogSoundPlayer {
	return &LogSoundPlayer{logger: logger}
}

func (p *LogSoundPlayer) Play(s engine.Sound) {
	p.logger.Debug("sound_played", zap.String("sound", string(s)), zap.String("url", SoundURLs[s]))
}

// SoundFunc adapts a function to SoundPlayer.
type SoundFunc func(engine.Sound)

func (f SoundFunc) Play(s engine.Sound) { f(s) }
