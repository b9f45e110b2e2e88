package canopy

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/tanema/gween/ease"
)

// audioSampleRate is the context rate the ambient loop is resampled to.
const audioSampleRate = 44100

var keyVolume = TweenKey{Target: "audio", Property: "volume"}

// audioPlayer is the part of *audio.Player the ambient loop drives.
type audioPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(v float64)
	Close() error
}

// Ambient is the looping background track. Audio is optional: a missing
// or undecodable file disables it and every call becomes a no-op.
type Ambient struct {
	log    *slog.Logger
	tweens *Tweens
	cfg    AudioConfig

	player  audioPlayer
	volume  float64
	playing bool
}

// LoadAmbient decodes the MP3 at cfg.Path into an endless loop. Failures
// are logged and yield a disabled Ambient, never an error.
func LoadAmbient(ctx *audio.Context, cfg AudioConfig, tweens *Tweens, log *slog.Logger) *Ambient {
	a := &Ambient{log: log, tweens: tweens, cfg: cfg}
	if cfg.Path == "" {
		log.Info("audio disabled: no track configured")
		return a
	}
	p, err := openLoop(ctx, cfg.Path)
	if err != nil {
		log.Warn("audio disabled", "path", cfg.Path, "err", err)
		return a
	}
	p.SetVolume(0)
	a.player = p
	log.Info("audio loaded", "path", cfg.Path)
	return a
}

func openLoop(ctx *audio.Context, path string) (*audio.Player, error) {
	if ctx == nil {
		return nil, fmt.Errorf("open %s: no audio context", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	stream, err := mp3.DecodeWithSampleRate(ctx.SampleRate(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	loop := audio.NewInfiniteLoop(stream, stream.Length())
	p, err := ctx.NewPlayer(loop)
	if err != nil {
		return nil, fmt.Errorf("player %s: %w", path, err)
	}
	return p, nil
}

// NewAudioContext returns the process-wide audio context. Ebitengine
// allows only one.
func NewAudioContext() *audio.Context {
	if ctx := audio.CurrentContext(); ctx != nil {
		return ctx
	}
	return audio.NewContext(audioSampleRate)
}

// Enabled reports whether a track is loaded.
func (a *Ambient) Enabled() bool { return a.player != nil }

// Playing reports whether the loop is on or fading in.
func (a *Ambient) Playing() bool { return a.playing }

// Volume returns the current, possibly mid-fade, volume.
func (a *Ambient) Volume() float64 { return a.volume }

// Play starts the loop and fades it in.
func (a *Ambient) Play() {
	if a.player == nil || a.playing {
		return
	}
	a.playing = true
	if !a.player.IsPlaying() {
		a.volume = 0
		a.player.SetVolume(0)
		a.player.Play()
	}
	a.tweens.Start(keyVolume, FloatProp(&a.volume), a.cfg.Volume, a.cfg.Fade, ease.InOutQuad)
}

// Stop fades the loop out and pauses it.
func (a *Ambient) Stop() {
	if a.player == nil || !a.playing {
		return
	}
	a.playing = false
	a.tweens.Start(keyVolume, FloatProp(&a.volume), 0, a.cfg.Fade, ease.InOutQuad).
		OnComplete(func() { a.player.Pause() })
}

// Toggle switches between Play and Stop.
func (a *Ambient) Toggle() {
	if a.playing {
		a.Stop()
		return
	}
	a.Play()
}

// Update pushes the faded volume to the player.
func (a *Ambient) Update() {
	if a.player != nil {
		a.player.SetVolume(clamp01(a.volume))
	}
}

// Close releases the player.
func (a *Ambient) Close() error {
	if a.player == nil {
		return nil
	}
	a.tweens.Cancel(keyVolume)
	err := a.player.Close()
	a.player = nil
	a.playing = false
	return err
}
