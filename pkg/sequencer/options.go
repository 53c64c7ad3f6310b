package sequencer

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"montagego/pkg/config"
	"montagego/pkg/model"
)

// Recorder receives playback events. Implementations must not block.
type Recorder interface {
	Record(ev model.PlaybackEvent)
}

type nopRecorder struct{}

func (nopRecorder) Record(model.PlaybackEvent) {}

// Options tunes a Sequencer. Zero values fall back to the defaults of config.DefaultConfig.
type Options struct {
	DisplayWidth  int
	DisplayHeight int

	SoundtrackVolume float64
	FadeDuration     time.Duration

	NarrationEnabled     bool
	NarrationIntervalMin time.Duration
	NarrationIntervalMax time.Duration
	NarrationVolume      float64

	Rand     *rand.Rand
	Clock    func() time.Time
	Recorder Recorder
	Logger   *slog.Logger
}

// OptionsFromConfig maps the application config onto sequencer options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DisplayWidth:         cfg.Display.Width,
		DisplayHeight:        cfg.Display.Height,
		SoundtrackVolume:     cfg.Soundtrack.Volume,
		FadeDuration:         cfg.Soundtrack.FadeDuration.D(),
		NarrationEnabled:     cfg.Narration.Enabled,
		NarrationIntervalMin: cfg.Narration.IntervalMin.D(),
		NarrationIntervalMax: cfg.Narration.IntervalMax.D(),
		NarrationVolume:      cfg.Narration.Volume,
	}
}

func (o Options) withDefaults() Options {
	def := OptionsFromConfig(config.DefaultConfig())
	if o.DisplayWidth <= 0 || o.DisplayHeight <= 0 {
		o.DisplayWidth, o.DisplayHeight = def.DisplayWidth, def.DisplayHeight
	}
	if o.SoundtrackVolume <= 0 {
		o.SoundtrackVolume = def.SoundtrackVolume
	}
	if o.FadeDuration <= 0 {
		o.FadeDuration = def.FadeDuration
	}
	if o.NarrationIntervalMin <= 0 && o.NarrationIntervalMax <= 0 {
		o.NarrationIntervalMin, o.NarrationIntervalMax = def.NarrationIntervalMin, def.NarrationIntervalMax
	}
	if o.NarrationVolume <= 0 {
		o.NarrationVolume = def.NarrationVolume
	}
	if o.Rand == nil {
		now := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(now, now>>7|1))
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "sequencer")
	}
	return o
}
