package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// declick is the ramp applied when a track starts, so a clip never begins on a hard edge.
const declick = 10 * time.Millisecond

// rampGain multiplies a stream by a gain that moves linearly towards a target.
// It is not synchronized: with the speaker, Stream and RampTo run under speaker.Lock().
type rampGain struct {
	Streamer beep.Streamer
	gain     float64
	target   float64
	step     float64 // gain change per sample, always >= 0
}

func newRampGain(s beep.Streamer, from float64) *rampGain {
	return &rampGain{Streamer: s, gain: from, target: from}
}

// RampTo moves the gain to target over d at the given sample rate. d <= 0 jumps.
func (r *rampGain) RampTo(target float64, rate beep.SampleRate, d time.Duration) {
	r.target = target
	n := float64(rate.N(d))
	if n <= 0 {
		r.gain = target
		r.step = 0
		return
	}
	diff := target - r.gain
	if diff < 0 {
		diff = -diff
	}
	r.step = diff / n
}

func (r *rampGain) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = r.Streamer.Stream(samples)
	for i := range samples[:n] {
		switch {
		case r.gain < r.target:
			r.gain = min(r.gain+r.step, r.target)
		case r.gain > r.target:
			r.gain = max(r.gain-r.step, r.target)
		}
		samples[i][0] *= r.gain
		samples[i][1] *= r.gain
	}
	return n, ok
}

func (r *rampGain) Err() error {
	return r.Streamer.Err()
}
