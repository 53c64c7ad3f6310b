package sequencer

import "time"

// FadeVolume maps a soundtrack position onto the fade-out window [start, start+length].
// Inside the window the volume falls linearly from peak to 0; ok is false outside it.
func FadeVolume(pos, start, length time.Duration, peak float64) (vol float64, ok bool) {
	end := start + length
	if pos < start || pos > end {
		return 0, false
	}
	if length <= 0 {
		return 0, true
	}
	frac := float64(pos-start) / float64(length)
	return peak * (1 - frac), true
}

// UpdateFade applies the fade-out of the active soundtrack. Outside the window
// the volume keeps its last value; only a new sequence restores full volume.
func (s *Sequencer) UpdateFade() {
	h := s.soundtrack.handle
	if h == nil || s.seq == nil || !h.IsPlaying() {
		return
	}

	vol, ok := FadeVolume(h.CurrentTime(), s.seq.FadeStart(), s.opts.FadeDuration, s.opts.SoundtrackVolume)
	if !ok {
		return
	}
	h.SetVolume(vol)
	s.soundtrack.volume = vol
}
