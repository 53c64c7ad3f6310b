package sequencer

import (
	"time"

	"montagego/pkg/media"
	"montagego/pkg/model"
)

// UpdateNarration starts a random narration clip once the current interval has
// elapsed and nothing is being narrated. Narration never overlaps itself.
func (s *Sequencer) UpdateNarration(now time.Time) {
	n := &s.narr
	if !s.opts.NarrationEnabled || len(s.narration.Clips) == 0 || n.loading {
		return
	}

	if n.handle != nil {
		if n.handle.IsPlaying() {
			return
		}
		// Playback ended before its completion event arrived; the interval starts now
		s.finishNarration(n.handle, now)
		return
	}

	if now.Sub(n.lastPlayedAt) <= n.nextInterval {
		return
	}

	path := s.narration.Clips[s.rng.IntN(len(s.narration.Clips))].Audio
	n.loading = true
	n.clip = path
	s.audio.LoadAudio(path, func(a media.Audio, err error) {
		s.inbox.post(func(now time.Time) {
			s.onNarrationLoaded(path, a, err, now)
		})
	})
}

func (s *Sequencer) onNarrationLoaded(path string, a media.Audio, err error, now time.Time) {
	n := &s.narr
	if !n.loading || n.clip != path {
		// Sequencer was closed while loading
		if a != nil {
			_ = a.Close()
		}
		return
	}
	n.loading = false

	if err != nil {
		s.loadFailed(&LoadError{Kind: media.KindAudio, Path: path, Err: err})
		s.rearmNarration(now)
		return
	}

	a.SetVolume(s.opts.NarrationVolume)
	a.OnEnded(func() {
		s.inbox.post(func(now time.Time) {
			s.finishNarration(a, now)
		})
	})
	if err := a.Play(); err != nil {
		_ = a.Close()
		s.loadFailed(&LoadError{Kind: media.KindAudio, Path: path, Err: err})
		s.rearmNarration(now)
		return
	}

	n.handle = a
	s.log.Debug("Narration started", "clip", path)
	s.record(model.EventNarrationStarted, path, "")
}

// finishNarration releases a completed narration and draws the next interval. Safe to call twice.
func (s *Sequencer) finishNarration(a media.Audio, now time.Time) {
	n := &s.narr
	if n.handle != a {
		return
	}
	_ = a.Close()
	n.handle = nil
	s.rearmNarration(now)
	s.record(model.EventNarrationEnded, n.clip, n.nextInterval.String())
}

func (s *Sequencer) rearmNarration(now time.Time) {
	s.narr.lastPlayedAt = now
	s.narr.nextInterval = s.drawInterval()
}

// drawInterval samples the pause before the next narration uniformly from [min, max].
func (s *Sequencer) drawInterval() time.Duration {
	lo, hi := s.opts.NarrationIntervalMin, s.opts.NarrationIntervalMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rng.Int64N(int64(hi-lo)+1))
}
