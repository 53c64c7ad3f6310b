package sequencer

import (
	"fmt"
	"slices"

	"montagego/pkg/media"
	"montagego/pkg/model"
)

// showNext takes a random clip out of the pool and starts it muted.
// Clips that refuse to start are released and the next one is tried.
// It reports false when the pool cannot provide any clip.
func (s *Sequencer) showNext(stopCurrent bool) bool {
	p := &s.playback
	for {
		c, err := s.takeClip()
		if err != nil {
			return false
		}

		if stopCurrent && p.current != nil {
			p.current.video.Stop()
			p.current = nil
		}

		// Clips are visual only; sound comes from the soundtrack and narration
		c.video.SetVolume(0)
		if err := c.video.Play(); err != nil {
			s.discard(c)
			s.loadFailed(&LoadError{Kind: media.KindVideo, Path: c.video.Path(), Err: err})
			continue
		}

		p.current = c
		p.holding = false
		s.record(model.EventClipShown, c.video.Path(), fmt.Sprintf("video %d", c.index))
		return true
	}
}

// takeClip removes a uniformly random clip from the pool, replenishing it first when it ran dry.
func (s *Sequencer) takeClip() (*clip, error) {
	p := &s.playback
	if len(p.remaining) == 0 {
		if err := s.replenish(); err != nil {
			return nil, err
		}
	}

	i := s.rng.IntN(len(p.remaining))
	c := p.remaining[i]
	p.remaining = slices.Delete(p.remaining, i, i+1)
	return c, nil
}

// replenish refills an exhausted pool from the sequence's loaded clips.
// The clip on screen is left out unless it is the only one.
func (s *Sequencer) replenish() error {
	p := &s.playback
	for _, c := range p.clips {
		if c != p.current || len(p.clips) == 1 {
			p.remaining = append(p.remaining, c)
		}
	}
	if len(p.remaining) == 0 {
		if p.pendingLoads > 0 {
			return fmt.Errorf("%w: %d loads pending", ErrEmptyPool, p.pendingLoads)
		}
		return ErrEmptyPool
	}

	s.log.Warn("Clip pool exhausted, replenishing", "sequence", s.seq.Name, "clips", len(p.remaining))
	s.record(model.EventPoolReplenished, "", fmt.Sprintf("%d clips", len(p.remaining)))
	return nil
}

// discard releases a clip and forgets it for the rest of the sequence.
func (s *Sequencer) discard(c *clip) {
	p := &s.playback
	p.clips = slices.DeleteFunc(p.clips, func(x *clip) bool { return x == c })
	p.remaining = slices.DeleteFunc(p.remaining, func(x *clip) bool { return x == c })
	if p.current == c {
		p.current = nil
	}
	c.video.Stop()
	_ = c.video.Close()
}
