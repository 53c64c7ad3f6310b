// Package sequencer drives the generative playback loop: it picks clips from the
// active sequence, chains sequences, fades the soundtrack and schedules narration.
//
// A Sequencer is not safe for concurrent use. All methods except Snapshot,
// RequestSequence and RequestSequenceByName must be called from the goroutine
// that calls Tick. Media completions are queued and applied at the start of the
// next Tick.
package sequencer

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"montagego/pkg/logging"
	"montagego/pkg/media"
	"montagego/pkg/model"
)

// Sequencer owns every media handle of the running piece.
type Sequencer struct {
	catalog   *model.Catalog
	narration *model.NarrationCatalog
	videos    media.VideoLoader
	audio     media.AudioLoader
	renderer  media.Renderer

	opts     Options
	rng      *rand.Rand
	now      func() time.Time
	log      *slog.Logger
	recorder Recorder

	inbox inbox
	// gen increments on every sequence load; completions from older loads are released on arrival.
	gen uint64
	seq *model.Sequence

	playback   playbackState
	soundtrack soundtrackState
	narr       narrationState

	snapshot atomic.Pointer[Snapshot]
}

// New creates a Sequencer over an immutable sequence catalog and narration catalog.
// No sequence is loaded until SelectSequence or SelectRandom is called.
func New(cat *model.Catalog, narration *model.NarrationCatalog, videos media.VideoLoader, audio media.AudioLoader, renderer media.Renderer, opts Options) (*Sequencer, error) {
	if cat == nil || len(cat.Sequences) == 0 {
		return nil, errors.New("sequencer: empty sequence catalog")
	}
	if videos == nil || audio == nil || renderer == nil {
		return nil, errors.New("sequencer: missing media collaborator")
	}
	if narration == nil {
		narration = &model.NarrationCatalog{}
	}

	opts = opts.withDefaults()
	s := &Sequencer{
		catalog:   cat,
		narration: narration,
		videos:    videos,
		audio:     audio,
		renderer:  renderer,
		opts:      opts,
		rng:       opts.Rand,
		now:       opts.Clock,
		log:       opts.Logger,
		recorder:  opts.Recorder,
	}
	s.publish(s.now())
	return s, nil
}

// SelectRandom loads a sequence drawn uniformly from the catalog.
func (s *Sequencer) SelectRandom() {
	// Cannot fail: the index is always in range
	_ = s.SelectSequence(s.rng.IntN(len(s.catalog.Sequences)))
}

// SelectSequence makes index the current sequence and loads it.
// An index outside the catalog leaves all state untouched and returns ErrIndexOutOfRange.
func (s *Sequencer) SelectSequence(index int) error {
	if index < 0 || index >= len(s.catalog.Sequences) {
		err := fmt.Errorf("%w: %d (catalog has %d)", ErrIndexOutOfRange, index, len(s.catalog.Sequences))
		s.log.Warn("Sequence selection ignored", "index", index, "error", err)
		return err
	}

	s.playback.sequenceIndex = index
	s.LoadSequence(&s.catalog.Sequences[index])
	return nil
}

// RequestSequence schedules SelectSequence(index) for the next tick. Safe for concurrent use.
func (s *Sequencer) RequestSequence(index int) error {
	if index < 0 || index >= len(s.catalog.Sequences) {
		return fmt.Errorf("%w: %d (catalog has %d)", ErrIndexOutOfRange, index, len(s.catalog.Sequences))
	}
	s.inbox.post(func(time.Time) {
		_ = s.SelectSequence(index)
	})
	return nil
}

// RequestSequenceByName schedules the named sequence for the next tick. Safe for concurrent use.
func (s *Sequencer) RequestSequenceByName(name string) (int, error) {
	idx := s.catalog.IndexByName(name)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %q", ErrUnknownSequence, name)
	}
	return idx, s.RequestSequence(idx)
}

// LoadSequence releases the previous clip pool and soundtrack, then requests
// every clip and the soundtrack of seq. The soundtrack starts looping at the
// configured volume once its load completes.
func (s *Sequencer) LoadSequence(seq *model.Sequence) {
	now := s.now()
	s.gen++
	gen := s.gen

	s.releaseClips()
	s.seq = seq
	s.playback = playbackState{
		sequenceIndex: s.playback.sequenceIndex,
		pendingLoads:  len(seq.Videos),
		sequenceStart: now,
	}

	for i, ref := range seq.Videos {
		idx, path := i, ref.Video
		s.videos.LoadVideo(path, func(v media.Video, err error) {
			s.inbox.post(func(time.Time) {
				s.onVideoLoaded(gen, idx, path, v, err)
			})
		})
	}

	s.releaseSoundtrack()
	s.soundtrack.volume = s.opts.SoundtrackVolume
	if seq.Soundtrack != "" {
		s.soundtrack.pending = true
		path := seq.Soundtrack
		s.audio.LoadAudio(path, func(a media.Audio, err error) {
			s.inbox.post(func(time.Time) {
				s.onSoundtrackLoaded(gen, path, a, err)
			})
		})
	}

	s.log.Info("Sequence loaded", "index", s.playback.sequenceIndex, "name", seq.Name,
		"videos", len(seq.Videos), "clips", seq.NumberOfVideos, "display", seq.Display())
	s.record(model.EventSequenceLoaded, "", fmt.Sprintf("%d clips", seq.NumberOfVideos))
}

// Tick applies pending media completions, then advances the clip sequence,
// the soundtrack fade and the narration timer.
func (s *Sequencer) Tick(now time.Time) {
	s.inbox.drain(now)
	s.Advance(now)
	s.UpdateFade()
	s.UpdateNarration(now)
	s.publish(now)
}

// Advance runs the per-frame clip logic and draws the current clip.
func (s *Sequencer) Advance(now time.Time) {
	seq := s.seq
	if seq == nil {
		return
	}
	p := &s.playback

	if p.clipsPlayed == 0 {
		if !s.showNext(false) {
			if p.pendingLoads > 0 {
				// Nothing loaded yet; the sequence starts with its first clip
				return
			}
			// Every load failed: keep the sequence timing so the chain still moves on
			s.hold("no playable clips in sequence")
		}
		p.sequenceStart = now
		p.clipsPlayed++
		s.render()
		return
	}

	if now.Sub(p.sequenceStart) > seq.Display() {
		p.sequenceStart = now
		p.clipsPlayed++

		if p.clipsPlayed > seq.NumberOfVideos {
			p.clipsPlayed = 1
			s.selectNext(seq)
			return
		}

		if !s.showNext(true) {
			s.hold("clip pool empty")
		}
	}

	s.render()
}

// selectNext follows seq's nextSequence link. Without a valid link the current sequence keeps running.
func (s *Sequencer) selectNext(seq *model.Sequence) {
	next, ok := seq.Next()
	if !ok || next < 0 || next >= len(s.catalog.Sequences) {
		s.log.Debug("Sequence finished without follow-up, continuing", "name", seq.Name)
		return
	}
	_ = s.SelectSequence(next)
}

func (s *Sequencer) render() {
	c := s.playback.current
	if c == nil {
		return
	}
	dst := media.FitWidth(c.video.Size(), s.opts.DisplayWidth, s.opts.DisplayHeight)
	s.renderer.DrawFrame(c.video, dst)
	logging.Trace(s.log, "Frame drawn", "clip", c.video.Path(), "w", dst.Width, "h", dst.Height)
}

// hold keeps the last frame on screen when no clip can be shown. Logged once per episode.
func (s *Sequencer) hold(reason string) {
	if s.playback.holding {
		return
	}
	s.playback.holding = true
	s.log.Warn("Holding last frame", "sequence", s.seq.Name, "reason", reason)
}

func (s *Sequencer) onVideoLoaded(gen uint64, idx int, path string, v media.Video, err error) {
	if gen != s.gen {
		if v != nil {
			_ = v.Close()
		}
		return
	}
	s.playback.pendingLoads--

	if err != nil {
		s.loadFailed(&LoadError{Kind: media.KindVideo, Path: path, Err: err})
		return
	}

	c := &clip{index: idx, video: v}
	s.playback.clips = append(s.playback.clips, c)
	s.playback.remaining = append(s.playback.remaining, c)
	s.playback.holding = false
}

func (s *Sequencer) onSoundtrackLoaded(gen uint64, path string, a media.Audio, err error) {
	if gen != s.gen {
		if a != nil {
			_ = a.Close()
		}
		return
	}
	s.soundtrack.pending = false

	if err != nil {
		s.loadFailed(&LoadError{Kind: media.KindAudio, Path: path, Err: err})
		return
	}

	a.SetVolume(s.soundtrack.volume)
	if err := a.Loop(); err != nil {
		_ = a.Close()
		s.loadFailed(&LoadError{Kind: media.KindAudio, Path: path, Err: err})
		return
	}
	s.soundtrack.handle = a
	s.record(model.EventSoundtrackStarted, path, "")
}

func (s *Sequencer) loadFailed(err *LoadError) {
	s.log.Warn("Skipping media", "kind", err.Kind, "path", err.Path, "error", err.Err)
	s.record(model.EventLoadFailed, err.Path, err.Error())
}

func (s *Sequencer) releaseClips() {
	for _, c := range s.playback.clips {
		c.video.Stop()
		if err := c.video.Close(); err != nil {
			s.log.Debug("Failed to release clip", "path", c.video.Path(), "error", err)
		}
	}
	s.playback.clips = nil
	s.playback.remaining = nil
	s.playback.current = nil
}

func (s *Sequencer) releaseSoundtrack() {
	if h := s.soundtrack.handle; h != nil {
		h.Stop()
		if err := h.Close(); err != nil {
			s.log.Debug("Failed to release soundtrack", "path", h.Path(), "error", err)
		}
	}
	s.soundtrack = soundtrackState{}
}

// Close stops all playback and releases every handle. Completions still in flight are released on arrival.
func (s *Sequencer) Close() {
	s.gen++
	s.releaseClips()
	s.releaseSoundtrack()
	if h := s.narr.handle; h != nil {
		h.Stop()
		_ = h.Close()
	}
	s.narr = narrationState{}
	s.seq = nil
	s.inbox.drain(s.now())
	s.publish(s.now())
}

func (s *Sequencer) record(t model.EventType, path, detail string) {
	ev := model.PlaybackEvent{
		Type:          t,
		SequenceIndex: s.playback.sequenceIndex,
		Path:          path,
		Detail:        detail,
		Timestamp:     s.now(),
	}
	if s.seq != nil {
		ev.Sequence = s.seq.Name
	}
	s.recorder.Record(ev)
}

// Snapshot returns the state as of the last tick. Safe for concurrent use.
func (s *Sequencer) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

func (s *Sequencer) publish(now time.Time) {
	snap := &Snapshot{UpdatedAt: now}
	if s.seq != nil {
		p := &s.playback
		snap.Active = true
		snap.SequenceIndex = p.sequenceIndex
		snap.Sequence = s.seq.Name
		snap.ClipsPlayed = p.clipsPlayed
		snap.NumberOfVideos = s.seq.NumberOfVideos
		snap.RemainingClips = len(p.remaining)
		snap.PendingLoads = p.pendingLoads
		if p.current != nil {
			snap.CurrentClip = p.current.video.Path()
		}
	}
	if h := s.soundtrack.handle; h != nil {
		snap.SoundtrackPlaying = h.IsPlaying()
		snap.SoundtrackTime = h.CurrentTime()
	}
	snap.SoundtrackVolume = s.soundtrack.volume
	if h := s.narr.handle; h != nil {
		snap.NarrationPlaying = h.IsPlaying()
		snap.NarrationClip = s.narr.clip
	} else if !s.narr.loading {
		if wait := s.narr.nextInterval - now.Sub(s.narr.lastPlayedAt); wait > 0 {
			snap.NextNarrationIn = wait
		}
	}
	s.snapshot.Store(snap)
}
