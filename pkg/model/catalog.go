package model

import "time"

// VideoRef points at a single clip of a sequence.
type VideoRef struct {
	Video string `json:"video" yaml:"video"`
}

// Sequence is one narrative unit: a clip pool, a soundtrack and display timing.
// JSON keys are matched case-insensitively, so catalogs written with
// "songlength" load into SongLength as well.
type Sequence struct {
	Name            string     `json:"name" yaml:"name"`
	Videos          []VideoRef `json:"videos" yaml:"videos"`
	Soundtrack      string     `json:"soundtrack" yaml:"soundtrack"`
	NumberOfVideos  int        `json:"numberOfVideos" yaml:"numberOfVideos"`
	DisplayDuration int64      `json:"displayDuration" yaml:"displayDuration"` // milliseconds
	SongLength      float64    `json:"songLength" yaml:"songLength"`           // seconds, start of the fade-out
	NextSequence    *int       `json:"nextSequence,omitempty" yaml:"nextSequence,omitempty"`
}

// Display returns how long each clip stays on screen.
func (s *Sequence) Display() time.Duration {
	return time.Duration(s.DisplayDuration) * time.Millisecond
}

// FadeStart returns the soundtrack position at which the fade-out begins.
func (s *Sequence) FadeStart() time.Duration {
	return time.Duration(s.SongLength * float64(time.Second))
}

// Next returns the index of the follow-up sequence, if one is declared.
func (s *Sequence) Next() (int, bool) {
	if s.NextSequence == nil {
		return 0, false
	}
	return *s.NextSequence, true
}

// Catalog is the static list of sequences.
type Catalog struct {
	Sequences []Sequence `json:"sequences" yaml:"sequences"`
}

// IndexByName returns the index of the sequence with the given name, or -1.
func (c *Catalog) IndexByName(name string) int {
	for i := range c.Sequences {
		if c.Sequences[i].Name == name {
			return i
		}
	}
	return -1
}

// NarrationClip is a single spoken narration file.
type NarrationClip struct {
	Audio string `json:"audio" yaml:"audio"`
}

// NarrationCatalog is the static list of narration clips.
type NarrationCatalog struct {
	Clips []NarrationClip `json:"clips" yaml:"clips"`
}
