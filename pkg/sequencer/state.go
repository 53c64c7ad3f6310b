package sequencer

import (
	"time"

	"montagego/pkg/media"
)

// clip is one loaded video of the active sequence.
type clip struct {
	index int // position in the sequence's video list
	video media.Video
}

// playbackState is reset whenever a sequence loads.
// remaining only shrinks between replenishments; a clip appears in it at most once.
type playbackState struct {
	sequenceIndex int
	clips         []*clip // every loaded handle, owned and released by the sequencer
	remaining     []*clip
	pendingLoads  int
	current       *clip
	clipsPlayed   int
	sequenceStart time.Time
	holding       bool
}

type soundtrackState struct {
	handle  media.Audio
	volume  float64
	pending bool
}

type narrationState struct {
	handle       media.Audio
	clip         string
	loading      bool
	lastPlayedAt time.Time
	nextInterval time.Duration
}

// Snapshot is a read-only view of the playback state, safe to share across goroutines.
type Snapshot struct {
	Active            bool          `json:"active"`
	SequenceIndex     int           `json:"sequence_index"`
	Sequence          string        `json:"sequence"`
	ClipsPlayed       int           `json:"clips_played"`
	NumberOfVideos    int           `json:"number_of_videos"`
	RemainingClips    int           `json:"remaining_clips"`
	PendingLoads      int           `json:"pending_loads"`
	CurrentClip       string        `json:"current_clip,omitempty"`
	SoundtrackPlaying bool          `json:"soundtrack_playing"`
	SoundtrackVolume  float64       `json:"soundtrack_volume"`
	SoundtrackTime    time.Duration `json:"soundtrack_time"`
	NarrationPlaying  bool          `json:"narration_playing"`
	NarrationClip     string        `json:"narration_clip,omitempty"`
	NextNarrationIn   time.Duration `json:"next_narration_in"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
