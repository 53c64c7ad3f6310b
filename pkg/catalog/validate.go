package catalog

import (
	"errors"
	"fmt"
	"os"

	"montagego/pkg/model"
)

// Issue is a non-fatal problem found in a catalog.
type Issue struct {
	Sequence string
	Index    int
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("sequence %d (%s): %s", i.Index, i.Sequence, i.Message)
}

// Validate reports catalog entries that will degrade playback. None of them stop the loop:
// an out-of-range nextSequence ends the chain, a short clip pool gets replenished.
func Validate(cat *model.Catalog) []Issue {
	var issues []Issue
	add := func(i int, seq *model.Sequence, format string, args ...any) {
		issues = append(issues, Issue{Sequence: seq.Name, Index: i, Message: fmt.Sprintf(format, args...)})
	}

	for i := range cat.Sequences {
		seq := &cat.Sequences[i]
		if len(seq.Videos) == 0 {
			add(i, seq, "no videos")
		}
		if seq.NumberOfVideos <= 0 {
			add(i, seq, "numberOfVideos is %d", seq.NumberOfVideos)
		} else if seq.NumberOfVideos > len(seq.Videos) {
			add(i, seq, "numberOfVideos %d exceeds %d videos, pool will be replenished", seq.NumberOfVideos, len(seq.Videos))
		}
		if seq.DisplayDuration <= 0 {
			add(i, seq, "displayDuration is %dms", seq.DisplayDuration)
		}
		if seq.Soundtrack == "" {
			add(i, seq, "no soundtrack")
		}
		if next, ok := seq.Next(); ok && (next < 0 || next >= len(cat.Sequences)) {
			add(i, seq, "nextSequence %d out of range, chain ends here", next)
		}
	}
	return issues
}

// MissingFiles returns an error listing every referenced media file that cannot be found.
func MissingFiles(cat *model.Catalog, narration *model.NarrationCatalog) error {
	var errs []error
	check := func(path string) {
		if path == "" {
			return
		}
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, err)
		}
	}

	for i := range cat.Sequences {
		check(cat.Sequences[i].Soundtrack)
		for _, v := range cat.Sequences[i].Videos {
			check(v.Video)
		}
	}
	if narration != nil {
		for _, c := range narration.Clips {
			check(c.Audio)
		}
	}
	return errors.Join(errs...)
}
