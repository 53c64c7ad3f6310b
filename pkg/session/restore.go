package session

import (
	"context"
	"log/slog"
	"strconv"

	"montagego/pkg/store"
)

// ResumeIndex returns the sequence that was playing when the previous run ended.
// It reports false when nothing usable is stored, including indices the current
// catalog no longer has.
func ResumeIndex(ctx context.Context, st store.StateStore, catalogLen int) (int, bool) {
	val, found := st.GetState(ctx, store.KeyLastSequence)
	if !found || val == "" {
		return 0, false
	}

	idx, err := strconv.Atoi(val)
	if err != nil {
		slog.Error("Session: Failed to parse stored sequence index", "value", val, "error", err)
		return 0, false
	}
	if idx < 0 || idx >= catalogLen {
		slog.Info("Session: Stored sequence no longer in catalog, ignoring", "index", idx, "sequences", catalogLen)
		return 0, false
	}

	slog.Info("Session: Resuming previous sequence", "index", idx)
	return idx, true
}
