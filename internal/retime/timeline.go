package retime

import "fmt"

// TimelineEntry is one editable row of the timeline: a kept frame, how long
// it is held in the output, and whether it is still part of the cut. The
// JSON tags are the persistence format consumed by the editor UI.
type TimelineEntry struct {
	Index        int     `json:"index"`
	SourceIndex  int     `json:"original_frame"`
	Timestamp    float64 `json:"timestamp"`
	HoldDuration int     `json:"hold_duration"`
	Selected     bool    `json:"selected"`
}

// EntryOverride carries an editor's per-frame adjustments. A nil field keeps
// the entry's current value.
type EntryOverride struct {
	HoldDuration *int
	Selected     *bool
}

// TimelineSummary is the aggregate shown in the editor header.
type TimelineSummary struct {
	TotalFrames       int            `json:"total_frames"`
	TotalHoldDuration int            `json:"total_hold_duration"`
	DefaultHold       int            `json:"default_hold"`
	Presets           map[string]int `json:"presets"`
}

// HoldPresets returns the editor's named hold durations.
func HoldPresets() map[string]int {
	return map[string]int{
		"fast_action":    1,
		"normal":         2,
		"slow_motion":    4,
		"dramatic_pause": 6,
	}
}

// BuildTimeline derives the default timeline from sampled frames: every frame
// selected and held for the reduction factor.
func BuildTimeline(samples []SampledFrame, reductionFactor int) ([]TimelineEntry, error) {
	if reductionFactor < 1 {
		return nil, fmt.Errorf("%w: reduction factor must be >= 1, got %d", ErrInvalidInput, reductionFactor)
	}
	entries := make([]TimelineEntry, 0, len(samples))
	for _, s := range samples {
		entries = append(entries, TimelineEntry{
			Index:        s.Index,
			SourceIndex:  s.SourceIndex,
			Timestamp:    s.Timestamp,
			HoldDuration: reductionFactor,
			Selected:     true,
		})
	}
	return entries, nil
}

// ApplyOverrides returns a copy of entries with the edits applied; the input
// slice is never mutated. Every override must reference an existing timeline
// index and carry a hold duration of at least one.
func ApplyOverrides(entries []TimelineEntry, overrides map[int]EntryOverride) ([]TimelineEntry, error) {
	byIndex := make(map[int]int, len(entries))
	for i, e := range entries {
		byIndex[e.Index] = i
	}
	for idx, ov := range overrides {
		if _, ok := byIndex[idx]; !ok {
			return nil, fmt.Errorf("%w: override references unknown timeline index %d", ErrInvalidInput, idx)
		}
		if ov.HoldDuration != nil && *ov.HoldDuration < 1 {
			return nil, fmt.Errorf("%w: hold duration for timeline index %d must be >= 1, got %d",
				ErrInvalidInput, idx, *ov.HoldDuration)
		}
	}

	out := make([]TimelineEntry, len(entries))
	copy(out, entries)
	for idx, ov := range overrides {
		i := byIndex[idx]
		if ov.HoldDuration != nil {
			out[i].HoldDuration = *ov.HoldDuration
		}
		if ov.Selected != nil {
			out[i].Selected = *ov.Selected
		}
	}
	return out, nil
}

// ToRenderInput filters the timeline down to its selected entries, preserving
// order. Deselected entries contribute nothing regardless of hold duration.
func ToRenderInput(entries []TimelineEntry) []HoldFrame {
	var frames []HoldFrame
	for _, e := range entries {
		if !e.Selected {
			continue
		}
		frames = append(frames, HoldFrame{SourceIndex: e.SourceIndex, HoldDuration: e.HoldDuration})
	}
	return frames
}

// Summarize aggregates the timeline for editor display. The hold total counts
// selected entries only, so the header matches what a render of the same
// timeline actually emits.
func Summarize(entries []TimelineEntry) TimelineSummary {
	s := TimelineSummary{
		TotalFrames: len(entries),
		DefaultHold: 2,
		Presets:     HoldPresets(),
	}
	if len(entries) > 0 {
		s.DefaultHold = entries[0].HoldDuration
	}
	for _, e := range entries {
		if e.Selected {
			s.TotalHoldDuration += e.HoldDuration
		}
	}
	return s
}
