package retime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func sampleTimeline(t *testing.T, frameCount, factor int) []TimelineEntry {
	t.Helper()
	s, err := NewSampler(factor)
	require.NoError(t, err)
	samples := drainSampler(t, s.Sample(newMemSource(frameCount, 30)))
	entries, err := BuildTimeline(samples, factor)
	require.NoError(t, err)
	return entries
}

func TestBuildTimelineDefaults(t *testing.T) {
	entries := sampleTimeline(t, 90, 3)
	require.Len(t, entries, 30)
	for i, e := range entries {
		assert.Equal(t, i, e.Index)
		assert.Equal(t, i*3, e.SourceIndex)
		assert.Equal(t, 3, e.HoldDuration)
		assert.True(t, e.Selected)
	}

	_, err := BuildTimeline(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApplyOverridesIsPure(t *testing.T) {
	entries := sampleTimeline(t, 12, 2)

	updated, err := ApplyOverrides(entries, map[int]EntryOverride{
		1: {HoldDuration: intPtr(6)},
		4: {Selected: boolPtr(false)},
		5: {HoldDuration: intPtr(1), Selected: boolPtr(false)},
	})
	require.NoError(t, err)

	// The input is untouched.
	for _, e := range entries {
		assert.Equal(t, 2, e.HoldDuration)
		assert.True(t, e.Selected)
	}

	assert.Equal(t, 6, updated[1].HoldDuration)
	assert.True(t, updated[1].Selected)
	assert.False(t, updated[4].Selected)
	assert.Equal(t, 2, updated[4].HoldDuration)
	assert.Equal(t, 1, updated[5].HoldDuration)
	assert.False(t, updated[5].Selected)
	// Unspecified entries keep their defaults.
	assert.Equal(t, 2, updated[0].HoldDuration)
}

func TestApplyOverridesValidation(t *testing.T) {
	entries := sampleTimeline(t, 12, 2)

	_, err := ApplyOverrides(entries, map[int]EntryOverride{2: {HoldDuration: intPtr(0)}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ApplyOverrides(entries, map[int]EntryOverride{99: {Selected: boolPtr(false)}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestToRenderInputFiltersDeselected(t *testing.T) {
	entries := sampleTimeline(t, 12, 2)
	entries, err := ApplyOverrides(entries, map[int]EntryOverride{
		// A deselected entry contributes nothing no matter its hold.
		2: {Selected: boolPtr(false), HoldDuration: intPtr(100)},
	})
	require.NoError(t, err)

	frames := ToRenderInput(entries)
	require.Len(t, frames, 5)
	total := 0
	for i, hf := range frames {
		assert.NotEqual(t, 4, hf.SourceIndex, "deselected source frame must be absent")
		total += hf.HoldDuration
		if i > 0 {
			assert.Greater(t, hf.SourceIndex, frames[i-1].SourceIndex, "order preserved")
		}
	}
	assert.Equal(t, 10, total)
}

func TestSummarizeCountsSelectedOnly(t *testing.T) {
	entries := sampleTimeline(t, 12, 2)
	entries, err := ApplyOverrides(entries, map[int]EntryOverride{
		0: {HoldDuration: intPtr(4)},
		3: {Selected: boolPtr(false)},
	})
	require.NoError(t, err)

	s := Summarize(entries)
	assert.Equal(t, 6, s.TotalFrames)
	assert.Equal(t, 12, s.TotalHoldDuration) // 4 + 2 + 2 + 2 + 2, entry 3 excluded
	assert.Equal(t, 4, s.DefaultHold)
	assert.Equal(t, 1, s.Presets["fast_action"])
	assert.Equal(t, 6, s.Presets["dramatic_pause"])
}

func TestSummarizeEmptyTimeline(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalFrames)
	assert.Zero(t, s.TotalHoldDuration)
	assert.Equal(t, 2, s.DefaultHold)
}

func TestTimelineRoundTrip(t *testing.T) {
	entries := sampleTimeline(t, 90, 3)
	entries, err := ApplyOverrides(entries, map[int]EntryOverride{
		7:  {HoldDuration: intPtr(6)},
		11: {Selected: boolPtr(false)},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "timeline.json")
	require.NoError(t, SaveTimeline(path, entries))

	cfg, err := LoadTimeline(path)
	require.NoError(t, err)
	assert.Equal(t, TimelineVersion, cfg.Version)
	assert.Equal(t, entries, cfg.Frames)

	// Saving a loaded config reproduces the bytes exactly.
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	second, err := EncodeTimeline(cfg.Frames)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadTimelineMissingFile(t *testing.T) {
	_, err := LoadTimeline(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeTimelineRejectsBadHolds(t *testing.T) {
	_, err := DecodeTimeline([]byte(`{"version":"1.0","frames":[{"index":0,"original_frame":0,"timestamp":0,"hold_duration":0,"selected":true}]}`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DecodeTimeline([]byte(`{"version":"1.0", frames: []`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPresetFactor(t *testing.T) {
	for name, want := range map[string]int{"twos": 2, "threes": 3, "fours": 4} {
		got, err := PresetFactor(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := PresetFactor("fives")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
