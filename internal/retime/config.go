package retime

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimelineVersion tags persisted timeline configurations.
const TimelineVersion = "1.0"

// TimelineConfig is the persisted form of an editing session.
type TimelineConfig struct {
	Version string          `json:"version"`
	Frames  []TimelineEntry `json:"frames"`
}

// EncodeTimeline serializes entries as indented JSON. Encoding is stable:
// loading a config and encoding it again reproduces the frames content
// byte for byte.
func EncodeTimeline(entries []TimelineEntry) ([]byte, error) {
	cfg := TimelineConfig{Version: TimelineVersion, Frames: entries}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}
	return data, nil
}

// DecodeTimeline parses and validates a persisted timeline configuration.
func DecodeTimeline(data []byte) (*TimelineConfig, error) {
	var cfg TimelineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: malformed timeline config: %v", ErrInvalidInput, err)
	}
	for _, e := range cfg.Frames {
		if e.HoldDuration < 1 {
			return nil, fmt.Errorf("%w: timeline index %d has hold duration %d", ErrInvalidInput, e.Index, e.HoldDuration)
		}
	}
	return &cfg, nil
}

// SaveTimeline writes entries to path. The parent directory must already
// exist; materializing directories is the caller's job.
func SaveTimeline(path string, entries []TimelineEntry) error {
	data, err := EncodeTimeline(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write timeline config: %w", err)
	}
	return nil
}

// LoadTimeline reads a timeline configuration from path.
func LoadTimeline(path string) (*TimelineConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: timeline config %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read timeline config: %w", err)
	}
	return DecodeTimeline(data)
}
