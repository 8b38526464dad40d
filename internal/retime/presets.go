package retime

import "fmt"

// Shooting presets from traditional animation: hold each unique frame for
// 2, 3 or 4 consecutive output frames.
var presetFactors = map[string]int{
	"twos":   2,
	"threes": 3,
	"fours":  4,
}

// PresetFactor resolves a named shooting preset to its reduction factor.
func PresetFactor(name string) (int, error) {
	f, ok := presetFactors[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown stop-motion preset %q", ErrInvalidInput, name)
	}
	return f, nil
}
