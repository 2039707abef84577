package quality

import (
	"fmt"

	"photo-pipeline/internal/pixel"
	"photo-pipeline/internal/resample"
)

// Level is an ordered thumbnail quality step. Higher levels visually
// dominate lower ones: a viewer that has displayed level N must never drop
// back below N for the same image within one loading session.
type Level int

const (
	// Micro is the smallest placeholder rendition.
	Micro Level = iota
	// Tiny is the grid-cell rendition.
	Tiny
	// Small is the preview rendition.
	Small
	// Medium is the near-full-screen rendition.
	Medium
	// Full is the original image at native resolution.
	Full
)

// levelSizes maps each generated level to its fixed square pixel target.
// Full has no entry; it is the source itself.
var levelSizes = map[Level]int{
	Micro:  44,
	Tiny:   120,
	Small:  300,
	Medium: 600,
}

// Levels lists all levels in ascending quality order.
func Levels() []Level {
	return []Level{Micro, Tiny, Small, Medium, Full}
}

// GeneratedLevels lists the levels the ladder actually resamples,
// in ascending quality order (everything below Full).
func GeneratedLevels() []Level {
	return []Level{Micro, Tiny, Small, Medium}
}

// Size returns the square pixel target for a level. Full returns 0,
// meaning native resolution.
func (l Level) Size() int {
	return levelSizes[l]
}

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Micro:
		return "micro"
	case Tiny:
		return "tiny"
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// Ladder generates quality-level renditions through a resample engine.
type Ladder struct {
	engine *resample.Engine
}

// NewLadder creates a ladder backed by the given engine.
func NewLadder(engine *resample.Engine) *Ladder {
	return &Ladder{engine: engine}
}

// Engine returns the underlying resample engine.
func (l *Ladder) Engine() *resample.Engine {
	return l.engine
}

// Generate produces the rendition for a single level. Full returns the
// source unchanged.
func (l *Ladder) Generate(src *pixel.Buffer, level Level) (*pixel.Buffer, error) {
	if src == nil {
		return nil, resample.ErrInvalidDimensions
	}
	if level == Full {
		return src, nil
	}
	size, ok := levelSizes[level]
	if !ok {
		return nil, fmt.Errorf("quality: unknown level %d", int(level))
	}
	return l.engine.Resample(src, size, size)
}

// GenerateAll produces every level from one decoded source, batched so the
// decode cost is amortized across the whole ladder. Called eagerly at
// ingest time so each level is cache-ready before first display.
func (l *Ladder) GenerateAll(src *pixel.Buffer) (map[Level]*pixel.Buffer, error) {
	if src == nil || src.Width() <= 0 || src.Height() <= 0 {
		return nil, resample.ErrInvalidDimensions
	}

	out := make(map[Level]*pixel.Buffer, len(levelSizes)+1)
	for _, level := range GeneratedLevels() {
		buf, err := l.engine.Resample(src, level.Size(), level.Size())
		if err != nil {
			return nil, fmt.Errorf("quality: generate %s: %w", level, err)
		}
		out[level] = buf
	}
	out[Full] = src
	return out, nil
}
