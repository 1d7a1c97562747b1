package app

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Frame budgets. A frame over FrameBudget misses a 60 Hz refresh.
const (
	FrameBudget   = 16600 * time.Microsecond
	TerrainBudget = 5 * time.Millisecond
)

// Summary describes the frames recorded since the last reset.
type Summary struct {
	Frames int
	FPS    float64

	MeanMS float64
	P95MS  float64

	TerrainMeanMS float64
	TerrainP95MS  float64

	OverBudget        int // frames over FrameBudget
	TerrainOverBudget int // terrain updates over TerrainBudget
}

// FrameStats accumulates frame and terrain update durations.
type FrameStats struct {
	frames  []float64
	terrain []float64
	span    time.Duration
}

// NewFrameStats creates an empty recorder sized for about one second at 60 Hz.
func NewFrameStats() *FrameStats {
	return &FrameStats{
		frames:  make([]float64, 0, 64),
		terrain: make([]float64, 0, 64),
	}
}

// Add records one frame. A zero terrain duration means no terrain update ran.
func (s *FrameStats) Add(frame, terrain time.Duration) {
	s.frames = append(s.frames, ms(frame))
	if terrain > 0 {
		s.terrain = append(s.terrain, ms(terrain))
	}
	s.span += frame
}

// Span returns the total recorded frame time.
func (s *FrameStats) Span() time.Duration { return s.span }

// Summary computes statistics over the recorded frames.
func (s *FrameStats) Summary() Summary {
	sum := Summary{Frames: len(s.frames)}
	if len(s.frames) == 0 {
		return sum
	}
	sum.MeanMS, sum.P95MS, sum.OverBudget = describe(s.frames, ms(FrameBudget))
	sum.TerrainMeanMS, sum.TerrainP95MS, sum.TerrainOverBudget = describe(s.terrain, ms(TerrainBudget))
	if s.span > 0 {
		sum.FPS = float64(len(s.frames)) / s.span.Seconds()
	}
	return sum
}

// Reset clears the recorded frames.
func (s *FrameStats) Reset() {
	s.frames = s.frames[:0]
	s.terrain = s.terrain[:0]
	s.span = 0
}

func describe(samples []float64, budget float64) (mean, p95 float64, over int) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mean = stat.Mean(sorted, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	for _, v := range sorted {
		if v > budget {
			over++
		}
	}
	return mean, p95, over
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
