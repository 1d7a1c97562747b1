package app

import (
	"math"
	"testing"
	"time"
)

func TestFrameStatsEmpty(t *testing.T) {
	s := NewFrameStats()
	sum := s.Summary()
	if sum != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", sum)
	}
}

func TestFrameStatsSummary(t *testing.T) {
	s := NewFrameStats()
	// 9 frames at 10ms, one slow frame at 30ms
	for i := 0; i < 9; i++ {
		s.Add(10*time.Millisecond, 2*time.Millisecond)
	}
	s.Add(30*time.Millisecond, 8*time.Millisecond)

	sum := s.Summary()
	if sum.Frames != 10 {
		t.Errorf("expected 10 frames, got %d", sum.Frames)
	}
	if math.Abs(sum.MeanMS-12) > 1e-9 {
		t.Errorf("expected mean 12ms, got %v", sum.MeanMS)
	}
	// With ten samples the empirical 95th percentile is the largest.
	if sum.P95MS != 30 {
		t.Errorf("expected p95 30ms, got %v", sum.P95MS)
	}
	if sum.OverBudget != 1 {
		t.Errorf("expected 1 frame over budget, got %d", sum.OverBudget)
	}
	if sum.TerrainOverBudget != 1 {
		t.Errorf("expected 1 terrain update over budget, got %d", sum.TerrainOverBudget)
	}
	if math.Abs(sum.TerrainMeanMS-2.6) > 1e-9 {
		t.Errorf("expected terrain mean 2.6ms, got %v", sum.TerrainMeanMS)
	}
	if math.Abs(sum.FPS-10/0.12) > 1e-6 {
		t.Errorf("expected fps %v, got %v", 10/0.12, sum.FPS)
	}
}

func TestFrameStatsSkipsAbsentTerrain(t *testing.T) {
	s := NewFrameStats()
	s.Add(10*time.Millisecond, 0)
	s.Add(12*time.Millisecond, 0)

	sum := s.Summary()
	if sum.TerrainMeanMS != 0 || sum.TerrainOverBudget != 0 {
		t.Errorf("expected no terrain stats, got %+v", sum)
	}
	if sum.MeanMS != 11 {
		t.Errorf("expected mean 11ms, got %v", sum.MeanMS)
	}
}

func TestFrameStatsReset(t *testing.T) {
	s := NewFrameStats()
	s.Add(20*time.Millisecond, time.Millisecond)
	s.Reset()

	if s.Span() != 0 {
		t.Errorf("expected zero span after reset, got %v", s.Span())
	}
	if got := s.Summary().Frames; got != 0 {
		t.Errorf("expected 0 frames after reset, got %d", got)
	}
}
