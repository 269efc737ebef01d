package anomaly

import (
	"math/rand"
	"testing"
)

func clusterWithOutlier(n int) []float64 {
	rng := rand.New(rand.NewSource(7))
	features := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		features = append(features, 5_550_000_000+rng.Float64()*1_000_000)
	}
	features = append(features, 99) // far outside the cluster
	return features
}

func TestForest_OutlierScoresHigher(t *testing.T) {
	features := clusterWithOutlier(200)

	strategy := NewForestStrategy(ForestConfig{Trees: 100, SubsampleSize: 128, Seed: 42})
	fitted, err := strategy.Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	outlierScore := fitted.Score(99)
	for _, v := range features[:50] {
		if s := fitted.Score(v); s >= outlierScore {
			t.Fatalf("inlier %v scored %v, outlier scored %v", v, s, outlierScore)
		}
	}
}

func TestForest_ScoreBounds(t *testing.T) {
	features := clusterWithOutlier(100)
	strategy := NewForestStrategy(ForestConfig{Seed: 42})
	fitted, err := strategy.Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	for _, v := range features {
		s := fitted.Score(v)
		if s < 0 || s > 1 {
			t.Errorf("score %v for %v out of [0,1]", s, v)
		}
	}
}

func TestForest_Deterministic(t *testing.T) {
	features := clusterWithOutlier(100)

	scoresFor := func() []float64 {
		strategy := NewForestStrategy(ForestConfig{Trees: 50, SubsampleSize: 64, Seed: 42})
		fitted, err := strategy.Fit(features)
		if err != nil {
			t.Fatalf("fit failed: %v", err)
		}
		out := make([]float64, len(features))
		for i, v := range features {
			out[i] = fitted.Score(v)
		}
		return out
	}

	first := scoresFor()
	second := scoresFor()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("scores diverged at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestForest_IdenticalFeatures(t *testing.T) {
	features := make([]float64, 50)
	for i := range features {
		features[i] = 5551234567
	}

	strategy := NewForestStrategy(ForestConfig{Seed: 42})
	fitted, err := strategy.Fit(features)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	first := fitted.Score(features[0])
	for _, v := range features {
		if fitted.Score(v) != first {
			t.Fatal("identical features must score identically")
		}
	}
}

func TestForest_EmptySample(t *testing.T) {
	strategy := NewForestStrategy(ForestConfig{Seed: 42})
	if _, err := strategy.Fit(nil); err == nil {
		t.Error("expected error for empty feature sample")
	}
}

func TestAvgPathLength(t *testing.T) {
	if got := avgPathLength(1); got != 0 {
		t.Errorf("c(1) = %v, want 0", got)
	}
	if got := avgPathLength(2); got != 1 {
		t.Errorf("c(2) = %v, want 1", got)
	}
	// c(n) grows with n
	if avgPathLength(256) <= avgPathLength(16) {
		t.Error("c(n) should increase with n")
	}
}
