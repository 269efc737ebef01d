// Package anomaly flags statistically unusual records by isolation
// scoring over the normalized phone feature. The model is a pluggable
// strategy; the isolation forest in this package is the reference
// implementation.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/datakith/cleanse/internal/model"
)

// Model scores a single feature value after fitting.
type Model interface {
	Score(v float64) float64
}

// Strategy fits a scoring model over a batch-wide feature sample.
type Strategy interface {
	Fit(features []float64) (Model, error)
}

// FeatureParseError reports a feature value that could not be parsed as
// a number. It disables the whole detection stage: scoring a partial
// batch would skew the fitted distribution for every record.
type FeatureParseError struct {
	Row   int
	Value string
	Err   error
}

func (e *FeatureParseError) Error() string {
	return fmt.Sprintf("parse feature at row %d: %q: %v", e.Row, e.Value, e.Err)
}

func (e *FeatureParseError) Unwrap() error {
	return e.Err
}

// Result is the detector output for one record.
type Result struct {
	Score    float64
	Validity model.Validity
}

// Detector fits a model over the whole batch and labels the top
// contamination fraction of scores as Invalid.
type Detector struct {
	strategy      Strategy
	contamination float64
}

// NewDetector creates a detector. A nil strategy falls back to the
// default isolation forest.
func NewDetector(strategy Strategy, contamination float64) *Detector {
	if strategy == nil {
		strategy = NewForestStrategy(DefaultForestConfig())
	}
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.05
	}
	return &Detector{strategy: strategy, contamination: contamination}
}

// Detect parses the normalized phone column into a 1-D feature, fits the
// ensemble, and scores every record. Parsing is fail-fast: the first
// non-numeric value aborts the stage with a FeatureParseError.
//
// Labeling is by rank: the round(contamination*n) highest scores become
// Invalid, ties broken by record index. When every feature value is
// identical all scores are equal and the contamination count still
// applies, so the label split stays deterministic.
func (d *Detector) Detect(phones []string) ([]Result, error) {
	features := make([]float64, len(phones))
	for i, p := range phones {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, &FeatureParseError{Row: i, Value: p, Err: err}
		}
		features[i] = v
	}

	if len(features) == 0 {
		return []Result{}, nil
	}

	fitted, err := d.strategy.Fit(features)
	if err != nil {
		return nil, fmt.Errorf("fit anomaly model: %w", err)
	}

	results := make([]Result, len(features))
	for i, v := range features {
		results[i] = Result{Score: fitted.Score(v), Validity: model.ValidityValid}
	}

	// Rank by score descending, index ascending for ties.
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].Score > results[order[b]].Score
	})

	invalid := int(math.Round(d.contamination * float64(len(results))))
	for _, idx := range order[:invalid] {
		results[idx].Validity = model.ValidityInvalid
	}

	return results, nil
}
