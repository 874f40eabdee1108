// Package predict abstracts model inference behind a capability
// interface. Strategies consume a Predictor without knowing whether the
// scores come from a rule or a trained model.
package predict

import "fmt"

// Predictor scores a feature vector. Implementations must be safe to
// call repeatedly from a single simulation goroutine; they do not need
// to be safe for concurrent use, since every parallel run owns its own
// strategy instance.
type Predictor interface {
	Predict(features []float64) ([]float64, error)
	Close() error
}

// RulePredictor is a deterministic baseline: it scores the mean of the
// feature vector through a simple threshold, emitting 1 when the mean is
// positive and 0 otherwise. Useful for tests and for running ML-gated
// strategies without a model file.
type RulePredictor struct{}

func (RulePredictor) Predict(features []float64) ([]float64, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("empty feature vector")
	}
	var sum float64
	for _, f := range features {
		sum += f
	}
	if sum/float64(len(features)) > 0 {
		return []float64{1}, nil
	}
	return []float64{0}, nil
}

func (RulePredictor) Close() error { return nil }
