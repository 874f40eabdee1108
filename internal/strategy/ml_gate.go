package strategy

import (
	"math"

	"strata/internal/predict"
)

// MLGate trades a momentum entry only when an injected predictor agrees.
// The feature vector is the recent normalized return window plus RSI and
// ATR context; the predictor's first score gates the entry.
type MLGate struct {
	base

	predictor predict.Predictor

	lookback     int
	threshold    float64
	positionSize float64
}

// NewMLGate builds the strategy around the given predictor. Pass
// predict.RulePredictor{} to run it without a model.
func NewMLGate(p predict.Predictor) *MLGate {
	s := &MLGate{predictor: p}
	s.params = NewParams(
		IntParam("lookback", "Feature window (bars)", 10, 5, 50),
		FloatParam("threshold", "Minimum predictor score to enter", 0.5, 0.0, 1.0, 0.05),
		FloatParam("positionSize", "Position size (% of cash)", 90, 10, 100, 10),
	)
	return s
}

func (s *MLGate) Name() string { return "ml_gate" }

func (s *MLGate) Description() string {
	return "Momentum entries gated by an injected prediction model."
}

func (s *MLGate) WarmupBars() int {
	return s.params.Int("lookback") + 15
}

func (s *MLGate) Initialize(ctx Context) {
	s.lookback = s.params.Int("lookback")
	s.threshold = s.params.Float("threshold")
	s.positionSize = s.params.Float("positionSize")
}

func (s *MLGate) features(ctx Context) []float64 {
	closes := ctx.Closes(s.lookback + 1)
	if len(closes) < s.lookback+1 {
		return nil
	}
	features := make([]float64, 0, s.lookback+2)
	for i := 1; i < len(closes); i++ {
		features = append(features, closes[i]/closes[i-1]-1)
	}
	rsi := ctx.RSI(14)
	atr := ctx.ATR(14)
	close := ctx.CurrentBar().Close
	if math.IsNaN(rsi) || math.IsNaN(atr) || close == 0 {
		return nil
	}
	features = append(features, rsi/100, atr/close)
	return features
}

func (s *MLGate) OnBar(ctx Context) {
	if ctx.HasPosition() {
		// exit when momentum flips
		if ctx.ROC(s.lookback) < 0 {
			ctx.ClosePosition()
		}
		return
	}

	if ctx.ROC(s.lookback) <= 0 {
		return
	}
	features := s.features(ctx)
	if features == nil {
		return
	}
	scores, err := s.predictor.Predict(features)
	if err != nil || len(scores) == 0 || scores[0] < s.threshold {
		return
	}
	if quantity := ctx.QuantityForPercentage(s.positionSize); quantity > 0 {
		ctx.ExecuteMarketOrder(quantity)
	}
}

func (s *MLGate) OnEnd(ctx Context) {
	if ctx.HasPosition() {
		ctx.ClosePosition()
	}
}
