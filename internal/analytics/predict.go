package analytics

// Default prediction weights. Overall score dominates; Bloom balance nudges
// students whose performance is lopsided across cognitive levels.
const (
	defaultOverallWeight = 0.8
	defaultBalanceWeight = 0.2

	// PassThreshold is the probability at or above which a student is
	// predicted to pass.
	PassThreshold = 50.0
)

// PredictorConfig tunes the pass prediction. Weights should sum to 1; zero
// values fall back to the defaults.
type PredictorConfig struct {
	OverallWeight float64
	BalanceWeight float64
}

// Predictor computes pass predictions from metrics. Deterministic: equal
// metrics always produce equal predictions.
type Predictor struct {
	overallWeight float64
	balanceWeight float64
}

func NewPredictor(cfg PredictorConfig) *Predictor {
	overall := cfg.OverallWeight
	balance := cfg.BalanceWeight
	if overall == 0 && balance == 0 {
		overall = defaultOverallWeight
		balance = defaultBalanceWeight
	}
	return &Predictor{overallWeight: overall, balanceWeight: balance}
}

// Predict estimates pass probability as a weighted blend of overall score
// and Bloom balance. Balance starts at 100 and loses the spread between the
// strongest and weakest Bloom means, so even coverage scores higher than a
// single spike. The result is clamped to [0, 100] and non-decreasing in
// overall score for a fixed balance.
func (p *Predictor) Predict(m Metrics) Prediction {
	if m.TotalActivities == 0 {
		return Prediction{PredictedToPass: false, PassProbability: 0}
	}

	balance := 100.0
	if len(m.PerBloom) > 1 {
		min, max := 100.0, 0.0
		for _, score := range m.PerBloom {
			if score < min {
				min = score
			}
			if score > max {
				max = score
			}
		}
		balance -= max - min
		if balance < 0 {
			balance = 0
		}
	}

	prob := p.overallWeight*m.OverallScore + p.balanceWeight*balance
	if prob < 0 {
		prob = 0
	}
	if prob > 100 {
		prob = 100
	}
	prob = round2(prob)

	return Prediction{
		PredictedToPass: prob >= PassThreshold,
		PassProbability: prob,
	}
}
