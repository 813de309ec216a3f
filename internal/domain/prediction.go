package domain

import "time"

// Confidence bucket texts, kept in the original product's wording.
const (
	BucketStrong   = "fortement profitable"
	BucketPossible = "potentiellement profitable"
	BucketUnlikely = "probablement non profitable"
)

// ConfidenceThresholds maps a probability to a human-readable bucket. The
// cut points are configuration, not literals scattered through call sites.
type ConfidenceThresholds struct {
	Strong float64 `json:"strong" yaml:"strong"`
	Weak   float64 `json:"weak" yaml:"weak"`
}

// DefaultConfidenceThresholds returns the product defaults (0.6 / 0.4).
func DefaultConfidenceThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{Strong: 0.6, Weak: 0.4}
}

// Bucket returns the textual interpretation of a profit probability.
func (t ConfidenceThresholds) Bucket(probability float64) string {
	switch {
	case probability > t.Strong:
		return BucketStrong
	case probability >= t.Weak:
		return BucketPossible
	default:
		return BucketUnlikely
	}
}

// HorizonPrediction is the outcome of one model call.
type HorizonPrediction struct {
	HorizonDays  int     `json:"horizon_days"`
	Probability  float64 `json:"probability"`
	Bucket       string  `json:"bucket"`
	ModelVersion string  `json:"model_version"`
}

// Prediction is the dual-horizon result surfaced to the dashboard. When a
// horizon has no trained model yet, its probability is nil and the
// corresponding Unavailable field explains why.
type Prediction struct {
	TraderAddress    string    `json:"trader_address"`
	Timestamp        time.Time `json:"timestamp"`
	Probability7d    *float64  `json:"probability_7d,omitempty"`
	Probability30d   *float64  `json:"probability_30d,omitempty"`
	ConfidenceBucket string    `json:"confidence_bucket_text,omitempty"`
	Unavailable7d    string    `json:"unavailable_7d,omitempty"`
	Unavailable30d   string    `json:"unavailable_30d,omitempty"`
}
