package domain

import "time"

// FeatureColumn is one named model input with the value substituted when the
// raw data is missing or malformed.
type FeatureColumn struct {
	Name    string  `json:"name"`
	Default float64 `json:"default"`
}

// FeatureSchema is the named, ordered set of numeric inputs a model consumes.
// Trainer and predictor must share one schema; the schema travels inside the
// model metadata so a prediction against a stale artifact is rejected by name
// comparison instead of silently misaligning columns.
type FeatureSchema struct {
	Version string          `json:"version"`
	Columns []FeatureColumn `json:"columns"`
}

// Names returns the ordered column names.
func (s FeatureSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Matches reports whether the given ordered column names are identical to
// the schema's.
func (s FeatureSchema) Matches(names []string) bool {
	if len(names) != len(s.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if names[i] != c.Name {
			return false
		}
	}
	return true
}

// ModelMetadata describes one persisted model artifact.
type ModelMetadata struct {
	Version            string             `json:"version"`
	HorizonDays        int                `json:"horizon_days"`
	TrainingDate       time.Time          `json:"training_date"`
	TrainingSamples    int                `json:"training_samples"`
	FeatureColumns     []string           `json:"feature_columns"`
	SchemaVersion      string             `json:"schema_version"`
	Accuracy           float64            `json:"accuracy"`
	ROCAUC             float64            `json:"roc_auc"`
	FeatureImportances map[string]float64 `json:"feature_importances"`
}

// TrainingReport is the flat summary returned to callers after a retrain.
type TrainingReport struct {
	HorizonDays        int                `json:"horizon_days"`
	Version            string             `json:"version"`
	Accuracy           float64            `json:"accuracy"`
	ROCAUC             float64            `json:"roc_auc"`
	SamplesCount       int                `json:"samples_count"`
	FeatureImportances map[string]float64 `json:"feature_importances"`
}
