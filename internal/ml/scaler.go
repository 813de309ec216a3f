// Package ml implements the small supervised-learning toolkit behind the
// trader profitability models: a standard scaler, a deterministic random
// forest classifier, stratified splitting and evaluation metrics. Everything
// is seeded and single-threaded so that training on identical input is
// bit-for-bit reproducible.
package ml

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns to zero mean and unit variance. It is
// fit on the training split only and applied unchanged at prediction time.
type Scaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// FitScaler computes per-column mean and standard deviation. Columns with
// zero variance scale by 1 so constant features pass through centered.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("cannot fit scaler on empty data")
	}

	width := len(rows[0])
	column := make([]float64, len(rows))
	s := &Scaler{
		Means: make([]float64, width),
		Stds:  make([]float64, width),
	}

	for j := 0; j < width; j++ {
		for i, row := range rows {
			if len(row) != width {
				return nil, errors.Errorf("ragged feature matrix: row %d has %d columns, want %d", i, len(row), width)
			}
			column[i] = row[j]
		}
		s.Means[j] = stat.Mean(column, nil)
		std := stat.StdDev(column, nil)
		if std == 0 || len(rows) < 2 {
			std = 1
		}
		s.Stds[j] = std
	}

	return s, nil
}

// Transform returns a standardized copy of the row.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Means) {
		return nil, errors.Errorf("feature width mismatch: got %d, scaler fit on %d", len(row), len(s.Means))
	}

	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Means[j]) / s.Stds[j]
	}
	return out, nil
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
