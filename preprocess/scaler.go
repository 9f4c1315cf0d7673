// Package preprocess holds column transforms fitted on training data.
package preprocess

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Transformer is a column transform that learns its parameters from data.
type Transformer interface {
	// Fit learns the parameters of the transform.
	Fit(X mat.Matrix) error
	// Transform applies the fitted transform.
	Transform(X mat.Matrix) (*mat.Dense, error)
	// FitTransform runs Fit then Transform on the same data.
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

var errNotFitted = errors.New("scaler is not fitted")

// MinMaxScaler maps every column linearly so the fitted minimum becomes 0
// and the fitted maximum becomes 1. A constant column has its range treated
// as 1, so it maps to 0 and still inverts exactly.
type MinMaxScaler struct {
	DataMin []float64
	DataMax []float64

	scale []float64
}

var _ Transformer = (*MinMaxScaler)(nil)

// NewMinMaxScaler returns an unfitted scaler.
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// Fit records the per-column minimum and maximum of X.
func (s *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("fit on empty %dx%d matrix", r, c)
	}
	s.DataMin = make([]float64, c)
	s.DataMax = make([]float64, c)
	s.scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		s.DataMin[j] = floats.Min(col)
		s.DataMax[j] = floats.Max(col)
		s.scale[j] = s.DataMax[j] - s.DataMin[j]
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}
	return nil
}

// Fitted reports whether Fit has been called successfully.
func (s *MinMaxScaler) Fitted() bool {
	return s.scale != nil
}

// Transform scales X with the fitted parameters. Values outside the fitted
// range land outside [0, 1].
func (s *MinMaxScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check(X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.DataMin[j]) / s.scale[j]
	}, X)
	return out, nil
}

// FitTransform fits on X and returns X transformed.
func (s *MinMaxScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps scaled values back to the original units.
func (s *MinMaxScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check(X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.scale[j] + s.DataMin[j]
	}, X)
	return out, nil
}

func (s *MinMaxScaler) check(X mat.Matrix) error {
	if !s.Fitted() {
		return errNotFitted
	}
	r, c := X.Dims()
	if r == 0 {
		return fmt.Errorf("transform on empty matrix")
	}
	if c != len(s.scale) {
		return fmt.Errorf("scaler fitted on %d columns, got %d", len(s.scale), c)
	}
	return nil
}
