package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MSELoss is the mean squared error over every output of every sample.
type MSELoss struct{}

// Forward returns mean((pred - target)²).
func (MSELoss) Forward(pred, target mat.Matrix) (float64, error) {
	if err := sameShape(pred, target); err != nil {
		return 0, err
	}
	r, c := pred.Dims()
	var diff mat.Dense
	diff.Sub(pred, target)
	diff.MulElem(&diff, &diff)
	return mat.Sum(&diff) / float64(r*c), nil
}

// Backward returns dL/dpred = 2(pred - target)/(k·d) for a (k, d) batch.
func (MSELoss) Backward(pred, target mat.Matrix) (*mat.Dense, error) {
	if err := sameShape(pred, target); err != nil {
		return nil, err
	}
	r, c := pred.Dims()
	grad := mat.NewDense(r, c, nil)
	grad.Sub(pred, target)
	grad.Scale(2/float64(r*c), grad)
	return grad, nil
}

// MeanAbsoluteError returns mean(|pred - target|).
func MeanAbsoluteError(pred, target mat.Matrix) (float64, error) {
	if err := sameShape(pred, target); err != nil {
		return 0, err
	}
	r, c := pred.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += math.Abs(pred.At(i, j) - target.At(i, j))
		}
	}
	return sum / float64(r*c), nil
}

// ColumnMAE returns the mean absolute error of each output column.
func ColumnMAE(pred, target mat.Matrix) ([]float64, error) {
	if err := sameShape(pred, target); err != nil {
		return nil, err
	}
	r, c := pred.Dims()
	out := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			out[j] += math.Abs(pred.At(i, j) - target.At(i, j))
		}
		out[j] /= float64(r)
	}
	return out, nil
}

func sameShape(a, b mat.Matrix) error {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("shape mismatch: (%d,%d) vs (%d,%d)", ar, ac, br, bc)
	}
	if ar == 0 || ac == 0 {
		return fmt.Errorf("empty batch")
	}
	return nil
}
