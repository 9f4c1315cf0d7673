package layers

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Param is a trainable tensor together with the gradient of the last
// backward pass.
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// Dense is a fully-connected layer computing y = xW + b for a batch x of
// shape (k, in).
type Dense struct {
	// W is (in, out), B is (1, out).
	W, B *mat.Dense

	gradW, gradB *mat.Dense
	lastInput    *mat.Dense
}

// NewDense creates an in→out layer with Glorot-uniform weights drawn from
// src and zero biases.
func NewDense(inDim, outDim int, src rand.Source) *Dense {
	limit := math.Sqrt(6 / float64(inDim+outDim))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}

	data := make([]float64, inDim*outDim)
	for i := range data {
		data[i] = dist.Rand()
	}
	return &Dense{
		W:     mat.NewDense(inDim, outDim, data),
		B:     mat.NewDense(1, outDim, nil),
		gradW: mat.NewDense(inDim, outDim, nil),
		gradB: mat.NewDense(1, outDim, nil),
	}
}

// Dims returns the input and output widths.
func (l *Dense) Dims() (in, out int) {
	return l.W.Dims()
}

// Forward computes xW + b and caches x for Backward.
func (l *Dense) Forward(x *mat.Dense) (*mat.Dense, error) {
	inDim, outDim := l.W.Dims()
	k, c := x.Dims()
	if c != inDim {
		return nil, fmt.Errorf("%s: expected %d input columns, got %d", l.Tag(), inDim, c)
	}
	l.lastInput = x

	out := mat.NewDense(k, outDim, nil)
	out.Mul(x, l.W)
	bias := l.B.RawRowView(0)
	for i := 0; i < k; i++ {
		floats.Add(out.RawRowView(i), bias)
	}
	return out, nil
}

// Backward stores dL/dW and dL/db and returns dL/dx. gradOut is already
// averaged over the batch by the loss.
func (l *Dense) Backward(gradOut *mat.Dense) (*mat.Dense, error) {
	if l.lastInput == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", l.Tag())
	}
	inDim, outDim := l.W.Dims()
	k, c := gradOut.Dims()
	if kIn, _ := l.lastInput.Dims(); c != outDim || k != kIn {
		return nil, fmt.Errorf("%s: gradient shape (%d,%d) does not match output (%d,%d)", l.Tag(), k, c, kIn, outDim)
	}

	l.gradW.Mul(l.lastInput.T(), gradOut)

	gb := l.gradB.RawRowView(0)
	for j := range gb {
		gb[j] = 0
	}
	for i := 0; i < k; i++ {
		floats.Add(gb, gradOut.RawRowView(i))
	}

	gradIn := mat.NewDense(k, inDim, nil)
	gradIn.Mul(gradOut, l.W.T())
	return gradIn, nil
}

// Params returns the weight and bias parameters.
func (l *Dense) Params() []*Param {
	return []*Param{
		{Name: l.Tag() + "/W", Value: l.W, Grad: l.gradW},
		{Name: l.Tag() + "/B", Value: l.B, Grad: l.gradB},
	}
}

func (l *Dense) Tag() string {
	inDim, outDim := l.W.Dims()
	return fmt.Sprintf("Dense_%d_%d", inDim, outDim)
}
