package nn

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"matprop/nn/layers"
)

// Module defines a single layer/unit in the network. Batches are row-major:
// one sample per row.
type Module interface {
	Forward(x *mat.Dense) (*mat.Dense, error)
	// Backward takes the gradient of the loss with respect to the module's
	// output and returns the gradient with respect to its input.
	Backward(gradOut *mat.Dense) (*mat.Dense, error)
	Params() []*layers.Param
	Tag() string
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	Layers []Module
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(x *mat.Dense) (*mat.Dense, error) {
	var err error
	out := x
	for _, layer := range s.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Backward applies Backward in reverse order.
func (s *Sequential) Backward(grad *mat.Dense) (*mat.Dense, error) {
	var err error
	out := grad
	for i := len(s.Layers) - 1; i >= 0; i-- {
		out, err = s.Layers[i].Backward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Params collects the parameters of all layers.
func (s *Sequential) Params() []*layers.Param {
	var ps []*layers.Param
	for _, layer := range s.Layers {
		ps = append(ps, layer.Params()...)
	}
	return ps
}

// NumParams counts scalar parameters.
func (s *Sequential) NumParams() int {
	n := 0
	for _, p := range s.Params() {
		r, c := p.Value.Dims()
		n += r * c
	}
	return n
}

func (s *Sequential) Tag() string {
	tags := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		tags[i] = l.Tag()
	}
	return "Sequential(" + strings.Join(tags, ", ") + ")"
}

// Summary renders one line per layer plus the parameter total.
func (s *Sequential) Summary() string {
	var b strings.Builder
	for i, l := range s.Layers {
		n := 0
		for _, p := range l.Params() {
			r, c := p.Value.Dims()
			n += r * c
		}
		fmt.Fprintf(&b, "  [%d] %-20s params: %d\n", i, l.Tag(), n)
	}
	fmt.Fprintf(&b, "  total params: %d\n", s.NumParams())
	return b.String()
}

// NewMLP builds inDim → hidden... → outDim with the named activation after
// every hidden Dense layer and a linear output.
func NewMLP(inDim int, hidden []int, outDim int, activation string, src rand.Source) (*Sequential, error) {
	if inDim <= 0 || outDim <= 0 {
		return nil, fmt.Errorf("invalid dimensions in=%d out=%d", inDim, outDim)
	}
	seq := &Sequential{}
	prev := inDim
	for i, h := range hidden {
		if h <= 0 {
			return nil, fmt.Errorf("hidden layer %d has %d units", i, h)
		}
		act, err := layers.NewActivation(activation)
		if err != nil {
			return nil, err
		}
		seq.Layers = append(seq.Layers, layers.NewDense(prev, h, src), act)
		prev = h
	}
	out, err := layers.NewActivation("linear")
	if err != nil {
		return nil, err
	}
	seq.Layers = append(seq.Layers, layers.NewDense(prev, outDim, src), out)
	return seq, nil
}
