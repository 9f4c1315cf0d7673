package layers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activator is an element-wise non-linearity and its derivative with
// respect to the pre-activation value.
type Activator interface {
	Activate(v float64) float64
	Derivative(v float64) float64
	fmt.Stringer
}

var ActivatorLookup = map[string]Activator{
	"relu":    ReLU{},
	"linear":  Linear{},
	"sigmoid": Sigmoid{},
	"tanh":    Tanh{},
}

type ReLU struct{}

func (ReLU) Activate(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func (ReLU) Derivative(v float64) float64 {
	if v > 0 {
		return 1
	}
	return 0
}

func (ReLU) String() string { return "relu" }

type Linear struct{}

func (Linear) Activate(v float64) float64   { return v }
func (Linear) Derivative(v float64) float64 { return 1 }
func (Linear) String() string               { return "linear" }

type Sigmoid struct{}

func (Sigmoid) Activate(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

func (s Sigmoid) Derivative(v float64) float64 {
	a := s.Activate(v)
	return a * (1 - a)
}

func (Sigmoid) String() string { return "sigmoid" }

type Tanh struct{}

func (Tanh) Activate(v float64) float64 { return math.Tanh(v) }

func (Tanh) Derivative(v float64) float64 {
	t := math.Tanh(v)
	return 1 - t*t
}

func (Tanh) String() string { return "tanh" }

// Activation applies an Activator element-wise. It has no parameters.
type Activation struct {
	fn        Activator
	lastInput *mat.Dense
}

// NewActivation looks the activator up by name.
func NewActivation(name string) (*Activation, error) {
	fn, ok := ActivatorLookup[name]
	if !ok {
		return nil, fmt.Errorf("unknown activation %q", name)
	}
	return &Activation{fn: fn}, nil
}

func (a *Activation) Forward(x *mat.Dense) (*mat.Dense, error) {
	a.lastInput = x
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 { return a.fn.Activate(v) }, x)
	return out, nil
}

func (a *Activation) Backward(gradOut *mat.Dense) (*mat.Dense, error) {
	if a.lastInput == nil {
		return nil, fmt.Errorf("%s: no cached input for backward pass", a.Tag())
	}
	r, c := a.lastInput.Dims()
	if gr, gc := gradOut.Dims(); gr != r || gc != c {
		return nil, fmt.Errorf("%s: gradient shape (%d,%d) does not match input (%d,%d)", a.Tag(), gr, gc, r, c)
	}
	grad := mat.NewDense(r, c, nil)
	grad.Apply(func(i, j int, v float64) float64 {
		return v * a.fn.Derivative(a.lastInput.At(i, j))
	}, gradOut)
	return grad, nil
}

func (a *Activation) Params() []*Param { return nil }

// Activator returns the wrapped function.
func (a *Activation) Activator() Activator { return a.fn }

func (a *Activation) Tag() string {
	return "Activation_" + a.fn.String()
}
