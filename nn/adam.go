package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"matprop/nn/layers"
)

// Adam defaults.
const (
	DefaultLearningRate = 0.001
	DefaultBeta1        = 0.9
	DefaultBeta2        = 0.999
	DefaultEpsilon      = 1e-7
)

// Adam is the bias-corrected adaptive moment estimation optimizer. Moment
// buffers are keyed by the parameter's value matrix.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step int
	m, v map[*mat.Dense]*mat.Dense
}

// NewAdam returns Adam with the default moment decay rates.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        DefaultBeta1,
		Beta2:        DefaultBeta2,
		Epsilon:      DefaultEpsilon,
		m:            make(map[*mat.Dense]*mat.Dense),
		v:            make(map[*mat.Dense]*mat.Dense),
	}
}

// Steps returns the number of updates applied so far.
func (a *Adam) Steps() int { return a.step }

// Step applies one update to every parameter using its current gradient.
func (a *Adam) Step(params []*layers.Param) error {
	if a.m == nil {
		a.m = make(map[*mat.Dense]*mat.Dense)
		a.v = make(map[*mat.Dense]*mat.Dense)
	}
	a.step++
	t := float64(a.step)
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	for _, p := range params {
		r, c := p.Value.Dims()
		if gr, gc := p.Grad.Dims(); gr != r || gc != c {
			return fmt.Errorf("%s: gradient shape (%d,%d) does not match value (%d,%d)", p.Name, gr, gc, r, c)
		}
		m, ok := a.m[p.Value]
		if !ok {
			m = mat.NewDense(r, c, nil)
			a.m[p.Value] = m
			a.v[p.Value] = mat.NewDense(r, c, nil)
		}
		v := a.v[p.Value]

		for i := 0; i < r; i++ {
			w, g := p.Value.RawRowView(i), p.Grad.RawRowView(i)
			mr, vr := m.RawRowView(i), v.RawRowView(i)
			for j := range w {
				mr[j] = a.Beta1*mr[j] + (1-a.Beta1)*g[j]
				vr[j] = a.Beta2*vr[j] + (1-a.Beta2)*g[j]*g[j]
				w[j] -= lr * mr[j] / (math.Sqrt(vr[j]) + a.Epsilon)
			}
		}
	}
	return nil
}
