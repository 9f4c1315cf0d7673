package nn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"matprop/nn/layers"
)

// dummy layer: adds a constant
type addLayer struct{ c float64 }

func (l *addLayer) Forward(x *mat.Dense) (*mat.Dense, error) {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 { return v + l.c }, x)
	return out, nil
}
func (l *addLayer) Backward(gradOut *mat.Dense) (*mat.Dense, error) { return gradOut, nil }
func (l *addLayer) Params() []*layers.Param                        { return nil }
func (l *addLayer) Tag() string                                    { return "add" }

// dummy layer: error on forward
type errLayer struct{}

func (l *errLayer) Forward(x *mat.Dense) (*mat.Dense, error) {
	return nil, errors.New("fail")
}
func (l *errLayer) Backward(gradOut *mat.Dense) (*mat.Dense, error) { return nil, errors.New("fail") }
func (l *errLayer) Params() []*layers.Param                        { return nil }
func (l *errLayer) Tag() string                                    { return "err" }

func TestSequentialPlain(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{1})
	seq := &Sequential{Layers: []Module{&addLayer{c: 2}, &addLayer{c: 3}}}
	out, err := seq.Forward(a)
	require.NoError(t, err)
	require.Equal(t, 6.0, out.At(0, 0))
}

func TestSequentialError(t *testing.T) {
	seq := &Sequential{Layers: []Module{&addLayer{c: 0}, &errLayer{}}}
	_, err := seq.Forward(mat.NewDense(1, 1, nil))
	require.Error(t, err)
	_, err = seq.Backward(mat.NewDense(1, 1, nil))
	require.Error(t, err)
}

func TestNewMLPArchitecture(t *testing.T) {
	net, err := NewMLP(3, []int{64, 64}, 2, "relu", rand.NewSource(42))
	require.NoError(t, err)
	require.Len(t, net.Layers, 6)

	want := []string{"Dense_3_64", "Activation_relu", "Dense_64_64", "Activation_relu", "Dense_64_2", "Activation_linear"}
	for i, l := range net.Layers {
		require.Equal(t, want[i], l.Tag())
	}
	// 3·64+64 + 64·64+64 + 64·2+2
	require.Equal(t, 4546, net.NumParams())
	require.Contains(t, net.Summary(), "total params: 4546")
}

func TestNewMLPInvalid(t *testing.T) {
	_, err := NewMLP(0, []int{4}, 2, "relu", rand.NewSource(1))
	require.Error(t, err)
	_, err = NewMLP(3, []int{0}, 2, "relu", rand.NewSource(1))
	require.Error(t, err)
	_, err = NewMLP(3, []int{4}, 2, "gelu", rand.NewSource(1))
	require.Error(t, err)
}

func TestMLPOutputShape(t *testing.T) {
	net, err := NewMLP(3, []int{64, 64}, 2, "relu", rand.NewSource(42))
	require.NoError(t, err)
	for _, k := range []int{1, 5, 32, 33} {
		out, err := net.Forward(mat.NewDense(k, 3, nil))
		require.NoError(t, err)
		r, c := out.Dims()
		require.Equal(t, k, r)
		require.Equal(t, 2, c)
	}
	_, err = net.Forward(mat.NewDense(4, 2, nil))
	require.Error(t, err)
}
