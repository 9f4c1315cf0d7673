package nn

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// linearData returns y = [x0 + 2·x1, x1 - x0] for uniform x in [0,1)².
func linearData(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		a, b := rng.Float64(), rng.Float64()
		x.SetRow(i, []float64{a, b})
		y.SetRow(i, []float64{a + 2*b, b - a})
	}
	return x, y
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	net, err := NewMLP(2, []int{16, 16}, 2, "relu", rand.NewSource(3))
	require.NoError(t, err)
	return NewModel(net, 0.01)
}

func TestFitReducesLoss(t *testing.T) {
	x, y := linearData(200, 1)
	m := newTestModel(t)

	cfg := DefaultTrainConfig()
	cfg.Epochs = 30
	hist, err := m.Fit(x, y, cfg)
	require.NoError(t, err)

	require.Equal(t, 30, hist.Epochs())
	require.Len(t, hist.ValLoss, 30)
	require.Len(t, hist.MAE, 30)
	require.Len(t, hist.ValMAE, 30)
	assert.Less(t, hist.Loss[len(hist.Loss)-1], hist.Loss[0])
	assert.Less(t, hist.ValLoss[len(hist.ValLoss)-1], hist.ValLoss[0])
}

func TestFitStepsPerEpoch(t *testing.T) {
	x, y := linearData(100, 2)
	m := newTestModel(t)

	cfg := DefaultTrainConfig()
	cfg.Epochs = 2
	cfg.BatchSize = 32
	_, err := m.Fit(x, y, cfg)
	require.NoError(t, err)

	// 80 training rows → batches of 32, 32, 16
	require.Equal(t, 6, m.Optimizer.Steps())
}

func TestFitValidationRowsNeverUpdate(t *testing.T) {
	x, y := linearData(50, 4)
	// Poison the validation slice; if it leaked into training the weights
	// would become NaN.
	for i := 40; i < 50; i++ {
		y.SetRow(i, []float64{math.NaN(), math.NaN()})
	}
	m := newTestModel(t)
	cfg := DefaultTrainConfig()
	cfg.Epochs = 3
	hist, err := m.Fit(x, y, cfg)
	require.NoError(t, err)

	for _, p := range m.Net.Params() {
		require.False(t, floats.HasNaN(p.Value.RawMatrix().Data), "%s has NaN", p.Name)
	}
	for _, l := range hist.Loss {
		require.False(t, math.IsNaN(l))
	}
}

func TestFitWithoutValidation(t *testing.T) {
	x, y := linearData(40, 5)
	m := newTestModel(t)
	cfg := DefaultTrainConfig()
	cfg.Epochs = 2
	cfg.ValidationSplit = 0
	hist, err := m.Fit(x, y, cfg)
	require.NoError(t, err)
	require.Empty(t, hist.ValLoss)
	require.Len(t, hist.Loss, 2)
}

func TestFitProgressOutput(t *testing.T) {
	x, y := linearData(40, 6)
	m := newTestModel(t)
	var buf bytes.Buffer
	cfg := DefaultTrainConfig()
	cfg.Epochs = 3
	cfg.Output = &buf
	_, err := m.Fit(x, y, cfg)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[2], "Epoch 3/3 | loss: "))
	require.Contains(t, lines[0], "val_loss")
}

func TestFitDeterministic(t *testing.T) {
	x, y := linearData(60, 7)
	cfg := DefaultTrainConfig()
	cfg.Epochs = 3

	h1, err := newTestModel(t).Fit(x, y, cfg)
	require.NoError(t, err)
	h2, err := newTestModel(t).Fit(x, y, cfg)
	require.NoError(t, err)
	require.Equal(t, h1.Loss, h2.Loss)
}

func TestFitInvalid(t *testing.T) {
	x, y := linearData(10, 8)
	m := newTestModel(t)

	cfg := DefaultTrainConfig()
	cfg.Epochs = 0
	_, err := m.Fit(x, y, cfg)
	require.Error(t, err)

	cfg = DefaultTrainConfig()
	cfg.BatchSize = -1
	_, err = m.Fit(x, y, cfg)
	require.Error(t, err)

	cfg = DefaultTrainConfig()
	cfg.ValidationSplit = 1
	_, err = m.Fit(x, y, cfg)
	require.Error(t, err)

	_, err = m.Fit(x, mat.NewDense(3, 2, nil), DefaultTrainConfig())
	require.Error(t, err)
}

func TestEvaluateAndPredict(t *testing.T) {
	x, y := linearData(20, 9)
	m := newTestModel(t)

	pred, err := m.Predict(x)
	require.NoError(t, err)
	r, c := pred.Dims()
	require.Equal(t, 20, r)
	require.Equal(t, 2, c)

	got, err := m.Evaluate(x, y)
	require.NoError(t, err)
	wantLoss, _ := MSELoss{}.Forward(pred, y)
	wantMAE, _ := MeanAbsoluteError(pred, y)
	assert.InDelta(t, wantLoss, got.Loss, 1e-12)
	assert.InDelta(t, wantMAE, got.MAE, 1e-12)

	_, err = m.Predict(nil)
	require.Error(t, err)
}
