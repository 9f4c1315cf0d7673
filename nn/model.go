package nn

import (
	"fmt"
	"io"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Metrics are the evaluation results of a model on one dataset.
type Metrics struct {
	Loss float64
	MAE  float64
}

// History holds per-epoch training and validation metrics.
type History struct {
	Loss    []float64
	MAE     []float64
	ValLoss []float64
	ValMAE  []float64
}

// Epochs returns the number of recorded epochs.
func (h *History) Epochs() int { return len(h.Loss) }

// TrainConfig controls Fit.
type TrainConfig struct {
	Epochs          int
	BatchSize       int
	ValidationSplit float64 // trailing share of rows used only for validation
	Shuffle         bool
	Seed            uint64
	Output          io.Writer // per-epoch progress, nil to stay silent
}

// DefaultTrainConfig mirrors a 100-epoch, batch 32 run with a 20% hold-out.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:          100,
		BatchSize:       32,
		ValidationSplit: 0.2,
		Shuffle:         true,
		Seed:            42,
	}
}

// ValidateTrainConfig checks the training configuration.
func ValidateTrainConfig(cfg TrainConfig) error {
	if cfg.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0, got %d", cfg.Epochs)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", cfg.BatchSize)
	}
	if cfg.ValidationSplit < 0 || cfg.ValidationSplit >= 1 {
		return fmt.Errorf("validation split must be in [0, 1), got %f", cfg.ValidationSplit)
	}
	return nil
}

// Model binds a network to its loss and optimizer.
type Model struct {
	Net       *Sequential
	Loss      MSELoss
	Optimizer *Adam
}

// NewModel returns an MSE/Adam model around net.
func NewModel(net *Sequential, learningRate float64) *Model {
	return &Model{Net: net, Optimizer: NewAdam(learningRate)}
}

// Predict runs a forward pass on x.
func (m *Model) Predict(x *mat.Dense) (*mat.Dense, error) {
	if x == nil {
		return nil, fmt.Errorf("predict on nil input")
	}
	return m.Net.Forward(x)
}

// Evaluate returns loss and MAE of the model on (x, y).
func (m *Model) Evaluate(x, y *mat.Dense) (Metrics, error) {
	pred, err := m.Predict(x)
	if err != nil {
		return Metrics{}, err
	}
	loss, err := m.Loss.Forward(pred, y)
	if err != nil {
		return Metrics{}, fmt.Errorf("computing loss: %w", err)
	}
	mae, err := MeanAbsoluteError(pred, y)
	if err != nil {
		return Metrics{}, fmt.Errorf("computing mae: %w", err)
	}
	return Metrics{Loss: loss, MAE: mae}, nil
}

// Fit trains on (x, y). The last ValidationSplit share of the rows is held
// out before any shuffling and only ever evaluated.
func (m *Model) Fit(x, y *mat.Dense, cfg TrainConfig) (*History, error) {
	if err := ValidateTrainConfig(cfg); err != nil {
		return nil, err
	}
	if err := sameShapeRows(x, y); err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	splitAt := n
	if cfg.ValidationSplit > 0 {
		splitAt = int(float64(n) * (1 - cfg.ValidationSplit))
	}
	if splitAt == 0 {
		return nil, fmt.Errorf("validation split %.2f leaves no training rows out of %d", cfg.ValidationSplit, n)
	}

	xTrain, yTrain := rowsView(x, 0, splitAt), rowsView(y, 0, splitAt)
	var xVal, yVal *mat.Dense
	if splitAt < n {
		xVal, yVal = rowsView(x, splitAt, n), rowsView(y, splitAt, n)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	order := make([]int, splitAt)
	for i := range order {
		order[i] = i
	}

	hist := &History{}
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if cfg.Shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var lossSum, maeSum float64
		for start := 0; start < splitAt; start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, splitAt)
			xb, yb := gatherRows(xTrain, order[start:end]), gatherRows(yTrain, order[start:end])

			loss, mae, err := m.trainBatch(xb, yb)
			if err != nil {
				return hist, fmt.Errorf("epoch %d batch at %d: %w", epoch, start, err)
			}
			k := float64(end - start)
			lossSum += loss * k
			maeSum += mae * k
		}
		hist.Loss = append(hist.Loss, lossSum/float64(splitAt))
		hist.MAE = append(hist.MAE, maeSum/float64(splitAt))

		if xVal != nil {
			val, err := m.Evaluate(xVal, yVal)
			if err != nil {
				return hist, fmt.Errorf("epoch %d validation: %w", epoch, err)
			}
			hist.ValLoss = append(hist.ValLoss, val.Loss)
			hist.ValMAE = append(hist.ValMAE, val.MAE)
		}

		if cfg.Output != nil {
			fmt.Fprintf(cfg.Output, "Epoch %d/%d | loss: %.6f | mae: %.6f", epoch, cfg.Epochs,
				hist.Loss[epoch-1], hist.MAE[epoch-1])
			if xVal != nil {
				fmt.Fprintf(cfg.Output, " | val_loss: %.6f | val_mae: %.6f", hist.ValLoss[epoch-1], hist.ValMAE[epoch-1])
			}
			fmt.Fprintln(cfg.Output)
		}
	}
	return hist, nil
}

// trainBatch does forward, backward and one optimizer step, returning the
// pre-update batch loss and MAE.
func (m *Model) trainBatch(xb, yb *mat.Dense) (float64, float64, error) {
	pred, err := m.Net.Forward(xb)
	if err != nil {
		return 0, 0, err
	}
	loss, err := m.Loss.Forward(pred, yb)
	if err != nil {
		return 0, 0, err
	}
	mae, err := MeanAbsoluteError(pred, yb)
	if err != nil {
		return 0, 0, err
	}
	grad, err := m.Loss.Backward(pred, yb)
	if err != nil {
		return 0, 0, err
	}
	if _, err := m.Net.Backward(grad); err != nil {
		return 0, 0, err
	}
	if err := m.Optimizer.Step(m.Net.Params()); err != nil {
		return 0, 0, err
	}
	return loss, mae, nil
}

func sameShapeRows(x, y *mat.Dense) error {
	if x == nil || y == nil {
		return fmt.Errorf("fit on nil matrix")
	}
	xr, _ := x.Dims()
	yr, _ := y.Dims()
	if xr != yr {
		return fmt.Errorf("inputs have %d rows, targets have %d", xr, yr)
	}
	return nil
}

func rowsView(m *mat.Dense, from, to int) *mat.Dense {
	_, c := m.Dims()
	return m.Slice(from, to, 0, c).(*mat.Dense)
}

func gatherRows(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}
