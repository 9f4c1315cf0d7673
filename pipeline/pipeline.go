// Package pipeline runs one end-to-end experiment: generate, split and scale,
// train, evaluate, render charts and optionally compare split inference.
package pipeline

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"matprop/core/ckkswrapper"
	"matprop/dataset"
	"matprop/nn"
	"matprop/preprocess"
	"matprop/report"
	"matprop/split"
	"matprop/utils"
)

// Regressor is a trainable function approximator.
type Regressor interface {
	Fit(x, y *mat.Dense, cfg nn.TrainConfig) (*nn.History, error)
	Evaluate(x, y *mat.Dense) (nn.Metrics, error)
	Predict(x *mat.Dense) (*mat.Dense, error)
}

var _ Regressor = (*nn.Model)(nil)

// Chart file names inside the run directory.
const (
	LossChart              = "loss_curves.png"
	ActualVsPredictedChart = "actual_vs_predicted.png"
	CorrelationChart       = "correlation.png"
)

// Charts holds the paths of the rendered charts.
type Charts struct {
	Loss              string
	ActualVsPredicted string
	Correlation       string
}

// Result is what a run produced.
type Result struct {
	RunID       string
	Dir         string
	Fingerprint uint64
	History     *nn.History
	Charts      Charts

	// Test holds loss and MAE on the scaled test set.
	Test nn.Metrics

	// PhysicalMAE is the per-target MAE in original units.
	PhysicalMAE []float64

	SplitSamples      int
	SplitMaxDeviation float64

	Timing utils.TimingStats
}

// Run executes the experiment described by cfg and writes progress to w.
func Run(cfg utils.Config, w io.Writer) (*Result, error) {
	if err := utils.ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	res.Dir = filepath.Join(cfg.OutDir, res.RunID)
	if err := os.MkdirAll(res.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	fmt.Fprintf(w, "Run %s, charts in %s\n", res.RunID, res.Dir)

	var ds dataset.Dataset
	_ = utils.Track(&res.Timing.GenerateTime, func() error {
		ds = dataset.Generate(cfg.Samples, cfg.Seed)
		return nil
	})
	res.Fingerprint = ds.Fingerprint()
	fmt.Fprintf(w, "Generated %d samples (seed %d, fingerprint %016x)\n", len(ds), cfg.Seed, res.Fingerprint)
	if cfg.Verbose {
		ds.WriteSummary(w)
	}

	var data *scaledData
	err := utils.Track(&res.Timing.PreprocessTime, func() (err error) {
		data, err = prepare(ds, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Train: %d samples, Test: %d samples\n", len(data.split.Train), len(data.split.Test))

	var model *nn.Model
	err = utils.Track(&res.Timing.ModelInitTime, func() error {
		net, err := nn.NewMLP(dataset.NumInputs, cfg.Hidden, dataset.NumTargets, "relu", rand.NewSource(cfg.Seed))
		if err != nil {
			return fmt.Errorf("build model: %w", err)
		}
		model = nn.NewModel(net, cfg.LearningRate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Model:\n%s", model.Net.Summary())

	trainCfg := nn.TrainConfig{
		Epochs:          cfg.Epochs,
		BatchSize:       cfg.BatchSize,
		ValidationSplit: cfg.ValidationSplit,
		Shuffle:         true,
		Seed:            cfg.Seed,
		Output:          w,
	}
	err = utils.Track(&res.Timing.TrainTime, func() (err error) {
		res.History, err = model.Fit(data.xTrain, data.yTrain, trainCfg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}

	var pred *mat.Dense
	err = utils.Track(&res.Timing.EvaluateTime, func() (err error) {
		if res.Test, err = model.Evaluate(data.xTest, data.yTest); err != nil {
			return err
		}
		pred, err = model.Predict(data.xTest)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation: %w", err)
	}
	fmt.Fprintf(w, "Test Loss: %.6f\n", res.Test.Loss)
	fmt.Fprintf(w, "Test MAE: %.6f\n", res.Test.MAE)

	actual, err := data.yScaler.InverseTransform(data.yTest)
	if err != nil {
		return nil, err
	}
	predicted, err := data.yScaler.InverseTransform(pred)
	if err != nil {
		return nil, err
	}
	if res.PhysicalMAE, err = nn.ColumnMAE(predicted, actual); err != nil {
		return nil, err
	}
	for j, name := range dataset.TargetNames {
		fmt.Fprintf(w, "Test MAE %s: %.3f\n", name, res.PhysicalMAE[j])
	}

	err = utils.Track(&res.Timing.RenderTime, func() error {
		return res.renderCharts(actual, predicted)
	})
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}

	if cfg.Private > 0 {
		if err := res.compareSplit(model.Net, data.xTest, pred, cfg.Private, w); err != nil {
			return nil, fmt.Errorf("split inference: %w", err)
		}
	}

	res.Timing.TotalTime = time.Since(start)
	if cfg.Verbose {
		utils.PrintTimingStats(&res.Timing, res.History.Epochs())
	}
	return res, nil
}

type scaledData struct {
	split                        *dataset.Split
	xScaler, yScaler             *preprocess.MinMaxScaler
	xTrain, yTrain, xTest, yTest *mat.Dense
}

// prepare splits ds and scales both partitions with scalers fitted on the
// training rows only.
func prepare(ds dataset.Dataset, cfg utils.Config) (*scaledData, error) {
	s, err := dataset.SplitDataset(ds, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}
	d := &scaledData{
		split:   s,
		xScaler: preprocess.NewMinMaxScaler(),
		yScaler: preprocess.NewMinMaxScaler(),
	}
	if d.xTrain, err = d.xScaler.FitTransform(s.Train.Inputs()); err != nil {
		return nil, fmt.Errorf("scale train inputs: %w", err)
	}
	if d.yTrain, err = d.yScaler.FitTransform(s.Train.Targets()); err != nil {
		return nil, fmt.Errorf("scale train targets: %w", err)
	}
	if d.xTest, err = d.xScaler.Transform(s.Test.Inputs()); err != nil {
		return nil, fmt.Errorf("scale test inputs: %w", err)
	}
	if d.yTest, err = d.yScaler.Transform(s.Test.Targets()); err != nil {
		return nil, fmt.Errorf("scale test targets: %w", err)
	}
	return d, nil
}

func (r *Result) renderCharts(actual, predicted *mat.Dense) error {
	r.Charts = Charts{
		Loss:              filepath.Join(r.Dir, LossChart),
		ActualVsPredicted: filepath.Join(r.Dir, ActualVsPredictedChart),
		Correlation:       filepath.Join(r.Dir, CorrelationChart),
	}
	if err := report.LossCurves(r.History, r.Charts.Loss); err != nil {
		return err
	}
	if err := report.ActualVsPredicted(actual, predicted, dataset.TargetNames, r.Charts.ActualVsPredicted); err != nil {
		return err
	}
	return report.Correlation(actual, predicted, dataset.TargetNames, r.Charts.Correlation)
}

// compareSplit predicts the first n test rows through split inference and
// records the largest deviation from the plaintext predictions.
func (r *Result) compareSplit(net *nn.Sequential, xTest, pred *mat.Dense, n int, w io.Writer) error {
	rows, cols := xTest.Dims()
	n = min(n, rows)

	var (
		client *split.Client
		server *split.Server
	)
	err := utils.Track(&r.Timing.HEInitTime, func() error {
		he, err := ckkswrapper.NewHeContext()
		if err != nil {
			return err
		}
		head, tail, err := split.Partition(net)
		if err != nil {
			return err
		}
		in, out := head.Dims()
		server, err = split.NewServer(head, he.GenServerKit(split.Rotations(in)))
		if err != nil {
			return err
		}
		client = split.NewClient(he, in, out, tail)
		return nil
	})
	if err != nil {
		return err
	}

	var got *mat.Dense
	err = utils.Track(&r.Timing.SplitTime, func() (err error) {
		got, err = client.Predict(server, mat.DenseCopyOf(xTest.Slice(0, n, 0, cols)))
		return err
	})
	if err != nil {
		return err
	}

	_, outCols := pred.Dims()
	var diff mat.Dense
	diff.Sub(got, pred.Slice(0, n, 0, outCols))
	r.SplitSamples = n
	r.SplitMaxDeviation = 0
	for _, v := range diff.RawMatrix().Data {
		r.SplitMaxDeviation = math.Max(r.SplitMaxDeviation, math.Abs(v))
	}
	fmt.Fprintf(w, "Split inference: %d samples, max deviation %.3g, %d bytes sent, %d bytes received\n",
		n, r.SplitMaxDeviation, client.BytesSent, client.BytesReceived)
	server.Ops().PrintCounters("split inference")
	return nil
}
