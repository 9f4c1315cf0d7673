package pipeline

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matprop/dataset"
	"matprop/utils"
)

func smallConfig(t *testing.T) utils.Config {
	t.Helper()
	cfg := utils.DefaultConfig()
	cfg.Samples = 200
	cfg.Epochs = 5
	cfg.Hidden = []int{8}
	cfg.OutDir = t.TempDir()
	return cfg
}

func TestRunSmall(t *testing.T) {
	cfg := smallConfig(t)
	var out bytes.Buffer

	res, err := Run(cfg, &out)
	require.NoError(t, err)

	require.NotEmpty(t, res.RunID)
	require.Equal(t, dataset.Generate(200, 42).Fingerprint(), res.Fingerprint)
	require.Equal(t, 5, res.History.Epochs())
	require.Len(t, res.History.ValLoss, 5)
	require.Len(t, res.PhysicalMAE, dataset.NumTargets)
	require.Zero(t, res.SplitSamples)

	for _, path := range []string{res.Charts.Loss, res.Charts.ActualVsPredicted, res.Charts.Correlation} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		require.Positive(t, info.Size(), path)
	}

	log := out.String()
	require.Contains(t, log, "Train: 160 samples, Test: 40 samples")
	require.Contains(t, log, "Epoch 5/5")
	require.Contains(t, log, "Test Loss: ")
	require.Contains(t, log, "Test MAE: ")
	require.Contains(t, log, "Test MAE TensileStrength: ")
}

func TestRunDeterministic(t *testing.T) {
	a, err := Run(smallConfig(t), &bytes.Buffer{})
	require.NoError(t, err)
	b, err := Run(smallConfig(t), &bytes.Buffer{})
	require.NoError(t, err)

	require.NotEqual(t, a.RunID, b.RunID)
	require.Equal(t, a.History.Loss, b.History.Loss)
	require.Equal(t, a.Test, b.Test)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Epochs = 0
	_, err := Run(cfg, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunWithSplitInference(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping CKKS split inference in short mode")
	}
	cfg := smallConfig(t)
	cfg.Private = 5
	var out bytes.Buffer

	res, err := Run(cfg, &out)
	require.NoError(t, err)
	require.Equal(t, 5, res.SplitSamples)
	assert.Less(t, res.SplitMaxDeviation, 1e-3)
	require.Contains(t, out.String(), "Split inference: 5 samples")
}

func TestRunDefaultConfigLearns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full training run in short mode")
	}
	cfg := utils.DefaultConfig()
	cfg.OutDir = t.TempDir()

	res, err := Run(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	loss := res.History.Loss
	require.Len(t, loss, 100)
	assert.Less(t, loss[len(loss)-1], loss[0])
	assert.Less(t, res.Test.MAE, 0.2)
}
