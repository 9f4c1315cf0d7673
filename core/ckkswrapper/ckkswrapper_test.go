package ckkswrapper

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

func newTestContext(t *testing.T) *HeContext {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping CKKS key generation in short mode")
	}
	h, err := NewHeContext()
	require.NoError(t, err)
	return h
}

func TestHeContextRoundTrip(t *testing.T) {
	h := newTestContext(t)
	require.Equal(t, 1<<(DefaultLogN-1), h.Params.MaxSlots())
	require.Equal(t, 2, h.Params.MaxLevel())

	vals := []float64{3.1415926535, -0.5, 0.25}
	ct, err := h.EncryptValues(vals)
	require.NoError(t, err)
	require.Equal(t, h.Params.MaxLevel(), ct.Level())

	got, err := h.DecryptValues(ct)
	require.NoError(t, err)
	for i, v := range vals {
		require.InDelta(t, v, got[i], 1e-6)
	}
	require.InDelta(t, 0, got[len(vals)], 1e-6)
}

func TestEncryptTooManyValues(t *testing.T) {
	h := newTestContext(t)
	_, err := h.EncryptValues(make([]float64, h.Params.MaxSlots()+1))
	require.Error(t, err)
}

func TestServerKitMulRotate(t *testing.T) {
	h := newTestContext(t)
	kit := h.GenServerKit([]int{1, 2})

	ct, err := h.EncryptValues([]float64{1, 2, 3, 4})
	require.NoError(t, err)

	pt := hefloat.NewPlaintext(kit.Params, ct.Level())
	require.NoError(t, kit.Encoder.Encode([]float64{2, 2, 2, 2}, pt))
	require.NoError(t, kit.Evaluator.Mul(ct, pt, ct))
	require.NoError(t, kit.Evaluator.Rescale(ct, ct))
	require.Equal(t, h.Params.MaxLevel()-1, ct.Level())

	for _, k := range []int{1, 2} {
		rot, err := kit.Evaluator.RotateNew(ct, k)
		require.NoError(t, err)
		require.NoError(t, kit.Evaluator.Add(ct, rot, ct))
	}

	got, err := h.DecryptValues(ct)
	require.NoError(t, err)
	require.InDelta(t, 20, got[0], 1e-4)
}

func TestNeedsRescaleBudget(t *testing.T) {
	h := newTestContext(t)
	ct, err := h.EncryptValues([]float64{1})
	require.NoError(t, err)

	require.False(t, NeedsRescaleBudget(ct, 1))
	require.False(t, NeedsRescaleBudget(ct, 0))
	require.True(t, NeedsRescaleBudget(ct, h.Params.MaxLevel()+1))
}
