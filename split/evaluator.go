package split

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"

	"matprop/utils"
)

// CountingEvaluator wraps a hefloat.Evaluator to count operations
type CountingEvaluator struct {
	eval *hefloat.Evaluator

	RotateCount  int
	MulCount     int
	RescaleCount int
	AddCount     int
}

// NewCountingEvaluator creates a new counting evaluator
func NewCountingEvaluator(eval *hefloat.Evaluator) *CountingEvaluator {
	return &CountingEvaluator{eval: eval}
}

// ResetCounters resets all operation counters to zero
func (w *CountingEvaluator) ResetCounters() {
	w.RotateCount = 0
	w.MulCount = 0
	w.RescaleCount = 0
	w.AddCount = 0
}

// PrintCounters prints the current operation counts.
// Respects utils.Verbose flag - does nothing if Verbose is false.
func (w *CountingEvaluator) PrintCounters(phaseName string) {
	if !utils.Verbose {
		return
	}
	fmt.Fprintf(utils.Output, "=== Phase: %s ===\n", phaseName)
	fmt.Fprintf(utils.Output, "Rotates: %d, Muls: %d, Rescales: %d, Adds: %d\n",
		w.RotateCount, w.MulCount, w.RescaleCount, w.AddCount)
}

// RotateNew wraps eval.RotateNew and counts rotations
func (w *CountingEvaluator) RotateNew(ct *rlwe.Ciphertext, k int) (*rlwe.Ciphertext, error) {
	w.RotateCount++
	return w.eval.RotateNew(ct, k)
}

// MulNew wraps eval.MulNew and counts plaintext multiplications
func (w *CountingEvaluator) MulNew(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	w.MulCount++
	return w.eval.MulNew(ct, pt)
}

// Rescale wraps eval.Rescale and counts rescales
func (w *CountingEvaluator) Rescale(ct, ctOut *rlwe.Ciphertext) error {
	w.RescaleCount++
	return w.eval.Rescale(ct, ctOut)
}

// Add wraps eval.Add for two ciphertexts and counts additions
func (w *CountingEvaluator) Add(ct0, ct1, ctOut *rlwe.Ciphertext) error {
	w.AddCount++
	return w.eval.Add(ct0, ct1, ctOut)
}

// AddPlain wraps eval.Add for a plaintext operand and counts it as an addition
func (w *CountingEvaluator) AddPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext, ctOut *rlwe.Ciphertext) error {
	w.AddCount++
	return w.eval.Add(ct, pt, ctOut)
}
