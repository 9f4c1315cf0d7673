// Package dataset generates the synthetic process-parameter dataset and
// partitions it into train and test sets.
package dataset

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

const (
	// NumInputs is the number of process parameters per sample.
	NumInputs = 3
	// NumTargets is the number of material properties per sample.
	NumTargets = 2
)

// InputNames and TargetNames label the matrix columns returned by
// Dataset.Inputs and Dataset.Targets.
var (
	InputNames  = []string{"Temperature", "Pressure", "Time"}
	TargetNames = []string{"TensileStrength", "Conductivity"}
)

// Sample is one synthetic record.
type Sample struct {
	Temperature     float64
	Pressure        float64
	Time            float64
	TensileStrength float64
	Conductivity    float64
}

// Inputs returns the process parameters in column order.
func (s Sample) Inputs() []float64 {
	return []float64{s.Temperature, s.Pressure, s.Time}
}

// Targets returns the material properties in column order.
func (s Sample) Targets() []float64 {
	return []float64{s.TensileStrength, s.Conductivity}
}

// Dataset is an ordered, immutable sequence of samples.
type Dataset []Sample

// Inputs returns an n×3 matrix of process parameters.
func (d Dataset) Inputs() *mat.Dense {
	if len(d) == 0 {
		return nil
	}
	m := mat.NewDense(len(d), NumInputs, nil)
	for i, s := range d {
		m.SetRow(i, s.Inputs())
	}
	return m
}

// Targets returns an n×2 matrix of material properties.
func (d Dataset) Targets() *mat.Dense {
	if len(d) == 0 {
		return nil
	}
	m := mat.NewDense(len(d), NumTargets, nil)
	for i, s := range d {
		m.SetRow(i, s.Targets())
	}
	return m
}

// Fingerprint hashes the exact bit patterns of every field in row order.
// Two datasets with equal fingerprints are, for all practical purposes,
// byte-identical.
func (d Dataset) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, s := range d {
		for _, v := range [...]float64{s.Temperature, s.Pressure, s.Time, s.TensileStrength, s.Conductivity} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
