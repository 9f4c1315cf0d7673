package dataset

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats summarizes one column.
type ColumnStats struct {
	Name     string
	Mean     float64
	StdDev   float64
	Min, Max float64
}

// Describe returns summary statistics for every input and target column.
func (d Dataset) Describe() []ColumnStats {
	if len(d) == 0 {
		return nil
	}
	names := append(append([]string(nil), InputNames...), TargetNames...)
	cols := mat.NewDense(len(d), NumInputs+NumTargets, nil)
	for i, s := range d {
		cols.SetRow(i, append(s.Inputs(), s.Targets()...))
	}

	out := make([]ColumnStats, len(names))
	for j, name := range names {
		col := mat.Col(nil, j, cols)
		mean, std := stat.MeanStdDev(col, nil)
		out[j] = ColumnStats{
			Name:   name,
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(col),
			Max:    floats.Max(col),
		}
	}
	return out
}

// WriteSummary prints Describe as a table.
func (d Dataset) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "%-18s %10s %10s %10s %10s\n", "column", "mean", "std", "min", "max")
	for _, c := range d.Describe() {
		fmt.Fprintf(w, "%-18s %10.3f %10.3f %10.3f %10.3f\n", c.Name, c.Mean, c.StdDev, c.Min, c.Max)
	}
}
