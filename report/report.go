// Package report renders the diagnostic charts of a training run as PNG files.
package report

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"matprop/nn"
)

// Chart sizes.
var (
	Width       = 8 * vg.Inch
	Height      = 5 * vg.Inch
	PanelHeight = 4 * vg.Inch
)

var (
	actualColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	predictedColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	diagonalColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// LossCurves draws training and validation loss per epoch.
func LossCurves(hist *nn.History, path string) error {
	if hist == nil || hist.Epochs() == 0 {
		return fmt.Errorf("loss curves: empty history")
	}
	p := plot.New()
	p.Title.Text = "Model Loss"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Loss (MSE)"
	p.Add(plotter.NewGrid())

	series := []struct {
		name   string
		values []float64
	}{
		{"Training Loss", hist.Loss},
		{"Validation Loss", hist.ValLoss},
	}
	for i, s := range series {
		if len(s.values) == 0 {
			continue
		}
		line, err := plotter.NewLine(epochXYs(s.values))
		if err != nil {
			return fmt.Errorf("loss curves: %w", err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true
	return p.Save(Width, Height, path)
}

func epochXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	return pts
}

// ActualVsPredicted draws, for each target column, actual and predicted
// values against the sample index. One panel per column.
func ActualVsPredicted(actual, pred mat.Matrix, names []string, path string) error {
	cols, err := checkColumns(actual, pred, names)
	if err != nil {
		return fmt.Errorf("actual vs predicted: %w", err)
	}
	plots := make([]*plot.Plot, cols)
	for j := 0; j < cols; j++ {
		p := plot.New()
		p.Title.Text = names[j] + ": Actual vs Predicted"
		p.X.Label.Text = "Sample Index"
		p.Y.Label.Text = names[j]

		a, err := plotter.NewScatter(indexXYs(mat.Col(nil, j, actual)))
		if err != nil {
			return fmt.Errorf("actual vs predicted: %w", err)
		}
		a.GlyphStyle.Color = actualColor
		a.GlyphStyle.Radius = vg.Points(2)

		pr, err := plotter.NewScatter(indexXYs(mat.Col(nil, j, pred)))
		if err != nil {
			return fmt.Errorf("actual vs predicted: %w", err)
		}
		pr.GlyphStyle.Color = predictedColor
		pr.GlyphStyle.Radius = vg.Points(2)
		pr.GlyphStyle.Shape = draw.CrossGlyph{}

		p.Add(a, pr)
		p.Legend.Add("Actual", a)
		p.Legend.Add("Predicted", pr)
		plots[j] = p
	}
	return saveRow(plots, path)
}

func indexXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	return pts
}

// Correlation draws predicted against actual values per target column with
// a dashed y = x reference spanning the observed range.
func Correlation(actual, pred mat.Matrix, names []string, path string) error {
	cols, err := checkColumns(actual, pred, names)
	if err != nil {
		return fmt.Errorf("correlation: %w", err)
	}
	plots := make([]*plot.Plot, cols)
	for j := 0; j < cols; j++ {
		a, pr := mat.Col(nil, j, actual), mat.Col(nil, j, pred)

		p := plot.New()
		p.Title.Text = names[j] + ": Predicted vs Actual"
		p.X.Label.Text = "Actual"
		p.Y.Label.Text = "Predicted"
		p.Add(plotter.NewGrid())

		pts := make(plotter.XYs, len(a))
		for i := range a {
			pts[i].X, pts[i].Y = a[i], pr[i]
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("correlation: %w", err)
		}
		sc.GlyphStyle.Color = actualColor
		sc.GlyphStyle.Radius = vg.Points(2)

		lo, hi := DiagonalRange(a, pr)
		diag, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
		if err != nil {
			return fmt.Errorf("correlation: %w", err)
		}
		diag.Color = diagonalColor
		diag.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		diag.Width = vg.Points(1.5)

		p.Add(sc, diag)
		p.Legend.Add("Samples", sc)
		p.Legend.Add("Perfect prediction", diag)
		p.Legend.Top = true
		p.Legend.Left = true
		plots[j] = p
	}
	return saveRow(plots, path)
}

// DiagonalRange returns the smallest and largest value across both slices.
func DiagonalRange(a, b []float64) (lo, hi float64) {
	lo = min(floats.Min(a), floats.Min(b))
	hi = max(floats.Max(a), floats.Max(b))
	return lo, hi
}

func checkColumns(actual, pred mat.Matrix, names []string) (int, error) {
	ar, ac := actual.Dims()
	pr, pc := pred.Dims()
	if ar != pr || ac != pc {
		return 0, fmt.Errorf("actual is (%d,%d), predicted is (%d,%d)", ar, ac, pr, pc)
	}
	if ar == 0 {
		return 0, fmt.Errorf("no samples")
	}
	if len(names) != ac {
		return 0, fmt.Errorf("%d names for %d columns", len(names), ac)
	}
	return ac, nil
}

// saveRow lays plots out side by side and writes one PNG.
func saveRow(plots []*plot.Plot, path string) error {
	img := vgimg.New(Width*vg.Length(len(plots))/2, PanelHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(plots),
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 2,

		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for j, p := range plots {
		p.Draw(canvases[0][j])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
