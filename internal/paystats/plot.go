package paystats

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SturgesBins returns ceil(log2 n + 1), the histogram bin count for n samples.
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)) + 1))
}

// PlotHistogram saves a normalized histogram of durations with mean and median markers.
// The image format follows the file extension (png, svg, pdf).
func PlotHistogram(durations []float64, path string) error {
	summary, err := Summarize(durations)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Histogram of worker submit times"
	p.X.Label.Text = "Submit time (seconds)"
	p.Y.Label.Text = "Probability"
	p.Add(plotter.NewGrid())

	hist, err := plotter.NewHist(plotter.Values(durations), SturgesBins(len(durations)))
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	hist.Normalize(1)
	hist.FillColor = color.RGBA{G: 160, A: 190}
	p.Add(hist)

	top := 0.0
	for _, bin := range hist.Bins {
		top = math.Max(top, bin.Weight)
	}

	meanLine, err := marker(summary.Mean, top, color.RGBA{B: 255, A: 160})
	if err != nil {
		return err
	}
	medianLine, err := marker(summary.Median, top, color.RGBA{R: 200, G: 200, A: 200})
	if err != nil {
		return err
	}
	p.Add(meanLine, medianLine)
	p.Legend.Add("Mean", meanLine)
	p.Legend.Add("Median", medianLine)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram %s: %w", path, err)
	}
	return nil
}

func marker(x, height float64, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: height}})
	if err != nil {
		return nil, fmt.Errorf("build marker: %w", err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(2)
	return line, nil
}
