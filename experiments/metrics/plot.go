package metrics

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"tetris/trainer"
)

// PlotHistory draws best and mean fitness per generation and saves the plot;
// the image format follows the extension of outPath.
func PlotHistory(records []trainer.GenerationRecord, title, outPath string) error {
	if len(records) == 0 {
		return errors.New("no generations to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestPts := make(plotter.XYs, len(records))
	meanPts := make(plotter.XYs, len(records))
	for i, rec := range records {
		bestPts[i].X = float64(rec.Generation)
		bestPts[i].Y = rec.Best
		meanPts[i].X = float64(rec.Generation)
		meanPts[i].Y = rec.Mean
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return fmt.Errorf("failed to plot best fitness: %w", err)
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return fmt.Errorf("failed to plot mean fitness: %w", err)
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(bestLine, meanLine, plotter.NewGrid())
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
