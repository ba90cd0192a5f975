package stats

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"driftsim/internal/genetics"
)

// MeanTrajectory averages each allele's frequency per generation across
// replicates. A replicate that stopped early contributes its last entry to
// every later generation.
func MeanTrajectory(histories [][]genetics.Frequencies) []genetics.Frequencies {
	length := 0
	count := 0
	for _, history := range histories {
		if len(history) == 0 {
			continue
		}
		count++
		if len(history) > length {
			length = len(history)
		}
	}
	if count == 0 {
		return nil
	}

	mean := make([]genetics.Frequencies, length)
	for generation := range mean {
		var total genetics.Frequencies
		for _, history := range histories {
			if len(history) == 0 {
				continue
			}
			entry := history[len(history)-1]
			if generation < len(history) {
				entry = history[generation]
			}
			for i := range total {
				total[i] += entry[i]
			}
		}
		for i := range total {
			mean[generation][i] = total[i] / float64(count)
		}
	}
	return mean
}

// WriteTrajectoryPlot draws one line per allele. The image format follows
// the file extension (png or svg).
func WriteTrajectoryPlot(path string, series []genetics.Frequencies, title string) error {
	if len(series) == 0 {
		return fmt.Errorf("trajectory is empty")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".svg":
	default:
		return fmt.Errorf("unsupported plot format %q", ext)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Allele frequency"
	p.Y.Min = 0
	p.Y.Max = 1

	for allele := 0; allele < genetics.NumAlleles; allele++ {
		pts := make(plotter.XYs, len(series))
		for generation, freqs := range series {
			pts[generation].X = float64(generation)
			pts[generation].Y = freqs[allele]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(allele)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(genetics.Allele(allele).String(), line)
	}
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
