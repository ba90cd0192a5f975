package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"driftsim/internal/genetics"
	"driftsim/internal/model"
)

const StatisticsFile = "statistics.txt"

// GenerationsToFixation returns the first generation in which some allele
// reached frequency 1.0, or -1 when none did.
func GenerationsToFixation(history []genetics.Frequencies) int {
	for generation, freqs := range history {
		if _, fixed := freqs.Fixed(); fixed {
			return generation
		}
	}
	return -1
}

// BuildSummary aggregates generations-to-fixation over the runs that fixed.
// The caller fills in BatchID.
func BuildSummary(cfg model.BatchConfig, histories [][]genetics.Frequencies) model.Summary {
	summary := model.Summary{
		SampleSize:               len(histories),
		PopulationSize:           cfg.PopulationSize,
		FixedNumberOfGenerations: cfg.FixedNumberOfGenerations,
		StartingFrequencies:      append([]float64(nil), cfg.StartingFrequencies...),
	}

	fixationTimes := make([]float64, 0, len(histories))
	minGen, maxGen := 0, 0
	for _, history := range histories {
		generation := GenerationsToFixation(history)
		if generation < 0 {
			continue
		}
		allele, _ := history[generation].Fixed()
		summary.FixationsByAllele[allele]++
		if len(fixationTimes) == 0 || generation < minGen {
			minGen = generation
		}
		if len(fixationTimes) == 0 || generation > maxGen {
			maxGen = generation
		}
		fixationTimes = append(fixationTimes, float64(generation))
	}

	summary.FixedRuns = len(fixationTimes)
	if len(histories) > 0 {
		summary.PercentFixed = float64(summary.FixedRuns) / float64(len(histories)) * 100
	}
	if len(fixationTimes) == 0 {
		return summary
	}

	mean, std := stat.MeanStdDev(fixationTimes, nil)
	if len(fixationTimes) < 2 {
		std = 0
	}
	summary.MeanGenerations = &mean
	summary.StdDevGenerations = &std
	summary.MinGenerations = &minGen
	summary.MaxGenerations = &maxGen
	return summary
}

// MeanFinalHeterozygosity averages the last value of each non-empty
// per-generation heterozygosity series.
func MeanFinalHeterozygosity(series [][]float64) (float64, bool) {
	finals := make([]float64, 0, len(series))
	for _, values := range series {
		if len(values) == 0 {
			continue
		}
		finals = append(finals, values[len(values)-1])
	}
	if len(finals) == 0 {
		return 0, false
	}
	return stat.Mean(finals, nil), true
}

// WriteSummary renders the human-readable statistics report.
func WriteSummary(w io.Writer, s model.Summary) error {
	lines := []string{
		"              Data on the fixation events            ",
		"-----------------------------------------------------",
		fmt.Sprintf("Sample size (number of simulations): %d", s.SampleSize),
		fmt.Sprintf("Population size: %d", s.PopulationSize),
		fmt.Sprintf("Fixed number of generations: %d", s.FixedNumberOfGenerations),
		fmt.Sprintf("A fixation event occurred %s%% of the time.", formatFloat(s.PercentFixed)),
		"Mean generations to fixation: " + optionalFloat(s.MeanGenerations),
		"Standard deviation: " + optionalFloat(s.StdDevGenerations),
		"Max generations to fixation: " + optionalInt(s.MaxGenerations),
		"Min generations to fixation: " + optionalInt(s.MinGenerations),
		"",
		"Starting frequencies: " + formatFrequencies(s.StartingFrequencies),
		fmt.Sprintf("Number of times each allele became fixed (a_0, a_1, a_2): (%d, %d, %d)",
			s.FixationsByAllele[0], s.FixationsByAllele[1], s.FixationsByAllele[2]),
		"Mean final heterozygosity: " + optionalFloat(s.MeanFinalHeterozygosity),
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// WriteStatisticsFile writes the report to dir/statistics.txt.
func WriteStatisticsFile(dir string, s model.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, StatisticsFile)
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteSummary(file, s); err != nil {
		return "", err
	}
	return path, file.Sync()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatFloat(*v)
}

func optionalInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}

func formatFrequencies(freqs []float64) string {
	parts := make([]string, len(freqs))
	for i, f := range freqs {
		parts[i] = formatFloat(f)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
