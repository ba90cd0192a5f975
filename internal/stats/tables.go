package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"driftsim/internal/genetics"
)

const frequencyTableHeader = "#Generation\tAllele0 Freq\tAllele1 Freq\tAllele2 Freq"

// FrequencyTableName is the file name used for replicate i.
func FrequencyTableName(i int) string {
	return fmt.Sprintf("frequency_over_time%d.tsv", i)
}

// WriteFrequencyTable writes one row per generation, frequencies to four
// decimal places.
func WriteFrequencyTable(w io.Writer, history []genetics.Frequencies) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, frequencyTableHeader); err != nil {
		return err
	}
	cols := make([]string, genetics.NumAlleles)
	for generation, freqs := range history {
		for i, f := range freqs {
			cols[i] = fmt.Sprintf("%1.4f", f)
		}
		if _, err := fmt.Fprintf(bw, "%d\t%s\n", generation, strings.Join(cols, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteReplicateTables writes histories[i] to dir/frequency_over_time<i>.tsv
// and returns the written paths in replicate order.
func WriteReplicateTables(dir string, histories [][]genetics.Frequencies) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(histories))
	for i, history := range histories {
		path := filepath.Join(dir, FrequencyTableName(i))
		if err := writeFrequencyFile(path, history); err != nil {
			return nil, fmt.Errorf("replicate %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFrequencyFile(path string, history []genetics.Frequencies) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteFrequencyTable(file, history); err != nil {
		return err
	}
	return file.Sync()
}
