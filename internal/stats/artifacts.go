package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"driftsim/internal/genetics"
	"driftsim/internal/model"
)

const BatchConfigFile = "config.json"

// BatchArtifacts is everything written to a batch output directory.
type BatchArtifacts struct {
	Batch     model.Batch
	Histories [][]genetics.Frequencies
	Summary   model.Summary
}

// WriteBatchArtifacts writes config.json, one frequency table per replicate
// and statistics.txt into dir. It returns the statistics file path.
func WriteBatchArtifacts(dir string, artifacts BatchArtifacts) (string, error) {
	if artifacts.Batch.ID == "" {
		return "", fmt.Errorf("batch id is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(dir, BatchConfigFile), artifacts.Batch); err != nil {
		return "", err
	}
	if _, err := WriteReplicateTables(dir, artifacts.Histories); err != nil {
		return "", err
	}
	return WriteStatisticsFile(dir, artifacts.Summary)
}

// ReadBatchConfig reads config.json back from a batch output directory.
func ReadBatchConfig(dir string) (model.Batch, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, BatchConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Batch{}, false, nil
		}
		return model.Batch{}, false, err
	}
	var batch model.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return model.Batch{}, false, err
	}
	return batch, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
