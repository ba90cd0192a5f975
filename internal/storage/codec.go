package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"driftsim/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is the version stamp new records are written with.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeBatch(b model.Batch) ([]byte, error) {
	return json.Marshal(b)
}

func DecodeBatch(data []byte) (model.Batch, error) {
	var batch model.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return model.Batch{}, err
	}
	if err := checkVersion(batch.VersionedRecord); err != nil {
		return model.Batch{}, err
	}
	return batch, nil
}

func EncodeReplicates(replicates []model.Replicate) ([]byte, error) {
	return json.Marshal(replicates)
}

func DecodeReplicates(data []byte) ([]model.Replicate, error) {
	var replicates []model.Replicate
	if err := json.Unmarshal(data, &replicates); err != nil {
		return nil, err
	}
	for i := range replicates {
		if err := checkVersion(replicates[i].VersionedRecord); err != nil {
			return nil, fmt.Errorf("replicate %d: %w", replicates[i].Index, err)
		}
	}
	return replicates, nil
}

func EncodeSummary(s model.Summary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSummary(data []byte) (model.Summary, error) {
	var summary model.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.Summary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.Summary{}, err
	}
	return summary, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
