package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/baldhumanity/neatcore/neat"
)

// CurrentSchemaVersion guards archived payloads against silent decoding of
// records written by an incompatible release.
const CurrentSchemaVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

type genomeEnvelope struct {
	SchemaVersion int               `json:"schema_version"`
	Genome        neat.GenomeRecord `json:"genome"`
}

type runEnvelope struct {
	SchemaVersion int       `json:"schema_version"`
	Run           RunRecord `json:"run"`
}

// EncodeGenome serializes a genome record for archival.
func EncodeGenome(g neat.GenomeRecord) ([]byte, error) {
	return json.Marshal(genomeEnvelope{SchemaVersion: CurrentSchemaVersion, Genome: g})
}

// DecodeGenome deserializes an archived genome, rejecting version mismatches.
func DecodeGenome(data []byte) (neat.GenomeRecord, error) {
	var env genomeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return neat.GenomeRecord{}, err
	}
	if env.SchemaVersion != CurrentSchemaVersion {
		return neat.GenomeRecord{}, fmt.Errorf("%w: schema %d", ErrVersionMismatch, env.SchemaVersion)
	}
	return env.Genome, nil
}

// EncodeRun serializes run metadata.
func EncodeRun(r RunRecord) ([]byte, error) {
	return json.Marshal(runEnvelope{SchemaVersion: CurrentSchemaVersion, Run: r})
}

// DecodeRun deserializes run metadata, rejecting version mismatches.
func DecodeRun(data []byte) (RunRecord, error) {
	var env runEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return RunRecord{}, err
	}
	if env.SchemaVersion != CurrentSchemaVersion {
		return RunRecord{}, fmt.Errorf("%w: schema %d", ErrVersionMismatch, env.SchemaVersion)
	}
	return env.Run, nil
}

// EncodeFitnessHistory serializes a run's best-fitness trajectory.
func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

// DecodeFitnessHistory deserializes a fitness trajectory.
func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}
