// Package evidence writes per-run JSON records of workflow executions so a
// run can be inspected after the fact.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/promptchain/pkg/guardrail"
	"github.com/zen-systems/promptchain/pkg/pipeline"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Flow      string    `json:"flow"`
	Adapter   string    `json:"adapter"`
	Model     string    `json:"model,omitempty"`
	Input     string    `json:"input"`
}

// StageRecord captures evidence for a single stage result.
type StageRecord struct {
	Name     string         `json:"name"`
	OK       bool           `json:"ok"`
	Record   map[string]any `json:"record,omitempty"`
	Failure  string         `json:"failure,omitempty"`
	Raw      string         `json:"raw,omitempty"`
	Artifact string         `json:"artifact_hash,omitempty"`
}

// GateRecord captures a gate decision.
type GateRecord struct {
	Stage    string `json:"stage"`
	Passed   bool   `json:"passed"`
	Evidence string `json:"evidence,omitempty"`
}

// BranchRecord captures one guardrail branch outcome.
type BranchRecord struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Degraded bool   `json:"degraded"`
	Evidence string `json:"evidence,omitempty"`
	Fault    string `json:"fault,omitempty"`
}

// Writer writes evidence bundles to disk.
type Writer struct {
	runDir string
	runID  string
}

// NewWriter creates an evidence writer rooted at baseDir/<run id>.
func NewWriter(baseDir string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	runID := uuid.NewString()
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(filepath.Join(runDir, "stages"), 0755); err != nil {
		return nil, err
	}

	return &Writer{runDir: runDir, runID: runID}, nil
}

// RunID returns the generated run identifier.
func (w *Writer) RunID() string {
	return w.runID
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	record.ID = w.runID
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage writes a stage result to stages/<stage>.json.
func (w *Writer) WriteStage(res *pipeline.Result) error {
	if res == nil {
		return fmt.Errorf("nil result")
	}
	record := StageRecord{Name: res.Stage, OK: res.OK(), Record: res.Record}
	if res.Failure != nil {
		record.Failure = fmt.Sprintf("%s: %s", res.Failure.Kind, res.Failure.Reason)
		record.Raw = res.Failure.Raw
	}
	if res.Artifact != nil {
		record.Artifact = res.Artifact.Hash
	}
	path := filepath.Join(w.runDir, "stages", fmt.Sprintf("%s.json", res.Stage))
	return writeJSON(path, record)
}

// WriteOutcome writes a flow's terminal outcome to outcome.json.
func (w *Writer) WriteOutcome(value any) error {
	return writeJSON(filepath.Join(w.runDir, "outcome.json"), value)
}

// WriteGate writes a gate decision to gates.json, appending to prior ones.
func (w *Writer) WriteGate(stage string, passed bool, evidence string) error {
	path := filepath.Join(w.runDir, "gates.json")
	var records []GateRecord
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &records)
	}
	records = append(records, GateRecord{Stage: stage, Passed: passed, Evidence: evidence})
	return writeJSON(path, records)
}

// WriteBranches writes guardrail branch outcomes to branches.json.
func (w *Writer) WriteBranches(outcome *guardrail.Outcome) error {
	if outcome == nil {
		return fmt.Errorf("nil outcome")
	}
	records := make([]BranchRecord, 0, len(outcome.Branches))
	for name, report := range outcome.Branches {
		record := BranchRecord{
			Name:     name,
			Passed:   report.Passed,
			Degraded: report.Degraded,
			Evidence: report.Evidence,
		}
		if report.Fault != nil {
			record.Fault = report.Fault.Error()
		}
		records = append(records, record)
	}
	return writeJSON(filepath.Join(w.runDir, "branches.json"), records)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
