package adapter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	m "github.com/pin-drift/guardcheck/internal/model"
)

// ReportStore persists and retrieves verification runs. Runs are stored as
// JSON lines: a header describing the run followed by one line per check
// result, so other tooling can consume results without parsing the whole
// document at once.
type ReportStore interface {
	SaveRun(path m.Path, run *m.RunResult) error
	LoadRun(path m.Path) (*m.RunResult, error)
}

// runHeader is the first JSON line of a stored run.
type runHeader struct {
	Target string `json:"target"`
	Passed int    `json:"passed"`
	Total  int    `json:"total"`
}

type reportStore struct{}

// NewReportStore constructs a ReportStore implementation.
func NewReportStore() ReportStore {
	return &reportStore{}
}

// SaveRun writes the run to path, overwriting any previous report.
func (rs *reportStore) SaveRun(path m.Path, run *m.RunResult) error {
	f, err := os.Create(string(path)) // #nosec G304 - path is the user-chosen report destination
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}

	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	passed, total := run.Counts()
	header := runHeader{Target: string(run.Target), Passed: passed, Total: total}

	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("encode report header: %w", err)
	}

	for _, result := range run.Results {
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode report entry: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush report %s: %w", path, err)
	}

	return nil
}

// LoadRun reads a run previously written by SaveRun.
func (rs *reportStore) LoadRun(path m.Path) (*m.RunResult, error) {
	f, err := os.Open(string(path)) // #nosec G304 - path is the user-chosen report location
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", path, err)
	}

	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("report %s is empty", path)
	}

	var header runHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("decode report header: %w", err)
	}

	run := &m.RunResult{Target: m.Path(header.Target)}

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var result m.CheckResult
		if err := json.Unmarshal(line, &result); err != nil {
			return nil, fmt.Errorf("decode report entry: %w", err)
		}

		run.Append(result)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	return run, nil
}
