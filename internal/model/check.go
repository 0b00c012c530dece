// Package model defines the data structures for conformance checking.
package model

// CheckResult represents the outcome of a single conformance check.
// Results are immutable once recorded.
type CheckResult struct {
	Suite       string `json:"suite"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Detail      string `json:"detail,omitempty"` // shown on failure: offending lines, missing fields
}

// SuiteCount aggregates pass/fail totals for one suite of a run.
type SuiteCount struct {
	Suite  string
	Passed int
	Failed int
}

// RunResult holds the ordered check outcomes of one verification run.
// Results keep strict insertion order; they are never sorted.
type RunResult struct {
	Target  Path
	Results []CheckResult
}

// Append records a result at the end of the run.
func (r *RunResult) Append(result CheckResult) {
	r.Results = append(r.Results, result)
}

// Passed reports whether every recorded check passed.
func (r *RunResult) Passed() bool {
	for _, result := range r.Results {
		if !result.Passed {
			return false
		}
	}

	return true
}

// Counts returns the number of passed checks and the total.
func (r *RunResult) Counts() (passed, total int) {
	for _, result := range r.Results {
		if result.Passed {
			passed++
		}
	}

	return passed, len(r.Results)
}

// BySuite returns per-suite totals in first-seen order.
func (r *RunResult) BySuite() []SuiteCount {
	index := make(map[string]int)

	var counts []SuiteCount

	for _, result := range r.Results {
		i, ok := index[result.Suite]
		if !ok {
			i = len(counts)
			index[result.Suite] = i

			counts = append(counts, SuiteCount{Suite: result.Suite})
		}

		if result.Passed {
			counts[i].Passed++
		} else {
			counts[i].Failed++
		}
	}

	return counts
}
