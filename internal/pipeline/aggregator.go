package pipeline

import (
	"sync"
)

// Aggregator accumulates task outcomes as workers complete. It is safe for
// concurrent use; accumulation is commutative, so completion order does not
// matter. Its lifetime is scoped to one batch run.
type Aggregator struct {
	mu       sync.Mutex
	total    int
	counts   map[Kind]int
	failures []Outcome
}

// NewAggregator creates an empty accumulator for one batch.
func NewAggregator() *Aggregator {
	return &Aggregator{counts: make(map[Kind]int)}
}

// Record registers one terminal outcome. Failures that would warrant a re-run
// are kept, in arrival order, for the final report.
func (a *Aggregator) Record(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.counts[o.Kind]++

	switch o.Kind {
	case KindNetworkFailed, KindChecksumMismatch, KindExtractFailed:
		a.failures = append(a.failures, o)
	}
}

// Finalize returns the batch summary. The aggregator may keep receiving
// outcomes afterwards, but callers finalize only once all tasks are terminal.
func (a *Aggregator) Finalize() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts := make(map[Kind]int, len(a.counts))
	for k, n := range a.counts {
		counts[k] = n
	}
	failures := make([]Outcome, len(a.failures))
	copy(failures, a.failures)

	return Summary{Total: a.total, Counts: counts, Failures: failures}
}

// Summary is the aggregate result of a batch: per-kind counts plus the
// failures worth re-running.
type Summary struct {
	Total    int
	Counts   map[Kind]int
	Failures []Outcome
}

// Count returns the number of tasks that ended with the given kind.
func (s Summary) Count(k Kind) int {
	return s.Counts[k]
}

// Failed reports whether any task ended in an unresolved failure.
// Absent datasets (not found) and skips are not failures.
func (s Summary) Failed() bool {
	return len(s.Failures) > 0
}

// ExitCode maps the summary onto a process exit status.
func (s Summary) ExitCode() int {
	if s.Failed() {
		return 1
	}
	return 0
}
