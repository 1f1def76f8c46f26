package pipeline

import (
	"sync"
	"testing"

	"github.com/TC94615/binance-data-downloader/internal/catalog"
	"github.com/TC94615/binance-data-downloader/internal/task"
)

func outcome(kind Kind, date string) Outcome {
	return Outcome{Task: klineTask(date), Kind: kind}
}

func TestAggregator_CountsAndFailures(t *testing.T) {
	agg := NewAggregator()

	agg.Record(outcome(KindSuccess, "2025-01-01"))
	agg.Record(outcome(KindSkipped, "2025-01-02"))
	agg.Record(outcome(KindNotFound, "2025-01-03"))
	agg.Record(outcome(KindNetworkFailed, "2025-01-04"))
	agg.Record(outcome(KindChecksumMismatch, "2025-01-05"))
	agg.Record(outcome(KindExtractFailed, "2025-01-06"))

	summary := agg.Finalize()

	if summary.Total != 6 {
		t.Errorf("total = %d, want 6", summary.Total)
	}
	for _, kind := range []Kind{
		KindSuccess, KindSkipped, KindNotFound,
		KindNetworkFailed, KindChecksumMismatch, KindExtractFailed,
	} {
		if summary.Count(kind) != 1 {
			t.Errorf("count(%s) = %d, want 1", kind, summary.Count(kind))
		}
	}

	// Only unresolved failures make the re-run list, in arrival order.
	want := []Kind{KindNetworkFailed, KindChecksumMismatch, KindExtractFailed}
	if len(summary.Failures) != len(want) {
		t.Fatalf("failures = %d, want %d", len(summary.Failures), len(want))
	}
	for i, f := range summary.Failures {
		if f.Kind != want[i] {
			t.Errorf("failures[%d].Kind = %s, want %s", i, f.Kind, want[i])
		}
	}
}

func TestSummary_ExitCode(t *testing.T) {
	tests := []struct {
		name  string
		kinds []Kind
		want  int
	}{
		{"all success", []Kind{KindSuccess, KindSuccess}, 0},
		{"empty batch", nil, 0},
		{"not found is not a failure", []Kind{KindSuccess, KindNotFound}, 0},
		{"skips are not failures", []Kind{KindSkipped}, 0},
		{"network failure", []Kind{KindSuccess, KindNetworkFailed}, 1},
		{"checksum mismatch", []Kind{KindChecksumMismatch}, 1},
		{"extract failure", []Kind{KindExtractFailed}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for _, k := range tt.kinds {
				agg.Record(outcome(k, "2025-01-01"))
			}
			summary := agg.Finalize()
			if got := summary.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
			if summary.Failed() != (tt.want == 1) {
				t.Errorf("Failed() = %v, want %v", summary.Failed(), tt.want == 1)
			}
		})
	}
}

func TestAggregator_ConcurrentRecord(t *testing.T) {
	agg := NewAggregator()

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				agg.Record(Outcome{
					Task: task.Task{
						Market:   catalog.MarketSpot,
						DataType: catalog.DataTypeTrades,
						Symbol:   "ETHUSDT",
						Period:   catalog.PeriodDaily,
						Date:     "2025-02-01",
					},
					Kind: KindSuccess,
				})
			}
		}()
	}
	wg.Wait()

	summary := agg.Finalize()
	if summary.Total != workers*perWorker {
		t.Errorf("total = %d, want %d", summary.Total, workers*perWorker)
	}
	if summary.Count(KindSuccess) != workers*perWorker {
		t.Errorf("success count = %d, want %d", summary.Count(KindSuccess), workers*perWorker)
	}
}

func TestFinalize_ReturnsCopies(t *testing.T) {
	agg := NewAggregator()
	agg.Record(outcome(KindNetworkFailed, "2025-01-01"))

	first := agg.Finalize()
	agg.Record(outcome(KindNetworkFailed, "2025-01-02"))

	if first.Total != 1 || len(first.Failures) != 1 || first.Count(KindNetworkFailed) != 1 {
		t.Errorf("earlier summary mutated by later records: %+v", first)
	}
}
