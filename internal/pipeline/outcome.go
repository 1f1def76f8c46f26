package pipeline

import (
	"github.com/TC94615/binance-data-downloader/internal/task"
)

// Kind tags the terminal state of one task's lifecycle.
type Kind string

const (
	// KindSuccess means the archive was fetched, verified and extracted.
	KindSuccess Kind = "success"
	// KindSkipped means a verified marker was already present; no network call was made.
	KindSkipped Kind = "skipped"
	// KindNotFound means the portal has no dataset for the task (remote 404).
	KindNotFound Kind = "not_found"
	// KindNetworkFailed means a transient failure persisted through all retries.
	KindNetworkFailed Kind = "network_failed"
	// KindChecksumMismatch means the archive digest did not match its checksum;
	// both files were purged from disk.
	KindChecksumMismatch Kind = "checksum_mismatch"
	// KindExtractFailed means a verified archive could not be unpacked;
	// the archive stays on disk.
	KindExtractFailed Kind = "extract_failed"
)

// Outcome is the terminal result of one download task. It is produced exactly
// once per task and handed by value to the aggregator.
type Outcome struct {
	Task task.Task
	Kind Kind

	// ExtractedPath is set for KindSuccess.
	ExtractedPath string

	// Expected and Actual are set for KindChecksumMismatch.
	Expected string
	Actual   string

	// Err carries the cause for the failure kinds.
	Err error
}
