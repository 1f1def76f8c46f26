// Package vision encodes the data.binance.vision path grammar: the mapping
// from a download task to its remote archive and checksum URLs and to the
// local paths the pipeline writes. Pure functions only; no network or
// filesystem access.
package vision

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TC94615/binance-data-downloader/internal/catalog"
	"github.com/TC94615/binance-data-downloader/internal/task"
)

const (
	// DefaultBaseURL is the production portal prefix.
	DefaultBaseURL = "https://data.binance.vision/data"

	// ChecksumSuffix is appended to an archive URL or path to address its
	// published checksum file.
	ChecksumSuffix = ".CHECKSUM"

	// MarkerSuffix is appended to a local archive path to address the
	// verified marker the pipeline writes after a successful checksum check.
	MarkerSuffix = ".verified"

	// PartSuffix is appended to a local archive path while its download is
	// still in flight.
	PartSuffix = ".part"
)

// RemoteObject holds the two remote URLs and the local paths derived from one
// task. It has no identity of its own; it is a pure function of the task.
type RemoteObject struct {
	DataURL     string
	ChecksumURL string

	ArchivePath  string
	PartPath     string
	ChecksumPath string
	MarkerPath   string
	ExtractDir   string
}

// Builder resolves tasks against a portal base URL and a local output root.
type Builder struct {
	baseURL    string
	outputRoot string
}

// NewBuilder creates a Builder. An empty baseURL selects the production portal.
func NewBuilder(baseURL, outputRoot string) *Builder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Builder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		outputRoot: outputRoot,
	}
}

// Resolve maps a task to its remote URLs and local paths.
func (b *Builder) Resolve(t task.Task) RemoteObject {
	filename := Filename(t)
	dataURL := fmt.Sprintf("%s/%s/%s", b.baseURL, remoteDir(t), filename)

	extractDir := filepath.Join(localDir(b.outputRoot, t))
	archivePath := filepath.Join(extractDir, filename)

	return RemoteObject{
		DataURL:      dataURL,
		ChecksumURL:  dataURL + ChecksumSuffix,
		ArchivePath:  archivePath,
		PartPath:     archivePath + PartSuffix,
		ChecksumPath: archivePath + ChecksumSuffix,
		MarkerPath:   archivePath + MarkerSuffix,
		ExtractDir:   extractDir,
	}
}

// Filename returns the archive filename for a task:
// SYMBOL-FREQ-DATE.zip for frequency-bearing types, SYMBOL-TYPE-DATE.zip otherwise.
func Filename(t task.Task) string {
	if t.Frequency != "" {
		return fmt.Sprintf("%s-%s-%s.zip", t.Symbol, t.Frequency, t.Date)
	}
	return fmt.Sprintf("%s-%s-%s.zip", t.Symbol, t.DataType, t.Date)
}

// remoteDir builds the portal directory for a task:
// <marketSegment>/<period>/<dataType>/<symbol>[/<frequency>].
func remoteDir(t task.Task) string {
	segments := []string{marketSegment(t.Market), string(t.Period), string(t.DataType), t.Symbol}
	if t.Frequency != "" {
		segments = append(segments, string(t.Frequency))
	}
	return strings.Join(segments, "/")
}

// localDir builds the local directory for a task:
// outputRoot/<market>/<dataType>[/<frequency>]/<symbol>.
func localDir(root string, t task.Task) string {
	parts := []string{root, string(t.Market), string(t.DataType)}
	if t.Frequency != "" {
		parts = append(parts, string(t.Frequency))
	}
	parts = append(parts, t.Symbol)
	return filepath.Join(parts...)
}

// marketSegment maps a market to its remote path prefix. Options are only
// published daily, but that is the capability table's concern, not this one's.
func marketSegment(m catalog.Market) string {
	switch m {
	case catalog.MarketFuturesUM:
		return "futures/um"
	case catalog.MarketFuturesCM:
		return "futures/cm"
	default:
		return string(m)
	}
}
