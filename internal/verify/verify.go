// Package verify checks downloaded archives against their published SHA-256
// checksums and maintains the verified markers that make re-runs skip work.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// MismatchError reports a checksum verification failure. Expected is empty
// when the checksum file itself was malformed.
type MismatchError struct {
	Expected string
	Actual   string
	Cause    error
}

func (e *MismatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("checksum unusable: %v", e.Cause)
	}
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error {
	return e.Cause
}

// Verifier validates archives and records verification results on disk.
type Verifier struct {
	logger *slog.Logger
}

// New creates a Verifier.
func New(logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{logger: logger}
}

// ParseChecksum extracts the hex digest from checksum file contents of the
// form "<hex-digest>  <filename>". Anything that does not yield a plausible
// SHA-256 digest is an error.
func ParseChecksum(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", fmt.Errorf("checksum file is empty")
	}

	digest := fields[0]
	if len(digest) != sha256.Size*2 {
		return "", fmt.Errorf("digest %q has length %d, want %d", digest, len(digest), sha256.Size*2)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("digest %q is not hex: %w", digest, err)
	}

	return digest, nil
}

// DigestFile computes the SHA-256 digest of a file as a lowercase hex string.
func DigestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("digest archive: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Verify compares the archive at archivePath against the checksum file at
// checksumPath and returns the confirmed digest. On mismatch, or when the
// checksum file is malformed, both files are removed from disk so that a
// corrupt artifact can never be mistaken for a valid one on a later resume,
// and a *MismatchError is returned.
func (v *Verifier) Verify(archivePath, checksumPath string) (string, error) {
	checksumText, err := os.ReadFile(checksumPath)
	if err != nil {
		return "", fmt.Errorf("read checksum file: %w", err)
	}

	actual, err := DigestFile(archivePath)
	if err != nil {
		return "", err
	}

	expected, err := ParseChecksum(string(checksumText))
	if err != nil {
		v.purge(archivePath, checksumPath)
		return "", &MismatchError{Actual: actual, Cause: err}
	}

	if !strings.EqualFold(expected, actual) {
		v.logger.Warn("checksum mismatch",
			"archive", archivePath,
			"expected", expected,
			"actual", actual)
		v.purge(archivePath, checksumPath)
		return "", &MismatchError{Expected: strings.ToLower(expected), Actual: actual}
	}

	return actual, nil
}

// purge removes a rejected archive and its checksum file; removal is
// idempotent so repeated failures are harmless.
func (v *Verifier) purge(archivePath, checksumPath string) {
	for _, path := range []string{archivePath, checksumPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			v.logger.Error("failed to remove rejected file", "path", path, "error", err)
		}
	}
}

// WriteMarker records a successful verification next to the archive. The
// marker, not the archive's existence, is what resume-skip logic trusts.
func (v *Verifier) WriteMarker(markerPath, digest, filename string) error {
	contents := fmt.Sprintf("%s  %s\n", strings.ToLower(digest), filename)
	if err := os.WriteFile(markerPath, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write verified marker: %w", err)
	}
	return nil
}

// Verified reports whether a verified marker exists at markerPath.
func Verified(markerPath string) bool {
	info, err := os.Stat(markerPath)
	return err == nil && !info.IsDir()
}
