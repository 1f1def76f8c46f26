package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir string, contents []byte, checksumLine string) (archive, checksum string) {
	t.Helper()

	archive = filepath.Join(dir, "BTCUSDT-1d-2025-01-01.zip")
	checksum = archive + ".CHECKSUM"
	if err := os.WriteFile(archive, contents, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(checksum, []byte(checksumLine), 0o644); err != nil {
		t.Fatal(err)
	}
	return archive, checksum
}

func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestVerify_Match(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("open,high,low,close\n")
	line := fmt.Sprintf("%s  BTCUSDT-1d-2025-01-01.zip\n", digestOf(contents))
	archive, checksum := writeFixture(t, dir, contents, line)

	digest, err := New(nil).Verify(archive, checksum)
	if err != nil {
		t.Fatalf("Verify() returned unexpected error: %v", err)
	}
	if digest != digestOf(contents) {
		t.Errorf("digest = %q, want %q", digest, digestOf(contents))
	}

	// A successful verification leaves both files on disk.
	for _, path := range []string{archive, checksum} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s should still exist: %v", path, err)
		}
	}
}

func TestVerify_MatchIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("data")
	line := strings.ToUpper(digestOf(contents)) + "  x.zip\n"
	archive, checksum := writeFixture(t, dir, contents, line)

	if _, err := New(nil).Verify(archive, checksum); err != nil {
		t.Fatalf("Verify() with uppercase digest failed: %v", err)
	}
}

func TestVerify_MismatchPurgesBothFiles(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("actual contents")
	line := digestOf([]byte("different contents")) + "  x.zip\n"
	archive, checksum := writeFixture(t, dir, contents, line)

	_, err := New(nil).Verify(archive, checksum)

	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Verify() error = %v, want *MismatchError", err)
	}
	if mismatch.Expected != digestOf([]byte("different contents")) {
		t.Errorf("Expected = %q, want digest of altered contents", mismatch.Expected)
	}
	if mismatch.Actual != digestOf(contents) {
		t.Errorf("Actual = %q, want digest of archive", mismatch.Actual)
	}

	for _, path := range []string{archive, checksum} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s should have been removed", path)
		}
	}
}

func TestVerify_MalformedChecksumIsAMismatch(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty file", ""},
		{"whitespace only", "   \n"},
		{"short digest", "abc123  x.zip\n"},
		{"non-hex digest", strings.Repeat("zz", 32) + "  x.zip\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive, checksum := writeFixture(t, dir, []byte("data"), tt.line)

			_, err := New(nil).Verify(archive, checksum)

			var mismatch *MismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("Verify() error = %v, want *MismatchError", err)
			}

			for _, path := range []string{archive, checksum} {
				if _, err := os.Stat(path); !os.IsNotExist(err) {
					t.Errorf("%s should have been removed", path)
				}
			}
		})
	}
}

func TestParseChecksum(t *testing.T) {
	digest := digestOf([]byte("x"))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"digest and filename", digest + "  file.zip\n", digest, false},
		{"digest only", digest, digest, false},
		{"tab separated", digest + "\tfile.zip", digest, false},
		{"empty", "", "", true},
		{"truncated", digest[:10], "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChecksum(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseChecksum() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "x.zip.verified")

	if Verified(marker) {
		t.Error("Verified() = true before the marker exists")
	}

	v := New(nil)
	if err := v.WriteMarker(marker, "ABCDEF", "x.zip"); err != nil {
		t.Fatalf("WriteMarker() failed: %v", err)
	}

	if !Verified(marker) {
		t.Error("Verified() = false after WriteMarker")
	}

	contents, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "abcdef  x.zip\n" {
		t.Errorf("marker contents = %q, want %q", contents, "abcdef  x.zip\n")
	}
}
