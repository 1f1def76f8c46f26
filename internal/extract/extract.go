// Package extract unpacks verified portal archives. Each archive is expected
// to hold exactly one CSV member.
package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CSV extracts the single CSV member of the archive into destDir, flattening
// any internal directory structure, and returns the extracted file's path.
// The archive is left untouched regardless of outcome; a verified archive
// that fails to extract may still be recoverable, so deleting it here would
// be wrong.
func CSV(archivePath, destDir string) (string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	var member *zip.File
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if member != nil {
			return "", fmt.Errorf("archive holds more than one member")
		}
		member = f
	}

	if member == nil {
		return "", fmt.Errorf("archive holds no members")
	}

	name := path.Base(member.Name)
	if !strings.EqualFold(path.Ext(name), ".csv") {
		return "", fmt.Errorf("unexpected member %q, want a CSV file", member.Name)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create extract directory: %w", err)
	}

	target := filepath.Join(destDir, name)
	if err := extractMember(member, target); err != nil {
		os.Remove(target)
		return "", err
	}

	return target, nil
}

func extractMember(member *zip.File, target string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("open archive member: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create extracted file: %w", err)
	}

	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("extract member: %w", err)
	}

	return nil
}
