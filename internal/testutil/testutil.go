// Package testutil provides a stub data portal and archive fixtures for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// ZipArchive builds an in-memory zip holding a single member.
func ZipArchive(t *testing.T, member string, contents []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	entry, err := writer.Create(member)
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := entry.Write(contents); err != nil {
		t.Fatalf("write zip member: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}

	return buf.Bytes()
}

// ChecksumLine returns the portal's checksum file contents for data:
// "<sha256-hex>  <filename>".
func ChecksumLine(data []byte, filename string) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), filename)
}

// Portal is a stub data portal. It serves registered bodies by path, counts
// requests per path and tracks the peak number of simultaneous in-flight
// requests, which lets tests assert on the pipeline's concurrency bound.
type Portal struct {
	server *httptest.Server

	mu       sync.Mutex
	bodies   map[string][]byte
	statuses map[string]int
	hits     map[string]int
	inFlight int
	peak     int
	delay    time.Duration
}

// NewPortal starts a stub portal; it is shut down when the test ends.
func NewPortal(t *testing.T) *Portal {
	t.Helper()

	p := &Portal{
		bodies:   make(map[string][]byte),
		statuses: make(map[string]int),
		hits:     make(map[string]int),
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.server.Close)
	return p
}

// URL returns the portal's base URL.
func (p *Portal) URL() string {
	return p.server.URL
}

// Add registers a body under a path, e.g. "/spot/daily/klines/BTCUSDT/1d/x.zip".
func (p *Portal) Add(path string, body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies[path] = body
}

// AddArchive registers an archive and a matching checksum file under dir.
func (p *Portal) AddArchive(dir, filename string, archive []byte) {
	p.Add(dir+"/"+filename, archive)
	p.Add(dir+"/"+filename+".CHECKSUM", []byte(ChecksumLine(archive, filename)))
}

// SetStatus forces a status code for a path, overriding any registered body.
func (p *Portal) SetStatus(path string, code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[path] = code
}

// SetDelay makes every request take at least d, so that concurrent requests
// actually overlap.
func (p *Portal) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// Hits returns how many requests a path has received.
func (p *Portal) Hits(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

// TotalHits returns the total number of requests served.
func (p *Portal) TotalHits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.hits {
		total += n
	}
	return total
}

// Peak returns the highest number of simultaneous in-flight requests observed.
func (p *Portal) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

func (p *Portal) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.hits[r.URL.Path]++
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	status, forced := p.statuses[r.URL.Path]
	body, known := p.bodies[r.URL.Path]
	delay := p.delay
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}

	if forced {
		w.WriteHeader(status)
		return
	}
	if !known {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
