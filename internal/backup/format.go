package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format versions.
const (
	FormatV1 = 1 // indented JSON payload
	FormatV2 = 2 // JSON header line followed by a gzip payload
)

// MaxDecompressedSize bounds a V2 payload after decompression (64MB).
const MaxDecompressedSize = 64 * 1024 * 1024

// Header is the plain-text first line of a V2 backup.
type Header struct {
	Version             int       `json:"version"`
	CreatedAt           time.Time `json:"created_at"`
	Checksum            string    `json:"checksum"`
	PortalCount         int       `json:"portal_count"`
	RecommendationCount int       `json:"recommendation_count"`
	Compressed          bool      `json:"compressed"`
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// DetectFormat inspects the first line of path: a V2 header, or the start
// of a plain JSON document.
func DetectFormat(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("reading first line: %w", err)
		}
		return 0, fmt.Errorf("file is empty")
	}

	first := strings.TrimSpace(scanner.Text())
	if first == "" {
		return 0, fmt.Errorf("first line is empty")
	}

	var h Header
	if err := json.Unmarshal([]byte(first), &h); err == nil && h.Version == FormatV2 {
		return FormatV2, nil
	}
	if first[0] == '{' {
		return FormatV1, nil
	}
	return 0, fmt.Errorf("unrecognized backup format")
}

// WriteV2 writes p as a header line plus gzip payload, checksummed over the
// compressed bytes.
func WriteV2(path string, p *Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	portals := 0
	if p.Snapshot != nil {
		portals = len(p.Snapshot.Portals)
	}
	headerBytes, err := json.Marshal(Header{
		Version:             FormatV2,
		CreatedAt:           p.CreatedAt,
		Checksum:            checksum(compressed.Bytes()),
		PortalCount:         portals,
		RecommendationCount: len(p.Recommendations),
		Compressed:          true,
	})
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	var out bytes.Buffer
	out.Grow(len(headerBytes) + 1 + compressed.Len())
	out.Write(headerBytes)
	out.WriteByte('\n')
	out.Write(compressed.Bytes())
	if err := os.WriteFile(path, out.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// openV2 reads and validates the header, returning it with the raw
// compressed payload.
func openV2(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header line: %w", err)
	}

	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return nil, nil, fmt.Errorf("parsing header: %w", err)
	}
	if h.Version != FormatV2 {
		return nil, nil, fmt.Errorf("expected V2 format, got version %d", h.Version)
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	return &h, payload, nil
}

// ReadV2 verifies the checksum and decodes a V2 backup.
func ReadV2(path string) (*Payload, error) {
	h, compressed, err := openV2(path)
	if err != nil {
		return nil, err
	}
	if got := checksum(compressed); got != h.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", h.Checksum, got)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	raw, err := io.ReadAll(io.LimitReader(gzr, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if int64(len(raw)) > MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing backup data: %w", err)
	}
	return &p, nil
}

// ReadHeader returns a V2 backup's header without decompressing.
func ReadHeader(path string) (*Header, error) {
	h, _, err := openV2(path)
	return h, err
}

// VerifyChecksum checks a V2 backup's payload against its header.
func VerifyChecksum(path string) error {
	h, compressed, err := openV2(path)
	if err != nil {
		return err
	}
	if got := checksum(compressed); got != h.Checksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", h.Checksum, got)
	}
	return nil
}
