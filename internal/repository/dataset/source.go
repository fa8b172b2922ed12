// Package dataset reads raw dataset sources and persists the per-dataset
// metadata list and build manifest next to the vector index.
package dataset

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-crypt/x/blake2b"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
)

// Source is a decoded raw dataset file.
type Source struct {
	Records []record.Record
	// Fingerprint is the BLAKE2b-64 digest of the raw file bytes, hex encoded.
	Fingerprint string
}

// LoadSource reads a JSON array or JSON Lines file, detected from the first
// non-blank byte. Null entries are skipped; empty objects are kept as rows.
func LoadSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, fmt.Errorf("source %s: %w", path, domain.ErrSourceMissing)
		}
		return Source{}, fmt.Errorf("read source %s: %w", path, err)
	}

	records, err := DecodeRecords(data)
	if err != nil {
		return Source{}, fmt.Errorf("source %s: %w", path, err)
	}
	return Source{Records: records, Fingerprint: Fingerprint(data)}, nil
}

// DecodeRecords decodes a JSON array of objects or a stream of JSON objects
// (one per line in practice).
func DecodeRecords(data []byte) ([]record.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []record.Record{}, nil
	}

	if trimmed[0] == '[' {
		var rows []record.Record
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode array: %v: %w", err, domain.ErrSourceMalformed)
		}
		return compact(rows), nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var rows []record.Record
	for line := 1; ; line++ {
		var r record.Record
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode line %d: %v: %w", line, err, domain.ErrSourceMalformed)
		}
		rows = append(rows, r)
	}
	return compact(rows), nil
}

func compact(rows []record.Record) []record.Record {
	out := make([]record.Record, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Fingerprint returns the hex BLAKE2b-64 digest of data.
func Fingerprint(data []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := binary.LittleEndian.Uint64(h.Sum(nil))
	return strconv.FormatUint(sum, 16)
}

// FingerprintFile digests the file at path.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("source %s: %w", path, domain.ErrSourceMissing)
		}
		return "", fmt.Errorf("read source %s: %w", path, err)
	}
	return Fingerprint(data), nil
}
