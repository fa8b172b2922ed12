package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/kailas-cloud/fundsearch/internal/atomicfile"
	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
)

const manifestSuffix = ".manifest.json"

// Manifest describes the build that produced a persisted index.
type Manifest struct {
	Dataset     string    `json:"dataset"`
	Fingerprint string    `json:"fingerprint"`
	Rows        int       `json:"rows"`
	Dim         int       `json:"dim"`
	BuiltAt     time.Time `json:"built_at"`
}

// ManifestPath returns the manifest location for a metadata file.
func ManifestPath(metadataPath string) string {
	return metadataPath + manifestSuffix
}

// SaveMetadata writes the row-aligned metadata list as a JSON array.
func SaveMetadata(path string, rows []record.Record) error {
	if rows == nil {
		rows = []record.Record{}
	}
	return atomicfile.Write(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		return nil
	})
}

// LoadMetadata reads a metadata list written by SaveMetadata.
// Rows are kept as-is, including empty ones, so row alignment is preserved.
func LoadMetadata(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	var rows []record.Record
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %v: %w", path, err, domain.ErrIndexCorrupt)
	}
	if rows == nil {
		rows = []record.Record{}
	}
	return rows, nil
}

// WriteManifest persists m next to the metadata file.
func WriteManifest(metadataPath string, m Manifest) error {
	return atomicfile.Write(ManifestPath(metadataPath), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	})
}

// ReadManifest loads the manifest for a metadata file.
// ok is false when no manifest has been written.
func ReadManifest(metadataPath string) (m Manifest, ok bool, err error) {
	data, err := os.ReadFile(ManifestPath(metadataPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, false, nil
		}
		return Manifest{}, false, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, false, fmt.Errorf("decode manifest: %v: %w", err, domain.ErrIndexCorrupt)
	}
	return m, true, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
