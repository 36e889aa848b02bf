package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// Descriptor is the lightweight view of a discovered archive: enough to
// present a choice to the caller without decoding vector or binary
// payloads. Archives may hold megabytes of ciphertext; discovery stays
// cheap no matter how many are present.
type Descriptor struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Platform    string `json:"platform"`
	Version     string `json:"version"`
	TestCount   int    `json:"test_count"`
}

// Discover enumerates regression archives under root/regression: zip files
// and unpacked directories alike. An archive missing the metadata marker is
// skipped with a warning, never fatal.
func Discover(root string, logger *events.Logger) ([]Descriptor, error) {
	logger = logger.WithField("component", "discovery")

	dir := filepath.Join(root, RegressionDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read regression dir: %w", err)
	}

	var found []Descriptor
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), ArchiveExt) {
			continue
		}

		desc, err := describe(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Skipping archive")
			continue
		}
		found = append(found, desc)
	}

	return found, nil
}

// describe opens one archive far enough to parse its marker document.
func describe(path string) (Descriptor, error) {
	reader, err := OpenBlobReader(path)
	if err != nil {
		return Descriptor{}, err
	}
	defer reader.Close()

	meta, _, err := readMetadata(reader, path)
	if err != nil {
		return Descriptor{}, err
	}

	testCount := 0
	for _, n := range meta.Counts {
		testCount += n
	}

	return Descriptor{
		Path:        path,
		DisplayName: fmt.Sprintf("%s %s", meta.Platform, meta.Version),
		Platform:    meta.Platform,
		Version:     meta.Version,
		TestCount:   testCount,
	}, nil
}

// readMetadata locates and parses the marker document, returning the
// internal prefix the archive content is nested under.
func readMetadata(reader BlobReader, path string) (*models.Metadata, string, error) {
	names, err := reader.List()
	if err != nil {
		return nil, "", err
	}

	prefix, ok := findMarker(names)
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", path, models.ErrMarkerNotFound)
	}

	data, err := reader.Read(prefix + MarkerName)
	if err != nil {
		return nil, "", err
	}

	var meta models.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, "", &models.ArchiveFormatError{
			Archive: path, Document: MarkerName, Err: err,
		}
	}

	return &meta, prefix, nil
}
