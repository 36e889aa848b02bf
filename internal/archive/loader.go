package archive

import (
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// Loader materializes discovered archives into in-memory datasets.
type Loader struct {
	logger *events.Logger
}

// NewLoader creates an archive loader.
func NewLoader(logger *events.Logger) *Loader {
	return &Loader{logger: logger.WithField("component", "loader")}
}

// Materialize fully decodes one archive into a PlatformDataset, including
// binary payloads. A missing vectors document rejects the archive with an
// ArchiveFormatError: there is nothing to verify. edge_cases.json and the
// encrypted-files subtree are optional.
func (l *Loader) Materialize(path string) (*models.PlatformDataset, error) {
	reader, err := OpenBlobReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	meta, prefix, err := readMetadata(reader, path)
	if err != nil {
		return nil, err
	}

	ds := &models.PlatformDataset{
		Platform: meta.Platform,
		Version:  meta.Version,
		Metadata: *meta,
	}

	// Primary vector document: required.
	data, err := reader.Read(prefix + VectorsName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = models.ErrVectorsNotFound
		}
		return nil, &models.ArchiveFormatError{
			Archive: path, Document: VectorsName, Err: err,
		}
	}

	var vectors models.VectorsDocument
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, &models.ArchiveFormatError{
			Archive: path, Document: VectorsName, Err: err,
		}
	}
	ds.Suites = vectors.TestSuites
	ds.Timestamp = vectors.Timestamp

	if err := l.loadEdgeCases(reader, prefix, path, ds); err != nil {
		return nil, err
	}

	if err := l.loadFileVectors(reader, prefix, path, ds); err != nil {
		return nil, err
	}

	l.warnOnShortCategories(ds)

	l.logger.WithFields(map[string]interface{}{
		"path":     path,
		"platform": ds.Platform,
		"vectors":  ds.VectorCount(),
		"files":    len(ds.FileVectors),
	}).Info("Materialized dataset")

	return ds, nil
}

func (l *Loader) loadEdgeCases(reader BlobReader, prefix, path string, ds *models.PlatformDataset) error {
	data, err := reader.Read(prefix + EdgeCasesName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var doc models.EdgeCasesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return &models.ArchiveFormatError{
			Archive: path, Document: EdgeCasesName, Err: err,
		}
	}

	if len(doc.EdgeCases) > 0 {
		ds.EdgeCases = &doc.EdgeCases[0]
	}
	return nil
}

func (l *Loader) loadFileVectors(reader BlobReader, prefix, path string, ds *models.PlatformDataset) error {
	data, err := reader.Read(prefix + FileIndexName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var index models.FileVectorsDocument
	if err := json.Unmarshal(data, &index); err != nil {
		return &models.ArchiveFormatError{
			Archive: path, Document: FileIndexName, Err: err,
		}
	}
	ds.FileVectors = index.Files

	ds.FilePayloads = make(map[string][]byte, len(index.Files))
	for _, rec := range index.Files {
		payload, err := reader.Read(prefix + FilesDir + "/" + rec.Filename)
		if err != nil {
			return &models.ArchiveFormatError{
				Archive: path, Document: FilesDir + "/" + rec.Filename, Err: err,
			}
		}
		ds.FilePayloads[rec.Filename] = payload
	}

	return nil
}

// warnOnShortCategories flags datasets whose materialized counts fall short
// of the metadata's declared counts, e.g. a producer that skipped the
// sensitive KDF tier after declaring it. Short categories are reported but
// the dataset stays valid.
func (l *Loader) warnOnShortCategories(ds *models.PlatformDataset) {
	actual := make(map[string]int)
	for _, suite := range ds.Suites {
		actual[string(suite.Algorithm)] = len(suite.Vectors)
	}
	if ds.EdgeCases != nil {
		actual["edge_cases"] = len(ds.EdgeCases.Cases)
	}
	actual["encrypted_files"] = len(ds.FileVectors)

	for category, declared := range ds.Metadata.Counts {
		if actual[category] < declared {
			l.logger.WithFields(map[string]interface{}{
				"category": category,
				"declared": declared,
				"actual":   actual[category],
			}).Warn("Category is partially populated")
		}
	}
}
