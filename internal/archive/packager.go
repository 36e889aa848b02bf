package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// blobWriter is the write-side counterpart of BlobReader, implemented for
// directories and zip archives.
type blobWriter interface {
	Write(name string, data []byte) error
	Close() error
}

// Packager persists a PlatformDataset as a self-contained archive.
type Packager struct {
	logger *events.Logger
}

// NewPackager creates an archive packager.
func NewPackager(logger *events.Logger) *Packager {
	return &Packager{logger: logger.WithField("component", "packager")}
}

// Pack writes the dataset to path, as a zip archive when path ends in .zip
// and as a directory tree otherwise. Binary payloads are written untouched;
// JSON documents are pretty-printed UTF-8. Before finishing, declared
// per-category counts are checked against what was actually written and any
// mismatch fails loudly.
func (p *Packager) Pack(ds *models.PlatformDataset, path string) error {
	if err := p.selfCheck(ds); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create archive parent: %w", err)
	}

	var w blobWriter
	var err error
	if strings.HasSuffix(path, ArchiveExt) {
		w, err = newZipWriter(path)
	} else {
		w, err = newDirWriter(path)
	}
	if err != nil {
		return err
	}

	if err := p.writeAll(w, ds); err != nil {
		w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"path":     path,
		"platform": ds.Platform,
		"vectors":  ds.VectorCount(),
	}).Info("Packed dataset")

	return nil
}

// selfCheck verifies declared counts match dataset contents. A builder that
// returned fewer vectors than metadata declares is a packaging bug, never
// silent truncation.
func (p *Packager) selfCheck(ds *models.PlatformDataset) error {
	actual := make(map[string]int)
	for _, suite := range ds.Suites {
		actual[string(suite.Algorithm)] = len(suite.Vectors)
	}
	if ds.EdgeCases != nil {
		actual["edge_cases"] = len(ds.EdgeCases.Cases)
	}
	if ds.FileVectors != nil {
		actual["encrypted_files"] = len(ds.FileVectors)
	}

	for category, declared := range ds.Metadata.Counts {
		if actual[category] != declared {
			return fmt.Errorf("%w: category %s declares %d, wrote %d",
				models.ErrCountMismatch, category, declared, actual[category])
		}
	}

	for _, rec := range ds.FileVectors {
		if _, ok := ds.FilePayloads[rec.Filename]; !ok {
			return fmt.Errorf("%w: missing payload for %s",
				models.ErrCountMismatch, rec.Filename)
		}
	}

	return nil
}

func (p *Packager) writeAll(w blobWriter, ds *models.PlatformDataset) error {
	if err := p.writeJSON(w, MarkerName, ds.Metadata); err != nil {
		return err
	}

	vectors := models.VectorsDocument{
		Version:    ds.Version,
		Platform:   ds.Platform,
		Timestamp:  ds.Timestamp,
		TestSuites: ds.Suites,
	}
	if err := p.writeJSON(w, VectorsName, vectors); err != nil {
		return err
	}

	if ds.EdgeCases != nil {
		doc := models.EdgeCasesDocument{EdgeCases: []models.EdgeCaseGroup{*ds.EdgeCases}}
		if err := p.writeJSON(w, EdgeCasesName, doc); err != nil {
			return err
		}
	}

	if len(ds.FileVectors) > 0 {
		index := models.FileVectorsDocument{
			ChunkSize: ds.FileVectors[0].ChunkSize,
			Files:     ds.FileVectors,
		}
		if err := p.writeJSON(w, FileIndexName, index); err != nil {
			return err
		}

		for _, rec := range ds.FileVectors {
			name := FilesDir + "/" + rec.Filename
			if err := w.Write(name, ds.FilePayloads[rec.Filename]); err != nil {
				return fmt.Errorf("write payload %s: %w", name, err)
			}
		}
	}

	return nil
}

func (p *Packager) writeJSON(w blobWriter, name string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := w.Write(name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// dirWriter writes blobs into a directory tree.
type dirWriter struct {
	root string
}

func newDirWriter(root string) (*dirWriter, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &dirWriter{root: root}, nil
}

func (w *dirWriter) Write(name string, data []byte) error {
	path := filepath.Join(w.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (w *dirWriter) Close() error {
	return nil
}

// zipWriter writes blobs into a zip archive. Binary .enc payloads are
// stored uncompressed; ciphertext does not compress and byte identity is
// the whole point.
type zipWriter struct {
	file *os.File
	zw   *zip.Writer
}

func newZipWriter(path string) (*zipWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create zip: %w", err)
	}
	return &zipWriter{file: f, zw: zip.NewWriter(f)}, nil
}

func (w *zipWriter) Write(name string, data []byte) error {
	method := zip.Deflate
	if strings.HasSuffix(name, ".enc") {
		method = zip.Store
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

func (w *zipWriter) Close() error {
	if err := w.zw.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
