package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Reserved archive names. metadata.json is the required-presence marker
// discovery keys on; a dataset is valid only if test_vectors.json exists.
const (
	MarkerName     = "metadata.json"
	VectorsName    = "test_vectors.json"
	EdgeCasesName  = "edge_cases.json"
	FilesDir       = "encrypted_files"
	FileIndexName  = "encrypted_files/file_vectors.json"
	RegressionDir  = "regression"
	ArchiveExt     = ".zip"
)

// BlobReader is the named-blob capability discovery and materialization
// depend on. Two implementations exist: directory-backed and zip-backed;
// callers never see the concrete storage mechanism.
type BlobReader interface {
	// List returns every blob name in the archive, sorted.
	List() ([]string, error)

	// Read returns the contents of one named blob.
	Read(name string) ([]byte, error)

	// Close releases the underlying handle.
	Close() error
}

// OpenBlobReader opens path as a zip archive or a directory.
func OpenBlobReader(path string) (BlobReader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	if info.IsDir() {
		return &dirReader{root: path}, nil
	}
	return openZipReader(path)
}

// dirReader reads blobs from an unpacked directory tree.
type dirReader struct {
	root string
}

func (r *dirReader) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk archive dir: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *dirReader) Read(name string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("blob name escapes archive: %s", name)
	}

	data, err := os.ReadFile(filepath.Join(r.root, clean))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

func (r *dirReader) Close() error {
	return nil
}

// zipReader reads blobs from a zip archive.
type zipReader struct {
	rc *zip.ReadCloser
}

func openZipReader(path string) (*zipReader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return &zipReader{rc: rc}, nil
}

func (r *zipReader) List() ([]string, error) {
	var names []string
	for _, f := range r.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *zipReader) Read(name string) ([]byte, error) {
	for _, f := range r.rc.File {
		if f.Name != name {
			continue
		}
		rd, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open blob %s: %w", name, err)
		}
		defer rd.Close()

		data, err := io.ReadAll(rd)
		if err != nil {
			return nil, fmt.Errorf("read blob %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("blob %s: %w", name, fs.ErrNotExist)
}

func (r *zipReader) Close() error {
	return r.rc.Close()
}

// findMarker locates the metadata marker anywhere inside the archive and
// returns the internal prefix content is nested under. Archives repacked
// with an extra top-level directory stay loadable.
func findMarker(names []string) (prefix string, ok bool) {
	for _, name := range names {
		if name == MarkerName {
			return "", true
		}
		if strings.HasSuffix(name, "/"+MarkerName) {
			return strings.TrimSuffix(name, MarkerName), true
		}
	}
	return "", false
}
