package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_NoRegressionDir(t *testing.T) {
	found, err := Discover(t.TempDir(), testLogger())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDiscover_MixedArchives(t *testing.T) {
	root := t.TempDir()
	regDir := filepath.Join(root, RegressionDir)
	require.NoError(t, os.MkdirAll(regDir, 0700))

	// A packed archive.
	require.NoError(t, NewPackager(testLogger()).Pack(testDataset(),
		filepath.Join(regDir, "test-go.zip")))

	// A hand-written unpacked directory archive.
	dirArchive := filepath.Join(regDir, "android")
	require.NoError(t, os.MkdirAll(dirArchive, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dirArchive, MarkerName),
		[]byte(minimalMetadata), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dirArchive, VectorsName),
		[]byte(minimalVectors), 0600))

	// A broken archive without a marker: skipped, not fatal.
	writeZip(t, filepath.Join(regDir, "broken.zip"), "", map[string]string{
		VectorsName: minimalVectors,
	})

	// An unrelated file: ignored by extension.
	require.NoError(t, os.WriteFile(filepath.Join(regDir, "notes.txt"),
		[]byte("ignore me"), 0600))

	found, err := Discover(root, testLogger())
	require.NoError(t, err)
	require.Len(t, found, 2)

	byPlatform := make(map[string]Descriptor)
	for _, d := range found {
		byPlatform[d.Platform] = d
	}

	testGo := byPlatform["test-go"]
	assert.Equal(t, "test-go 1.0.0", testGo.DisplayName)
	assert.Equal(t, 4, testGo.TestCount)

	android := byPlatform["android"]
	assert.Equal(t, "2.0.0", android.Version)
	assert.Equal(t, 1, android.TestCount)
}

func TestDiscover_AllBroken(t *testing.T) {
	root := t.TempDir()
	regDir := filepath.Join(root, RegressionDir)
	require.NoError(t, os.MkdirAll(regDir, 0700))

	writeZip(t, filepath.Join(regDir, "a.zip"), "", map[string]string{
		"something.json": "{}",
	})

	found, err := Discover(root, testLogger())
	require.NoError(t, err)
	assert.Empty(t, found)
}
