package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/crosscheck/internal/archive"
	"github.com/TheMichaelB/crosscheck/internal/config"
	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/generator"
	"github.com/TheMichaelB/crosscheck/internal/models"
	"github.com/TheMichaelB/crosscheck/internal/verify"
	"github.com/TheMichaelB/crosscheck/test/testutil"
)

func testRunner() *verify.Runner {
	cfg := &config.VerifyConfig{MaxConcurrent: 4, ItemTimeout: 2 * time.Minute}
	return verify.NewRunner(crypto.NewProvider(), cfg, testutil.NewQuietLogger())
}

// TestHelloWorldVectorLifecycle walks one secretbox vector through the whole
// pipeline: generate, pack, discover, materialize, verify.
func TestHelloWorldVectorLifecycle(t *testing.T) {
	provider := crypto.NewProvider()
	root := t.TempDir()

	plaintext := []byte("Hello, World!")
	require.Len(t, plaintext, 13)

	ds, err := testutil.SecretBoxDataset(provider, "go-test", plaintext, testutil.RandomKey())
	require.NoError(t, err)

	archivePath := filepath.Join(root, archive.RegressionDir, "go-test.zip")
	require.NoError(t, archive.NewPackager(testutil.NewQuietLogger()).Pack(ds, archivePath))

	descriptors, err := archive.Discover(root, testutil.NewQuietLogger())
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "go-test", descriptors[0].Platform)
	assert.Equal(t, 1, descriptors[0].TestCount)

	loaded, err := archive.NewLoader(testutil.NewQuietLogger()).Materialize(descriptors[0].Path)
	require.NoError(t, err)

	report := testRunner().VerifyDataset(context.Background(), loaded)
	require.True(t, report.Success(), "failures: %v", report.Failures())
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Passed)
	assert.Equal(t, "go-test_secretbox_000", report.Results[0].TestID)
}

// TestChunkBoundaryFileLifecycle encrypts a file just past one chunk,
// archives it, and verifies the decrypted bytes hash back to the original.
func TestChunkBoundaryFileLifecycle(t *testing.T) {
	provider := crypto.NewProvider()
	root := t.TempDir()

	size := int64(crypto.ChunkSize + 100)
	require.Equal(t, int64(2), crypto.ExpectedChunkCount(size))

	plaintext := testutil.PatternBytes(int(size))
	srcPath := filepath.Join(root, "plain")
	encPath := filepath.Join(root, "cipher.enc")
	require.NoError(t, os.WriteFile(srcPath, plaintext, 0600))

	key := testutil.RandomKey()
	header, usedKey, err := provider.EncryptFile(srcPath, encPath, key)
	require.NoError(t, err)
	require.Equal(t, key, usedKey)

	payload, err := os.ReadFile(encPath)
	require.NoError(t, err)
	originalHash, err := provider.HashFile(srcPath)
	require.NoError(t, err)

	record := models.FileVectorRecord{
		ID:                 "go-test_file_000",
		Filename:           "go-test_file_000.enc",
		OriginalSize:       size,
		EncryptedSize:      int64(len(payload)),
		Key:                models.EncodeBytes(key),
		Header:             models.EncodeBytes(header),
		OriginalSHA256:     originalHash,
		EncryptedSHA256:    crypto.HashBytes(payload),
		ChunkSize:          crypto.ChunkSize,
		ExpectedChunkCount: 2,
	}
	ds := testutil.FileDataset("go-test", record, payload)

	archivePath := filepath.Join(root, archive.RegressionDir, "go-test.zip")
	require.NoError(t, archive.NewPackager(testutil.NewQuietLogger()).Pack(ds, archivePath))

	loaded, err := archive.NewLoader(testutil.NewQuietLogger()).Materialize(archivePath)
	require.NoError(t, err)

	// The archived ciphertext must come back byte for byte.
	require.Equal(t, payload, loaded.FilePayloads["go-test_file_000.enc"])

	report := testRunner().VerifyDataset(context.Background(), loaded)
	require.True(t, report.Success(), "failures: %v", report.Failures())
}

// TestGeneratedDatasetSelfVerifies runs the real generator end to end: a
// producer's archive must verify clean on the machine that produced it.
func TestGeneratedDatasetSelfVerifies(t *testing.T) {
	if testing.Short() {
		t.Skip("full dataset generation is slow")
	}

	root := t.TempDir()
	genCfg := &config.GeneratorConfig{
		Platform:        "go-test",
		Version:         "1.0.0",
		Seed:            "integration-seed",
		InlineThreshold: 1024 * 1024,
		SkipSensitive:   true,
	}

	ds, err := generator.BuildDataset(crypto.NewProvider(), genCfg, testutil.NewQuietLogger())
	require.NoError(t, err)

	archivePath := filepath.Join(root, archive.RegressionDir, "go-test.zip")
	require.NoError(t, archive.NewPackager(testutil.NewQuietLogger()).Pack(ds, archivePath))

	loaded, err := archive.NewLoader(testutil.NewQuietLogger()).Materialize(archivePath)
	require.NoError(t, err)
	assert.Equal(t, ds.VectorCount(), loaded.VectorCount())

	report := testRunner().VerifyDataset(context.Background(), loaded)
	assert.True(t, report.Success(), "failures: %v", report.Failures())
	assert.Equal(t, ds.VectorCount()+len(ds.EdgeCases.Cases)+len(ds.FileVectors), report.Total)
}

// TestCrossArchiveIsolation verifies one broken archive does not poison
// discovery or verification of its neighbors.
func TestCrossArchiveIsolation(t *testing.T) {
	root := t.TempDir()
	regDir := filepath.Join(root, archive.RegressionDir)
	require.NoError(t, os.MkdirAll(regDir, 0700))

	good, err := testutil.SecretBoxDataset(crypto.NewProvider(), "good",
		[]byte("isolated"), testutil.RandomKey())
	require.NoError(t, err)
	require.NoError(t, archive.NewPackager(testutil.NewQuietLogger()).Pack(good,
		filepath.Join(regDir, "good.zip")))

	// A corrupt neighbor: zip magic but no usable content.
	require.NoError(t, os.WriteFile(filepath.Join(regDir, "bad.zip"),
		[]byte("PK\x03\x04 garbage"), 0600))

	descriptors, err := archive.Discover(root, testutil.NewQuietLogger())
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "good", descriptors[0].Platform)

	loaded, err := archive.NewLoader(testutil.NewQuietLogger()).Materialize(descriptors[0].Path)
	require.NoError(t, err)

	report := testRunner().VerifyDataset(context.Background(), loaded)
	assert.True(t, report.Success())
}
