package generator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// fileSizes mirror edgeSizes: whole files encrypted across exact chunk
// boundaries, ciphertext retained for packaging.
func fileSizes() []int64 {
	const c = int64(crypto.ChunkSize)
	return []int64{0, 1, c - 1, c, c + 1, 3*c + 100}
}

// FileVectors encrypts deterministic whole files with the streaming cipher
// and records ciphertext, header, and hashes of both sides. A non-nil key
// produces a fixed-key regression suite; the builder asserts the primitive
// did not substitute its own key.
func (b *Builder) FileVectors(fixedKey []byte) ([]models.FileVectorRecord, map[string][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "crosscheck-files-")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var records []models.FileVectorRecord
	payloads := make(map[string][]byte)

	for i, size := range fileSizes() {
		id := b.vectorID("file", i)
		filename := fmt.Sprintf("%s.enc", id)

		plaintext := b.rand.Bytes(int(size))
		srcPath := filepath.Join(tmpDir, fmt.Sprintf("plain_%03d", i))
		dstPath := filepath.Join(tmpDir, filename)

		if err := os.WriteFile(srcPath, plaintext, 0600); err != nil {
			return nil, nil, fmt.Errorf("write plaintext file: %w", err)
		}

		header, usedKey, err := b.crypto.EncryptFile(srcPath, dstPath, fixedKey)
		if err != nil {
			return nil, nil, &models.GenerationError{
				Algorithm: models.AlgSecretStream, CaseID: id, Err: err,
			}
		}

		if fixedKey != nil && !bytes.Equal(usedKey, fixedKey) {
			return nil, nil, &models.GenerationError{
				Algorithm: models.AlgSecretStream, CaseID: id,
				Err: models.ErrKeyOverwritten,
			}
		}

		ciphertext, err := os.ReadFile(dstPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read ciphertext file: %w", err)
		}

		originalHash, err := b.crypto.HashFile(srcPath)
		if err != nil {
			return nil, nil, fmt.Errorf("hash plaintext file: %w", err)
		}

		records = append(records, models.FileVectorRecord{
			ID:                 id,
			Filename:           filename,
			OriginalSize:       size,
			EncryptedSize:      int64(len(ciphertext)),
			Key:                models.EncodeBytes(usedKey),
			Header:             models.EncodeBytes(header),
			OriginalSHA256:     originalHash,
			EncryptedSHA256:    crypto.HashBytes(ciphertext),
			ChunkSize:          crypto.ChunkSize,
			ExpectedChunkCount: crypto.ExpectedChunkCount(size),
		})
		payloads[filename] = ciphertext

		b.logger.WithFields(map[string]interface{}{
			"id":   id,
			"size": size,
		}).Debug("Built file vector")
	}

	return records, payloads, nil
}
