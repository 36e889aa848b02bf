package testutil

import (
	"fmt"
	"time"

	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// SecretBoxDataset builds a single-vector dataset around one plaintext,
// encrypted live with the given provider. The metadata counts are consistent
// with the contents, so the fixture packs cleanly.
func SecretBoxDataset(provider crypto.Provider, platform string, plaintext, key []byte) (*models.PlatformDataset, error) {
	ciphertext, nonce, err := provider.Encrypt(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt fixture: %w", err)
	}

	now := time.Now().UTC()
	return &models.PlatformDataset{
		Platform:  platform,
		Version:   "1.0.0",
		Timestamp: now,
		Metadata: models.Metadata{
			Platform:  platform,
			Version:   "1.0.0",
			Timestamp: now,
			Generator: "crosscheck-go",
			Counts:    map[string]int{string(models.AlgSecretBox): 1},
		},
		Suites: []models.TestSuite{
			{
				Algorithm: models.AlgSecretBox,
				Vectors: []models.TestVector{
					{
						ID:          fmt.Sprintf("%s_secretbox_000", platform),
						Description: fmt.Sprintf("secretbox round trip, %d byte payload", len(plaintext)),
						Algorithm:   models.AlgSecretBox,
						Inputs: map[string]string{
							"plaintext": models.EncodeBytes(plaintext),
							"key":       models.EncodeBytes(key),
						},
						Outputs: map[string]string{
							"ciphertext": models.EncodeBytes(ciphertext),
							"nonce":      models.EncodeBytes(nonce),
						},
					},
				},
			},
		},
	}, nil
}

// FileDataset builds a dataset holding one encrypted-file record with its
// ciphertext payload, ready for packaging.
func FileDataset(platform string, record models.FileVectorRecord, payload []byte) *models.PlatformDataset {
	now := time.Now().UTC()
	return &models.PlatformDataset{
		Platform:  platform,
		Version:   "1.0.0",
		Timestamp: now,
		Metadata: models.Metadata{
			Platform:  platform,
			Version:   "1.0.0",
			Timestamp: now,
			Generator: "crosscheck-go",
			Counts:    map[string]int{"encrypted_files": 1},
		},
		Suites:       []models.TestSuite{},
		FileVectors:  []models.FileVectorRecord{record},
		FilePayloads: map[string][]byte{record.Filename: payload},
	}
}
