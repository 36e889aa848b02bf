package generator

import (
	"fmt"

	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// Sizes covered by every primitive suite: zero-length, one byte, sub-block,
// medium, and large-but-tractable payloads.
var suiteSizes = []int{0, 1, 16, 1024, 64 * 1024, 1024 * 1024}

// KDF passwords replayed by every verifier. The unicode entry catches
// platforms that disagree on normalization.
var kdfPasswords = []string{
	"password",
	"correct horse battery staple",
	"pässwörd-ünïcode",
}

type costProfile struct {
	name    string
	memCost int64
	opsCost int64
}

var kdfProfiles = []costProfile{
	{"interactive", crypto.MemLimitInteractive, crypto.OpsLimitInteractive},
	{"sensitive", crypto.MemLimitSensitive, crypto.OpsLimitSensitive},
}

// Builder produces deterministic test suites for one platform. Vector ids
// encode (platform, algorithm, case index) so a re-run with the same seed
// reproduces identical ids.
type Builder struct {
	crypto   crypto.Provider
	rand     *DeterministicRand
	logger   *events.Logger
	platform string

	skipSensitive bool
}

// NewBuilder creates a vector builder.
func NewBuilder(provider crypto.Provider, rand *DeterministicRand, platform string, logger *events.Logger) *Builder {
	return &Builder{
		crypto:   provider,
		rand:     rand,
		logger:   logger.WithField("component", "builder"),
		platform: platform,
	}
}

// SkipSensitive disables the memory-hard KDF cost tier, for producing
// devices that cannot afford it.
func (b *Builder) SkipSensitive(skip bool) {
	b.skipSensitive = skip
}

func (b *Builder) vectorID(alg string, index int) string {
	return fmt.Sprintf("%s_%s_%03d", b.platform, alg, index)
}

// SecretBoxSuite builds XSalsa20-Poly1305 vectors across the size ladder.
func (b *Builder) SecretBoxSuite() models.TestSuite {
	suite := models.TestSuite{
		Algorithm:   models.AlgSecretBox,
		Description: "XSalsa20-Poly1305 authenticated encryption",
	}

	for i, size := range suiteSizes {
		id := b.vectorID("secretbox", i)
		plaintext := b.rand.Bytes(size)
		key := b.rand.Key()

		ciphertext, nonce, err := b.crypto.Encrypt(plaintext, key)
		if err != nil {
			b.skip(models.AlgSecretBox, id, err)
			continue
		}

		suite.Vectors = append(suite.Vectors, models.TestVector{
			ID:          id,
			Description: fmt.Sprintf("secretbox round trip, %d byte payload", size),
			Algorithm:   models.AlgSecretBox,
			Inputs: map[string]string{
				"plaintext": models.EncodeBytes(plaintext),
				"key":       models.EncodeBytes(key),
			},
			Outputs: map[string]string{
				"ciphertext": models.EncodeBytes(ciphertext),
				"nonce":      models.EncodeBytes(nonce),
			},
		})
	}

	return suite
}

// StreamSuite builds in-memory chunked streaming vectors. Whole-file chunk
// boundary coverage lives in FileVectors; these stay small.
func (b *Builder) StreamSuite() models.TestSuite {
	suite := models.TestSuite{
		Algorithm:   models.AlgSecretStream,
		Description: "chunked XChaCha20-Poly1305 streaming encryption",
	}

	for i, size := range suiteSizes {
		id := b.vectorID("stream", i)
		plaintext := b.rand.Bytes(size)
		key := b.rand.Key()

		ciphertext, header, err := b.crypto.StreamEncrypt(plaintext, key)
		if err != nil {
			b.skip(models.AlgSecretStream, id, err)
			continue
		}

		suite.Vectors = append(suite.Vectors, models.TestVector{
			ID:          id,
			Description: fmt.Sprintf("stream round trip, %d byte payload", size),
			Algorithm:   models.AlgSecretStream,
			Inputs: map[string]string{
				"plaintext": models.EncodeBytes(plaintext),
				"key":       models.EncodeBytes(key),
			},
			Outputs: map[string]string{
				"ciphertext": models.EncodeBytes(ciphertext),
				"header":     models.EncodeBytes(header),
			},
			Parameters: map[string]int64{
				"chunk_size": crypto.ChunkSize,
			},
		})
	}

	return suite
}

// KDFSuite builds Argon2id vectors for each password under each cost
// profile. Recorded costs are what verifiers must replay; platform defaults
// drift over time. An infeasible profile skips its vectors rather than
// aborting the batch.
func (b *Builder) KDFSuite() models.TestSuite {
	suite := models.TestSuite{
		Algorithm:   models.AlgArgon2id,
		Description: "Argon2id password key derivation",
	}

	index := 0
	for _, profile := range kdfProfiles {
		if profile.name == "sensitive" && b.skipSensitive {
			b.logger.Warn("Skipping sensitive KDF tier")
			index += len(kdfPasswords)
			continue
		}

		for _, password := range kdfPasswords {
			id := b.vectorID("argon2id", index)
			salt := b.rand.Salt()

			key, err := b.crypto.DeriveKey([]byte(password), salt, profile.memCost, profile.opsCost)
			if err != nil {
				b.skip(models.AlgArgon2id, id, err)
				index++
				continue
			}

			suite.Vectors = append(suite.Vectors, models.TestVector{
				ID:          id,
				Description: fmt.Sprintf("argon2id %s profile", profile.name),
				Algorithm:   models.AlgArgon2id,
				Inputs: map[string]string{
					"password": models.EncodeBytes([]byte(password)),
					"salt":     models.EncodeBytes(salt),
				},
				Outputs: map[string]string{
					"key": models.EncodeBytes(key),
				},
				Parameters: map[string]int64{
					"mem_cost": profile.memCost,
					"ops_cost": profile.opsCost,
				},
				Metadata: map[string]string{
					"profile": profile.name,
				},
			})
			index++
		}
	}

	return suite
}

// SealedBoxSuite builds anonymous public-key encryption vectors. Key pairs
// come from the secure random source, so these vectors are not bit-for-bit
// reproducible; both keys are recorded and the test targets
// decrypt-with-known-keys behavior only.
func (b *Builder) SealedBoxSuite() models.TestSuite {
	suite := models.TestSuite{
		Algorithm:   models.AlgSealedBox,
		Description: "anonymous public-key sealed encryption",
	}

	sizes := []int{0, 1, 128, 1024}
	for i, size := range sizes {
		id := b.vectorID("sealed_box", i)
		plaintext := b.rand.Bytes(size)

		publicKey, secretKey, err := b.crypto.GenerateKeyPair()
		if err != nil {
			b.skip(models.AlgSealedBox, id, err)
			continue
		}

		sealed, err := b.crypto.SealEncrypt(plaintext, publicKey)
		if err != nil {
			b.skip(models.AlgSealedBox, id, err)
			continue
		}

		suite.Vectors = append(suite.Vectors, models.TestVector{
			ID:          id,
			Description: fmt.Sprintf("sealed box round trip, %d byte payload", size),
			Algorithm:   models.AlgSealedBox,
			Inputs: map[string]string{
				"plaintext":  models.EncodeBytes(plaintext),
				"public_key": models.EncodeBytes(publicKey[:]),
				"secret_key": models.EncodeBytes(secretKey[:]),
			},
			Outputs: map[string]string{
				"sealed": models.EncodeBytes(sealed),
			},
		})
	}

	return suite
}

// Suites builds every primitive suite in canonical order.
func (b *Builder) Suites() []models.TestSuite {
	return []models.TestSuite{
		b.SecretBoxSuite(),
		b.StreamSuite(),
		b.KDFSuite(),
		b.SealedBoxSuite(),
	}
}

// skip records a single-vector generation failure. The batch continues; a
// best-effort dataset beats an aborted one.
func (b *Builder) skip(alg models.Algorithm, id string, err error) {
	genErr := &models.GenerationError{Algorithm: alg, CaseID: id, Err: err}
	b.logger.WithError(genErr).Warn("Skipping vector")
}
