package generator

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

func newTestBuilder(t *testing.T, seed string) *Builder {
	t.Helper()
	logger := events.NewTestLogger(events.ErrorLevel, "text", io.Discard)
	return NewBuilder(crypto.NewProvider(), NewDeterministicRand(seed), "test-go", logger)
}

func TestBuilder_SecretBoxSuite(t *testing.T) {
	b := newTestBuilder(t, "suite-seed")
	suite := b.SecretBoxSuite()

	assert.Equal(t, models.AlgSecretBox, suite.Algorithm)
	require.Len(t, suite.Vectors, len(suiteSizes))

	provider := crypto.NewProvider()
	for i, v := range suite.Vectors {
		assert.Equal(t, models.AlgSecretBox, v.Algorithm)
		assert.True(t, strings.HasPrefix(v.ID, "test-go_secretbox_"), v.ID)

		plaintext, err := v.Input("plaintext")
		require.NoError(t, err)
		assert.Len(t, plaintext, suiteSizes[i])

		key, err := v.Input("key")
		require.NoError(t, err)
		ciphertext, err := v.Output("ciphertext")
		require.NoError(t, err)
		nonce, err := v.Output("nonce")
		require.NoError(t, err)

		recovered, err := provider.Decrypt(ciphertext, key, nonce)
		require.NoError(t, err)
		assert.Equal(t, plaintext, recovered)
	}
}

func TestBuilder_StreamSuite(t *testing.T) {
	b := newTestBuilder(t, "suite-seed")
	suite := b.StreamSuite()

	require.Len(t, suite.Vectors, len(suiteSizes))

	provider := crypto.NewProvider()
	for _, v := range suite.Vectors {
		chunkSize, err := v.Param("chunk_size")
		require.NoError(t, err)
		assert.Equal(t, int64(crypto.ChunkSize), chunkSize)

		plaintext, err := v.Input("plaintext")
		require.NoError(t, err)
		key, err := v.Input("key")
		require.NoError(t, err)
		ciphertext, err := v.Output("ciphertext")
		require.NoError(t, err)
		header, err := v.Output("header")
		require.NoError(t, err)

		recovered, err := provider.StreamDecrypt(ciphertext, key, header)
		require.NoError(t, err)
		assert.Equal(t, plaintext, recovered)
	}
}

func TestBuilder_KDFSuite(t *testing.T) {
	b := newTestBuilder(t, "kdf-seed")
	b.SkipSensitive(true)

	suite := b.KDFSuite()
	require.Len(t, suite.Vectors, len(kdfPasswords))

	for _, v := range suite.Vectors {
		assert.Equal(t, "interactive", v.Metadata["profile"])

		memCost, err := v.Param("mem_cost")
		require.NoError(t, err)
		assert.Equal(t, crypto.MemLimitInteractive, memCost)

		opsCost, err := v.Param("ops_cost")
		require.NoError(t, err)
		assert.Equal(t, crypto.OpsLimitInteractive, opsCost)

		key, err := v.Output("key")
		require.NoError(t, err)
		assert.Len(t, key, crypto.KeySize)
	}
}

func TestBuilder_KDFSuiteSkipKeepsIDSequence(t *testing.T) {
	// Skipping the sensitive tier must not renumber the interactive ids:
	// a later full run reuses the same ids for the same cases.
	full := newTestBuilder(t, "kdf-seed")
	skipped := newTestBuilder(t, "kdf-seed")
	skipped.SkipSensitive(true)

	fullIDs := make(map[string]bool)
	for _, v := range full.KDFSuite().Vectors {
		fullIDs[v.ID] = true
	}
	for _, v := range skipped.KDFSuite().Vectors {
		assert.True(t, fullIDs[v.ID], "id %s missing from full run", v.ID)
	}
}

func TestBuilder_SealedBoxSuite(t *testing.T) {
	b := newTestBuilder(t, "sealed-seed")
	suite := b.SealedBoxSuite()

	require.Len(t, suite.Vectors, 4)

	provider := crypto.NewProvider()
	for _, v := range suite.Vectors {
		plaintext, err := v.Input("plaintext")
		require.NoError(t, err)
		publicKey, err := v.Input("public_key")
		require.NoError(t, err)
		secretKey, err := v.Input("secret_key")
		require.NoError(t, err)
		sealed, err := v.Output("sealed")
		require.NoError(t, err)

		var pub, sec [32]byte
		copy(pub[:], publicKey)
		copy(sec[:], secretKey)

		recovered, err := provider.SealDecrypt(sealed, &pub, &sec)
		require.NoError(t, err)
		assert.Equal(t, plaintext, recovered)
	}
}

func TestBuilder_DeterministicVectors(t *testing.T) {
	suite1 := newTestBuilder(t, "repeat-seed").SecretBoxSuite()
	suite2 := newTestBuilder(t, "repeat-seed").SecretBoxSuite()

	require.Len(t, suite2.Vectors, len(suite1.Vectors))
	for i := range suite1.Vectors {
		v1, v2 := suite1.Vectors[i], suite2.Vectors[i]
		assert.Equal(t, v1.ID, v2.ID)
		assert.Equal(t, v1.Inputs["plaintext"], v2.Inputs["plaintext"])
		assert.Equal(t, v1.Inputs["key"], v2.Inputs["key"])
	}
}

func TestBuilder_EdgeCases(t *testing.T) {
	const inlineThreshold = int64(1024 * 1024)
	group := newTestBuilder(t, "edge-seed").EdgeCases(inlineThreshold)

	assert.Equal(t, "chunk_boundary", group.Category)
	assert.Equal(t, int64(crypto.ChunkSize), group.ChunkSize)
	require.Len(t, group.Cases, len(edgeSizes()))

	for _, ec := range group.Cases {
		assert.Equal(t, crypto.ExpectedChunkCount(ec.Size), ec.ExpectedChunkCount)

		if ec.Size <= inlineThreshold {
			assert.True(t, ec.Inline(), ec.ID)
			data, err := ec.Data()
			require.NoError(t, err)
			assert.Len(t, data, int(ec.Size))
		} else {
			assert.False(t, ec.Inline(), ec.ID)
			assert.Equal(t, models.SentinelTooLarge, ec.TestData)
		}
	}
}

func TestBuilder_FileVectors(t *testing.T) {
	b := newTestBuilder(t, "file-seed")

	fixedKey := bytes.Repeat([]byte{0x42}, crypto.KeySize)
	records, payloads, err := b.FileVectors(fixedKey)
	require.NoError(t, err)
	require.Len(t, records, len(fileSizes()))
	require.Len(t, payloads, len(records))

	for _, rec := range records {
		payload, ok := payloads[rec.Filename]
		require.True(t, ok, rec.Filename)

		assert.Equal(t, rec.EncryptedSize, int64(len(payload)))
		assert.Equal(t, crypto.HashBytes(payload), rec.EncryptedSHA256)
		assert.Equal(t, crypto.ExpectedChunkCount(rec.OriginalSize), rec.ExpectedChunkCount)

		key, err := rec.KeyBytes()
		require.NoError(t, err)
		assert.Equal(t, fixedKey, key)
	}
}
