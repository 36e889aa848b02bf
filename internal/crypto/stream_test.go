package crypto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/crosscheck/internal/crypto"
)

const tagSize = 16 // chacha20poly1305.Overhead

func TestStream_RoundTrip(t *testing.T) {
	provider := crypto.NewProvider()
	key := testKey(0x10)

	tests := []struct {
		name       string
		size       int
		wantChunks int64
	}{
		{"empty", 0, 0},
		{"one byte", 1, 1},
		{"one below boundary", crypto.ChunkSize - 1, 1},
		{"exact boundary", crypto.ChunkSize, 1},
		{"one above boundary", crypto.ChunkSize + 1, 2},
		{"multi chunk", 3*crypto.ChunkSize + 100, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := bytes.Repeat([]byte{0xC3}, tt.size)

			ciphertext, header, err := provider.StreamEncrypt(plaintext, key)
			require.NoError(t, err)
			assert.Len(t, header, crypto.HeaderSize)
			assert.Equal(t, tt.wantChunks, crypto.ExpectedChunkCount(int64(tt.size)))

			recovered, err := provider.StreamDecrypt(ciphertext, key, header)
			require.NoError(t, err)
			assert.Equal(t, plaintext, recovered)
		})
	}
}

func TestStream_EmptyPlaintextIsOneSealedChunk(t *testing.T) {
	provider := crypto.NewProvider()
	key := testKey(0x11)

	ciphertext, header, err := provider.StreamEncrypt([]byte{}, key)
	require.NoError(t, err)

	// An empty stream is one sealed empty chunk, not zero bytes.
	assert.Len(t, ciphertext, tagSize)

	recovered, err := provider.StreamDecrypt(ciphertext, key, header)
	require.NoError(t, err)
	assert.Empty(t, recovered)
}

func TestStream_CiphertextFraming(t *testing.T) {
	provider := crypto.NewProvider()
	key := testKey(0x12)

	tests := []struct {
		name     string
		size     int
		wantSize int
	}{
		{"single chunk", 1000, 1000 + tagSize},
		{"exact chunk", crypto.ChunkSize, crypto.ChunkSize + tagSize},
		{"two chunks", crypto.ChunkSize + 1, crypto.ChunkSize + 1 + 2*tagSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := make([]byte, tt.size)
			ciphertext, _, err := provider.StreamEncrypt(plaintext, key)
			require.NoError(t, err)
			assert.Len(t, ciphertext, tt.wantSize)
		})
	}
}

func TestStream_DecryptFailsClosed(t *testing.T) {
	provider := crypto.NewProvider()
	key := testKey(0x13)

	plaintext := bytes.Repeat([]byte{0x7E}, crypto.ChunkSize+100)
	ciphertext, header, err := provider.StreamEncrypt(plaintext, key)
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := provider.StreamDecrypt(ciphertext, testKey(0x14), header)
		assert.Error(t, err)
	})

	t.Run("wrong header", func(t *testing.T) {
		badHeader := bytes.Repeat([]byte{0x99}, crypto.HeaderSize)
		_, err := provider.StreamDecrypt(ciphertext, key, badHeader)
		assert.Error(t, err)
	})

	t.Run("tampered chunk", func(t *testing.T) {
		tampered := append([]byte(nil), ciphertext...)
		tampered[10] ^= 0xFF
		_, err := provider.StreamDecrypt(tampered, key, header)
		assert.Error(t, err)
	})

	t.Run("truncated final chunk", func(t *testing.T) {
		truncated := ciphertext[:crypto.ChunkSize+tagSize]
		_, err := provider.StreamDecrypt(truncated, key, header)
		assert.Error(t, err)
	})

	t.Run("truncated mid chunk", func(t *testing.T) {
		_, err := provider.StreamDecrypt(ciphertext[:100], key, header)
		assert.Error(t, err)
	})

	t.Run("empty ciphertext", func(t *testing.T) {
		_, err := provider.StreamDecrypt(nil, key, header)
		assert.Error(t, err)
	})

	t.Run("trailing data", func(t *testing.T) {
		extended := append(append([]byte(nil), ciphertext...), 0x00)
		_, err := provider.StreamDecrypt(extended, key, header)
		assert.Error(t, err)
	})

	t.Run("swapped chunks", func(t *testing.T) {
		big := bytes.Repeat([]byte{0x2B}, 2*crypto.ChunkSize+100)
		ct, hdr, err := provider.StreamEncrypt(big, key)
		require.NoError(t, err)

		enc := crypto.ChunkSize + tagSize
		swapped := append([]byte(nil), ct...)
		copy(swapped[:enc], ct[enc:2*enc])
		copy(swapped[enc:2*enc], ct[:enc])

		_, err = provider.StreamDecrypt(swapped, key, hdr)
		assert.Error(t, err)
	})
}

func TestStream_HeaderIsFreshPerStream(t *testing.T) {
	provider := crypto.NewProvider()
	key := testKey(0x15)
	plaintext := []byte("same plaintext, distinct streams")

	_, header1, err := provider.StreamEncrypt(plaintext, key)
	require.NoError(t, err)
	_, header2, err := provider.StreamEncrypt(plaintext, key)
	require.NoError(t, err)

	assert.NotEqual(t, header1, header2)
}

func TestExpectedChunkCount(t *testing.T) {
	tests := []struct {
		size int64
		want int64
	}{
		{0, 0},
		{1, 1},
		{crypto.ChunkSize - 1, 1},
		{crypto.ChunkSize, 1},
		{crypto.ChunkSize + 1, 2},
		{2 * crypto.ChunkSize, 2},
		{3*crypto.ChunkSize + 100, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, crypto.ExpectedChunkCount(tt.size), "size %d", tt.size)
	}
}
