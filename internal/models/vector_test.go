package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlgorithm_Valid(t *testing.T) {
	for _, alg := range KnownAlgorithms {
		assert.True(t, alg.Valid(), string(alg))
	}
	assert.False(t, Algorithm("rot13").Valid())
	assert.False(t, Algorithm("").Valid())
}

func TestTestVector_FieldDecoding(t *testing.T) {
	v := TestVector{
		ID:        "test_secretbox_000",
		Algorithm: AlgSecretBox,
		Inputs: map[string]string{
			"plaintext": EncodeBytes([]byte("hello")),
			"bad":       "not!base64!",
		},
		Outputs: map[string]string{
			"ciphertext": EncodeBytes([]byte{0x01, 0x02}),
		},
		Parameters: map[string]int64{
			"chunk_size": 4194304,
		},
	}

	t.Run("input round trip", func(t *testing.T) {
		data, err := v.Input("plaintext")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
	})

	t.Run("output round trip", func(t *testing.T) {
		data, err := v.Output("ciphertext")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, data)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := v.Input("nonce")
		assert.ErrorContains(t, err, "missing input")
		assert.ErrorContains(t, err, v.ID)
	})

	t.Run("malformed base64", func(t *testing.T) {
		_, err := v.Input("bad")
		assert.Error(t, err)
	})

	t.Run("param present", func(t *testing.T) {
		p, err := v.Param("chunk_size")
		require.NoError(t, err)
		assert.Equal(t, int64(4194304), p)
	})

	t.Run("param missing", func(t *testing.T) {
		_, err := v.Param("mem_cost")
		assert.ErrorContains(t, err, "missing parameter")
	})
}

func TestEdgeCase_Inline(t *testing.T) {
	inline := EdgeCase{ID: "e1", TestData: EncodeBytes([]byte{0xAA}), Key: EncodeBytes(make([]byte, 32))}
	sentinel := EdgeCase{ID: "e2", TestData: SentinelTooLarge}

	assert.True(t, inline.Inline())
	data, err := inline.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA}, data)

	key, err := inline.KeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	assert.False(t, sentinel.Inline())
	_, err = sentinel.Data()
	assert.ErrorContains(t, err, "not inlined")
}

func TestFileVectorRecord_Decoding(t *testing.T) {
	rec := FileVectorRecord{
		ID:     "f1",
		Key:    EncodeBytes(make([]byte, 32)),
		Header: EncodeBytes(make([]byte, 24)),
	}

	key, err := rec.KeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	header, err := rec.HeaderBytes()
	require.NoError(t, err)
	assert.Len(t, header, 24)
}

func TestPlatformDataset_VectorCount(t *testing.T) {
	ds := PlatformDataset{
		Suites: []TestSuite{
			{Vectors: make([]TestVector, 3)},
			{Vectors: make([]TestVector, 2)},
			{},
		},
	}
	assert.Equal(t, 5, ds.VectorCount())
}
