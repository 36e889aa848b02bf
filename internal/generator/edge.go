package generator

import (
	"fmt"

	"github.com/TheMichaelB/crosscheck/internal/crypto"
	"github.com/TheMichaelB/crosscheck/internal/models"
)

// edgeSizes are the chunk-boundary stress points for chunk size C. The
// boundary triple {C-1, C, C+1} is where off-by-one chunk arithmetic and
// final-partial-chunk bugs surface.
func edgeSizes() []int64 {
	const c = int64(crypto.ChunkSize)
	return []int64{0, 1, c - 1, c, c + 1, 3*c + 100}
}

// EdgeCases builds the chunk-boundary case group. Payloads at or below the
// inlining threshold carry their deterministic bytes; larger ones carry the
// sentinel and are verified structurally only.
func (b *Builder) EdgeCases(inlineThreshold int64) models.EdgeCaseGroup {
	group := models.EdgeCaseGroup{
		Category:  "chunk_boundary",
		ChunkSize: crypto.ChunkSize,
	}

	for i, size := range edgeSizes() {
		key := b.rand.Key()

		testData := models.SentinelTooLarge
		if size <= inlineThreshold {
			testData = models.EncodeBytes(b.rand.Bytes(int(size)))
		}

		group.Cases = append(group.Cases, models.EdgeCase{
			ID:                 b.vectorID("edge", i),
			Description:        fmt.Sprintf("chunk boundary at size %d", size),
			Size:               size,
			ChunkSize:          crypto.ChunkSize,
			TestData:           testData,
			Key:                models.EncodeBytes(key),
			ExpectedChunkCount: crypto.ExpectedChunkCount(size),
		})
	}

	return group
}
