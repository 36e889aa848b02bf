package models

import (
	"encoding/base64"
	"fmt"
	"time"
)

// SentinelTooLarge replaces inline payload bytes in an edge case whose size
// exceeds the inlining threshold. Such cases are verified structurally
// (chunk-count arithmetic) only; their binary payload is intentionally absent.
const SentinelTooLarge = "too_large"

// EdgeCase exercises one chunk-boundary condition of the streaming cipher.
// TestData holds base64 payload bytes, or SentinelTooLarge.
type EdgeCase struct {
	ID                 string `json:"id"`
	Description        string `json:"description"`
	Size               int64  `json:"size"`
	ChunkSize          int64  `json:"chunk_size"`
	TestData           string `json:"test_data"`
	Key                string `json:"key"`
	ExpectedChunkCount int64  `json:"expected_chunk_count"`
}

// Inline reports whether the case carries its payload bytes.
func (c *EdgeCase) Inline() bool {
	return c.TestData != SentinelTooLarge
}

// Data decodes the inline payload. Sentinel cases have none.
func (c *EdgeCase) Data() ([]byte, error) {
	if !c.Inline() {
		return nil, fmt.Errorf("edge case %s: payload not inlined", c.ID)
	}
	return decodeB64(c.TestData, c.ID, "test_data")
}

// KeyBytes decodes the case key.
func (c *EdgeCase) KeyBytes() ([]byte, error) {
	return decodeB64(c.Key, c.ID, "key")
}

// EdgeCaseGroup holds the ordered boundary cases for one category.
type EdgeCaseGroup struct {
	Category  string     `json:"category"`
	ChunkSize int64      `json:"chunk_size"`
	Cases     []EdgeCase `json:"cases"`
}

// EdgeCasesDocument is the top-level shape of edge_cases.json.
type EdgeCasesDocument struct {
	EdgeCases []EdgeCaseGroup `json:"edge_cases"`
}

// FileVectorRecord binds a whole-file streaming-encryption vector to the
// binary ciphertext artifact stored under encrypted_files/. Hashes are hex
// SHA-256 digests; the recorded encrypted hash must match a fresh hash of
// the bytes read back from the archive.
type FileVectorRecord struct {
	ID                 string `json:"id"`
	Filename           string `json:"filename"`
	OriginalSize       int64  `json:"original_size"`
	EncryptedSize      int64  `json:"encrypted_size"`
	Key                string `json:"key"`
	Header             string `json:"header"`
	OriginalSHA256     string `json:"original_sha256"`
	EncryptedSHA256    string `json:"encrypted_sha256"`
	ChunkSize          int64  `json:"chunk_size"`
	ExpectedChunkCount int64  `json:"expected_chunk_count"`
}

// KeyBytes decodes the recorded file key.
func (r *FileVectorRecord) KeyBytes() ([]byte, error) {
	return decodeB64(r.Key, r.ID, "key")
}

// HeaderBytes decodes the recorded stream header.
func (r *FileVectorRecord) HeaderBytes() ([]byte, error) {
	return decodeB64(r.Header, r.ID, "header")
}

func decodeB64(encoded, id, name string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", id, name, err)
	}
	return data, nil
}

// FileVectorsDocument is the top-level shape of encrypted_files/file_vectors.json.
type FileVectorsDocument struct {
	ChunkSize int64              `json:"chunk_size"`
	Files     []FileVectorRecord `json:"files"`
}

// DeviceInfo describes the producing environment, recorded for diagnosis
// when one platform's vectors fail elsewhere.
type DeviceInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Runtime  string `json:"runtime"`
}

// Metadata is the archive marker document (metadata.json). Counts declares
// per-category vector totals; the packager fails if a declared count does
// not match what was actually written.
type Metadata struct {
	Platform  string         `json:"platform"`
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Generator string         `json:"generator"`
	Device    DeviceInfo     `json:"device"`
	Counts    map[string]int `json:"counts"`
}

// PlatformDataset is one platform's complete regression bundle. It is built
// once, persisted as an archive, and loaded read-only by verifiers; it is
// never mutated after creation.
type PlatformDataset struct {
	Platform     string
	Version      string
	Timestamp    time.Time
	Metadata     Metadata
	Suites       []TestSuite
	EdgeCases    *EdgeCaseGroup
	FileVectors  []FileVectorRecord
	FilePayloads map[string][]byte
}

// VectorCount returns the total number of vectors across all suites.
func (d *PlatformDataset) VectorCount() int {
	n := 0
	for _, s := range d.Suites {
		n += len(s.Vectors)
	}
	return n
}

// VerificationResult is the one-shot outcome for a single test item.
// Terminal: PASS (Passed true) or FAIL (Passed false with Error set).
type VerificationResult struct {
	TestID      string    `json:"test_id"`
	Description string    `json:"description"`
	Algorithm   Algorithm `json:"algorithm"`
	Passed      bool      `json:"passed"`
	Error       string    `json:"error,omitempty"`
}
