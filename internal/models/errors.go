package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeGeneration   = "GENERATION_ERROR"
	ErrCodeArchive      = "ARCHIVE_FORMAT_ERROR"
	ErrCodeHashMismatch = "HASH_MISMATCH"
	ErrCodeDecryption   = "DECRYPTION_ERROR"
	ErrCodeAlgorithm    = "UNKNOWN_ALGORITHM"
)

// Sentinel errors
var (
	ErrDatasetNotFound  = errors.New("no dataset available")
	ErrMarkerNotFound   = errors.New("metadata marker not found in archive")
	ErrVectorsNotFound  = errors.New("test vectors document missing")
	ErrCountMismatch    = errors.New("declared vector count does not match written count")
	ErrKeyOverwritten   = errors.New("recorded key differs from supplied key")
	ErrItemTimeout      = errors.New("verification item timed out")
)

// GenerationError wraps a primitive failure while building a single vector.
// The batch continues; the failed vector is skipped and logged.
type GenerationError struct {
	Algorithm Algorithm
	CaseID    string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s [%s]: %v", e.CaseID, e.Algorithm, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ArchiveFormatError marks a required archive document as missing or
// unparseable. Fatal for that one platform's dataset only.
type ArchiveFormatError struct {
	Archive  string
	Document string
	Err      error
}

func (e *ArchiveFormatError) Error() string {
	return fmt.Sprintf("archive %s: document %s: %v", e.Archive, e.Document, e.Err)
}

func (e *ArchiveFormatError) Unwrap() error {
	return e.Err
}

// HashMismatchError reports archived bytes whose digest does not match the
// recorded one. Kept distinct from decryption failures so archive corruption
// is diagnosed before any decrypt is attempted.
type HashMismatchError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("hash mismatch for %s: expected %s, got %s",
		e.Name, e.Expected, e.Actual)
}

// UnknownAlgorithmError marks a vector whose algorithm tag has no registered
// handler. Always a FAIL, never silently skipped.
type UnknownAlgorithmError struct {
	Algorithm string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown algorithm: %q", e.Algorithm)
}
