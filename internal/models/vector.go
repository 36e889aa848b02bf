package models

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Algorithm identifies a primitive family under test. The set is closed:
// verification routes by this tag and treats anything else as a failure.
type Algorithm string

const (
	AlgSecretBox    Algorithm = "xsalsa20poly1305"
	AlgSecretStream Algorithm = "xchacha20poly1305_stream"
	AlgArgon2id     Algorithm = "argon2id"
	AlgSealedBox    Algorithm = "sealed_box"
)

// KnownAlgorithms lists every algorithm tag with a registered handler.
var KnownAlgorithms = []Algorithm{
	AlgSecretBox,
	AlgSecretStream,
	AlgArgon2id,
	AlgSealedBox,
}

// Valid reports whether the tag has a registered handler.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgSecretBox, AlgSecretStream, AlgArgon2id, AlgSealedBox:
		return true
	}
	return false
}

// TestVector records one primitive invocation: its inputs, the expected
// outputs, and any parameters a verifier must replay exactly. Byte-valued
// fields are base64 encoded. A vector is immutable once generated; its ID
// is stable across runs given the same seed.
type TestVector struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Algorithm   Algorithm         `json:"algorithm"`
	Inputs      map[string]string `json:"inputs"`
	Outputs     map[string]string `json:"outputs"`
	Parameters  map[string]int64  `json:"parameters,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Input decodes a named base64 input field.
func (v *TestVector) Input(name string) ([]byte, error) {
	return v.field(v.Inputs, "input", name)
}

// Output decodes a named base64 output field.
func (v *TestVector) Output(name string) ([]byte, error) {
	return v.field(v.Outputs, "output", name)
}

// Param returns a named integer parameter.
func (v *TestVector) Param(name string) (int64, error) {
	p, ok := v.Parameters[name]
	if !ok {
		return 0, fmt.Errorf("vector %s: missing parameter %q", v.ID, name)
	}
	return p, nil
}

func (v *TestVector) field(m map[string]string, kind, name string) ([]byte, error) {
	enc, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("vector %s: missing %s %q", v.ID, kind, name)
	}
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("vector %s: decode %s %q: %w", v.ID, kind, name, err)
	}
	return data, nil
}

// EncodeBytes is the canonical byte encoding for vector fields.
func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// TestSuite groups the vectors of one primitive family in generation order.
type TestSuite struct {
	Algorithm   Algorithm    `json:"algorithm"`
	Description string       `json:"description"`
	Vectors     []TestVector `json:"vectors"`
}

// VectorsDocument is the top-level shape of test_vectors.json.
type VectorsDocument struct {
	Version    string      `json:"version"`
	Platform   string      `json:"platform"`
	Timestamp  time.Time   `json:"timestamp"`
	TestSuites []TestSuite `json:"test_suites"`
}
