package testutil

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/TheMichaelB/crosscheck/internal/events"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// NewQuietLogger creates a logger that discards everything.
func NewQuietLogger() *events.Logger {
	return events.NewTestLogger(events.ErrorLevel, "text", io.Discard)
}

// RandomKey returns a fresh random 32-byte key.
func RandomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}

// RandomSalt returns a fresh random 16-byte salt.
func RandomSalt() []byte {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		panic(err)
	}
	return salt
}

// PatternBytes returns n bytes of a deterministic non-repeating-ish pattern,
// useful when test payloads should not be all zeros.
func PatternBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
