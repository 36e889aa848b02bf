package generator

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// DeterministicRand produces reproducible pseudo-random bytes from a seed.
// Two instances built from the same seed emit bit-identical streams, on any
// platform implementing the same keystream, so vectors can be regenerated
// and compared forever after. The stream is the ChaCha20 keystream under
// key SHA-256(seed) and an all-zero nonce.
//
// It is explicitly NOT a secure random source. Using its output as a real
// secret outside the vector pipeline is a caller error; anything resembling
// a live secret (sealed-box key pairs) comes from SecureRand instead.
type DeterministicRand struct {
	stream *chacha20.Cipher
}

// NewDeterministicRand creates a generator seeded from an arbitrary string.
func NewDeterministicRand(seed string) *DeterministicRand {
	key := sha256.Sum256([]byte(seed))
	nonce := make([]byte, chacha20.NonceSize)

	stream, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		// Key and nonce sizes are fixed above.
		panic(fmt.Sprintf("generator: init keystream: %v", err))
	}
	return &DeterministicRand{stream: stream}
}

// Bytes returns the next n deterministic bytes.
func (r *DeterministicRand) Bytes(n int) []byte {
	out := make([]byte, n)
	r.stream.XORKeyStream(out, out)
	return out
}

// Key returns a deterministic 32-byte key.
func (r *DeterministicRand) Key() []byte {
	return r.Bytes(32)
}

// Salt returns a deterministic 16-byte salt.
func (r *DeterministicRand) Salt() []byte {
	return r.Bytes(16)
}

// SecureRand draws from the operating system's secure random source. Kept as
// a distinct type so deterministic and secure generation can never be
// swapped by accident.
type SecureRand struct{}

// Bytes returns n securely generated random bytes.
func (SecureRand) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("secure random: %w", err)
	}
	return b, nil
}

// Key returns a securely generated 32-byte key.
func (s SecureRand) Key() ([]byte, error) {
	return s.Bytes(32)
}
