package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/text/unicode/norm"
)

const (
	// Key sizes
	KeySize   = 32
	NonceSize = 24 // XSalsa20
	TagSize   = secretbox.Overhead

	// Argon2id cost profiles, matching libsodium's interactive and
	// sensitive limits. Memory costs are in bytes.
	MemLimitInteractive int64 = 64 * 1024 * 1024
	OpsLimitInteractive int64 = 2
	MemLimitSensitive   int64 = 1024 * 1024 * 1024
	OpsLimitSensitive   int64 = 4
)

// Errors
var (
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidNonce      = errors.New("invalid nonce size")
	ErrInvalidHeader     = errors.New("invalid stream header")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrInvalidCost       = errors.New("invalid derivation cost")
)

// NaClProvider implements Provider on the NaCl primitive family.
type NaClProvider struct{}

// NewProvider creates a crypto provider.
func NewProvider() Provider {
	return &NaClProvider{}
}

// Encrypt seals plaintext with XSalsa20-Poly1305. The Poly1305 tag is part
// of the returned ciphertext, never a separate field.
func (p *NaClProvider) Encrypt(plaintext, key []byte) ([]byte, []byte, error) {
	boxKey, err := keyArray(key)
	if err != nil {
		return nil, nil, err
	}

	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := secretbox.Seal(nil, plaintext, &nonce, boxKey)
	return ciphertext, nonce[:], nil
}

// Decrypt opens an XSalsa20-Poly1305 ciphertext.
func (p *NaClProvider) Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	boxKey, err := keyArray(key)
	if err != nil {
		return nil, err
	}

	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	if len(ciphertext) < TagSize {
		return nil, ErrInvalidCiphertext
	}

	var n [NonceSize]byte
	copy(n[:], nonce)

	plaintext, ok := secretbox.Open(nil, ciphertext, &n, boxKey)
	if !ok {
		return nil, ErrDecryptionFailed
	}

	// secretbox.Open returns nil for an empty payload.
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// DeriveKey derives a 32-byte key with Argon2id. The password is NFKC
// normalized first so platforms agree on composed vs decomposed input.
func (p *NaClProvider) DeriveKey(password, salt []byte, memCost, opsCost int64) ([]byte, error) {
	if memCost < 8*1024 || memCost > 4*1024*1024*1024 {
		return nil, fmt.Errorf("%w: memory %d bytes", ErrInvalidCost, memCost)
	}
	if opsCost < 1 {
		return nil, fmt.Errorf("%w: %d passes", ErrInvalidCost, opsCost)
	}
	if len(salt) == 0 {
		return nil, errors.New("salt is required")
	}

	normalized := norm.NFKC.Bytes(password)
	key := argon2.IDKey(normalized, salt, uint32(opsCost), uint32(memCost/1024), 1, KeySize)
	return key, nil
}

// GenerateKeyPair creates a Curve25519 key pair. This is the one place
// secure randomness replaces the deterministic generator: key-pair
// generation is not a reproducibility target.
func (p *NaClProvider) GenerateKeyPair() (*[32]byte, *[32]byte, error) {
	publicKey, secretKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key pair: %w", err)
	}
	return publicKey, secretKey, nil
}

// SealEncrypt performs anonymous public-key encryption (sealed box).
func (p *NaClProvider) SealEncrypt(plaintext []byte, publicKey *[32]byte) ([]byte, error) {
	sealed, err := box.SealAnonymous(nil, plaintext, publicKey, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return sealed, nil
}

// SealDecrypt opens a sealed box.
func (p *NaClProvider) SealDecrypt(sealed []byte, publicKey, secretKey *[32]byte) ([]byte, error) {
	if len(sealed) < box.AnonymousOverhead {
		return nil, ErrInvalidCiphertext
	}

	plaintext, ok := box.OpenAnonymous(nil, sealed, publicKey, secretKey)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// StreamEncrypt encrypts plaintext with the chunked streaming cipher.
func (p *NaClProvider) StreamEncrypt(plaintext, key []byte) ([]byte, []byte, error) {
	if len(key) != KeySize {
		return nil, nil, ErrInvalidKey
	}

	header, err := newStreamHeader()
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := encryptStream(&buf, bytes.NewReader(plaintext), key, header); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), header, nil
}

// StreamDecrypt decrypts a chunked streaming ciphertext.
func (p *NaClProvider) StreamDecrypt(ciphertext, key, header []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	if len(header) != HeaderSize {
		return nil, ErrInvalidHeader
	}

	var buf bytes.Buffer
	if err := decryptStream(&buf, bytes.NewReader(ciphertext), key, header); err != nil {
		return nil, err
	}
	plaintext := buf.Bytes()
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// EncryptFile stream-encrypts srcPath to dstPath. When key is nil a fresh
// key is drawn from the secure random source and returned.
func (p *NaClProvider) EncryptFile(srcPath, dstPath string, key []byte) ([]byte, []byte, error) {
	if key == nil {
		key = make([]byte, KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, fmt.Errorf("generate key: %w", err)
		}
	}
	if len(key) != KeySize {
		return nil, nil, ErrInvalidKey
	}

	header, err := newStreamHeader()
	if err != nil {
		return nil, nil, err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create destination: %w", err)
	}

	if err := encryptStream(dst, src, key, header); err != nil {
		dst.Close()
		return nil, nil, err
	}

	if err := dst.Close(); err != nil {
		return nil, nil, fmt.Errorf("close destination: %w", err)
	}
	return header, key, nil
}

// DecryptFile stream-decrypts srcPath to dstPath.
func (p *NaClProvider) DecryptFile(srcPath, dstPath string, header, key []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}
	if len(header) != HeaderSize {
		return ErrInvalidHeader
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if err := decryptStream(dst, src, key, header); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return err
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}

// HashFile returns the hex SHA-256 digest of a file's contents.
func (p *NaClProvider) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the hex SHA-256 digest of a byte slice.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func keyArray(key []byte) (*[KeySize]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	var k [KeySize]byte
	copy(k[:], key)
	return &k, nil
}
