package crypto

// Provider defines the interface for cryptographic operations exercised by
// the regression vectors. Implementations must fail closed: wrong keys,
// nonces, or headers return a distinguishable error, never malformed data.
type Provider interface {
	// Encrypt seals plaintext with XSalsa20-Poly1305 under a fresh nonce.
	Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error)

	// Decrypt opens an XSalsa20-Poly1305 ciphertext.
	Decrypt(ciphertext, key, nonce []byte) ([]byte, error)

	// StreamEncrypt encrypts plaintext with the chunked streaming cipher.
	StreamEncrypt(plaintext, key []byte) (ciphertext, header []byte, err error)

	// StreamDecrypt decrypts a chunked streaming ciphertext.
	StreamDecrypt(ciphertext, key, header []byte) ([]byte, error)

	// DeriveKey derives a key from a password with Argon2id. memCost is in
	// bytes, opsCost is the pass count.
	DeriveKey(password, salt []byte, memCost, opsCost int64) ([]byte, error)

	// GenerateKeyPair creates a fresh Curve25519 key pair from the system's
	// secure random source.
	GenerateKeyPair() (publicKey, secretKey *[32]byte, err error)

	// SealEncrypt performs anonymous public-key encryption.
	SealEncrypt(plaintext []byte, publicKey *[32]byte) ([]byte, error)

	// SealDecrypt opens a sealed box with the recipient key pair.
	SealDecrypt(sealed []byte, publicKey, secretKey *[32]byte) ([]byte, error)

	// EncryptFile stream-encrypts src to dst. A nil key means generate one.
	// Returns the stream header and the key actually used.
	EncryptFile(srcPath, dstPath string, key []byte) (header, usedKey []byte, err error)

	// DecryptFile stream-decrypts src to dst.
	DecryptFile(srcPath, dstPath string, header, key []byte) error

	// HashFile returns the hex SHA-256 digest of a file's contents.
	HashFile(path string) (string, error)
}
