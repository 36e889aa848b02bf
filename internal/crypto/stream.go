package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// The streaming format splits plaintext into fixed-size chunks, each sealed
// independently with XChaCha20-Poly1305. The 24-byte header is generated per
// stream; the chunk nonce is derived from it as
//
//	nonce = header[0:15] || lastChunkFlag || BE64(chunkIndex)
//
// so chunks cannot be reordered, dropped, or truncated without the final
// authentication failing. An empty plaintext encrypts to exactly one sealed
// empty chunk.
const (
	// ChunkSize is the fixed plaintext chunk size. Boundary sizes around it
	// are the primary regression stress points.
	ChunkSize = 4 * 1024 * 1024

	// HeaderSize is the per-stream initialization header length.
	HeaderSize = 24

	encChunkSize  = ChunkSize + chacha20poly1305.Overhead
	lastChunkFlag = 0x01
)

// ExpectedChunkCount returns ceil(size/ChunkSize), the recorded chunk count
// contract for a plaintext of the given size.
func ExpectedChunkCount(size int64) int64 {
	return (size + ChunkSize - 1) / ChunkSize
}

func newStreamHeader() ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := rand.Read(header); err != nil {
		return nil, fmt.Errorf("generate header: %w", err)
	}
	return header, nil
}

func chunkNonce(header []byte, index uint64, last bool) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	copy(nonce[:15], header[:15])
	if last {
		nonce[15] = lastChunkFlag
	}
	binary.BigEndian.PutUint64(nonce[16:], index)
	return nonce
}

// encryptStream writes the sealed chunks of src to dst.
func encryptStream(dst io.Writer, src io.Reader, key, header []byte) error {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("create aead: %w", err)
	}

	buf := make([]byte, ChunkSize)
	peek := make([]byte, 1)
	var index uint64
	carry := -1 // lookahead byte from the previous read, -1 if none

	for {
		n := 0
		if carry >= 0 {
			buf[0] = byte(carry)
			n = 1
			carry = -1
		}

		read, err := io.ReadFull(src, buf[n:])
		n += read
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("read chunk: %w", err)
		}

		last := err != nil
		if !last {
			// Full chunk; peek one byte to learn whether it is the final one.
			switch _, perr := io.ReadFull(src, peek); perr {
			case nil:
				carry = int(peek[0])
			case io.EOF, io.ErrUnexpectedEOF:
				last = true
			default:
				return fmt.Errorf("read chunk: %w", perr)
			}
		}

		sealed := aead.Seal(nil, chunkNonce(header, index, last), buf[:n], nil)
		if _, err := dst.Write(sealed); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}

		if last {
			return nil
		}
		index++
	}
}

// decryptStream reads sealed chunks from src and writes plaintext to dst.
func decryptStream(dst io.Writer, src io.Reader, key, header []byte) error {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("create aead: %w", err)
	}

	buf := make([]byte, encChunkSize)
	var index uint64

	for {
		n, err := io.ReadFull(src, buf)
		switch {
		case err == io.EOF:
			// A stream can't end without a chunk sealed as last. If we got
			// here the final chunk was removed or the stream is empty.
			return fmt.Errorf("%w: truncated stream", ErrDecryptionFailed)
		case err == io.ErrUnexpectedEOF:
			// Short chunk: must be the last one.
			if index > 0 && n == chacha20poly1305.Overhead {
				return fmt.Errorf("%w: empty trailing chunk", ErrDecryptionFailed)
			}
			if n < chacha20poly1305.Overhead {
				return fmt.Errorf("%w: short chunk", ErrDecryptionFailed)
			}
			plain, oerr := aead.Open(nil, chunkNonce(header, index, true), buf[:n], nil)
			if oerr != nil {
				return ErrDecryptionFailed
			}
			if _, werr := dst.Write(plain); werr != nil {
				return fmt.Errorf("write chunk: %w", werr)
			}
			return nil
		case err != nil:
			return fmt.Errorf("read chunk: %w", err)
		}

		// Full-length chunk. Try as a middle chunk first; on failure it may
		// be a full-length final chunk.
		plain, oerr := aead.Open(nil, chunkNonce(header, index, false), buf, nil)
		last := false
		if oerr != nil {
			plain, oerr = aead.Open(nil, chunkNonce(header, index, true), buf, nil)
			if oerr != nil {
				return ErrDecryptionFailed
			}
			last = true
		}

		if _, werr := dst.Write(plain); werr != nil {
			return fmt.Errorf("write chunk: %w", werr)
		}

		if last {
			// Reject trailing data after the final chunk.
			if _, perr := src.Read(make([]byte, 1)); perr == nil {
				return errors.New("trailing data after final chunk")
			} else if perr != io.EOF {
				return fmt.Errorf("read past final chunk: %w", perr)
			}
			return nil
		}
		index++
	}
}
