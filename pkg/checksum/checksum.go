package checksum

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	sha256 "github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

const bufferSize = 64 * 1024 // 64KB buffer

// Algorithm identifies a supported content digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm validates an algorithm name from configuration.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case SHA256, BLAKE3:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("unknown hash algorithm: %q", name)
	}
}

// New returns a fresh hash state for the given algorithm.
func New(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case SHA256:
		return sha256.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %q", algo)
	}
}

// File calculates the digest of a file and returns it hex encoded.
func File(algo Algorithm, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Reader(algo, file)
}

// Reader calculates the digest of everything in r and returns it hex encoded.
// Reads are buffered so memory use is independent of input size.
func Reader(algo Algorithm, r io.Reader) (string, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}

	buffer := make([]byte, bufferSize)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, werr := h.Write(buffer[:n]); werr != nil {
				return "", fmt.Errorf("write to hash: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// TeeReader calculates a digest of everything read through it.
type TeeReader struct {
	reader io.Reader
	hash   hash.Hash
	digest string
	done   bool
}

// NewTeeReader creates a TeeReader over r using the given algorithm.
func NewTeeReader(algo Algorithm, r io.Reader) (*TeeReader, error) {
	h, err := New(algo)
	if err != nil {
		return nil, err
	}
	return &TeeReader{
		reader: r,
		hash:   h,
	}, nil
}

// Read implements io.Reader.
func (t *TeeReader) Read(p []byte) (n int, err error) {
	n, err = t.reader.Read(p)
	if n > 0 {
		if _, werr := t.hash.Write(p[:n]); werr != nil {
			return n, werr
		}
	}
	if err == io.EOF {
		t.done = true
		t.digest = hex.EncodeToString(t.hash.Sum(nil))
	}
	return n, err
}

// Digest returns the hex digest (only valid after EOF).
func (t *TeeReader) Digest() (string, error) {
	if !t.done {
		return "", fmt.Errorf("digest not yet calculated (read not complete)")
	}
	return t.digest, nil
}

// Compare compares two hex encoded digests.
func Compare(digest1, digest2 string) bool {
	return digest1 == digest2
}
