// Package encryption provides the symmetric cipher library: block cipher
// implementations, the chaining-mode facade and block helpers.
package encryption

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKeySize   = errors.New("encryption: invalid key size")
	ErrInvalidBlockSize = errors.New("encryption: invalid block size")
	ErrKeyNotSet        = errors.New("encryption: key not set")
)

// BlockCipher is the contract every symmetric block cipher implements.
// EncryptBlock and DecryptBlock operate on exactly one block; chaining
// across blocks is the modes package's job.
type BlockCipher interface {
	// SetKey expands the key into cipher state.
	SetKey(key []byte) error

	// EncryptBlock applies the forward permutation to one block.
	EncryptBlock(block []byte) ([]byte, error)

	// DecryptBlock applies the inverse permutation to one block.
	DecryptBlock(block []byte) ([]byte, error)

	// BlockSize returns the block size in bytes.
	BlockSize() int

	// KeySize returns the required key size in bytes.
	KeySize() int

	// Name returns the algorithm tag used on the wire.
	Name() string
}

// NewCipher builds a keyed cipher for an algorithm tag.
func NewCipher(algorithm string, key []byte) (BlockCipher, error) {
	var c BlockCipher
	switch algorithm {
	case "RC6":
		c = &RC6{}
	case "FEISTEL64":
		c = &Feistel64{}
	default:
		return nil, fmt.Errorf("encryption: unknown algorithm %q", algorithm)
	}
	if err := c.SetKey(key); err != nil {
		return nil, err
	}
	return c, nil
}

// Algorithms lists the supported algorithm tags.
func Algorithms() []string {
	return []string{"RC6", "FEISTEL64"}
}

// KeySizeFor returns the key size in bytes for an algorithm tag.
func KeySizeFor(algorithm string) (int, error) {
	switch algorithm {
	case "RC6":
		return RC6KeySize, nil
	case "FEISTEL64":
		return Feistel64KeySize, nil
	default:
		return 0, fmt.Errorf("encryption: unknown algorithm %q", algorithm)
	}
}

// SplitBlocks cuts data into blockSize chunks; the final chunk may be
// shorter. The chunks alias data.
func SplitBlocks(data []byte, blockSize int) [][]byte {
	if blockSize <= 0 || len(data) == 0 {
		return nil
	}
	blocks := make([][]byte, 0, (len(data)+blockSize-1)/blockSize)
	for len(data) > blockSize {
		blocks = append(blocks, data[:blockSize])
		data = data[blockSize:]
	}
	return append(blocks, data)
}
