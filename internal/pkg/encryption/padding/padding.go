// Package padding implements block padding schemes for the block-aligned
// chaining modes.
package padding

import (
	"crypto/rand"
	"errors"
	"fmt"
)

var (
	ErrEmptyData      = errors.New("padding: empty data")
	ErrInvalidPadding = errors.New("padding: invalid padding")
)

// Padder pads data to a block-size multiple and removes the padding
// again. Pad always adds at least one byte so Unpad is unambiguous.
type Padder interface {
	Pad(data []byte, blockSize int) []byte
	Unpad(data []byte) ([]byte, error)
	Name() string
}

// ParsePadding maps a protocol tag to a Padder.
func ParsePadding(name string) (Padder, error) {
	switch name {
	case "ZEROS":
		return &Zeros{}, nil
	case "PKCS7":
		return &PKCS7{}, nil
	case "ANSI_X923":
		return &ANSIX923{}, nil
	case "ISO_10126":
		return &ISO10126{}, nil
	default:
		return nil, fmt.Errorf("padding: unknown scheme %q", name)
	}
}

func padLen(dataLen, blockSize int) int {
	n := blockSize - dataLen%blockSize
	if n == 0 {
		n = blockSize
	}
	return n
}

// trailerLen reads and validates the length byte used by the schemes
// that store the padding length in the final byte.
func trailerLen(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	n := int(data[len(data)-1])
	if n == 0 || n > len(data) {
		return 0, fmt.Errorf("%w: length byte %d", ErrInvalidPadding, n)
	}
	return n, nil
}

// Zeros pads with zero bytes. Trailing plaintext zeros are eaten by
// Unpad; the scheme exists for compatibility, not correctness.
type Zeros struct{}

func (z *Zeros) Name() string { return "ZEROS" }

func (z *Zeros) Pad(data []byte, blockSize int) []byte {
	return append(dup(data), make([]byte, padLen(len(data), blockSize))...)
}

func (z *Zeros) Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	i := len(data)
	for i > 0 && data[i-1] == 0 {
		i--
	}
	return data[:i], nil
}

// PKCS7 fills the padding with the padding length itself.
type PKCS7 struct{}

func (p *PKCS7) Name() string { return "PKCS7" }

func (p *PKCS7) Pad(data []byte, blockSize int) []byte {
	n := padLen(len(data), blockSize)
	out := dup(data)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out
}

func (p *PKCS7) Unpad(data []byte) ([]byte, error) {
	n, err := trailerLen(data)
	if err != nil {
		return nil, err
	}
	for _, b := range data[len(data)-n:] {
		if b != byte(n) {
			return nil, fmt.Errorf("%w: PKCS7 filler mismatch", ErrInvalidPadding)
		}
	}
	return data[:len(data)-n], nil
}

// ANSIX923 pads with zeros and stores the length in the final byte.
type ANSIX923 struct{}

func (a *ANSIX923) Name() string { return "ANSI_X923" }

func (a *ANSIX923) Pad(data []byte, blockSize int) []byte {
	n := padLen(len(data), blockSize)
	out := append(dup(data), make([]byte, n)...)
	out[len(out)-1] = byte(n)
	return out
}

func (a *ANSIX923) Unpad(data []byte) ([]byte, error) {
	n, err := trailerLen(data)
	if err != nil {
		return nil, err
	}
	for _, b := range data[len(data)-n : len(data)-1] {
		if b != 0 {
			return nil, fmt.Errorf("%w: X.923 filler mismatch", ErrInvalidPadding)
		}
	}
	return data[:len(data)-n], nil
}

// ISO10126 pads with random bytes and stores the length in the final
// byte; only the length byte is checked on removal.
type ISO10126 struct{}

func (i *ISO10126) Name() string { return "ISO_10126" }

func (i *ISO10126) Pad(data []byte, blockSize int) []byte {
	n := padLen(len(data), blockSize)
	fill := make([]byte, n)
	rand.Read(fill[:n-1])
	fill[n-1] = byte(n)
	return append(dup(data), fill...)
}

func (i *ISO10126) Unpad(data []byte) ([]byte, error) {
	n, err := trailerLen(data)
	if err != nil {
		return nil, err
	}
	return data[:len(data)-n], nil
}

func dup(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
