// Package modes implements the block chaining layer: given already-split
// blocks, an optional IV and a single-block transform, it assembles the
// output stream for the selected mode of operation.
package modes

import (
	"errors"
	"fmt"
)

// BlockTransform applies the underlying cipher primitive to one block.
// Whether this is the forward or the inverse primitive is the caller's
// choice; see the per-mode rules on ProcessBlocks.
type BlockTransform func(block []byte) ([]byte, error)

// Mode selects the chaining discipline. The set is closed: adding a mode
// means touching every switch over it.
type Mode int

const (
	// Plain applies the transform to each block independently. Identical
	// plaintext blocks produce identical ciphertext blocks, so this mode
	// is only suitable for debugging and tests.
	Plain Mode = iota
	// CBC chains each plaintext block with the previous ciphertext block.
	CBC
	// CFB turns the cipher into a self-synchronizing stream: the previous
	// ciphertext block is transformed forward into a keystream block.
	CFB
)

func (m Mode) String() string {
	switch m {
	case Plain:
		return "PLAIN"
	case CBC:
		return "CBC"
	case CFB:
		return "CFB"
	default:
		return "UNKNOWN"
	}
}

// RequiresIV reports whether the mode needs chaining state.
func (m Mode) RequiresIV() bool {
	return m == CBC || m == CFB
}

// ParseMode maps a protocol tag to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "PLAIN":
		return Plain, nil
	case "CBC":
		return CBC, nil
	case "CFB":
		return CFB, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Direction selects encryption or decryption.
type Direction int

const (
	Encrypt Direction = iota
	Decrypt
)

var (
	// ErrMissingIV is returned by ProcessBlocksStrict when a chaining mode
	// is requested without an IV.
	ErrMissingIV = errors.New("modes: mode requires an IV")
	// ErrBlockTooLong is returned when an input block is longer than the
	// chaining state it would be XORed against.
	ErrBlockTooLong = errors.New("modes: block longer than chaining state")
	// ErrUnknownMode is returned for a mode tag outside the closed set.
	ErrUnknownMode = errors.New("modes: unknown mode")
)

// EffectiveMode names the IV-fallback policy: when iv is nil and the
// requested mode needs one, processing degrades to Plain instead of
// failing. This mirrors the historical behavior of the library; callers
// that consider the silent downgrade unacceptable use ProcessBlocksStrict.
func EffectiveMode(mode Mode, iv []byte) Mode {
	if iv == nil && mode.RequiresIV() {
		return Plain
	}
	return mode
}

// ProcessBlocks runs blocks through the chaining engine for mode and
// returns the concatenated output.
//
// The transform is the single-block primitive in the direction the mode
// needs: the forward primitive when dir is Encrypt, and for Decrypt the
// inverse primitive for Plain and CBC but the forward primitive for CFB.
// CFB never runs the inverse transform in either direction; handing it
// the inverse produces garbage without an error, so that selection is
// kept in one place (see encryption.Encryptor).
//
// A nil iv downgrades chaining modes to Plain. Any transform failure
// aborts the whole call: no partial output is ever returned. An empty
// block sequence yields an empty, non-nil output.
func ProcessBlocks(dir Direction, mode Mode, blocks [][]byte, iv []byte, transform BlockTransform) ([]byte, error) {
	return process(dir, mode, blocks, iv, transform, false)
}

// ProcessBlocksStrict is ProcessBlocks with the fallback policy disabled:
// a chaining mode without an IV fails with ErrMissingIV.
func ProcessBlocksStrict(dir Direction, mode Mode, blocks [][]byte, iv []byte, transform BlockTransform) ([]byte, error) {
	return process(dir, mode, blocks, iv, transform, true)
}

func process(dir Direction, mode Mode, blocks [][]byte, iv []byte, transform BlockTransform, strict bool) ([]byte, error) {
	if iv == nil && mode.RequiresIV() {
		if strict {
			return nil, fmt.Errorf("%w: %s", ErrMissingIV, mode)
		}
		mode = Plain
	}

	switch mode {
	case Plain:
		return plainProcess(blocks, transform)
	case CBC:
		if dir == Encrypt {
			return cbcEncrypt(blocks, iv, transform)
		}
		return cbcDecrypt(blocks, iv, transform)
	case CFB:
		return cfbProcess(dir, blocks, iv, transform)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}
}

// plainProcess transforms each block independently. Encryption and
// decryption differ only in which primitive the caller injected.
func plainProcess(blocks [][]byte, transform BlockTransform) ([]byte, error) {
	out := make([]byte, 0, totalLen(blocks))
	for i, block := range blocks {
		res, err := transform(block)
		if err != nil {
			return nil, fmt.Errorf("plain: block %d: %w", i, err)
		}
		out = append(out, res...)
	}
	return out, nil
}

func cbcEncrypt(blocks [][]byte, iv []byte, transform BlockTransform) ([]byte, error) {
	chain := dup(iv)
	out := make([]byte, 0, totalLen(blocks))
	for i, block := range blocks {
		if len(block) > len(chain) {
			return nil, fmt.Errorf("cbc encrypt: block %d: %w", i, ErrBlockTooLong)
		}
		enc, err := transform(xorPrefix(block, chain))
		if err != nil {
			return nil, fmt.Errorf("cbc encrypt: block %d: %w", i, err)
		}
		out = append(out, enc...)
		chain = enc
	}
	return out, nil
}

func cbcDecrypt(blocks [][]byte, iv []byte, transform BlockTransform) ([]byte, error) {
	chain := dup(iv)
	out := make([]byte, 0, totalLen(blocks))
	for i, block := range blocks {
		if len(block) > len(chain) {
			return nil, fmt.Errorf("cbc decrypt: block %d: %w", i, ErrBlockTooLong)
		}
		dec, err := transform(block)
		if err != nil {
			return nil, fmt.Errorf("cbc decrypt: block %d: %w", i, err)
		}
		out = append(out, xorPrefix(dec, chain)...)
		// The next block is unmasked with the received ciphertext, not
		// with anything derived from this block's decryption.
		chain = block
	}
	return out, nil
}

// cfbProcess covers both directions. The transform is always the forward
// primitive: it only ever generates keystream from the previous
// ciphertext block (the IV for the first). The sole difference between
// the directions is which side of the XOR feeds the chain.
func cfbProcess(dir Direction, blocks [][]byte, iv []byte, transform BlockTransform) ([]byte, error) {
	chain := dup(iv)
	out := make([]byte, 0, totalLen(blocks))
	for i, block := range blocks {
		if len(block) > len(chain) {
			return nil, fmt.Errorf("cfb: block %d: %w", i, ErrBlockTooLong)
		}
		keystream, err := transform(chain)
		if err != nil {
			return nil, fmt.Errorf("cfb: block %d: %w", i, err)
		}
		res := xorPrefix(block, keystream)
		out = append(out, res...)
		if dir == Encrypt {
			chain = res
		} else {
			chain = block
		}
	}
	return out, nil
}

// xorPrefix XORs a against the same-length prefix of b, so a ragged
// final block never reads past its own end.
func xorPrefix(a, b []byte) []byte {
	res := make([]byte, len(a))
	for i := range a {
		res[i] = a[i] ^ b[i]
	}
	return res
}

func dup(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func totalLen(blocks [][]byte) int {
	n := 0
	for _, b := range blocks {
		n += len(b)
	}
	return n
}
