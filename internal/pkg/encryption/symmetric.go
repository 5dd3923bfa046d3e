package encryption

import (
	"fmt"

	"BlockVault/internal/pkg/encryption/modes"
	"BlockVault/internal/pkg/encryption/padding"
)

// Encryptor binds a keyed block cipher to a chaining mode and a padding
// scheme. It owns the two decisions the chaining layer delegates to its
// caller: when padding applies, and which direction of the primitive a
// mode runs in.
type Encryptor struct {
	cipher BlockCipher
	mode   modes.Mode
	padder padding.Padder
}

// NewEncryptor builds an Encryptor. The padder may be nil only for CFB,
// which needs no block alignment.
func NewEncryptor(cipher BlockCipher, mode modes.Mode, padder padding.Padder) (*Encryptor, error) {
	if cipher == nil {
		return nil, fmt.Errorf("encryption: cipher must not be nil")
	}
	if padder == nil && mode != modes.CFB {
		return nil, fmt.Errorf("encryption: mode %s requires a padding scheme", mode)
	}
	return &Encryptor{cipher: cipher, mode: mode, padder: padder}, nil
}

// Encrypt pads the plaintext when the effective mode is block-aligned,
// splits it into blocks and runs the chaining layer. A nil iv keeps the
// library's historical fallback-to-Plain behavior; the vault service
// always passes one for chaining modes.
func (e *Encryptor) Encrypt(plaintext, iv []byte) ([]byte, error) {
	em := modes.EffectiveMode(e.mode, iv)
	data := plaintext
	if e.needsPadding(em) {
		data = e.padder.Pad(plaintext, e.cipher.BlockSize())
	}
	blocks := SplitBlocks(data, e.cipher.BlockSize())
	return modes.ProcessBlocks(modes.Encrypt, e.mode, blocks, iv, transformFor(e.cipher, em, modes.Encrypt))
}

// Decrypt reverses Encrypt: chain, then unpad where padding applied.
func (e *Encryptor) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	em := modes.EffectiveMode(e.mode, iv)
	blocks := SplitBlocks(ciphertext, e.cipher.BlockSize())
	data, err := modes.ProcessBlocks(modes.Decrypt, e.mode, blocks, iv, transformFor(e.cipher, em, modes.Decrypt))
	if err != nil {
		return nil, err
	}
	if e.needsPadding(em) {
		return e.padder.Unpad(data)
	}
	return data, nil
}

// BlockSize reports the underlying cipher's block size, which is also
// the IV length chaining modes expect.
func (e *Encryptor) BlockSize() int {
	return e.cipher.BlockSize()
}

func (e *Encryptor) needsPadding(effective modes.Mode) bool {
	return e.padder != nil && effective != modes.CFB
}

// transformFor selects the primitive direction for a mode. This is the
// one place that encodes the rule: decryption uses the inverse
// permutation except in CFB, where keystream generation always runs the
// cipher forward. Passing DecryptBlock to the CFB engine would yield
// garbage with no error, so the choice never leaks out of this file.
func transformFor(c BlockCipher, mode modes.Mode, dir modes.Direction) modes.BlockTransform {
	if dir == modes.Encrypt || mode == modes.CFB {
		return c.EncryptBlock
	}
	return c.DecryptBlock
}
