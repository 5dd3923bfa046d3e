package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func TestFeistel64RoundTrip(t *testing.T) {
	c, err := NewFeistel64(testKey128)
	if err != nil {
		t.Fatalf("NewFeistel64 failed: %v", err)
	}

	for _, plaintext := range [][]byte{
		[]byte("8bytes!!"),
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	} {
		ciphertext, err := c.EncryptBlock(plaintext)
		if err != nil {
			t.Fatalf("EncryptBlock failed: %v", err)
		}
		if bytes.Equal(ciphertext, plaintext) {
			t.Fatalf("ciphertext equals plaintext for %x", plaintext)
		}

		decrypted, err := c.DecryptBlock(ciphertext)
		if err != nil {
			t.Fatalf("DecryptBlock failed: %v", err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Fatalf("round-trip failed: expected %x, got %x", plaintext, decrypted)
		}
	}
}

func TestFeistel64KeySize(t *testing.T) {
	if _, err := NewFeistel64(make([]byte, 8)); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("expected ErrInvalidKeySize, got %v", err)
	}
	if _, err := NewFeistel64(make([]byte, 32)); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestFeistel64BlockSizeChecked(t *testing.T) {
	c, _ := NewFeistel64(testKey128)
	if _, err := c.EncryptBlock(make([]byte, 16)); !errors.Is(err, ErrInvalidBlockSize) {
		t.Fatalf("expected ErrInvalidBlockSize, got %v", err)
	}
}

func TestNewCipherFactory(t *testing.T) {
	for _, tc := range []struct {
		algorithm string
		keySize   int
		blockSize int
	}{
		{"RC6", RC6KeySize, RC6BlockSize},
		{"FEISTEL64", Feistel64KeySize, Feistel64BlockSize},
	} {
		size, err := KeySizeFor(tc.algorithm)
		if err != nil {
			t.Fatalf("KeySizeFor(%s) failed: %v", tc.algorithm, err)
		}
		if size != tc.keySize {
			t.Fatalf("KeySizeFor(%s) = %d, want %d", tc.algorithm, size, tc.keySize)
		}

		c, err := NewCipher(tc.algorithm, make([]byte, size))
		if err != nil {
			t.Fatalf("NewCipher(%s) failed: %v", tc.algorithm, err)
		}
		if c.Name() != tc.algorithm {
			t.Fatalf("Name() = %s, want %s", c.Name(), tc.algorithm)
		}
		if c.BlockSize() != tc.blockSize {
			t.Fatalf("BlockSize() = %d, want %d", c.BlockSize(), tc.blockSize)
		}
	}

	if _, err := NewCipher("DES", make([]byte, 8)); err == nil {
		t.Fatal("NewCipher accepted an unknown algorithm")
	}
}

func TestSplitBlocks(t *testing.T) {
	blocks := SplitBlocks([]byte("0123456789"), 4)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if string(blocks[2]) != "89" {
		t.Fatalf("final block %q, want \"89\"", blocks[2])
	}

	if got := SplitBlocks(nil, 4); got != nil {
		t.Fatalf("SplitBlocks(nil) = %v, want nil", got)
	}

	aligned := SplitBlocks([]byte("01234567"), 4)
	if len(aligned) != 2 || len(aligned[1]) != 4 {
		t.Fatalf("aligned split wrong: %v", aligned)
	}
}
