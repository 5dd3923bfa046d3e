package encryption

import (
	"bytes"
	"errors"
	"testing"
)

var (
	testKey256 = []byte("0123456789ABCDEF0123456789ABCDEF")
	testKey128 = []byte("0123456789ABCDEF")
)

func TestRC6RoundTrip(t *testing.T) {
	c, err := NewRC6(testKey256)
	if err != nil {
		t.Fatalf("NewRC6 failed: %v", err)
	}

	plaintext := []byte("Hello, World!!!!")
	ciphertext, err := c.EncryptBlock(plaintext)
	if err != nil {
		t.Fatalf("EncryptBlock failed: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := c.DecryptBlock(ciphertext)
	if err != nil {
		t.Fatalf("DecryptBlock failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("round-trip failed: expected %x, got %x", plaintext, decrypted)
	}
}

func TestRC6Deterministic(t *testing.T) {
	c, _ := NewRC6(testKey256)
	block := []byte("ABCDEFGHIJKLMNOP")

	first, err := c.EncryptBlock(block)
	if err != nil {
		t.Fatalf("EncryptBlock failed: %v", err)
	}
	second, err := c.EncryptBlock(block)
	if err != nil {
		t.Fatalf("EncryptBlock failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same block encrypted twice gave different outputs")
	}
}

func TestRC6KeySizes(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		if _, err := NewRC6(make([]byte, size)); err != nil {
			t.Fatalf("key size %d rejected: %v", size, err)
		}
	}
	for _, size := range []int{0, 8, 15, 33} {
		if _, err := NewRC6(make([]byte, size)); !errors.Is(err, ErrInvalidKeySize) {
			t.Fatalf("key size %d: expected ErrInvalidKeySize, got %v", size, err)
		}
	}
}

func TestRC6BlockSizeChecked(t *testing.T) {
	c, _ := NewRC6(testKey256)
	if _, err := c.EncryptBlock(make([]byte, 8)); !errors.Is(err, ErrInvalidBlockSize) {
		t.Fatalf("expected ErrInvalidBlockSize, got %v", err)
	}
	if _, err := c.DecryptBlock(make([]byte, 17)); !errors.Is(err, ErrInvalidBlockSize) {
		t.Fatalf("expected ErrInvalidBlockSize, got %v", err)
	}
}

func TestRC6RequiresKey(t *testing.T) {
	var c RC6
	if _, err := c.EncryptBlock(make([]byte, RC6BlockSize)); !errors.Is(err, ErrKeyNotSet) {
		t.Fatalf("expected ErrKeyNotSet, got %v", err)
	}
}

func TestRC6KeyMatters(t *testing.T) {
	c1, _ := NewRC6(testKey256)
	otherKey := append([]byte{}, testKey256...)
	otherKey[0] ^= 0x01
	c2, _ := NewRC6(otherKey)

	block := []byte("ABCDEFGHIJKLMNOP")
	out1, _ := c1.EncryptBlock(block)
	out2, _ := c2.EncryptBlock(block)
	if bytes.Equal(out1, out2) {
		t.Fatal("different keys produced identical ciphertext")
	}
}
