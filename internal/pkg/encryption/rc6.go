package encryption

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// RC6-32/20: 32-bit words, 20 rounds, 128-bit blocks.
const (
	RC6BlockSize = 16
	RC6KeySize   = 32

	rc6Rounds = 20
	rc6Words  = 2*rc6Rounds + 4

	rc6P32 = 0xB7E15163
	rc6Q32 = 0x9E3779B9
)

// RC6 implements the RC6 block cipher.
type RC6 struct {
	s     [rc6Words]uint32
	keyed bool
}

// NewRC6 creates an RC6 cipher keyed with key.
func NewRC6(key []byte) (*RC6, error) {
	c := &RC6{}
	if err := c.SetKey(key); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *RC6) BlockSize() int { return RC6BlockSize }
func (r *RC6) KeySize() int   { return RC6KeySize }
func (r *RC6) Name() string   { return "RC6" }

// SetKey runs the RC6 key schedule. Keys from 16 to 32 bytes are
// accepted; KeySize reports the size key generation should use.
func (r *RC6) SetKey(key []byte) error {
	if len(key) < 16 || len(key) > 32 {
		return fmt.Errorf("%w: RC6 key must be 16..32 bytes, got %d", ErrInvalidKeySize, len(key))
	}

	c := (len(key) + 3) / 4
	l := make([]uint32, c)
	for i := 0; i < len(key); i++ {
		l[i/4] |= uint32(key[i]) << uint((i%4)*8)
	}

	r.s[0] = rc6P32
	for i := 1; i < rc6Words; i++ {
		r.s[i] = r.s[i-1] + rc6Q32
	}

	var a, b uint32
	i, j := 0, 0
	for k := 0; k < 3*rc6Words; k++ {
		r.s[i] = bits.RotateLeft32(r.s[i]+a+b, 3)
		a = r.s[i]
		l[j] = bits.RotateLeft32(l[j]+a+b, int((a+b)%32))
		b = l[j]
		i = (i + 1) % rc6Words
		j = (j + 1) % c
	}

	r.keyed = true
	return nil
}

// EncryptBlock encrypts one 128-bit block.
func (r *RC6) EncryptBlock(block []byte) ([]byte, error) {
	if !r.keyed {
		return nil, ErrKeyNotSet
	}
	if len(block) != RC6BlockSize {
		return nil, fmt.Errorf("%w: RC6 block must be %d bytes, got %d", ErrInvalidBlockSize, RC6BlockSize, len(block))
	}

	a := binary.LittleEndian.Uint32(block[0:4])
	b := binary.LittleEndian.Uint32(block[4:8])
	c := binary.LittleEndian.Uint32(block[8:12])
	d := binary.LittleEndian.Uint32(block[12:16])

	b += r.s[0]
	d += r.s[1]

	for i := 1; i <= rc6Rounds; i++ {
		t := bits.RotateLeft32(b*(2*b+1), 5)
		u := bits.RotateLeft32(d*(2*d+1), 5)
		a = bits.RotateLeft32(a^t, int(u%32)) + r.s[2*i]
		c = bits.RotateLeft32(c^u, int(t%32)) + r.s[2*i+1]

		a, b, c, d = b, c, d, a
	}

	a += r.s[2*rc6Rounds+2]
	c += r.s[2*rc6Rounds+3]

	out := make([]byte, RC6BlockSize)
	binary.LittleEndian.PutUint32(out[0:4], a)
	binary.LittleEndian.PutUint32(out[4:8], b)
	binary.LittleEndian.PutUint32(out[8:12], c)
	binary.LittleEndian.PutUint32(out[12:16], d)
	return out, nil
}

// DecryptBlock decrypts one 128-bit block.
func (r *RC6) DecryptBlock(block []byte) ([]byte, error) {
	if !r.keyed {
		return nil, ErrKeyNotSet
	}
	if len(block) != RC6BlockSize {
		return nil, fmt.Errorf("%w: RC6 block must be %d bytes, got %d", ErrInvalidBlockSize, RC6BlockSize, len(block))
	}

	a := binary.LittleEndian.Uint32(block[0:4])
	b := binary.LittleEndian.Uint32(block[4:8])
	c := binary.LittleEndian.Uint32(block[8:12])
	d := binary.LittleEndian.Uint32(block[12:16])

	c -= r.s[2*rc6Rounds+3]
	a -= r.s[2*rc6Rounds+2]

	for i := rc6Rounds; i >= 1; i-- {
		a, b, c, d = d, a, b, c

		u := bits.RotateLeft32(d*(2*d+1), 5)
		t := bits.RotateLeft32(b*(2*b+1), 5)
		c = bits.RotateLeft32(c-r.s[2*i+1], -int(t%32)) ^ u
		a = bits.RotateLeft32(a-r.s[2*i], -int(u%32)) ^ t
	}

	d -= r.s[1]
	b -= r.s[0]

	out := make([]byte, RC6BlockSize)
	binary.LittleEndian.PutUint32(out[0:4], a)
	binary.LittleEndian.PutUint32(out[4:8], b)
	binary.LittleEndian.PutUint32(out[8:12], c)
	binary.LittleEndian.PutUint32(out[12:16], d)
	return out, nil
}
