package domain

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Hash is an opaque 128-bit content fingerprint. The zero Hash means "no content".
type Hash struct {
	lo, hi uint64
}

// HashBytes fingerprints a byte slice.
func HashBytes(b []byte) Hash {
	return fromDigest(xxhash.Sum64(b))
}

// HashString fingerprints a string.
func HashString(s string) Hash {
	return fromDigest(xxhash.Sum64String(s))
}

// HashDigest wraps a 64-bit xxhash digest of streamed content. HashDigest of the
// digest of b equals HashBytes(b).
func HashDigest(d uint64) Hash {
	return fromDigest(d)
}

// BindHash ties a content hash to a label, typically the path it was read from,
// so that the same bytes under two names fingerprint differently.
func BindHash(label string, h Hash) Hash {
	d := xxhash.New()
	_, _ = d.WriteString(label)
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], h.lo)
	binary.LittleEndian.PutUint64(buf[8:], h.hi)
	_, _ = d.Write(buf[:])
	return fromDigest(d.Sum64())
}

// ParseHash decodes the hexadecimal form produced by String.
func ParseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 16 {
		return Hash{}, ErrInvalidHash
	}
	return Hash{
		lo: binary.BigEndian.Uint64(b[:8]),
		hi: binary.BigEndian.Uint64(b[8:]),
	}, nil
}

func fromDigest(d uint64) Hash {
	return Hash{lo: d, hi: mix(d)}
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// IsZero reports whether the hash carries no content.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the 32 character hexadecimal form.
func (h Hash) String() string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], h.lo)
	binary.BigEndian.PutUint64(buf[8:], h.hi)
	return hex.EncodeToString(buf[:])
}

// Short returns the first 12 hexadecimal characters, for display.
func (h Hash) Short() string {
	return h.String()[:12]
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(b []byte) error {
	parsed, err := ParseHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashBuilder accumulates hashes. Accumulation is commutative and associative,
// so the result does not depend on the order hashes were added in.
type HashBuilder struct {
	lo, hi uint64
	n      int
}

// Add folds a hash into the builder.
func (b *HashBuilder) Add(h Hash) {
	b.lo += h.lo
	b.hi += h.hi
	b.n++
}

// AddString folds the hash of a string into the builder.
func (b *HashBuilder) AddString(s string) {
	b.Add(HashString(s))
}

// Len returns the number of hashes added.
func (b *HashBuilder) Len() int {
	return b.n
}

// Sum returns the combined hash. An empty builder yields the zero Hash.
func (b *HashBuilder) Sum() Hash {
	if b.n == 0 {
		return Hash{}
	}
	// Finalize so a single added hash does not pass through unchanged.
	return Hash{lo: mix(b.lo ^ uint64(b.n)), hi: mix(b.hi + uint64(b.n))}
}

// CombineHashes is a shorthand for adding every hash to a fresh builder.
func CombineHashes(hs ...Hash) Hash {
	var b HashBuilder
	for _, h := range hs {
		b.Add(h)
	}
	return b.Sum()
}
