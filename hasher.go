package jmt

import (
	"crypto/sha256"
	"fmt"
	"hash"

	ics23 "github.com/confio/ics23/go"
	"golang.org/x/crypto/sha3"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// Hasher is the hash function provider shared by the write path and by
// anything that recomputes roots from proofs. The proof builder never calls
// it: proofs only carry the framing bytes.
type Hasher struct {
	name string
	op   ics23.HashOp
	new  func() hash.Hash
}

// NewHasher wraps a hash constructor. The digest must be HashBytes long;
// anything else is rejected with ErrBadHashSize.
func NewHasher(name string, op ics23.HashOp, newHash func() hash.Hash) (*Hasher, error) {
	if size := newHash().Size(); size != HashBytes {
		return nil, fmt.Errorf("%w: %s digest is %d bytes", ErrBadHashSize, name, size)
	}
	return &Hasher{name: name, op: op, new: newHash}, nil
}

func mustHasher(name string, op ics23.HashOp, newHash func() hash.Hash) *Hasher {
	h, err := NewHasher(name, op, newHash)
	if err != nil {
		panic(err)
	}
	return h
}

// SHA256Hasher is the default provider.
func SHA256Hasher() *Hasher {
	return mustHasher("sha256", ics23.HashOp_SHA256, sha256.New)
}

// Keccak256Hasher uses the legacy (pre-standard) Keccak-256 padding.
func Keccak256Hasher() *Hasher {
	return mustHasher("keccak256", ics23.HashOp_KECCAK, sha3.NewLegacyKeccak256)
}

// HasherByName resolves a configured hash name.
func HasherByName(name string) (*Hasher, error) {
	switch name {
	case "", "sha256":
		return SHA256Hasher(), nil
	case "keccak256":
		return Keccak256Hasher(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
}

func (h *Hasher) Name() string { return h.name }

// HashOp is the ICS-23 identifier of the hash function.
func (h *Hasher) HashOp() ics23.HashOp { return h.op }

func (h *Hasher) sum(parts ...[]byte) Hash {
	hasher := h.new()
	for _, p := range parts {
		_, _ = hasher.Write(p)
	}
	var out Hash
	copy(out[:], hasher.Sum(nil))
	return out
}

// HashLeaf computes:
//
//	H( LeafPrefix || key || valueHash[32] )
//
// key is written packed, MSB first, as returned by BitArray.Bytes.
func (h *Hasher) HashLeaf(key keybits.BitArray, value Hash) Hash {
	return h.sum(LeafPrefix, key.Bytes(), value[:])
}

// HashInternal computes:
//
//	H( InternalPrefix || leftHash[32] || rightHash[32] )
//
// An absent child is hashed as ZeroHash.
func (h *Hasher) HashInternal(left, right Hash) Hash {
	return h.sum(InternalPrefix, left[:], right[:])
}

// HashValue digests an application value into the hash stored in a leaf.
func (h *Hasher) HashValue(value []byte) Hash {
	return h.sum(value)
}

// KeyDigest maps an application key to the fixed width tree key.
func (h *Hasher) KeyDigest(appKey []byte, bits int) (keybits.BitArray, error) {
	d := h.sum(appKey)
	if bits > HashBytes*8 {
		return keybits.BitArray{}, fmt.Errorf("%w: digest has %d bits, want %d", ErrKeyLength, HashBytes*8, bits)
	}
	return keybits.FromDigest(d[:], bits)
}

// ApplyInner folds one proof step over a child hash: H(prefix || child || suffix).
func (h *Hasher) ApplyInner(op InnerOp, child Hash) Hash {
	return h.sum(op.Prefix, child[:], op.Suffix)
}
