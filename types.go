package jmt

import (
	"encoding/hex"
	"errors"
)

// HashBytes is the fixed width of node hashes and value hashes.
const HashBytes = 32

// Hash is a node or value digest.
type Hash [HashBytes]byte

// ZeroHash stands in for an absent child. It is never the hash of a node.
var ZeroHash Hash

func (h Hash) IsZero() bool { return h == ZeroHash }
func (h Hash) String() string { return hex.EncodeToString(h[:]) }
func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

// HashFromBytes copies a 32 byte slice into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashBytes {
		return h, ErrBadHashSize
	}
	copy(h[:], b)
	return h, nil
}

// Version identifies an immutable tree snapshot. Versions are committed in
// order starting at FirstVersion.
type Version uint64

const FirstVersion Version = 1

// Domain separation markers framing every hash input. A leaf hash is
// H(LeafPrefix || key || valueHash), an internal hash is
// H(InternalPrefix || leftHash || rightHash).
var (
	LeafPrefix     = []byte{0x00}
	InternalPrefix = []byte{0x01}
)

var (
	ErrBadHashSize     = errors.New("jmt: hash must be 32 bytes")
	ErrUnknownHasher   = errors.New("jmt: unknown hash function")
	ErrKeyLength       = errors.New("jmt: key has the wrong bit length for this tree")
	ErrInvalidNodeKind = errors.New("jmt: invalid node kind")
	ErrEmptyInternal   = errors.New("jmt: internal node has no children")

	ErrNodeNotFound    = errors.New("jmt: node not found")
	ErrVersionNotFound = errors.New("jmt: version not found")
	ErrVersionExists   = errors.New("jmt: version already committed")
	ErrVersionGap      = errors.New("jmt: versions must be committed in sequence")
	ErrNodeExists      = errors.New("jmt: node already exists")
	ErrBatchInvalid    = errors.New("jmt: node batch invalid")

	// ErrPathNotFound is ordinary absence: following the key's bits from the
	// root does not arrive at a leaf holding exactly that key.
	ErrPathNotFound = errors.New("jmt: no leaf on the key path")

	// ErrPathInconsistency means the leaf index and the node graph disagree.
	// It indicates storage corruption and is never reported as absence.
	ErrPathInconsistency = errors.New("jmt: path inconsistency")

	ErrKeyPresent  = errors.New("jmt: key present")
	ErrKeyAbsent   = errors.New("jmt: key absent")
	ErrDecodeProof = errors.New("jmt: proof decode failed")
)
