package jmt

import (
	"errors"
	"fmt"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// InnerOp is one proof step. Hashing Prefix || childHash || Suffix gives the
// parent's hash.
type InnerOp struct {
	Prefix []byte
	Suffix []byte
}

// innerOpFor frames the sibling of the chosen branch so that the single
// formula H(prefix || child || suffix) reproduces
// H(InternalPrefix || left || right) from either side.
func innerOpFor(n *InternalNode, bit uint8) InnerOp {
	if bit == 0 {
		right := n.Right.HashOrZero()
		return InnerOp{
			Prefix: append([]byte(nil), InternalPrefix...),
			Suffix: right.Bytes(),
		}
	}
	left := n.Left.HashOrZero()
	prefix := make([]byte, 0, len(InternalPrefix)+HashBytes)
	prefix = append(prefix, InternalPrefix...)
	prefix = append(prefix, left[:]...)
	return InnerOp{Prefix: prefix}
}

// ExistencePath walks from the root along key's bits and returns the leaf
// holding key together with the proof steps ordered leaf to root.
//
// Absence of any kind (empty tree, missing node, missing child, a leaf with
// a different key, bits exhausted) is reported as ErrPathNotFound. Callers
// that already know the key is present must treat that as corruption.
func (s *Snapshot) ExistencePath(key keybits.BitArray) (*LeafNode, []InnerOp, error) {
	if s.root == nil {
		return nil, nil, fmt.Errorf("%w: empty tree at version %d", ErrPathNotFound, s.version)
	}

	var steps []InnerOp
	prefix := keybits.BitArray{}
	ref := *s.root
	for depth := 0; ; depth++ {
		nk := NodeKey{Prefix: prefix, Version: ref.Version}
		node, err := s.store.GetNode(nk)
		if errors.Is(err, ErrNodeNotFound) {
			return nil, nil, fmt.Errorf("%w: %w", ErrPathNotFound, err)
		}
		if err != nil {
			return nil, nil, err
		}

		switch n := node.(type) {
		case *LeafNode:
			// A leaf ends the branch whatever bits of key remain.
			if !n.Key.Equal(key) {
				return nil, nil, fmt.Errorf("%w: leaf at %s holds another key", ErrPathNotFound, nk)
			}
			reverseSteps(steps)
			return n, steps, nil

		case *InternalNode:
			if depth >= key.Len() {
				return nil, nil, fmt.Errorf("%w: key bits exhausted at %s", ErrPathNotFound, nk)
			}
			bit := key.Bit(depth)
			child := n.Child(bit)
			if child == nil {
				return nil, nil, fmt.Errorf("%w: no child %d at %s", ErrPathNotFound, bit, nk)
			}
			steps = append(steps, innerOpFor(n, bit))
			prefix = prefix.Append(bit)
			ref = *child

		default:
			return nil, nil, fmt.Errorf("%w: %T at %s", ErrInvalidNodeKind, node, nk)
		}
	}
}

func reverseSteps(steps []InnerOp) {
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
}
