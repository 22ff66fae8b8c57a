package jmt

import (
	"fmt"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// ChildRef points at a child by the version that last wrote it. The child
// lives at (parentPrefix + bit, Version) in the node store; a parent written
// at version v may reference children written at any version <= v.
type ChildRef struct {
	Version Version
	Hash    Hash
}

// HashOrZero returns ZeroHash for an absent child.
func (r *ChildRef) HashOrZero() Hash {
	if r == nil {
		return ZeroHash
	}
	return r.Hash
}

// NodeKey addresses a node in the store.
type NodeKey struct {
	Prefix  keybits.BitArray
	Version Version
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%q@%d", k.Prefix.String(), k.Version)
}

// Node is either a *LeafNode or an *InternalNode.
type Node interface {
	isNode()
}

// LeafNode terminates a branch.
type LeafNode struct {
	Key       keybits.BitArray
	ValueHash Hash
}

// InternalNode is a binary fork. Either child may be absent.
type InternalNode struct {
	Left  *ChildRef
	Right *ChildRef
}

func (*LeafNode) isNode()     {}
func (*InternalNode) isNode() {}

// Child returns the left child for bit 0 and the right child for bit 1.
func (n *InternalNode) Child(bit uint8) *ChildRef {
	if bit == 0 {
		return n.Left
	}
	return n.Right
}
