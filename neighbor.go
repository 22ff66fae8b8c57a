package jmt

import (
	"fmt"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// NeighborSearch selects how a prover finds the leaves bracketing an absent
// key. Both strategies return the same leaf for every input.
type NeighborSearch int

const (
	// DescentSearch follows the key's bits and touches O(depth) nodes.
	DescentSearch NeighborSearch = iota
	// ScanSearch visits every leaf in the snapshot.
	ScanSearch
)

func (ns NeighborSearch) String() string {
	switch ns {
	case DescentSearch:
		return "descent"
	case ScanSearch:
		return "scan"
	}
	return fmt.Sprintf("NeighborSearch(%d)", int(ns))
}

// LeftNeighbor returns the leaf with the greatest key strictly less than
// key, or nil if there is none.
func (s *Snapshot) LeftNeighbor(key keybits.BitArray) (*LeafNode, error) {
	return s.descendNeighbor(key, true)
}

// RightNeighbor returns the leaf with the least key strictly greater than
// key, or nil if there is none.
func (s *Snapshot) RightNeighbor(key keybits.BitArray) (*LeafNode, error) {
	return s.descendNeighbor(key, false)
}

// ScanLeftNeighbor is LeftNeighbor computed by visiting every leaf.
func (s *Snapshot) ScanLeftNeighbor(key keybits.BitArray) (*LeafNode, error) {
	var best *LeafNode
	err := s.Leaves(func(l *LeafNode) bool {
		if l.Key.Less(key) && (best == nil || best.Key.Less(l.Key)) {
			best = l
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

// ScanRightNeighbor is RightNeighbor computed by visiting every leaf.
func (s *Snapshot) ScanRightNeighbor(key keybits.BitArray) (*LeafNode, error) {
	var best *LeafNode
	err := s.Leaves(func(l *LeafNode) bool {
		if key.Less(l.Key) && (best == nil || l.Key.Less(best.Key)) {
			best = l
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

// Neighbor dispatches to the requested strategy.
func (s *Snapshot) Neighbor(key keybits.BitArray, left bool, search NeighborSearch) (*LeafNode, error) {
	switch search {
	case ScanSearch:
		if left {
			return s.ScanLeftNeighbor(key)
		}
		return s.ScanRightNeighbor(key)
	case DescentSearch:
		return s.descendNeighbor(key, left)
	}
	return nil, fmt.Errorf("jmt: unknown neighbor search %v", search)
}

type subtree struct {
	prefix keybits.BitArray
	ref    ChildRef
}

// descendNeighbor follows key from the root. Every time key turns away from
// a sibling that lies wholly on the wanted side, that sibling becomes the
// candidate; the deepest candidate is the closest. If the walk ends on a leaf
// already on the wanted side, that leaf is closer still.
func (s *Snapshot) descendNeighbor(key keybits.BitArray, left bool) (*LeafNode, error) {
	if s.root == nil {
		return nil, nil
	}

	var best *subtree
	prefix := keybits.BitArray{}
	ref := *s.root
walk:
	for depth := 0; ; depth++ {
		node, err := s.Node(prefix, ref)
		if err != nil {
			return nil, err
		}
		switch n := node.(type) {
		case *LeafNode:
			c := n.Key.Compare(key)
			if (left && c < 0) || (!left && c > 0) {
				return n, nil
			}
			break walk

		case *InternalNode:
			if depth >= key.Len() {
				break walk
			}
			bit := key.Bit(depth)
			if left && bit == 1 && n.Left != nil {
				best = &subtree{prefix: prefix.Append(0), ref: *n.Left}
			}
			if !left && bit == 0 && n.Right != nil {
				best = &subtree{prefix: prefix.Append(1), ref: *n.Right}
			}
			child := n.Child(bit)
			if child == nil {
				break walk
			}
			prefix = prefix.Append(bit)
			ref = *child

		default:
			return nil, fmt.Errorf("%w: %T at %s", ErrInvalidNodeKind, node, NodeKey{Prefix: prefix, Version: ref.Version})
		}
	}

	if best == nil {
		return nil, nil
	}
	// the greatest leaf of a left candidate, the least of a right one
	return s.extremeLeaf(best.prefix, best.ref, left)
}

func (s *Snapshot) extremeLeaf(prefix keybits.BitArray, ref ChildRef, greatest bool) (*LeafNode, error) {
	for {
		node, err := s.Node(prefix, ref)
		if err != nil {
			return nil, err
		}
		switch n := node.(type) {
		case *LeafNode:
			return n, nil
		case *InternalNode:
			first, second := n.Left, n.Right
			firstBit, secondBit := uint8(0), uint8(1)
			if greatest {
				first, second = second, first
				firstBit, secondBit = secondBit, firstBit
			}
			switch {
			case first != nil:
				prefix, ref = prefix.Append(firstBit), *first
			case second != nil:
				prefix, ref = prefix.Append(secondBit), *second
			default:
				return nil, fmt.Errorf("%w: %s", ErrEmptyInternal, NodeKey{Prefix: prefix, Version: ref.Version})
			}
		default:
			return nil, fmt.Errorf("%w: %T at %s", ErrInvalidNodeKind, node, NodeKey{Prefix: prefix, Version: ref.Version})
		}
	}
}
