package jmt

import (
	"errors"
	"fmt"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// Snapshot is the read-only view of a tree as of one version.
type Snapshot struct {
	store   NodeReader
	version Version
	root    *ChildRef
}

// OpenSnapshot resolves the root recorded for version.
func OpenSnapshot(store NodeReader, version Version) (*Snapshot, error) {
	root, err := store.GetRoot(version)
	if err != nil {
		return nil, err
	}
	return &Snapshot{store: store, version: version, root: root}, nil
}

func (s *Snapshot) Version() Version { return s.version }

// Root returns the root reference, nil for an empty tree.
func (s *Snapshot) Root() *ChildRef { return s.root }

// RootHash is ZeroHash for an empty tree.
func (s *Snapshot) RootHash() Hash { return s.root.HashOrZero() }

func (s *Snapshot) IsEmpty() bool { return s.root == nil }

// Node resolves the node a child reference points at. A reference that
// cannot be resolved is storage corruption, reported as ErrNodeNotFound.
func (s *Snapshot) Node(prefix keybits.BitArray, ref ChildRef) (Node, error) {
	return s.store.GetNode(NodeKey{Prefix: prefix, Version: ref.Version})
}

// LeafValue consults the leaf index for key.
func (s *Snapshot) LeafValue(key keybits.BitArray) (Hash, bool, error) {
	return s.store.GetLeafValue(key, s.version)
}

func (s *Snapshot) Contains(key keybits.BitArray) (bool, error) {
	_, ok, err := s.LeafValue(key)
	return ok, err
}

// errStopWalk ends a leaf walk early without reporting an error.
var errStopWalk = errors.New("stop")

// Leaves calls fn for every reachable leaf in ascending key order until fn
// returns false.
func (s *Snapshot) Leaves(fn func(leaf *LeafNode) bool) error {
	if s.root == nil {
		return nil
	}
	err := s.walk(keybits.BitArray{}, *s.root, fn)
	if errors.Is(err, errStopWalk) {
		return nil
	}
	return err
}

func (s *Snapshot) walk(prefix keybits.BitArray, ref ChildRef, fn func(*LeafNode) bool) error {
	node, err := s.Node(prefix, ref)
	if err != nil {
		return err
	}
	switch n := node.(type) {
	case *LeafNode:
		if !fn(n) {
			return errStopWalk
		}
		return nil
	case *InternalNode:
		if n.Left != nil {
			if err := s.walk(prefix.Append(0), *n.Left, fn); err != nil {
				return err
			}
		}
		if n.Right != nil {
			return s.walk(prefix.Append(1), *n.Right, fn)
		}
		return nil
	default:
		return fmt.Errorf("%w: %T at %s", ErrInvalidNodeKind, node, NodeKey{Prefix: prefix, Version: ref.Version})
	}
}

// LeafCount walks the snapshot and counts its leaves.
func (s *Snapshot) LeafCount() (int, error) {
	count := 0
	err := s.Leaves(func(*LeafNode) bool {
		count++
		return true
	})
	return count, err
}
