package jmt

import (
	"fmt"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// NodeReader is the read side of a versioned node store. Implementations
// must give snapshot isolation: once GetRoot(v) succeeds, everything
// reachable from that root is present and never changes.
type NodeReader interface {
	// GetNode returns ErrNodeNotFound if nothing is stored at key.
	GetNode(key NodeKey) (Node, error)

	// GetRoot returns the root recorded for version, or nil for a version
	// whose tree is empty. Versions never committed give ErrVersionNotFound.
	GetRoot(version Version) (*ChildRef, error)

	// GetLeafValue looks key up in the leaf index: the value hash written
	// for key by the latest version <= version. The index is maintained by
	// the write path alongside the nodes and is independent of them.
	GetLeafValue(key keybits.BitArray, version Version) (Hash, bool, error)

	LatestVersion() (Version, bool)
}

// NodeWriter appends whole versions.
type NodeWriter interface {
	WriteBatch(b *NodeBatch) error
}

type NodeStore interface {
	NodeReader
	NodeWriter
}

// NodeEntry is a node to be written at NodeEntry.Key.
type NodeEntry struct {
	Key  NodeKey
	Node Node
}

// LeafEntry is a leaf index record written with a version.
type LeafEntry struct {
	Key       keybits.BitArray
	ValueHash Hash
}

// NodeBatch carries everything introduced by one version. Stores apply a
// batch atomically.
type NodeBatch struct {
	Version Version
	Root    *ChildRef
	Nodes   []NodeEntry
	Leaves  []LeafEntry
}

// CheckBatch applies the append-only rules common to all stores, given the
// store's current latest version (ok false for an empty store).
func CheckBatch(b *NodeBatch, latest Version, ok bool) error {
	if b == nil {
		return ErrBatchInvalid
	}
	want := FirstVersion
	if ok {
		want = latest + 1
	}
	if b.Version < want {
		return fmt.Errorf("%w: %d", ErrVersionExists, b.Version)
	}
	if b.Version > want {
		return fmt.Errorf("%w: want %d, got %d", ErrVersionGap, want, b.Version)
	}
	if b.Root != nil && b.Root.Version > b.Version {
		return fmt.Errorf("%w: root refers to future version %d", ErrBatchInvalid, b.Root.Version)
	}
	for _, e := range b.Nodes {
		if e.Key.Version != b.Version {
			return fmt.Errorf("%w: node %s written in version %d", ErrBatchInvalid, e.Key, b.Version)
		}
		switch e.Node.(type) {
		case *LeafNode, *InternalNode:
		default:
			return fmt.Errorf("%w: %T", ErrInvalidNodeKind, e.Node)
		}
	}
	return nil
}
