package jmt

import (
	"fmt"
	"sort"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// LeafUpdate sets the value hash stored for Key.
type LeafUpdate struct {
	Key       keybits.BitArray
	ValueHash Hash
}

// Committer is the write path: it appends one version per Commit. Leaves are
// placed at full key depth; every internal node on a touched path is
// rewritten at the new version and untouched subtrees are shared with
// earlier versions through their ChildRef.
//
// A Committer assumes it is the only writer of its store.
type Committer struct {
	log     logger.Logger
	store   NodeStore
	hasher  *Hasher
	keyBits int
}

func NewCommitter(log logger.Logger, store NodeStore, hasher *Hasher, keyBits int) *Committer {
	return &Committer{
		log:     log,
		store:   store,
		hasher:  hasher,
		keyBits: keyBits,
	}
}

// Commit writes updates as the next version and returns it with its root
// hash. When a key is updated more than once the last update wins. An empty
// update set still commits a version sharing the previous root.
func (c *Committer) Commit(updates []LeafUpdate) (Version, Hash, error) {
	for _, u := range updates {
		if u.Key.Len() != c.keyBits {
			return 0, ZeroHash, fmt.Errorf("%w: want %d bits, got %d", ErrKeyLength, c.keyBits, u.Key.Len())
		}
	}
	sorted := dedupeUpdates(updates)

	version := FirstVersion
	var base *ChildRef
	if latest, ok := c.store.LatestVersion(); ok {
		version = latest + 1
		var err error
		if base, err = c.store.GetRoot(latest); err != nil {
			return 0, ZeroHash, err
		}
	}

	batch := &NodeBatch{Version: version}
	root, err := c.write(batch, keybits.BitArray{}, base, sorted, 0)
	if err != nil {
		return 0, ZeroHash, err
	}
	batch.Root = root
	for _, u := range sorted {
		batch.Leaves = append(batch.Leaves, LeafEntry{Key: u.Key, ValueHash: u.ValueHash})
	}
	if err := c.store.WriteBatch(batch); err != nil {
		return 0, ZeroHash, err
	}

	c.log.Debugf("commit: version=%d updates=%d nodes=%d root=%s", version, len(sorted), len(batch.Nodes), root.HashOrZero())
	return version, root.HashOrZero(), nil
}

// dedupeUpdates sorts by key keeping only the last update for each key.
func dedupeUpdates(updates []LeafUpdate) []LeafUpdate {
	sorted := make([]LeafUpdate, len(updates))
	copy(sorted, updates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key.Less(sorted[j].Key) })

	out := sorted[:0]
	for _, u := range sorted {
		if n := len(out); n > 0 && out[n-1].Key.Equal(u.Key) {
			out[n-1] = u
			continue
		}
		out = append(out, u)
	}
	return out
}

func (c *Committer) write(b *NodeBatch, prefix keybits.BitArray, base *ChildRef, updates []LeafUpdate, depth int) (*ChildRef, error) {
	if len(updates) == 0 {
		return base, nil
	}

	nk := NodeKey{Prefix: prefix, Version: b.Version}
	if depth == c.keyBits {
		u := updates[0]
		b.Nodes = append(b.Nodes, NodeEntry{Key: nk, Node: &LeafNode{Key: u.Key, ValueHash: u.ValueHash}})
		return &ChildRef{Version: b.Version, Hash: c.hasher.HashLeaf(u.Key, u.ValueHash)}, nil
	}

	var left, right *ChildRef
	if base != nil {
		node, err := c.store.GetNode(NodeKey{Prefix: prefix, Version: base.Version})
		if err != nil {
			return nil, err
		}
		n, ok := node.(*InternalNode)
		if !ok {
			return nil, fmt.Errorf("%w: %T above full key depth at %s", ErrInvalidNodeKind, node, nk)
		}
		left, right = n.Left, n.Right
	}

	split := sort.Search(len(updates), func(i int) bool { return updates[i].Key.Bit(depth) == 1 })
	var err error
	if left, err = c.write(b, prefix.Append(0), left, updates[:split], depth+1); err != nil {
		return nil, err
	}
	if right, err = c.write(b, prefix.Append(1), right, updates[split:], depth+1); err != nil {
		return nil, err
	}

	b.Nodes = append(b.Nodes, NodeEntry{Key: nk, Node: &InternalNode{Left: left, Right: right}})
	return &ChildRef{
		Version: b.Version,
		Hash:    c.hasher.HashInternal(left.HashOrZero(), right.HashOrZero()),
	}, nil
}
