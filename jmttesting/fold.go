package jmttesting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// FoldExistence recomputes the root an existence proof commits to.
func FoldExistence(h *jmt.Hasher, p *jmt.ExistenceProof) jmt.Hash {
	cur := h.HashLeaf(p.Key, p.Value)
	for _, op := range p.Path {
		cur = h.ApplyInner(op, cur)
	}
	return cur
}

// RequireExistence checks an existence proof against the expected leaf and
// root.
func RequireExistence(t *testing.T, h *jmt.Hasher, root jmt.Hash, key keybits.BitArray, value jmt.Hash, p *jmt.ExistenceProof) {
	t.Helper()
	require.NotNil(t, p)
	require.True(t, key.Equal(p.Key), "key: want %s, got %s", key, p.Key)
	require.Equal(t, value, p.Value)
	require.Equal(t, jmt.LeafPrefix, p.LeafMarker)
	require.Equal(t, root, FoldExistence(h, p))
}

// SortedLeaves lists every leaf of a snapshot in key order.
func SortedLeaves(t *testing.T, snap *jmt.Snapshot) []*jmt.LeafNode {
	t.Helper()
	var leaves []*jmt.LeafNode
	require.NoError(t, snap.Leaves(func(l *jmt.LeafNode) bool {
		leaves = append(leaves, l)
		return true
	}))
	return leaves
}
