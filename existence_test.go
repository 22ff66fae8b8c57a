package jmt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

type failingReader struct {
	jmt.NodeReader
	err error
}

func (r *failingReader) GetNode(jmt.NodeKey) (jmt.Node, error) { return nil, r.err }

func TestExistencePath(t *testing.T) {
	store, _, _, _ := shallowTree(t)
	snap, err := jmt.OpenSnapshot(store, 1)
	require.NoError(t, err)

	leaf, path, err := snap.ExistencePath(keybits.MustParse("1101"))
	require.NoError(t, err)
	assert.True(t, keybits.MustParse("1101").Equal(leaf.Key))
	require.Len(t, path, 2)
	// leaf to root: the deeper step comes first
	assert.Len(t, path[0].Prefix, 1+jmt.HashBytes)
	assert.Len(t, path[1].Prefix, 1+jmt.HashBytes)

	for _, key := range []string{"0000", "0111", "1001", "1111"} {
		_, _, err := snap.ExistencePath(keybits.MustParse(key))
		assert.ErrorIs(t, err, jmt.ErrPathNotFound, key)
	}
}

func TestExistencePathEmpty(t *testing.T) {
	store := jmt.NewMemStore()
	require.NoError(t, store.WriteBatch(&jmt.NodeBatch{Version: 1}))
	snap, err := jmt.OpenSnapshot(store, 1)
	require.NoError(t, err)
	assert.Equal(t, jmt.ZeroHash, snap.RootHash())

	_, _, err = snap.ExistencePath(keybits.MustParse("01"))
	assert.ErrorIs(t, err, jmt.ErrPathNotFound)
}

func TestExistencePathStorageError(t *testing.T) {
	store, _, _, _ := shallowTree(t)
	ioErr := errors.New("disk on fire")
	snap, err := jmt.OpenSnapshot(&failingReader{NodeReader: store, err: ioErr}, 1)
	require.NoError(t, err)

	_, _, err = snap.ExistencePath(keybits.MustParse("0010"))
	assert.ErrorIs(t, err, ioErr)
	assert.False(t, errors.Is(err, jmt.ErrPathNotFound))

	missing := &failingReader{NodeReader: store, err: jmt.ErrNodeNotFound}
	snap, err = jmt.OpenSnapshot(missing, 1)
	require.NoError(t, err)
	_, _, err = snap.ExistencePath(keybits.MustParse("0010"))
	assert.ErrorIs(t, err, jmt.ErrPathNotFound)
	assert.ErrorIs(t, err, jmt.ErrNodeNotFound)
}

func TestSnapshotLeaves(t *testing.T) {
	store, _, _, _ := shallowTree(t)
	snap, err := jmt.OpenSnapshot(store, 1)
	require.NoError(t, err)

	var got []string
	require.NoError(t, snap.Leaves(func(l *jmt.LeafNode) bool {
		got = append(got, l.Key.String())
		return len(got) < 2
	}))
	assert.Equal(t, []string{"0010", "1000"}, got)

	n, err := snap.LeafCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ok, err := snap.Contains(keybits.MustParse("1000"))
	require.NoError(t, err)
	assert.True(t, ok)
}
