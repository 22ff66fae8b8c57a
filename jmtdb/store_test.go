package jmtdb_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/jmtdb"
	"github.com/forestrie/go-merklelog/jmt/jmttesting"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

func TestStoreMatchesMemStore(t *testing.T) {
	tc := jmttesting.NewTestContext(t, jmttesting.TestConfig{Seed: 17, TestLabelPrefix: "jmtdb"})
	db, err := jmtdb.OpenMem(tc.Log, jmtdb.WithCacheSize(16))
	require.NoError(t, err)
	defer db.Close()
	mem := jmt.NewMemStore()

	keys := tc.RandomKeys(120)
	rounds := [][]keybits.BitArray{keys[:50], keys[30:80], nil, keys[70:100]}
	dbCommitter, memCommitter := tc.NewCommitter(db), tc.NewCommitter(mem)
	for i, round := range rounds {
		updates := tc.Updates(fmt.Sprintf("r%d-", i), round)
		v1, r1 := tc.Commit(dbCommitter, updates)
		v2, r2 := tc.Commit(memCommitter, updates)
		require.Equal(t, v2, v1)
		require.Equal(t, r2, r1)
	}

	codec := jmt.NewCodec(tc.Hasher, tc.KeyBits)
	dbProver, memProver := tc.NewProver(db), tc.NewProver(mem)
	for v := jmt.FirstVersion; v <= jmt.Version(len(rounds)); v++ {
		for _, key := range keys {
			a, err := dbProver.Prove(v, key)
			require.NoError(t, err)
			b, err := memProver.Prove(v, key)
			require.NoError(t, err)
			ab, err := codec.Marshal(a)
			require.NoError(t, err)
			bb, err := codec.Marshal(b)
			require.NoError(t, err)
			assert.Equal(t, bb, ab, "version %d key %s", v, key)
		}
	}
}

func TestStoreReopen(t *testing.T) {
	tc := jmttesting.NewTestContext(t, jmttesting.TestConfig{Seed: 19})
	dir := t.TempDir()

	db, err := jmtdb.Open(tc.Log, dir)
	require.NoError(t, err)
	_, ok := db.LatestVersion()
	assert.False(t, ok)

	keys := tc.RandomKeys(20)
	tc.Commit(tc.NewCommitter(db), tc.Updates("p", keys[:10]))
	v, root := tc.Commit(tc.NewCommitter(db), tc.Updates("q", keys[10:]))
	require.NoError(t, db.Close())

	db, err = jmtdb.Open(tc.Log, dir, jmtdb.WithSync(false))
	require.NoError(t, err)
	defer db.Close()
	assert.False(t, db.Options().Sync)

	latest, ok := db.LatestVersion()
	require.True(t, ok)
	assert.Equal(t, v, latest)

	ep, err := tc.NewProver(db).ProveExistence(v, keys[3])
	require.NoError(t, err)
	jmttesting.RequireExistence(t, tc.Hasher, root, keys[3], tc.Value("p3"), ep)

	// the next commit continues the sequence
	v3, _ := tc.Commit(tc.NewCommitter(db), nil)
	assert.Equal(t, v+1, v3)
}

func TestStoreWriteBatchRules(t *testing.T) {
	tc := jmttesting.NewTestContext(t, jmttesting.TestConfig{})
	db, err := jmtdb.OpenMem(tc.Log)
	require.NoError(t, err)
	defer db.Close()

	require.ErrorIs(t, db.WriteBatch(&jmt.NodeBatch{Version: 2}), jmt.ErrVersionGap)
	require.NoError(t, db.WriteBatch(&jmt.NodeBatch{Version: 1}))
	require.ErrorIs(t, db.WriteBatch(&jmt.NodeBatch{Version: 1}), jmt.ErrVersionExists)

	dup := &jmt.NodeBatch{
		Version: 2,
		Nodes: []jmt.NodeEntry{
			{Key: jmt.NodeKey{Version: 2}, Node: &jmt.InternalNode{}},
			{Key: jmt.NodeKey{Version: 2}, Node: &jmt.InternalNode{}},
		},
	}
	require.ErrorIs(t, db.WriteBatch(dup), jmt.ErrNodeExists)
	_, err = db.GetRoot(2)
	assert.ErrorIs(t, err, jmt.ErrVersionNotFound)

	root, err := db.GetRoot(1)
	require.NoError(t, err)
	assert.Nil(t, root)

	_, err = db.GetNode(jmt.NodeKey{Version: 1})
	assert.ErrorIs(t, err, jmt.ErrNodeNotFound)
}

func TestStoreLeafIndex(t *testing.T) {
	tc := jmttesting.NewTestContext(t, jmttesting.TestConfig{KeyBits: 8})
	db, err := jmtdb.OpenMem(tc.Log)
	require.NoError(t, err)
	defer db.Close()

	key := tc.Key("01100110")
	neighbour := tc.Key("01100111")
	committer := tc.NewCommitter(db)
	tc.Commit(committer, []jmt.LeafUpdate{{Key: neighbour, ValueHash: tc.Value("n")}})
	tc.Commit(committer, []jmt.LeafUpdate{{Key: key, ValueHash: tc.Value("a")}})
	tc.Commit(committer, nil)
	tc.Commit(committer, []jmt.LeafUpdate{{Key: key, ValueHash: tc.Value("b")}})

	tests := []struct {
		version jmt.Version
		present bool
		want    string
	}{
		{version: 1},
		{version: 2, present: true, want: "a"},
		{version: 3, present: true, want: "a"},
		{version: 4, present: true, want: "b"},
		{version: 1 << 40, present: true, want: "b"},
		{version: ^jmt.Version(0), present: true, want: "b"},
	}
	for _, tt := range tests {
		got, present, err := db.GetLeafValue(key, tt.version)
		require.NoError(t, err)
		require.Equal(t, tt.present, present, "version %d", tt.version)
		if tt.present {
			assert.Equal(t, tc.Value(tt.want), got, "version %d", tt.version)
		}
	}

	// a different key width is a different key
	_, present, err := db.GetLeafValue(keybits.MustParse("0110011"), 4)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestConcurrentCommitIsolation(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T, tc jmttesting.TestContext) (jmt.NodeStore, func())
	}{
		{
			name: "memstore",
			store: func(*testing.T, jmttesting.TestContext) (jmt.NodeStore, func()) {
				return jmt.NewMemStore(), func() {}
			},
		},
		{
			name: "leveldb",
			store: func(t *testing.T, tc jmttesting.TestContext) (jmt.NodeStore, func()) {
				db, err := jmtdb.OpenMem(tc.Log, jmtdb.WithSync(false))
				require.NoError(t, err)
				return db, func() { _ = db.Close() }
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := jmttesting.NewTestContext(t, jmttesting.TestConfig{Seed: 23, TestLabelPrefix: "isolation"})
			store, closeStore := tt.store(t, tc)
			defer closeStore()

			keys := tc.RandomKeys(350)
			committer := tc.NewCommitter(store)
			v1, root1 := tc.Commit(committer, tc.Updates("base-", keys[:100]))

			codec := jmt.NewCodec(tc.Hasher, tc.KeyBits)
			prover := tc.NewProver(store)
			proved := keys[:200]
			want := make([][]byte, len(proved))
			for i, key := range proved {
				cp, err := prover.Prove(v1, key)
				require.NoError(t, err)
				want[i], err = codec.Marshal(cp)
				require.NoError(t, err)
			}

			// later versions overwrite proved keys and add new ones
			var rounds [][]jmt.LeafUpdate
			for i := 0; i < 15; i++ {
				round := append([]keybits.BitArray{}, keys[i*10:i*10+5]...)
				round = append(round, keys[200+i*10:200+i*10+5]...)
				rounds = append(rounds, tc.Updates(fmt.Sprintf("round%d-", i), round))
			}

			done := make(chan error, 1)
			go func() {
				for _, updates := range rounds {
					if _, _, err := committer.Commit(updates); err != nil {
						done <- err
						return
					}
				}
				done <- nil
			}()

			for pass := 0; pass < 3; pass++ {
				snap, err := jmt.OpenSnapshot(store, v1)
				require.NoError(t, err)
				require.Equal(t, root1, snap.RootHash())
				for i, key := range proved {
					cp, err := prover.Prove(v1, key)
					require.NoError(t, err)
					got, err := codec.Marshal(cp)
					require.NoError(t, err)
					require.Equal(t, want[i], got, "pass %d key %d", pass, i)
				}
			}
			require.NoError(t, <-done)

			latest, ok := store.LatestVersion()
			require.True(t, ok)
			assert.Equal(t, v1+jmt.Version(len(rounds)), latest)
		})
	}
}
