package jmt_test

import (
	"testing"

	ics23 "github.com/confio/ics23/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/jmttesting"
)

func TestCodecRoundTrip(t *testing.T) {
	tc := jmttesting.NewTestContext(t, jmttesting.TestConfig{Seed: 13, TestLabelPrefix: "codec"})
	store := jmt.NewMemStore()
	keys := tc.RandomKeys(60)
	v, _ := tc.Commit(tc.NewCommitter(store), tc.Updates("c", keys[:40]))
	p := tc.NewProver(store)
	codec := jmt.NewCodec(tc.Hasher, tc.KeyBits)

	for _, key := range keys {
		cp, err := p.Prove(v, key)
		require.NoError(t, err)
		data, err := codec.Marshal(cp)
		require.NoError(t, err)

		decoded, err := codec.Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, cp, decoded)

		again, err := codec.Marshal(decoded)
		require.NoError(t, err)
		assert.Equal(t, data, again)
	}
}

func TestCodecProofSpec(t *testing.T) {
	spec := jmt.ProofSpec(jmt.SHA256Hasher(), 32)
	assert.Equal(t, ics23.HashOp_SHA256, spec.LeafSpec.Hash)
	assert.Equal(t, []byte{0x00}, spec.LeafSpec.Prefix)
	assert.Equal(t, ics23.LengthOp_NO_PREFIX, spec.LeafSpec.Length)
	assert.Equal(t, []int32{0, 1}, spec.InnerSpec.ChildOrder)
	assert.Equal(t, int32(32), spec.InnerSpec.ChildSize)
	assert.Equal(t, make([]byte, 32), spec.InnerSpec.EmptyChild)
	assert.Equal(t, int32(32), spec.MaxDepth)
}

func TestCodecICS23Verify(t *testing.T) {
	tc, store, root := twoLeafTree(t)
	p := tc.NewProver(store)
	codec := jmt.NewCodec(tc.Hasher, tc.KeyBits)
	spec := jmt.ProofSpec(tc.Hasher, tc.KeyBits)

	zeros := tc.Key(bits("", '0', 32))
	cp, err := p.Prove(1, zeros)
	require.NoError(t, err)
	pb, err := codec.ToICS23(cp)
	require.NoError(t, err)
	value := tc.Value("a")
	assert.True(t, ics23.VerifyMembership(spec, root[:], pb, zeros.Bytes(), value[:]))

	absent := tc.Key(bits("1", '0', 32))
	cp, err = p.Prove(1, absent)
	require.NoError(t, err)
	pb, err = codec.ToICS23(cp)
	require.NoError(t, err)
	assert.True(t, ics23.VerifyNonMembership(spec, root[:], pb, absent.Bytes()))

	// a proof for another root must not verify
	other := tc.Value("other root")
	assert.False(t, ics23.VerifyNonMembership(spec, other[:], pb, absent.Bytes()))
}

func TestCodecICS23VerifyMembershipRandom(t *testing.T) {
	tc := jmttesting.NewTestContext(t, jmttesting.TestConfig{Seed: 21})
	store := jmt.NewMemStore()
	keys := tc.RandomKeys(50)
	v, root := tc.Commit(tc.NewCommitter(store), tc.Updates("r", keys))
	codec := jmt.NewCodec(tc.Hasher, tc.KeyBits)
	spec := jmt.ProofSpec(tc.Hasher, tc.KeyBits)
	p := tc.NewProver(store)

	for i, key := range keys {
		cp, err := p.Prove(v, key)
		require.NoError(t, err)
		pb, err := codec.ToICS23(cp)
		require.NoError(t, err)
		value := tc.Updates("r", keys)[i].ValueHash
		assert.True(t, ics23.VerifyMembership(spec, root[:], pb, key.Bytes(), value[:]), "key %s", key)
	}
}

func TestCodecDecodeErrors(t *testing.T) {
	tc, store, _ := twoLeafTree(t)
	codec := jmt.NewCodec(tc.Hasher, tc.KeyBits)
	cp, err := tc.NewProver(store).Prove(1, tc.Key(bits("", '0', 32)))
	require.NoError(t, err)
	good, err := codec.ToICS23(cp)
	require.NoError(t, err)

	_, err = codec.Unmarshal([]byte{0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, jmt.ErrDecodeProof)

	_, err = codec.FromICS23(&ics23.CommitmentProof{})
	assert.ErrorIs(t, err, jmt.ErrDecodeProof)

	// the wire format does not carry key width, so a mismatch is detected
	// from the byte length
	_, err = jmt.NewCodec(tc.Hasher, 256).FromICS23(good)
	assert.ErrorIs(t, err, jmt.ErrDecodeProof)

	_, err = jmt.NewCodec(jmt.Keccak256Hasher(), tc.KeyBits).FromICS23(good)
	assert.ErrorIs(t, err, jmt.ErrDecodeProof)

	badValue := *good.GetExist()
	badValue.Value = []byte{1, 2, 3}
	_, err = codec.FromICS23(&ics23.CommitmentProof{Proof: &ics23.CommitmentProof_Exist{Exist: &badValue}})
	assert.ErrorIs(t, err, jmt.ErrDecodeProof)
}
