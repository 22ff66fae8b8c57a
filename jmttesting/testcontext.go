package jmttesting

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

type TestContext struct {
	Log     logger.Logger
	T       *testing.T
	Rand    *rand.Rand
	Hasher  *jmt.Hasher
	KeyBits int
}

type TestConfig struct {
	// We seed the RNG with Seed. It is normal to force it to some fixed value
	// so that the generated trees are the same from run to run.
	Seed            int64
	KeyBits         int    // defaults to 32
	TestLabelPrefix string // service name for the test logger
	LogLevel        string // defaults to NOOP
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	level := cfg.LogLevel
	if level == "" {
		level = "NOOP"
	}
	logger.New(level)

	keyBits := cfg.KeyBits
	if keyBits == 0 {
		keyBits = 32
	}
	return TestContext{
		Log:     logger.Sugar.WithServiceName(cfg.TestLabelPrefix),
		T:       t,
		Rand:    rand.New(rand.NewSource(cfg.Seed)),
		Hasher:  jmt.SHA256Hasher(),
		KeyBits: keyBits,
	}
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// Key parses a bit string, failing the test on a bad literal.
func (c *TestContext) Key(bits string) keybits.BitArray {
	k, err := keybits.Parse(bits)
	require.NoError(c.T, err)
	require.Equal(c.T, c.KeyBits, k.Len(), "key %s", bits)
	return k
}

// KeyFromUint takes the low KeyBits bits of v, MSB first.
func (c *TestContext) KeyFromUint(v uint64) keybits.BitArray {
	require.LessOrEqual(c.T, c.KeyBits, 64)
	var b [8]byte
	shifted := v << (64 - uint(c.KeyBits))
	for i := range b {
		b[i] = byte(shifted >> (56 - 8*uint(i)))
	}
	k, err := keybits.FromBytes(b[:], c.KeyBits)
	require.NoError(c.T, err)
	return k
}

// RandomKeys returns n distinct random keys.
func (c *TestContext) RandomKeys(n int) []keybits.BitArray {
	seen := make(map[string]bool, n)
	keys := make([]keybits.BitArray, 0, n)
	buf := make([]byte, (c.KeyBits+7)/8)
	for len(keys) < n {
		_, _ = c.Rand.Read(buf)
		k, err := keybits.FromBytes(buf, c.KeyBits)
		require.NoError(c.T, err)
		if seen[k.String()] {
			continue
		}
		seen[k.String()] = true
		keys = append(keys, k)
	}
	return keys
}

// Value returns a deterministic value hash for a label.
func (c *TestContext) Value(label string) jmt.Hash {
	return c.Hasher.HashValue([]byte(label))
}

// Updates assigns each key the value hash of "<prefix><index>".
func (c *TestContext) Updates(prefix string, keys []keybits.BitArray) []jmt.LeafUpdate {
	updates := make([]jmt.LeafUpdate, 0, len(keys))
	for i, k := range keys {
		updates = append(updates, jmt.LeafUpdate{Key: k, ValueHash: c.Value(fmt.Sprintf("%s%d", prefix, i))})
	}
	return updates
}

// NewCommitter returns a write path over store using the context's hasher.
func (c *TestContext) NewCommitter(store jmt.NodeStore) *jmt.Committer {
	return jmt.NewCommitter(c.Log, store, c.Hasher, c.KeyBits)
}

// NewProver returns a prover accepting the context's key width.
func (c *TestContext) NewProver(store jmt.NodeReader, opts ...jmt.ProverOption) *jmt.Prover {
	opts = append([]jmt.ProverOption{jmt.WithKeyBits(c.KeyBits)}, opts...)
	return jmt.NewProver(c.Log, store, opts...)
}

// Commit writes one version and fails the test on error.
func (c *TestContext) Commit(committer *jmt.Committer, updates []jmt.LeafUpdate) (jmt.Version, jmt.Hash) {
	v, root, err := committer.Commit(updates)
	require.NoError(c.T, err)
	return v, root
}
