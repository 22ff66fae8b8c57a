package jmt

import (
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

func TestProverMetrics(t *testing.T) {
	logger.New("NOOP")
	log := logger.Sugar.WithServiceName("metrics")

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	store := NewMemStore()
	h := SHA256Hasher()
	present := keybits.MustParse("0110")
	_, _, err = NewCommitter(log, store, h, 4).Commit([]LeafUpdate{
		{Key: present, ValueHash: h.HashValue([]byte("p"))},
	})
	require.NoError(t, err)

	p := NewProver(log, store, WithKeyBits(4), WithMetrics(m))
	_, err = p.Prove(1, present)
	require.NoError(t, err)
	_, err = p.Prove(1, keybits.MustParse("1111"))
	require.NoError(t, err)
	_, err = p.Prove(1, keybits.MustParse("0000"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.proofs.WithLabelValues(proofKindExist)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.proofs.WithLabelValues(proofKindNonExist)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inconsistency))
	// the present key once, then as a neighbour twice
	assert.Equal(t, uint64(3), histogramCount(t, reg, "jmt_existence_path_length"))

	// hide the leaf from the index
	bad := NewProver(log, &hiddenIndex{NodeReader: store}, WithKeyBits(4), WithMetrics(m))
	_, err = bad.Prove(1, present)
	require.ErrorIs(t, err, ErrPathInconsistency)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inconsistency))

	// registering twice fails
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func histogramCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

type hiddenIndex struct {
	NodeReader
}

func (*hiddenIndex) GetLeafValue(keybits.BitArray, Version) (Hash, bool, error) {
	return ZeroHash, false, nil
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observeProof(proofKindExist)
	m.observePath(3)
	m.observeInconsistency()
}
