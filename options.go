package jmt

import "runtime"

// DefaultKeyBits is the width of a 32 byte key digest.
const DefaultKeyBits = HashBytes * 8

type ProverOptions struct {
	KeyBits     int
	Search      NeighborSearch
	Concurrency int
	Metrics     *Metrics
}

type ProverOption func(*ProverOptions)

// WithKeyBits sets the key width the prover accepts.
func WithKeyBits(bits int) ProverOption {
	return func(o *ProverOptions) { o.KeyBits = bits }
}

func WithNeighborSearch(search NeighborSearch) ProverOption {
	return func(o *ProverOptions) { o.Search = search }
}

// WithConcurrency bounds the goroutines used by ProveMany. Values < 1 select
// GOMAXPROCS.
func WithConcurrency(n int) ProverOption {
	return func(o *ProverOptions) { o.Concurrency = n }
}

func WithMetrics(m *Metrics) ProverOption {
	return func(o *ProverOptions) { o.Metrics = m }
}

func newProverOptions(opts ...ProverOption) ProverOptions {
	o := ProverOptions{
		KeyBits: DefaultKeyBits,
		Search:  DescentSearch,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Concurrency < 1 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	return o
}
