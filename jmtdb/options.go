package jmtdb

// DefaultCacheSize is the number of decoded nodes kept in memory.
const DefaultCacheSize = 4096

type Options struct {
	CacheSize int
	// Sync makes every committed version durable before WriteBatch returns.
	Sync bool
}

type Option func(*Options)

func WithCacheSize(n int) Option {
	return func(o *Options) { o.CacheSize = n }
}

func WithSync(sync bool) Option {
	return func(o *Options) { o.Sync = sync }
}

func newOptions(opts ...Option) Options {
	o := Options{CacheSize: DefaultCacheSize, Sync: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.CacheSize < 1 {
		o.CacheSize = DefaultCacheSize
	}
	return o
}
