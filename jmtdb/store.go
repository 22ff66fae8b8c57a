// Package jmtdb stores versioned tree nodes in leveldb.
package jmtdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// Store is a jmt.NodeStore kept in leveldb. Every version is written by a
// single leveldb batch, so readers never observe part of a version. Nodes
// are immutable once written, which lets decoded nodes be cached without
// invalidation.
type Store struct {
	log   logger.Logger
	db    *leveldb.DB
	opts  Options
	codec recordCodec
	nodes *lru.Cache[string, jmt.Node]

	mu        sync.RWMutex
	latest    jmt.Version
	committed bool
}

var _ jmt.NodeStore = (*Store)(nil)

// Open opens or creates a store in the directory at path.
func Open(log logger.Logger, path string, opts ...Option) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("jmtdb: open %s: %w", path, err)
	}
	s, err := newStore(log, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debugf("opened %s: latest=%d committed=%t", path, s.latest, s.committed)
	return s, nil
}

// OpenMem opens a store backed by memory only.
func OpenMem(log logger.Logger, opts ...Option) (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return newStore(log, db, opts...)
}

func newStore(log logger.Logger, db *leveldb.DB, opts ...Option) (*Store, error) {
	o := newOptions(opts...)
	codec, err := newRecordCodec()
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, jmt.Node](o.CacheSize)
	if err != nil {
		return nil, err
	}
	s := &Store{log: log, db: db, opts: o, codec: codec, nodes: cache}

	v, err := db.Get(latestKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
	case err != nil:
		return nil, err
	case len(v) != 8:
		return nil, fmt.Errorf("%w: latest version record is %d bytes", ErrRecordDecode, len(v))
	default:
		s.latest = jmt.Version(binary.BigEndian.Uint64(v))
		s.committed = true
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Options() Options { return s.opts }

func (s *Store) GetNode(key jmt.NodeKey) (jmt.Node, error) {
	k := nodeKey(key)
	if n, ok := s.nodes.Get(string(k)); ok {
		return n, nil
	}
	data, err := s.db.Get(k, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", jmt.ErrNodeNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	n, err := s.codec.decodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", key, err)
	}
	s.nodes.Add(string(k), n)
	return n, nil
}

func (s *Store) GetRoot(version jmt.Version) (*jmt.ChildRef, error) {
	data, err := s.db.Get(rootKey(version), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", jmt.ErrVersionNotFound, version)
	}
	if err != nil {
		return nil, err
	}
	return s.codec.decodeRoot(data)
}

// GetLeafValue takes the last index entry for key within [0, version].
func (s *Store) GetLeafValue(key keybits.BitArray, version jmt.Version) (jmt.Hash, bool, error) {
	it := s.db.NewIterator(leafRange(key, version), nil)
	defer it.Release()
	if !it.Last() {
		return jmt.ZeroHash, false, it.Error()
	}
	h, err := jmt.HashFromBytes(it.Value())
	if err != nil {
		return jmt.ZeroHash, false, fmt.Errorf("%w: leaf index %s: %w", ErrRecordDecode, key, err)
	}
	return h, true, nil
}

func (s *Store) LatestVersion() (jmt.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.committed
}

// WriteBatch commits one version atomically.
func (s *Store) WriteBatch(b *jmt.NodeBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := jmt.CheckBatch(b, s.latest, s.committed); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	seen := make(map[string]bool, len(b.Nodes))
	for _, e := range b.Nodes {
		k := nodeKey(e.Key)
		if seen[string(k)] {
			return fmt.Errorf("%w: %s", jmt.ErrNodeExists, e.Key)
		}
		seen[string(k)] = true
		exists, err := s.db.Has(k, nil)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", jmt.ErrNodeExists, e.Key)
		}
		data, err := s.codec.encodeNode(e.Node)
		if err != nil {
			return err
		}
		batch.Put(k, data)
	}
	for _, l := range b.Leaves {
		batch.Put(leafKey(l.Key, b.Version), l.ValueHash.Bytes())
	}
	root, err := s.codec.encodeRoot(b.Root)
	if err != nil {
		return err
	}
	batch.Put(rootKey(b.Version), root)
	batch.Put(latestKey, binary.BigEndian.AppendUint64(nil, uint64(b.Version)))

	if err := s.db.Write(batch, &opt.WriteOptions{Sync: s.opts.Sync}); err != nil {
		return err
	}
	s.latest = b.Version
	s.committed = true
	for _, e := range b.Nodes {
		s.nodes.Add(string(nodeKey(e.Key)), e.Node)
	}
	s.log.Debugf("wrote version %d: nodes=%d leaves=%d", b.Version, len(b.Nodes), len(b.Leaves))
	return nil
}
