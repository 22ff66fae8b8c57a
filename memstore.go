package jmt

import (
	"fmt"
	"sort"
	"sync"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

type memNodeID struct {
	prefix  string
	bits    int
	version Version
}

type memKeyID struct {
	key  string
	bits int
}

type versionedValue struct {
	version Version
	value   Hash
}

// MemStore keeps every version in memory. It is safe for concurrent use; a
// batch becomes visible to readers in one step.
type MemStore struct {
	mu        sync.RWMutex
	nodes     map[memNodeID]Node
	roots     map[Version]*ChildRef
	leaves    map[memKeyID][]versionedValue
	latest    Version
	committed bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		nodes:  make(map[memNodeID]Node),
		roots:  make(map[Version]*ChildRef),
		leaves: make(map[memKeyID][]versionedValue),
	}
}

func nodeID(k NodeKey) memNodeID {
	return memNodeID{prefix: string(k.Prefix.Bytes()), bits: k.Prefix.Len(), version: k.Version}
}

func keyID(k keybits.BitArray) memKeyID {
	return memKeyID{key: string(k.Bytes()), bits: k.Len()}
}

func (s *MemStore) GetNode(key NodeKey) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[nodeID(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	return n, nil
}

func (s *MemStore) GetRoot(version Version) (*ChildRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	root, ok := s.roots[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrVersionNotFound, version)
	}
	if root == nil {
		return nil, nil
	}
	r := *root
	return &r, nil
}

func (s *MemStore) GetLeafValue(key keybits.BitArray, version Version) (Hash, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.leaves[keyID(key)]
	// first entry written after version
	i := sort.Search(len(history), func(i int) bool { return history[i].version > version })
	if i == 0 {
		return ZeroHash, false, nil
	}
	return history[i-1].value, true, nil
}

func (s *MemStore) LatestVersion() (Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.committed
}

func (s *MemStore) WriteBatch(b *NodeBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := CheckBatch(b, s.latest, s.committed); err != nil {
		return err
	}
	seen := make(map[memNodeID]bool, len(b.Nodes))
	for _, e := range b.Nodes {
		id := nodeID(e.Key)
		if _, ok := s.nodes[id]; ok || seen[id] {
			return fmt.Errorf("%w: %s", ErrNodeExists, e.Key)
		}
		seen[id] = true
	}

	for _, e := range b.Nodes {
		s.nodes[nodeID(e.Key)] = e.Node
	}
	for _, l := range b.Leaves {
		id := keyID(l.Key)
		s.leaves[id] = append(s.leaves[id], versionedValue{version: b.Version, value: l.ValueHash})
	}
	var root *ChildRef
	if b.Root != nil {
		r := *b.Root
		root = &r
	}
	s.roots[b.Version] = root
	s.latest = b.Version
	s.committed = true
	return nil
}
