package jmtdb

import (
	"encoding/binary"
	"math"

	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// Record key layout. All integers are big endian so that leveldb's byte
// order matches version order.
//
//	n | prefixBits(2) | prefixBytes | version(8)   node record
//	r | version(8)                                root record
//	v | keyBits(2) | keyBytes | version(8)        leaf index entry
//	m                                             latest committed version
const (
	tagNode   = 'n'
	tagRoot   = 'r'
	tagLeaf   = 'v'
	tagLatest = 'm'
)

var latestKey = []byte{tagLatest}

func bitsKey(tag byte, bits keybits.BitArray, extra int) []byte {
	b := bits.Bytes()
	k := make([]byte, 0, 3+len(b)+extra)
	k = append(k, tag)
	k = binary.BigEndian.AppendUint16(k, uint16(bits.Len()))
	return append(k, b...)
}

func nodeKey(key jmt.NodeKey) []byte {
	k := bitsKey(tagNode, key.Prefix, 8)
	return binary.BigEndian.AppendUint64(k, uint64(key.Version))
}

func rootKey(version jmt.Version) []byte {
	return binary.BigEndian.AppendUint64([]byte{tagRoot}, uint64(version))
}

func leafKey(key keybits.BitArray, version jmt.Version) []byte {
	k := bitsKey(tagLeaf, key, 8)
	return binary.BigEndian.AppendUint64(k, uint64(version))
}

// leafRange covers every index entry for key written at or before version.
func leafRange(key keybits.BitArray, version jmt.Version) *util.Range {
	prefix := bitsKey(tagLeaf, key, 8)
	if uint64(version) == math.MaxUint64 {
		return util.BytesPrefix(prefix)
	}
	start := binary.BigEndian.AppendUint64(append([]byte(nil), prefix...), 0)
	limit := binary.BigEndian.AppendUint64(append([]byte(nil), prefix...), uint64(version)+1)
	return &util.Range{Start: start, Limit: limit}
}
