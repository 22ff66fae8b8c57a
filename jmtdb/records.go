package jmtdb

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/forestrie/go-merklelog/jmt"
	"github.com/forestrie/go-merklelog/jmt/keybits"
)

const (
	kindLeaf     uint8 = 1
	kindInternal uint8 = 2
)

type childRecord struct {
	Version uint64 `cbor:"1,keyasint"`
	Hash    []byte `cbor:"2,keyasint"`
}

type nodeRecord struct {
	Kind    uint8        `cbor:"1,keyasint"`
	KeyBits uint16       `cbor:"2,keyasint,omitempty"`
	Key     []byte       `cbor:"3,keyasint,omitempty"`
	Value   []byte       `cbor:"4,keyasint,omitempty"`
	Left    *childRecord `cbor:"5,keyasint,omitempty"`
	Right   *childRecord `cbor:"6,keyasint,omitempty"`
}

// rootRecord wraps the root so that an empty tree still has a record.
type rootRecord struct {
	Root *childRecord `cbor:"1,keyasint,omitempty"`
}

// recordCodec encodes with the core deterministic profile so that equal
// nodes always produce equal bytes.
type recordCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newRecordCodec() (recordCodec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return recordCodec{}, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return recordCodec{}, err
	}
	return recordCodec{enc: enc, dec: dec}, nil
}

func toChildRecord(ref *jmt.ChildRef) *childRecord {
	if ref == nil {
		return nil
	}
	return &childRecord{Version: uint64(ref.Version), Hash: ref.Hash.Bytes()}
}

func fromChildRecord(r *childRecord) (*jmt.ChildRef, error) {
	if r == nil {
		return nil, nil
	}
	h, err := jmt.HashFromBytes(r.Hash)
	if err != nil {
		return nil, err
	}
	return &jmt.ChildRef{Version: jmt.Version(r.Version), Hash: h}, nil
}

func (c recordCodec) encodeNode(n jmt.Node) ([]byte, error) {
	var rec nodeRecord
	switch node := n.(type) {
	case *jmt.LeafNode:
		rec = nodeRecord{
			Kind:    kindLeaf,
			KeyBits: uint16(node.Key.Len()),
			Key:     node.Key.Bytes(),
			Value:   node.ValueHash.Bytes(),
		}
	case *jmt.InternalNode:
		rec = nodeRecord{
			Kind:  kindInternal,
			Left:  toChildRecord(node.Left),
			Right: toChildRecord(node.Right),
		}
	default:
		return nil, fmt.Errorf("%w: %T", jmt.ErrInvalidNodeKind, n)
	}
	return c.enc.Marshal(&rec)
}

func (c recordCodec) decodeNode(data []byte) (jmt.Node, error) {
	var rec nodeRecord
	if err := c.dec.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordDecode, err)
	}
	switch rec.Kind {
	case kindLeaf:
		key, err := keybits.FromBytes(rec.Key, int(rec.KeyBits))
		if err != nil {
			return nil, fmt.Errorf("%w: leaf key: %w", ErrRecordDecode, err)
		}
		value, err := jmt.HashFromBytes(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: leaf value: %w", ErrRecordDecode, err)
		}
		return &jmt.LeafNode{Key: key, ValueHash: value}, nil
	case kindInternal:
		left, err := fromChildRecord(rec.Left)
		if err != nil {
			return nil, fmt.Errorf("%w: left child: %w", ErrRecordDecode, err)
		}
		right, err := fromChildRecord(rec.Right)
		if err != nil {
			return nil, fmt.Errorf("%w: right child: %w", ErrRecordDecode, err)
		}
		return &jmt.InternalNode{Left: left, Right: right}, nil
	}
	return nil, fmt.Errorf("%w: node kind %d", ErrRecordDecode, rec.Kind)
}

func (c recordCodec) encodeRoot(root *jmt.ChildRef) ([]byte, error) {
	return c.enc.Marshal(&rootRecord{Root: toChildRecord(root)})
}

func (c recordCodec) decodeRoot(data []byte) (*jmt.ChildRef, error) {
	var rec rootRecord
	if err := c.dec.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordDecode, err)
	}
	root, err := fromChildRecord(rec.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: root: %w", ErrRecordDecode, err)
	}
	return root, nil
}
