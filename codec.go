package jmt

import (
	"fmt"

	ics23 "github.com/confio/ics23/go"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// Codec converts proofs to and from the ICS-23 commitment proof messages.
// Byte fields are copied verbatim and path order is preserved. KeyBits
// restores the key width, which the wire format does not carry.
type Codec struct {
	Hasher  *Hasher
	KeyBits int
}

func NewCodec(hasher *Hasher, keyBits int) Codec {
	return Codec{Hasher: hasher, KeyBits: keyBits}
}

// ProofSpec describes the tree layout to ICS-23 verifiers: 32 byte children
// in order [left, right], a one byte internal marker and ZeroHash for an
// absent child.
func ProofSpec(hasher *Hasher, keyBits int) *ics23.ProofSpec {
	return &ics23.ProofSpec{
		LeafSpec: leafOp(hasher, LeafPrefix),
		InnerSpec: &ics23.InnerSpec{
			ChildOrder:      []int32{0, 1},
			ChildSize:       HashBytes,
			MinPrefixLength: int32(len(InternalPrefix)),
			MaxPrefixLength: int32(len(InternalPrefix)),
			EmptyChild:      ZeroHash.Bytes(),
			Hash:            hasher.HashOp(),
		},
		MaxDepth: int32(keyBits),
	}
}

func leafOp(hasher *Hasher, marker []byte) *ics23.LeafOp {
	return &ics23.LeafOp{
		Hash:         hasher.HashOp(),
		PrehashKey:   ics23.HashOp_NO_HASH,
		PrehashValue: ics23.HashOp_NO_HASH,
		Length:       ics23.LengthOp_NO_PREFIX,
		Prefix:       cloneBytes(marker),
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

func (c Codec) Marshal(cp CommitmentProof) ([]byte, error) {
	pb, err := c.ToICS23(cp)
	if err != nil {
		return nil, err
	}
	return pb.Marshal()
}

func (c Codec) Unmarshal(data []byte) (CommitmentProof, error) {
	var pb ics23.CommitmentProof
	if err := pb.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeProof, err)
	}
	return c.FromICS23(&pb)
}

func (c Codec) ToICS23(cp CommitmentProof) (*ics23.CommitmentProof, error) {
	switch p := cp.(type) {
	case *ExistProof:
		return &ics23.CommitmentProof{
			Proof: &ics23.CommitmentProof_Exist{Exist: c.existenceToICS23(p.Exist)},
		}, nil
	case *NonExistProof:
		return &ics23.CommitmentProof{
			Proof: &ics23.CommitmentProof_Nonexist{Nonexist: c.nonExistenceToICS23(p.NonExist)},
		}, nil
	}
	return nil, fmt.Errorf("jmt: cannot encode proof %T", cp)
}

func (c Codec) existenceToICS23(p *ExistenceProof) *ics23.ExistenceProof {
	if p == nil {
		return nil
	}
	path := make([]*ics23.InnerOp, 0, len(p.Path))
	for _, op := range p.Path {
		path = append(path, &ics23.InnerOp{
			Hash:   c.Hasher.HashOp(),
			Prefix: cloneBytes(op.Prefix),
			Suffix: cloneBytes(op.Suffix),
		})
	}
	return &ics23.ExistenceProof{
		Key:   p.Key.Bytes(),
		Value: p.Value.Bytes(),
		Leaf:  leafOp(c.Hasher, p.LeafMarker),
		Path:  path,
	}
}

func (c Codec) nonExistenceToICS23(p *NonExistenceProof) *ics23.NonExistenceProof {
	return &ics23.NonExistenceProof{
		Key:   p.Key.Bytes(),
		Left:  c.existenceToICS23(p.Left),
		Right: c.existenceToICS23(p.Right),
	}
}

func (c Codec) FromICS23(pb *ics23.CommitmentProof) (CommitmentProof, error) {
	if exist := pb.GetExist(); exist != nil {
		ep, err := c.existenceFromICS23(exist)
		if err != nil {
			return nil, err
		}
		return &ExistProof{Exist: ep}, nil
	}
	if nonexist := pb.GetNonexist(); nonexist != nil {
		key, err := c.key(nonexist.Key)
		if err != nil {
			return nil, err
		}
		nep := &NonExistenceProof{Key: key}
		if nonexist.Left != nil {
			if nep.Left, err = c.existenceFromICS23(nonexist.Left); err != nil {
				return nil, err
			}
		}
		if nonexist.Right != nil {
			if nep.Right, err = c.existenceFromICS23(nonexist.Right); err != nil {
				return nil, err
			}
		}
		return &NonExistProof{NonExist: nep}, nil
	}
	return nil, fmt.Errorf("%w: neither existence nor non-existence", ErrDecodeProof)
}

func (c Codec) key(b []byte) (keybits.BitArray, error) {
	if len(b) != (c.KeyBits+7)/8 {
		return keybits.BitArray{}, fmt.Errorf("%w: key is %d bytes, want %d bits", ErrDecodeProof, len(b), c.KeyBits)
	}
	return keybits.FromBytes(b, c.KeyBits)
}

func (c Codec) existenceFromICS23(pb *ics23.ExistenceProof) (*ExistenceProof, error) {
	key, err := c.key(pb.Key)
	if err != nil {
		return nil, err
	}
	value, err := HashFromBytes(pb.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: value: %w", ErrDecodeProof, err)
	}
	if pb.Leaf == nil || pb.Leaf.Hash != c.Hasher.HashOp() {
		return nil, fmt.Errorf("%w: leaf op does not use %s", ErrDecodeProof, c.Hasher.Name())
	}
	var path []InnerOp
	for i, op := range pb.Path {
		if op.Hash != c.Hasher.HashOp() {
			return nil, fmt.Errorf("%w: step %d does not use %s", ErrDecodeProof, i, c.Hasher.Name())
		}
		path = append(path, InnerOp{Prefix: cloneBytes(op.Prefix), Suffix: cloneBytes(op.Suffix)})
	}
	return &ExistenceProof{
		Key:        key,
		Value:      value,
		LeafMarker: cloneBytes(pb.Leaf.Prefix),
		Path:       path,
	}, nil
}
