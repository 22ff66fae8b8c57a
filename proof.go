package jmt

import "github.com/forestrie/go-merklelog/jmt/keybits"

// ExistenceProof authenticates (Key, Value) against a root. Path is ordered
// from the leaf's parent up to the root.
type ExistenceProof struct {
	Key        keybits.BitArray
	Value      Hash
	LeafMarker []byte
	Path       []InnerOp
}

// NonExistenceProof brackets an absent Key by its neighbours. Either side
// may be nil; both are nil for an empty tree.
type NonExistenceProof struct {
	Key   keybits.BitArray
	Left  *ExistenceProof
	Right *ExistenceProof
}

// CommitmentProof is either an *ExistProof or a *NonExistProof.
type CommitmentProof interface {
	isCommitmentProof()
}

type ExistProof struct {
	Exist *ExistenceProof
}

type NonExistProof struct {
	NonExist *NonExistenceProof
}

func (*ExistProof) isCommitmentProof()    {}
func (*NonExistProof) isCommitmentProof() {}

// IsExistence reports whether cp proves presence.
func IsExistence(cp CommitmentProof) bool {
	_, ok := cp.(*ExistProof)
	return ok
}
