package jmt

import (
	"context"
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"golang.org/x/sync/errgroup"

	"github.com/forestrie/go-merklelog/jmt/keybits"
)

// Prover builds commitment proofs over the versions of a node store. It holds
// no mutable state, so one Prover may serve any number of goroutines.
type Prover struct {
	log   logger.Logger
	store NodeReader
	opts  ProverOptions
}

func NewProver(log logger.Logger, store NodeReader, opts ...ProverOption) *Prover {
	return &Prover{
		log:   log,
		store: store,
		opts:  newProverOptions(opts...),
	}
}

func (p *Prover) Options() ProverOptions { return p.opts }

func (p *Prover) checkKey(key keybits.BitArray) error {
	if key.Len() != p.opts.KeyBits {
		return fmt.Errorf("%w: want %d bits, got %d", ErrKeyLength, p.opts.KeyBits, key.Len())
	}
	return nil
}

// Prove returns an existence proof if key is in the tree at version and a
// non-existence proof otherwise. ErrPathInconsistency is returned, never a
// non-existence proof, when the leaf index and the node graph disagree.
func (p *Prover) Prove(version Version, key keybits.BitArray) (CommitmentProof, error) {
	if err := p.checkKey(key); err != nil {
		return nil, err
	}
	snap, err := OpenSnapshot(p.store, version)
	if err != nil {
		return nil, err
	}
	return p.prove(snap, key)
}

// ProveExistence returns ErrKeyAbsent instead of a non-existence proof.
func (p *Prover) ProveExistence(version Version, key keybits.BitArray) (*ExistenceProof, error) {
	cp, err := p.Prove(version, key)
	if err != nil {
		return nil, err
	}
	switch proof := cp.(type) {
	case *ExistProof:
		return proof.Exist, nil
	case *NonExistProof:
		return nil, fmt.Errorf("%w: %s at version %d", ErrKeyAbsent, key, version)
	default:
		return nil, fmt.Errorf("jmt: unexpected proof %T", cp)
	}
}

// ProveNonExistence returns ErrKeyPresent instead of an existence proof.
func (p *Prover) ProveNonExistence(version Version, key keybits.BitArray) (*NonExistenceProof, error) {
	cp, err := p.Prove(version, key)
	if err != nil {
		return nil, err
	}
	switch proof := cp.(type) {
	case *NonExistProof:
		return proof.NonExist, nil
	case *ExistProof:
		return nil, fmt.Errorf("%w: %s at version %d", ErrKeyPresent, key, version)
	default:
		return nil, fmt.Errorf("jmt: unexpected proof %T", cp)
	}
}

// ProveMany proves keys against one snapshot concurrently. Proofs are
// returned in the order of keys. The first failure cancels the remaining
// work and is returned.
func (p *Prover) ProveMany(ctx context.Context, version Version, keys []keybits.BitArray) ([]CommitmentProof, error) {
	for _, key := range keys {
		if err := p.checkKey(key); err != nil {
			return nil, err
		}
	}
	snap, err := OpenSnapshot(p.store, version)
	if err != nil {
		return nil, err
	}

	proofs := make([]CommitmentProof, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i := range keys {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cp, err := p.prove(snap, keys[i])
			if err != nil {
				return fmt.Errorf("key %d: %w", i, err)
			}
			proofs[i] = cp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return proofs, nil
}

func (p *Prover) inconsistent(snap *Snapshot, key keybits.BitArray, cause error) error {
	p.opts.Metrics.observeInconsistency()
	p.log.Infof("path inconsistency: version=%d key=%s: %v", snap.Version(), key, cause)
	return fmt.Errorf("%w: key %s at version %d: %w", ErrPathInconsistency, key, snap.Version(), cause)
}

func (p *Prover) prove(snap *Snapshot, key keybits.BitArray) (CommitmentProof, error) {
	value, present, err := snap.LeafValue(key)
	if err != nil {
		return nil, err
	}

	if present {
		ep, err := p.existence(snap, key, value)
		if err != nil {
			return nil, err
		}
		p.opts.Metrics.observeProof(proofKindExist)
		p.log.Debugf("exist: version=%d key=%s steps=%d", snap.Version(), key, len(ep.Path))
		return &ExistProof{Exist: ep}, nil
	}

	// The index says absent. A reachable leaf for key would make any
	// non-existence proof unsound.
	_, _, err = snap.ExistencePath(key)
	if err == nil {
		return nil, p.inconsistent(snap, key, errors.New("leaf reachable but missing from the leaf index"))
	}
	if !errors.Is(err, ErrPathNotFound) {
		return nil, err
	}

	nep := &NonExistenceProof{Key: key}
	for _, left := range []bool{true, false} {
		leaf, err := snap.Neighbor(key, left, p.opts.Search)
		if errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrEmptyInternal) {
			return nil, p.inconsistent(snap, key, err)
		}
		if err != nil {
			return nil, err
		}
		if leaf == nil {
			continue
		}
		value, indexed, err := snap.LeafValue(leaf.Key)
		if err != nil {
			return nil, err
		}
		if !indexed {
			return nil, p.inconsistent(snap, leaf.Key, errors.New("neighbor leaf missing from the leaf index"))
		}
		ep, err := p.existence(snap, leaf.Key, value)
		if err != nil {
			return nil, err
		}
		if left {
			nep.Left = ep
		} else {
			nep.Right = ep
		}
	}
	p.opts.Metrics.observeProof(proofKindNonExist)
	p.log.Debugf("nonexist: version=%d key=%s left=%t right=%t", snap.Version(), key, nep.Left != nil, nep.Right != nil)
	return &NonExistProof{NonExist: nep}, nil
}

// existence builds the proof for a key known to be present with value.
// Failure here is always corruption.
func (p *Prover) existence(snap *Snapshot, key keybits.BitArray, value Hash) (*ExistenceProof, error) {
	leaf, path, err := snap.ExistencePath(key)
	if err != nil {
		return nil, p.inconsistent(snap, key, err)
	}
	if leaf.ValueHash != value {
		return nil, p.inconsistent(snap, key, fmt.Errorf("leaf value %s, index value %s", leaf.ValueHash, value))
	}
	p.opts.Metrics.observePath(len(path))
	return &ExistenceProof{
		Key:        leaf.Key,
		Value:      leaf.ValueHash,
		LeafMarker: append([]byte(nil), LeafPrefix...),
		Path:       path,
	}, nil
}
