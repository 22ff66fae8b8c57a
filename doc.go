package jmt

/*

# Versioned binary Merkle tree proofs

This package builds commitment proofs over a Jellyfish-style binary radix
tree whose history is kept as immutable versions.

## Node addressing

Every node lives in the store at (prefix, version): prefix is the key bits
leading to the node and version is the version that wrote it. A parent never
holds its children directly. It holds a ChildRef carrying the child's version
and hash, and the child is resolved at (prefix + bit, ChildRef.Version). A
version only writes the nodes on the paths it touches, so a snapshot shares
every untouched subtree with the versions before it.

## Hashing

	leaf     = H( 0x00 || key || valueHash )
	internal = H( 0x01 || leftHash || rightHash )

An absent child hashes as 32 zero bytes (ZeroHash).

## Proof steps

Each internal node on the path contributes one InnerOp such that
H(prefix || child || suffix) is the parent hash:

	went left:  prefix = 0x01             suffix = rightHash
	went right: prefix = 0x01 || leftHash suffix = (empty)

Steps are ordered leaf to root. This framing is the ICS-23 layout described
by ProofSpec, so proofs encode directly as ICS-23 CommitmentProof messages.

## Membership

A prover decides membership with the leaf index kept by the write path, not
by walking the tree. The tree walk must then agree: a present key whose path
cannot be built, or an absent key whose path can, fails with
ErrPathInconsistency rather than producing an unsound proof.

*/
