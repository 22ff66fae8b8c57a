// Package keybits provides the fixed-width key digests used to address
// leaves in a binary radix tree.
//
// Keys are traversed MSB-first: bit 0 is the most significant bit of the
// first byte. Every prefix of a key names a node position in the tree, with
// the empty prefix naming the root.
package keybits
