// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

// Path - ordered sibling digests from a leaf up to (but excluding) the root
type Path []Digest

// Verifier - checks a claimed state update against its inclusion evidence
//
// accept/reject only, no partial trust; a rejected update must never be
// applied to the local store
type Verifier interface {
	VerifyInclusion(root Digest, leaf Digest, path Path, index uint64) bool
}

// pathVerifier - hash-path implementation of Verifier
type pathVerifier struct{}

// NewVerifier - return the built-in hash-path verifier
//
// callers may substitute any other Verifier implementation, e.g. one
// backed by an external proof system
func NewVerifier() Verifier {
	return pathVerifier{}
}

// VerifyInclusion - fold the leaf with each sibling on the path and
// compare the result with the claimed root
//
// the index selects left/right ordering at each level, least significant
// bit first
func (pathVerifier) VerifyInclusion(root Digest, leaf Digest, path Path, index uint64) bool {

	current := leaf
	for _, sibling := range path {
		if 0 == index&1 {
			current = NewDigest(append(current[:], sibling[:]...))
		} else {
			current = NewDigest(append(sibling[:], current[:]...))
		}
		index >>= 1
	}

	return current == root
}
