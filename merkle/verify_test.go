// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle_test

import (
	"testing"

	"github.com/keomprotocol/miden-client/merkle"
)

// build a four leaf tree by hand and verify every leaf against the root
func TestVerifyInclusion(t *testing.T) {

	leaves := []merkle.Digest{
		merkle.NewDigest([]byte("leaf-0")),
		merkle.NewDigest([]byte("leaf-1")),
		merkle.NewDigest([]byte("leaf-2")),
		merkle.NewDigest([]byte("leaf-3")),
	}

	n01 := merkle.NewDigest(append(leaves[0][:], leaves[1][:]...))
	n23 := merkle.NewDigest(append(leaves[2][:], leaves[3][:]...))
	root := merkle.NewDigest(append(n01[:], n23[:]...))

	paths := []merkle.Path{
		{leaves[1], n23},
		{leaves[0], n23},
		{leaves[3], n01},
		{leaves[2], n01},
	}

	v := merkle.NewVerifier()

	for i, leaf := range leaves {
		if !v.VerifyInclusion(root, leaf, paths[i], uint64(i)) {
			t.Errorf("leaf %d not verified against root", i)
		}
	}
}

func TestVerifyInclusionRejects(t *testing.T) {

	v := merkle.NewVerifier()

	left := merkle.NewDigest([]byte("left"))
	right := merkle.NewDigest([]byte("right"))
	root := merkle.NewDigest(append(left[:], right[:]...))

	// wrong sibling
	if v.VerifyInclusion(root, left, merkle.Path{left}, 0) {
		t.Error("wrong sibling unexpectedly verified")
	}

	// wrong index ordering
	if v.VerifyInclusion(root, left, merkle.Path{right}, 1) {
		t.Error("wrong ordering unexpectedly verified")
	}

	// empty path only matches when leaf == root
	if v.VerifyInclusion(root, left, nil, 0) {
		t.Error("empty path unexpectedly verified")
	}
	if !v.VerifyInclusion(root, root, nil, 0) {
		t.Error("singleton tree not verified")
	}
}
