// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store - the durable local projection of chain state
//
// exposes atomic operations over accounts, notes, transaction records
// and the sync checkpoint; every logical operation is all-or-nothing and
// commits as a single storage batch
//
// this is the single serialisation point for the whole client: sequence
// number monotonicity, the note lifecycle transition table, exclusive
// note reservation and the atomic checkpoint advance are all enforced
// here and nowhere else
package store
