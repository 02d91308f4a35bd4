// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors

// ExistsError - already exists class of errors
type ExistsError GenericError

// InvalidError - invalid class of errors
type InvalidError GenericError

// NotFoundError - not found class of errors
type NotFoundError GenericError

// ProcessError - processing failure class of errors
type ProcessError GenericError

// ConflictError - lost a race against a concurrent operation; retry at a
// higher level after reselecting inputs
type ConflictError GenericError

// AmbiguousError - the operation may or may not have taken effect remotely;
// the outcome is resolved by a later synchronisation round, never assumed
type AmbiguousError GenericError

// common errors - keep in alphabetic order
var (
	AccountNotFound       = NotFoundError("account not found")
	AlreadyInitialised    = ProcessError("already initialised")
	CheckpointMismatch    = InvalidError("delta checkpoint is below the stored checkpoint")
	ChainDivergence       = ProcessError("remote chain diverged below the local checkpoint")
	IllegalNoteTransition = InvalidError("illegal note lifecycle transition")
	InvalidBatchSize      = InvalidError("invalid batch size")
	InvalidCount          = InvalidError("invalid count")
	InvalidCursor         = InvalidError("invalid cursor")
	InvalidEndpoint       = InvalidError("invalid endpoint")
	InvalidEvidence       = InvalidError("invalid inclusion evidence")
	InvalidOutcome        = InvalidError("invalid transaction outcome")
	InvalidRecordLength   = InvalidError("invalid record length")
	NotInitialised        = ProcessError("not initialised")
	NoSpendableNotes      = NotFoundError("no spendable notes for account")
	NoteAlreadyReserved   = ConflictError("note is already reserved")
	NoteNotFound          = NotFoundError("note not found")
	ProverRejected        = ProcessError("prover rejected the transaction request")
	StaleSequence         = ConflictError("account update has a stale sequence number")
	SubmissionFailed      = AmbiguousError("submission outcome unknown; await synchronisation")
	Synchronising         = ProcessError("not available during synchronise")
	TransactionInUse      = ProcessError("transaction already in use")
	TransactionNotFound   = NotFoundError("transaction not found")
	TransactionNotPending = InvalidError("transaction is not pending")
	UntrustedDelta        = ProcessError("delta failed proof verification")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods

// Error - the error interface method
func (e ExistsError) Error() string { return string(e) }

// Error - the error interface method
func (e InvalidError) Error() string { return string(e) }

// Error - the error interface method
func (e NotFoundError) Error() string { return string(e) }

// Error - the error interface method
func (e ProcessError) Error() string { return string(e) }

// Error - the error interface method
func (e ConflictError) Error() string { return string(e) }

// Error - the error interface method
func (e AmbiguousError) Error() string { return string(e) }

// determine the class of an error

// IsErrExists - error class check
func IsErrExists(e error) bool { _, ok := e.(ExistsError); return ok }

// IsErrInvalid - error class check
func IsErrInvalid(e error) bool { _, ok := e.(InvalidError); return ok }

// IsErrNotFound - error class check
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }

// IsErrProcess - error class check
func IsErrProcess(e error) bool { _, ok := e.(ProcessError); return ok }

// IsErrConflict - error class check
func IsErrConflict(e error) bool { _, ok := e.(ConflictError); return ok }

// IsErrAmbiguous - error class check
func IsErrAmbiguous(e error) bool { _, ok := e.(AmbiguousError); return ok }
