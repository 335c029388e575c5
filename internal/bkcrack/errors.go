package bkcrack

import "errors"

// Sentinel errors surfaced to the CLI layer. Within the cryptanalysis core
// itself there are no recoverable errors: table sizes and branch
// completeness are invariants, and a violation indicates a bug rather than
// a user-facing condition.
var (
	// ErrInputTooShort means the known-plaintext/ciphertext overlap is
	// shorter than AttackSize bytes.
	ErrInputTooShort = errors.New("not enough known plaintext")

	// ErrKeysNotFound means Z reduction and the attack exhausted every
	// surviving candidate without finding a consistent key triple.
	ErrKeysNotFound = errors.New("could not find the keys")
)
