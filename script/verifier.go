// Package script defines the black-box script-verification boundary and
// the bounded work queue that fans input-script checks for one block out to
// a worker pool, the way the teacher fans work out across services/* with a
// bounded channel and a sync.WaitGroup.
package script

import "github.com/bsv-blockchain/chaincore/model"

// Flag is a bitmask of script-verification rule options.
type Flag uint32

const (
	// FlagP2SH enables BIP16 pay-to-script-hash evaluation.
	FlagP2SH Flag = 1 << iota
	// FlagStrictEnc rejects non-canonical signature/pubkey encodings.
	FlagStrictEnc
	// FlagNoCache disables any internal signature-check memoization.
	FlagNoCache
)

// Verifier is the opaque script-interpreter capability assumed by §1: given
// an input's unlocking script, the locking script it claims to satisfy, the
// enclosing transaction, the input's index, and a flag set, it reports
// whether the script evaluates successfully. Any conforming interpreter
// (a real opcode evaluator is out of scope here) can satisfy this.
type Verifier interface {
	Verify(unlockingScript, lockingScript []byte, tx *model.Tx, inputIndex int, flags Flag) bool
}
