package state

import (
	"sync"

	"digichain/core/types"
)

// World is the mutable in-memory aggregate state the block producer
// snapshots and rolls back around each transaction/proposal execution
// (spec §5). It is the "central state object with per-field locks"
// described in spec §9's cyclic-ownership note.
type World struct {
	ChainID string

	Tokens     *TokenRegistry
	Accounts   *AccountStore
	CrossChain *CrossChainTracker

	validatorsMu sync.RWMutex
	validators   []types.Validator
}

// NewWorld constructs an empty world for chainID, seeded with the given
// validator set.
func NewWorld(chainID string, validators []types.Validator) *World {
	return &World{
		ChainID:    chainID,
		Tokens:     NewTokenRegistry(),
		Accounts:   NewAccountStore(),
		CrossChain: NewCrossChainTracker(chainID),
		validators: append([]types.Validator(nil), validators...),
	}
}

// Validators returns a snapshot slice of the current validator set.
func (w *World) Validators() []types.Validator {
	w.validatorsMu.RLock()
	defer w.validatorsMu.RUnlock()
	return append([]types.Validator(nil), w.validators...)
}

// ValidatorCount is used by the §4.6 attestation-quorum predicate.
func (w *World) ValidatorCount() int {
	w.validatorsMu.RLock()
	defer w.validatorsMu.RUnlock()
	return len(w.validators)
}

// RandomValidator picks a uniformly random validator (spec §4.5
// CrosschainTransfer dispatch, §4.9 get_cmp_ccr_data), using a caller
// supplied index in [0, count) so the RNG lives at the call site
// (mempool/chain package) rather than being re-derived here.
func (w *World) ValidatorAt(i int) (types.Validator, bool) {
	w.validatorsMu.RLock()
	defer w.validatorsMu.RUnlock()
	if i < 0 || i >= len(w.validators) {
		return types.Validator{}, false
	}
	return w.validators[i], true
}

func (w *World) AddValidator(v types.Validator) {
	w.validatorsMu.Lock()
	defer w.validatorsMu.Unlock()
	w.validators = append(w.validators, v)
}

func (w *World) RemoveValidator(addr types.Address) {
	w.validatorsMu.Lock()
	defer w.validatorsMu.Unlock()
	out := w.validators[:0]
	for _, v := range w.validators {
		if !v.Address.Equal(addr) {
			out = append(out, v)
		}
	}
	w.validators = out
}

// Clone deep-copies the entire world, the authoritative rollback
// primitive of spec §5: "Prior to each tx or proposal execution, the
// producer makes a deep copy of the entire chain state. On error, the
// pre-copy replaces the live state."
func (w *World) Clone() *World {
	w.validatorsMu.RLock()
	validators := append([]types.Validator(nil), w.validators...)
	w.validatorsMu.RUnlock()

	return &World{
		ChainID:    w.ChainID,
		Tokens:     w.Tokens.Clone(),
		Accounts:   w.Accounts.Clone(),
		CrossChain: w.CrossChain.Clone(),
		validators: validators,
	}
}
