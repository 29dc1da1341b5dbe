package state

import (
	"errors"
	"sync"

	"digichain/core/types"
)

var ErrAcceptsLengthMismatch = errors.New("state: tokens/amounts length mismatch")

// AccountStore is the Account Store component (C3): per-address nonces,
// KYC record, accepted-token advertisement, and transaction index.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[types.Address]*types.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[types.Address]*types.Account)}
}

// GetOrCreate returns the account for addr, creating a defaulted one on
// first reference (spec §3, §4.3).
func (s *AccountStore) GetOrCreate(addr types.Address) *types.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[addr]
	if !ok {
		acc = types.NewAccount()
		s.accounts[addr] = acc
	}
	return acc
}

// Get returns the account for addr without creating it, and whether it
// exists.
func (s *AccountStore) Get(addr types.Address) (*types.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[addr]
	return acc, ok
}

// DoKYC overwrites the KYC fields and marks the account verified (spec
// §4.3).
func (s *AccountStore) DoKYC(addr types.Address, timestamp int64, params KYCFields) {
	acc := s.GetOrCreate(addr)
	s.mu.Lock()
	defer s.mu.Unlock()
	acc.Name = params.Name
	acc.Country = params.Country
	acc.Mobile = params.Mobile
	acc.UpiID = params.UpiID
	acc.AadharNo = params.AadharNo
	acc.IsKYCDone = true
	acc.KYCCompletedAt = timestamp
}

// KYCFields is the subset of codec.KYCParams the account store persists.
type KYCFields struct {
	Name     string
	Country  string
	Mobile   string
	UpiID    string
	AadharNo string
}

// UpdateAccepts sets addr's per-token acceptance caps; tokens and amounts
// must be equal length (spec §4.3 — token registration is validated by
// the transaction layer, not here).
func (s *AccountStore) UpdateAccepts(addr types.Address, tokens []types.TokenId, amounts []types.Uint128) error {
	if len(tokens) != len(amounts) {
		return ErrAcceptsLengthMismatch
	}
	acc := s.GetOrCreate(addr)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tok := range tokens {
		acc.Accepts[tok] = amounts[i]
	}
	return nil
}

// IncreaseTxNonce post-increments addr's tx_nonce and returns the new
// value (spec §4.3).
func (s *AccountStore) IncreaseTxNonce(addr types.Address) types.Uint128 {
	acc := s.GetOrCreate(addr)
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := acc.TxNonce.Add(types.NewUint128FromUint64(1))
	if err != nil {
		// 128-bit nonce space exhaustion is unreachable in practice.
		panic(err)
	}
	acc.TxNonce = next
	return next
}

// IncreaseProposalNonce post-increments addr's proposal_nonce and returns
// the new value (spec §4.3).
func (s *AccountStore) IncreaseProposalNonce(addr types.Address) types.Uint128 {
	acc := s.GetOrCreate(addr)
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := acc.ProposalNonce.Add(types.NewUint128FromUint64(1))
	if err != nil {
		panic(err)
	}
	acc.ProposalNonce = next
	return next
}

// AddTransactionHash appends hash to addr's transaction index (spec §4.3,
// append-only).
func (s *AccountStore) AddTransactionHash(addr types.Address, hash string) {
	acc := s.GetOrCreate(addr)
	s.mu.Lock()
	defer s.mu.Unlock()
	acc.Transactions = append(acc.Transactions, hash)
}

// Clone deep-copies every account for whole-state snapshot/rollback (§5).
func (s *AccountStore) Clone() *AccountStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := NewAccountStore()
	for addr, acc := range s.accounts {
		out.accounts[addr] = acc.Clone()
	}
	return out
}
