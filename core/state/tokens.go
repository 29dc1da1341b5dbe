// Package state implements the Token Registry (C2), Account Store (C3),
// and CrossChain Tracker (C4) components (spec §4.2-§4.4), and the World
// aggregate that ties them together under the snapshot/rollback model
// (spec §5).
package state

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"

	"digichain/core/codec"
	"digichain/core/types"
)

const tokenIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const tokenIDLength = 40

var (
	ErrTokenNotFound       = errors.New("state: token not found")
	ErrSelfTransfer        = errors.New("state: sender and recipient must differ")
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrChainMappingMissing = errors.New("state: token has no mapping for destination chain")
)

// newTokenID draws tokenIDLength characters from a CSPRNG over the
// standard alphanumeric alphabet (spec §4.2: "collision assumed
// improbable"). crypto/rand, not math/rand, is used because a predictable
// id would let an attacker squat on a registration ahead of AddToken.
func newTokenID() types.TokenId {
	buf := make([]byte, tokenIDLength)
	idx := make([]byte, tokenIDLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("state: crypto/rand unavailable: %v", err))
	}
	for i, b := range buf {
		idx[i] = tokenIDAlphabet[int(b)%len(tokenIDAlphabet)]
	}
	return types.TokenId(idx)
}

// chainMappingKey is the (chain_id, lowercased address) composite key
// backing the global chain_id_to_token_mp index (spec §3 invariant).
type chainMappingKey struct {
	ChainID string
	Address string
}

// TokenRegistry is the Token Registry component (C2).
type TokenRegistry struct {
	mu sync.RWMutex

	tokens           map[types.TokenId]*types.Token
	chainIDToTokenMp map[chainMappingKey]types.TokenId
}

func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		tokens:           make(map[types.TokenId]*types.Token),
		chainIDToTokenMp: make(map[chainMappingKey]types.TokenId),
	}
}

// New registers a fresh token with a random 40-char TokenId (spec §4.2),
// and indexes every (chain_id, address) mapping entry.
func (r *TokenRegistry) New(name, symbol string, decimal uint8, price types.Uint128, chainTokenMapping map[string]string) *types.Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newTokenID()
	tok := types.NewToken(id, name, symbol, decimal, price, lowercaseValues(chainTokenMapping))
	r.tokens[id] = tok
	for chainID, addr := range tok.ChainTokenMapping {
		r.chainIDToTokenMp[chainMappingKey{ChainID: chainID, Address: addr}] = id
	}
	return tok
}

func lowercaseValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = strings.ToLower(v)
	}
	return out
}

// Get returns the token for id, or ErrTokenNotFound.
func (r *TokenRegistry) Get(id types.TokenId) (*types.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tok, ok := r.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return tok, nil
}

// List returns every registered token in registration order is not
// guaranteed; callers needing stable pagination should sort by ID.
func (r *TokenRegistry) List() []*types.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Token, 0, len(r.tokens))
	for _, tok := range r.tokens {
		out = append(out, tok)
	}
	return out
}

// ByChain looks up the TokenId mapped to (chainID, tokenAddress) — case
// insensitive on the address, per the lowercased-storage invariant.
func (r *TokenRegistry) ByChain(chainID, tokenAddress string) (*types.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.chainIDToTokenMp[chainMappingKey{ChainID: chainID, Address: strings.ToLower(tokenAddress)}]
	if !ok {
		return nil, ErrTokenNotFound
	}
	tok, ok := r.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return tok, nil
}

// BalanceOf returns the balance of addr in token id; unknown token or
// address both read as zero once the token is found (spec §4.2).
func (r *TokenRegistry) BalanceOf(id types.TokenId, addr types.Address) (types.Uint128, error) {
	tok, err := r.Get(id)
	if err != nil {
		return types.Uint128Zero, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tok.BalanceOf(addr), nil
}

// Mint unconditionally credits addr; never fails except on an unknown
// token (spec §4.2).
func (r *TokenRegistry) Mint(id types.TokenId, addr types.Address, amount types.Uint128) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	return tok.Mint(addr, amount)
}

// Transfer implements spec §4.2's local transfer primitive: debits from,
// credits the TokenTransferData recipient, and returns amount*price in
// 10^-9 USD units (the ABI-encoded uint256 the caller sums for slippage).
func (r *TokenRegistry) Transfer(id types.TokenId, from types.Address, payload codec.TokenTransferData) (types.Uint128, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[id]
	if !ok {
		return types.Uint128Zero, ErrTokenNotFound
	}
	amount, err := types.Uint128FromBig(payload.Amount)
	if err != nil {
		return types.Uint128Zero, err
	}
	if from == payload.Recipient {
		return types.Uint128Zero, ErrSelfTransfer
	}
	if tok.BalanceOf(from).Cmp(amount) < 0 {
		return types.Uint128Zero, ErrInsufficientBalance
	}
	if err := tok.Debit(from, amount); err != nil {
		return types.Uint128Zero, err
	}
	if err := tok.Mint(payload.Recipient, amount); err != nil {
		return types.Uint128Zero, err
	}
	return UsdValue(amount, tok.Price, tok.Decimal)
}

// UsdValue scales a raw token amount by its price, normalizing out the
// token's own decimal precision (spec §6.2's "price * mid / 10^decimal"
// formula; shared between a transfer's summed value here and
// get_optimal_path's binary-search midpoint in the rpc package).
func UsdValue(amount, price types.Uint128, decimal uint8) (types.Uint128, error) {
	scaled, err := amount.Mul(price)
	if err != nil {
		return types.Uint128Zero, err
	}
	return scaled.Div(types.Uint128Pow10(decimal))
}

// CrossChainTransfer implements spec §4.2's cross_chain_transfer: debits
// the sender locally (the destination chain performs the credit) and
// returns the mapped destination-chain token address.
func (r *TokenRegistry) CrossChainTransfer(id types.TokenId, from types.Address, payload codec.TokenCrossTransferData, dstChainID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[id]
	if !ok {
		return "", ErrTokenNotFound
	}
	dstAddr, ok := tok.ChainTokenMapping[dstChainID]
	if !ok {
		return "", ErrChainMappingMissing
	}
	amount, err := types.Uint128FromBig(payload.Amount)
	if err != nil {
		return "", err
	}
	if tok.BalanceOf(from).Cmp(amount) < 0 {
		return "", ErrInsufficientBalance
	}
	if err := tok.Debit(from, amount); err != nil {
		return "", err
	}
	return dstAddr, nil
}

// UpdateTokenPrice overwrites the token's price (spec §4.2).
func (r *TokenRegistry) UpdateTokenPrice(id types.TokenId, price types.Uint128) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	tok.Price = price
	return nil
}

// Clone deep-copies the registry for whole-state snapshot/rollback (§5).
func (r *TokenRegistry) Clone() *TokenRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewTokenRegistry()
	for id, tok := range r.tokens {
		out.tokens[id] = tok.Clone()
	}
	for k, v := range r.chainIDToTokenMp {
		out.chainIDToTokenMp[k] = v
	}
	return out
}
