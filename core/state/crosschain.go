package state

import (
	"errors"
	"strings"
	"sync"

	"digichain/core/types"
)

var (
	ErrContractConfigExists   = errors.New("state: contract config already registered for chain")
	ErrContractConfigUnknown  = errors.New("state: unknown chain_id")
	ErrRequestUnknown         = errors.New("state: unknown cross-chain request")
	ErrAlreadyBroadcasted     = errors.New("state: already broadcasted")
)

// CrossChainTracker is the CrossChain Tracker component (C4): contract
// configs per peer chain, per-request lifecycle state, and per-validator
// broadcast dedup.
type CrossChainTracker struct {
	mu sync.RWMutex

	selfChainID string
	selfNonce   types.Uint128

	contractConfigs map[string]*types.ContractConfig
	requests        map[types.CrossChainRequestKey]*types.CrossChainExecutionResult
	broadcasted     map[types.CrossChainRequestKey]map[types.Address]bool
}

func NewCrossChainTracker(selfChainID string) *CrossChainTracker {
	return &CrossChainTracker{
		selfChainID:     selfChainID,
		contractConfigs: make(map[string]*types.ContractConfig),
		requests:        make(map[types.CrossChainRequestKey]*types.CrossChainExecutionResult),
		broadcasted:     make(map[types.CrossChainRequestKey]map[types.Address]bool),
	}
}

func (c *CrossChainTracker) SelfChainID() string {
	return c.selfChainID
}

// IncreaseNonce post-increments and returns this chain's outbound request
// nonce (spec §4.4).
func (c *CrossChainTracker) IncreaseNonce() types.Uint128 {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.selfNonce.Add(types.NewUint128FromUint64(1))
	if err != nil {
		panic(err)
	}
	c.selfNonce = next
	return next
}

func (c *CrossChainTracker) SelfNonce() types.Uint128 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfNonce
}

// AddContractConfig registers a peer chain's bridge contract; fails if
// chainID is already present (spec §4.4).
func (c *CrossChainTracker) AddContractConfig(chainID, contractAddress string, startBlock uint64, chainType uint8) (*types.ContractConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contractConfigs[chainID]; ok {
		return nil, ErrContractConfigExists
	}
	cfg := &types.ContractConfig{
		ChainID:         chainID,
		ContractAddress: strings.ToLower(contractAddress),
		StartBlock:      startBlock,
		ChainType:       chainType,
	}
	c.contractConfigs[chainID] = cfg
	return cfg, nil
}

// UpdateContractConfig advances a peer chain's processed-nonce/block
// cursor; fails if chainID is unknown (spec §4.4).
func (c *CrossChainTracker) UpdateContractConfig(chainID string, lastProcessedNonce types.Uint128, lastProcessedBlock uint64) (*types.ContractConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, ok := c.contractConfigs[chainID]
	if !ok {
		return nil, ErrContractConfigUnknown
	}
	cfg.LastProcessedNonce = lastProcessedNonce
	cfg.LastProcessedBlock = lastProcessedBlock
	return cfg, nil
}

func (c *CrossChainTracker) GetContractConfig(chainID string) (*types.ContractConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.contractConfigs[chainID]
	return cfg, ok
}

// ListContractConfigs returns the configs for the given chain ids, or
// every config when chainIDs is empty (spec §6.1 get_contracts_config).
func (c *CrossChainTracker) ListContractConfigs(chainIDs []string) []*types.ContractConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(chainIDs) == 0 {
		out := make([]*types.ContractConfig, 0, len(c.contractConfigs))
		for _, cfg := range c.contractConfigs {
			out = append(out, cfg)
		}
		return out
	}
	out := make([]*types.ContractConfig, 0, len(chainIDs))
	for _, id := range chainIDs {
		if cfg, ok := c.contractConfigs[id]; ok {
			out = append(out, cfg)
		}
	}
	return out
}

// IsContractRegistered reports whether chainID has a config whose
// lowercased address matches contractAddr (spec §4.4).
func (c *CrossChainTracker) IsContractRegistered(chainID, contractAddr string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.contractConfigs[chainID]
	if !ok {
		return false
	}
	return cfg.ContractAddress == strings.ToLower(contractAddr)
}

func (c *CrossChainTracker) AddRequest(key types.CrossChainRequestKey, result *types.CrossChainExecutionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[key] = result
}

func (c *CrossChainTracker) GetRequest(key types.CrossChainRequestKey) (*types.CrossChainExecutionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.requests[key]
	return r, ok
}

// ListRequestsForValidator returns every request key assigned to
// validator (not directly modeled in the tracker; retained for symmetry
// with get_crosschain_requests, which is served by the mempool's dispatch
// queues — see mempool.Mempool.CrossChainRequestsFor).

// Broadcasted enforces "each validator broadcasts each inbound request at
// most once" (spec §4.4): idempotent-reject if already set.
func (c *CrossChainTracker) Broadcasted(validator types.Address, chainID, nonce string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := types.CrossChainRequestKey{ChainID: chainID, Nonce: nonce}
	set, ok := c.broadcasted[key]
	if !ok {
		set = make(map[types.Address]bool)
		c.broadcasted[key] = set
	}
	if set[validator] {
		return ErrAlreadyBroadcasted
	}
	set[validator] = true
	return nil
}

// IsBroadcasted is the read-only counterpart of Broadcasted.
func (c *CrossChainTracker) IsBroadcasted(validator types.Address, chainID, nonce string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := types.CrossChainRequestKey{ChainID: chainID, Nonce: nonce}
	return c.broadcasted[key][validator]
}

// Clone deep-copies the tracker for whole-state snapshot/rollback (§5).
func (c *CrossChainTracker) Clone() *CrossChainTracker {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := NewCrossChainTracker(c.selfChainID)
	out.selfNonce = c.selfNonce
	for k, v := range c.contractConfigs {
		out.contractConfigs[k] = v.Clone()
	}
	for k, v := range c.requests {
		out.requests[k] = v.Clone()
	}
	for k, set := range c.broadcasted {
		clonedSet := make(map[types.Address]bool, len(set))
		for addr, ok := range set {
			clonedSet[addr] = ok
		}
		out.broadcasted[k] = clonedSet
	}
	return out
}
