// Package mempool implements the Mempool component (C5): pending
// transactions, grouped proposals, the attestation cursor, and
// per-validator cross-chain dispatch queues (spec §4.8).
package mempool

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"sort"
	"sync"

	"digichain/core/types"
)

// maxSelection is the upper bound on the uniformly random k drawn per
// pool during selection (spec §4.8: "min(20, len)").
const maxSelection = 20

var ErrEmptyValidatorSet = errors.New("mempool: empty validator set")

// proposalGroup tracks one proposal_type_label's ordered list alongside
// its attestation cursor.
type proposalGroup struct {
	items       []*types.Proposal
	attestedIdx int
}

// Mempool is the Mempool component (C5).
type Mempool struct {
	mu sync.Mutex

	transactions []*types.Transaction
	proposals    map[string]*proposalGroup

	// crosschainRequest is the per-validator outbound dispatch queue
	// (spec §3 CrossChainWithdrawMsg, §4.8 add_crosschain_request).
	crosschainRequest map[types.Address][]*types.WithdrawData
}

func New() *Mempool {
	return &Mempool{
		proposals:         make(map[string]*proposalGroup),
		crosschainRequest: make(map[types.Address][]*types.WithdrawData),
	}
}

// AddTransaction appends tx to the pending list (spec §4.8).
func (m *Mempool) AddTransaction(tx *types.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, tx)
}

// AddProposal computes the proposal's content-fingerprint hash and
// appends it to the label's group. No dedup is enforced — two identical
// proposals may both enter and later both execute (spec §4.8, flagged
// §9 "Duplicate proposals").
func (m *Mempool) AddProposal(label string, p *types.Proposal) {
	p.Hash = p.ComputeHash()

	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.proposals[label]
	if !ok {
		g = &proposalGroup{}
		m.proposals[label] = g
	}
	g.items = append(g.items, p)
}

// ProposalLabels returns every group label currently present, sorted for
// deterministic iteration (attestation and selection both walk labels in
// this order).
func (m *Mempool) ProposalLabels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	labels := make([]string, 0, len(m.proposals))
	for label := range m.proposals {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ProposalsInGroup returns a copy of the label's pending proposal slice.
func (m *Mempool) ProposalsInGroup(label string) []*types.Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.proposals[label]
	if !ok {
		return nil
	}
	return append([]*types.Proposal(nil), g.items...)
}

// AttestedIndex returns the label's attestation cursor.
func (m *Mempool) AttestedIndex(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.proposals[label]
	if !ok {
		return 0
	}
	return g.attestedIdx
}

// SetAttestedIndex advances the label's attestation cursor (spec §4.6:
// "records progress to avoid re-walking").
func (m *Mempool) SetAttestedIndex(label string, idx int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.proposals[label]
	if !ok {
		return
	}
	g.attestedIdx = idx
}

// AddCrossChainRequest enqueues msg onto validator's outbound dispatch
// queue (spec §4.8).
func (m *Mempool) AddCrossChainRequest(validator types.Address, msg *types.WithdrawData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crosschainRequest[validator] = append(m.crosschainRequest[validator], msg)
}

// GetCrossChainRequestToExecute pops and returns the next dispatch item
// queued for validator, if any.
func (m *Mempool) GetCrossChainRequestToExecute(validator types.Address) (*types.WithdrawData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.crosschainRequest[validator]
	if len(queue) == 0 {
		return nil, false
	}
	item := queue[0]
	m.crosschainRequest[validator] = queue[1:]
	return item, true
}

// CrossChainRequestsFor returns a read-only snapshot of validator's
// pending dispatch queue (spec §6.1 get_crosschain_requests), without
// dequeuing.
func (m *Mempool) CrossChainRequestsFor(validator types.Address) []*types.WithdrawData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.WithdrawData(nil), m.crosschainRequest[validator]...)
}

// Transactions returns a read-only snapshot of the pending transaction
// list (spec §6.1 get_mempool).
func (m *Mempool) Transactions() []*types.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.Transaction(nil), m.transactions...)
}

// AllProposals returns every pending proposal across every group,
// flattened in label order (spec §6.1 get_mempool).
func (m *Mempool) AllProposals() []*types.Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	labels := make([]string, 0, len(m.proposals))
	for label := range m.proposals {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	out := make([]*types.Proposal, 0)
	for _, label := range labels {
		out = append(out, m.proposals[label].items...)
	}
	return out
}

// validity is satisfied by both *types.Transaction (chain_id match only)
// and the proposal quorum predicate; selectFirstK is generic over either
// via the isValid callback so both pools share one selection routine.
func selectFirstK[T any](items []T, isValid func(T) bool) ([]T, []T) {
	if len(items) == 0 {
		return nil, nil
	}
	bound := len(items)
	if bound > maxSelection {
		bound = maxSelection
	}
	k := 1 + randomIntN(bound)
	// Take the first k indices of the unshuffled 0..len range (spec §9:
	// "Random selection non-shuffle" — preserved verbatim as the FIFO-
	// biased default).
	candidates := items[:k]
	selected := make([]T, 0, k)
	remaining := make([]T, 0, len(items))
	for i, item := range candidates {
		if isValid(item) {
			selected = append(selected, item)
		}
		_ = i
	}
	remaining = append(remaining, items[k:]...)
	for _, item := range candidates {
		if isValid(item) {
			remaining = append(remaining, item)
		}
	}
	// The producer re-adds still-pending (unselected or selected-but-not-
	// yet-sealed) items back into the pool; dropping happens explicitly
	// via DropTxAndProposals once a block seals. Here "remaining" is what
	// stays in the pool immediately: untouched tail items plus the
	// selected-and-valid head items (they are only removed once sealed).
	return selected, remaining
}

// randomIntN draws a uniform random integer in [0, n) using a CSPRNG —
// the selection draw gates which transactions/proposals a block includes,
// so it is treated the same as the TokenId/validator-choice draws.
func randomIntN(n int) int {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n))
}

// SelectTxsAndProposalsRandomly implements spec §4.8's selection
// algorithm independently over the transaction pool and the flattened
// proposal pool: for each, if empty return empty, else pick a uniformly
// random k in [1, min(20, len)], take the first k unshuffled indices, and
// filter through the corresponding validity predicate — invalid items are
// dropped from the pool outright.
func (m *Mempool) SelectTxsAndProposalsRandomly(chainID string, validatorCount int) ([]*types.Transaction, []*types.Proposal) {
	m.mu.Lock()
	txs := append([]*types.Transaction(nil), m.transactions...)
	m.mu.Unlock()

	selectedTxs, remainingTxs := selectFirstK(txs, func(tx *types.Transaction) bool {
		return tx.ChainID == chainID
	})

	m.mu.Lock()
	m.transactions = remainingTxs
	m.mu.Unlock()

	labels := m.ProposalLabels()
	var flat []*types.Proposal
	groupOf := make(map[string]string, 0)
	for _, label := range labels {
		items := m.ProposalsInGroup(label)
		for _, p := range items {
			flat = append(flat, p)
			groupOf[p.Hash] = label
		}
	}

	selectedProposals, remainingProposals := selectFirstK(flat, func(p *types.Proposal) bool {
		return p.IsValid(chainID, validatorCount)
	})

	m.mu.Lock()
	// Selection reorders each group (unselected tail first, then the
	// selected-but-still-pending head), so a carried-over cursor would
	// point at the wrong position. Reset to 0: Attest's HasValidatorSignature
	// membership check makes re-scanning already-signed items harmless.
	regrouped := make(map[string]*proposalGroup, len(m.proposals))
	for _, p := range remainingProposals {
		label := groupOf[p.Hash]
		g, ok := regrouped[label]
		if !ok {
			g = &proposalGroup{}
			regrouped[label] = g
		}
		g.items = append(g.items, p)
	}
	m.proposals = regrouped
	m.mu.Unlock()

	return selectedTxs, selectedProposals
}

// DropTxAndProposals removes every transaction and proposal included in
// block from the pool (spec §4.8, invoked after the block seals).
func (m *Mempool) DropTxAndProposals(block *types.DigiBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	included := make(map[string]bool, len(block.Transactions))
	for _, tx := range block.Transactions {
		included[tx.Hash] = true
	}
	kept := m.transactions[:0]
	for _, tx := range m.transactions {
		if !included[tx.Hash] {
			kept = append(kept, tx)
		}
	}
	m.transactions = append([]*types.Transaction(nil), kept...)

	includedProposals := make(map[string]bool, len(block.Proposals))
	for _, p := range block.Proposals {
		includedProposals[p.Hash] = true
	}
	for _, g := range m.proposals {
		keptItems := g.items[:0]
		for _, p := range g.items {
			if !includedProposals[p.Hash] {
				keptItems = append(keptItems, p)
			}
		}
		g.items = append([]*types.Proposal(nil), keptItems...)
	}
}
