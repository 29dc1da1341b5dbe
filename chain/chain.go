// Package chain implements the Block Producer (C8): the long-lived tick
// loop that attests pending proposals, selects work from the mempool,
// executes it against the World under the whole-state snapshot/rollback
// model, and seals the result into an appended block (spec §4.9).
package chain

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"digichain/core/proposal"
	"digichain/core/state"
	"digichain/core/txengine"
	"digichain/core/types"
	"digichain/mempool"
	"digichain/observability"
)

// DefaultTickInterval is the inter-tick sleep the producer loop honors
// when the caller does not override it (spec §4.9: "3 s between ticks;
// configurable").
const DefaultTickInterval = 3 * time.Second

// DigiChain is the central aggregate: the mutable World, the mempool, the
// two execution engines, and the append-only block log, all owned by a
// single producer loop (spec §5's "exactly one producer task").
type DigiChain struct {
	chainID     string
	selfAddress types.Address
	logger      *slog.Logger

	tickInterval time.Duration

	// worldMu serializes the clone/execute/rollback critical section
	// around each tx/proposal so the producer loop is the sole writer of
	// World, matching spec §5's "no lock held across suspension points"
	// discipline — acquired only for the synchronous span of one item's
	// execution, never across the inter-tick sleep.
	worldMu sync.Mutex
	world   *state.World

	Mempool   *mempool.Mempool
	TxEngine  *txengine.Engine
	Proposals *proposal.Engine

	blocksMu      sync.RWMutex
	blocks        []*types.DigiBlock
	txIndex       map[string]uint64
	proposalIndex map[string]uint64

	pauseMu sync.RWMutex
	paused  bool

	metrics *observability.ChainMetrics
}

// New constructs a DigiChain seeded with a genesis block (index 0, empty
// previous_hash per spec §8 invariant 2) and the given validator set.
func New(chainID string, selfAddress types.Address, validators []types.Validator, tickInterval time.Duration, logger *slog.Logger) *DigiChain {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	world := state.NewWorld(chainID, validators)
	mp := mempool.New()

	c := &DigiChain{
		chainID:       chainID,
		selfAddress:   selfAddress,
		logger:        logger,
		tickInterval:  tickInterval,
		world:         world,
		Mempool:       mp,
		txIndex:       make(map[string]uint64),
		proposalIndex: make(map[string]uint64),
		metrics:       observability.Metrics(),
	}
	c.TxEngine = txengine.New(mp)
	c.Proposals = proposal.New(selfAddress)

	genesis := types.NewBlock(selfAddress, 0, 0, "", nil, nil)
	c.blocks = append(c.blocks, genesis)
	return c
}

func (c *DigiChain) ChainID() string { return c.chainID }

// Height is the next block index to be produced (spec §4.9 step 3:
// "block_number = chain.height()").
func (c *DigiChain) Height() uint64 {
	c.blocksMu.RLock()
	defer c.blocksMu.RUnlock()
	return uint64(len(c.blocks))
}

// Tip returns the most recently sealed block's hash.
func (c *DigiChain) Tip() string {
	c.blocksMu.RLock()
	defer c.blocksMu.RUnlock()
	return c.blocks[len(c.blocks)-1].Hash
}

// Blocks returns the sealed blocks in [start, end), clamped to the
// available range (spec §6.1 get_chain).
func (c *DigiChain) Blocks(start, end uint64) []*types.DigiBlock {
	c.blocksMu.RLock()
	defer c.blocksMu.RUnlock()
	n := uint64(len(c.blocks))
	if n == 0 {
		return nil
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return append([]*types.DigiBlock(nil), c.blocks[start:end]...)
}

// BlockByTxHash and BlockByProposalHash serve the inclusion indexes built
// during execution (spec §6.1 get_transaction/get_proposals).
func (c *DigiChain) TxBlockNumber(hash string) (uint64, bool) {
	c.blocksMu.RLock()
	defer c.blocksMu.RUnlock()
	n, ok := c.txIndex[hash]
	return n, ok
}

func (c *DigiChain) ProposalBlockNumber(hash string) (uint64, bool) {
	c.blocksMu.RLock()
	defer c.blocksMu.RUnlock()
	n, ok := c.proposalIndex[hash]
	return n, ok
}

// World exposes the live state for read-only RPC queries (balances,
// accounts, tokens). Callers must not mutate it outside the producer
// loop.
func (c *DigiChain) World() *state.World {
	c.worldMu.Lock()
	defer c.worldMu.Unlock()
	return c.world
}

// SetPaused implements the §6.1 "pause" test hook (spec §4.9 step 1).
func (c *DigiChain) SetPaused(paused bool) {
	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()
	c.paused = paused
}

func (c *DigiChain) Paused() bool {
	c.pauseMu.RLock()
	defer c.pauseMu.RUnlock()
	return c.paused
}

// Run drives the producer loop until ctx is canceled (spec §5:
// "uncancellable until a shutdown signal; each tick sleeps 3 s").
func (c *DigiChain) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("block producer stopped")
			return
		case <-ticker.C:
			if c.Paused() {
				continue
			}
			c.Tick()
		}
	}
}

// Tick runs exactly one producer iteration (spec §4.9 steps 2-8).
func (c *DigiChain) Tick() {
	c.Proposals.Attest(c.Mempool)

	now := time.Now().Unix()
	blockNumber := c.Height()
	validatorCount := c.World().ValidatorCount()

	selectedTxs, selectedProposals := c.Mempool.SelectTxsAndProposalsRandomly(c.chainID, validatorCount)

	for _, tx := range selectedTxs {
		c.executeTx(tx, blockNumber, now)
	}
	for _, p := range selectedProposals {
		c.executeProposal(p, blockNumber, now)
	}

	prevHash := c.Tip()
	block := types.NewBlock(c.selfAddress, now, blockNumber, prevHash, selectedTxs, selectedProposals)

	c.blocksMu.Lock()
	c.blocks = append(c.blocks, block)
	for _, tx := range selectedTxs {
		c.txIndex[tx.Hash] = blockNumber
	}
	for _, p := range selectedProposals {
		c.proposalIndex[p.Hash] = blockNumber
	}
	c.blocksMu.Unlock()

	c.Mempool.DropTxAndProposals(block)

	c.metrics.ObserveBlock(blockNumber, len(selectedTxs), len(selectedProposals))
	c.logger.Info("block sealed", "height", blockNumber, "hash", block.Hash, "txs", len(selectedTxs), "proposals", len(selectedProposals))
}

// executeTx implements §4.9 step 5: clone, execute, conditionally
// restore, then unconditionally bump the sender's nonce and index the
// hash — the nonce bump lands on whichever world (live or restored) is
// current afterward, so it survives rollback (spec §4.6/§8 invariant 4).
func (c *DigiChain) executeTx(tx *types.Transaction, blockNumber uint64, now int64) {
	c.worldMu.Lock()
	defer c.worldMu.Unlock()

	snapshot := c.world.Clone()
	result := c.TxEngine.Execute(c.world, tx, now)
	if result.IsErr() {
		c.world = snapshot
	}
	tx.Result = result
	tx.Timestamp = now
	tx.BlockNumber = blockNumber

	c.world.Accounts.IncreaseTxNonce(tx.From)
	c.world.Accounts.AddTransactionHash(tx.From, tx.Hash)
}

// executeProposal mirrors executeTx for §4.9 step 6.
func (c *DigiChain) executeProposal(p *types.Proposal, blockNumber uint64, now int64) {
	c.worldMu.Lock()
	defer c.worldMu.Unlock()

	snapshot := c.world.Clone()
	result := c.Proposals.Execute(c.world, c.Mempool, p, now)
	if result.IsErr() {
		c.world = snapshot
	}
	p.Result = result
	p.Timestamp = now
	p.BlockNumber = blockNumber

	c.world.Accounts.IncreaseProposalNonce(p.ProposedBy)
}
