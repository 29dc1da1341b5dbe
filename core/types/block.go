package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DigiBlock is a sealed block (spec §3). Proposals are carried for
// informational/query purposes but are NOT part of the canonical hash —
// preserved verbatim from the original source and flagged in §9 as a
// likely bug.
type DigiBlock struct {
	Index        uint64         `json:"index"`
	Timestamp    int64          `json:"timestamp"`
	MerkleRoot   string         `json:"merkle_root"`
	Transactions []*Transaction `json:"transactions"`
	Proposals    []*Proposal    `json:"proposals"`
	PreviousHash string         `json:"previous_hash"`
	Sign         Signature      `json:"sign"`
	ProposedBy   Address        `json:"proposed_by"`
	Hash         string         `json:"hash"`
}

// reprTransactions renders the full per-transaction state, not just its
// hash, so the block hash commits to execution outcomes (result,
// timestamp, block_number) and not only the pre-execution payload.
// Grounded on the original source's get_block_hash, which folds the
// whole transaction list into the hash via a struct debug dump.
func reprTransactions(txs []*Transaction) string {
	parts := make([]string, len(txs))
	for i, tx := range txs {
		parts[i] = fmt.Sprintf(
			"Transaction{hash:%s chain_id:%s created_at:%d nonce:%s from:%s data:%s signature:%s tx_type:%s timestamp:%d block_number:%d result:%s}",
			tx.Hash, tx.ChainID, tx.CreatedAt, tx.Nonce.String(), tx.From.String(), tx.Data.String(), tx.Signature.String(), tx.Type.String(), tx.Timestamp, tx.BlockNumber, tx.Result.String(),
		)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MerkleRootOf computes the iterated pairwise SHA-256 merkle root over
// per-transaction hashes (spec §3/§4.8). Matches the original's
// calculate_merkle_root exactly on its edge cases, which the spec leaves
// unspecified: an empty list roots to "" (no hashing), a single
// transaction's hash passes through unchanged (it is never re-hashed),
// and an odd-sized level drops its unpaired trailing hash rather than
// duplicating it.
func MerkleRootOf(txs []*Transaction) string {
	if len(txs) == 0 {
		return ""
	}
	level := make([]string, len(txs))
	for i, tx := range txs {
		level[i] = tx.Hash
	}
	for len(level) > 1 {
		next := make([]string, 0, len(level)/2)
		for i := 0; i+1 < len(level); i += 2 {
			sum := sha256.Sum256([]byte(level[i] + level[i+1]))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
	}
	return level[0]
}

// ComputeHash derives the block hash per spec §3: SHA-256 over the
// concatenation of index, timestamp, merkle_root, the full transaction
// rendering, and previous_hash. Proposals are intentionally excluded
// (spec §9). Grounded on the original source's get_block_hash, which
// concatenates the same fields as plain text rather than re-encoding them.
func (b *DigiBlock) ComputeHash() string {
	payload := fmt.Sprintf("%d%d%s%s%s", b.Index, b.Timestamp, b.MerkleRoot, reprTransactions(b.Transactions), b.PreviousHash)
	sum := sha256.Sum256([]byte(payload))
	return "0x" + hex.EncodeToString(sum[:])
}

// NewBlock builds and hashes a block from its sealed contents, mirroring
// DigiBlock::create_block (spec §4.9 step 7).
func NewBlock(proposedBy Address, now int64, index uint64, previousHash string, txs []*Transaction, proposals []*Proposal) *DigiBlock {
	b := &DigiBlock{
		Index:        index,
		Timestamp:    now,
		MerkleRoot:   MerkleRootOf(txs),
		Transactions: txs,
		Proposals:    proposals,
		PreviousHash: previousHash,
		ProposedBy:   proposedBy,
	}
	b.Hash = b.ComputeHash()
	return b
}

// String renders a brief, human-readable summary for logs.
func (b *DigiBlock) String() string {
	return fmt.Sprintf("block#%d hash=%s txs=%d proposals=%d", b.Index, b.Hash, len(b.Transactions), len(b.Proposals))
}
