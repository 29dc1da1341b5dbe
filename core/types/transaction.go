package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Transaction is a client-submitted ledger operation (spec §3). Fields up
// through TxType are immutable once submitted; Timestamp, BlockNumber and
// Result are filled in by execution.
type Transaction struct {
	Hash      string    `json:"hash"`
	ChainID   string    `json:"chain_id"`
	CreatedAt int64     `json:"created_at"`
	Nonce     Uint128   `json:"nonce"`
	From      Address   `json:"from"`
	Data      HexString `json:"data"`
	Signature Signature `json:"signature"`
	Type      TxType    `json:"tx_type"`

	Timestamp   int64      `json:"timestamp"`
	BlockNumber uint64     `json:"block_number"`
	Result      ExecResult `json:"result"`
}

// txHashView mirrors the pre-execution fields in the order the canonical
// hash is computed over (spec §3: "Hash = SHA-256 over the canonical
// serialized form of the pre-execution fields").
type txHashView struct {
	ChainID   string
	CreatedAt int64
	Nonce     string
	From      string
	Data      string
	Signature string
	Type      string
}

// ComputeHash derives the transaction's canonical hash from its
// pre-execution fields. It does not mutate t.Hash; callers assign it.
func (t *Transaction) ComputeHash() string {
	view := txHashView{
		ChainID:   t.ChainID,
		CreatedAt: t.CreatedAt,
		Nonce:     t.Nonce.String(),
		From:      t.From.String(),
		Data:      t.Data.String(),
		Signature: t.Signature.String(),
		Type:      t.Type.String(),
	}
	encoded, err := json.Marshal(view)
	if err != nil {
		// view is a plain struct of strings and an int64; this cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(encoded)
	return "0x" + hex.EncodeToString(sum[:])
}

// Clone deep-copies the transaction for snapshot/rollback and for safe
// post-execution mutation of the selected batch.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	out := *t
	out.Data = NewHexStringFromBytes(t.Data)
	return &out
}
