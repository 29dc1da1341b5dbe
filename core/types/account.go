package types

// Account is the per-address ledger record (spec §3). It is created on
// first reference and never destroyed; every field is mutated only by its
// owner's own transactions and proposals.
type Account struct {
	TxNonce       Uint128 `json:"tx_nonce"`
	ProposalNonce Uint128 `json:"proposal_nonce"`

	// Accepts advertises, per TokenId, the maximum amount this account is
	// willing to receive.
	Accepts map[TokenId]Uint128 `json:"accepts"`

	// Transactions is the insertion-ordered list of this account's own
	// transaction hashes (spec §4.3 add_transaction_hash, append-only).
	Transactions []string `json:"transactions"`

	Name           string `json:"name"`
	Country        string `json:"country"`
	Mobile         string `json:"mobile"`
	UpiID          string `json:"upi_id"`
	AadharNo       string `json:"aadhar_no"`
	KYCCompletedAt int64  `json:"kyc_completed_at"`
	IsKYCDone      bool   `json:"is_kyc_done"`
}

// NewAccount returns a freshly defaulted account, matching the
// get_or_create semantics of spec §4.3.
func NewAccount() *Account {
	return &Account{
		Accepts:      make(map[TokenId]Uint128),
		Transactions: make([]string, 0),
	}
}

// Clone deep-copies the account for the whole-state snapshot/rollback
// model (spec §5).
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Accepts = make(map[TokenId]Uint128, len(a.Accepts))
	for k, v := range a.Accepts {
		out.Accepts[k] = v
	}
	out.Transactions = append([]string(nil), a.Transactions...)
	return &out
}
