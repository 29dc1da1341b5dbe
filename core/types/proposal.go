package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// WithdrawData is the payload queued to a chosen validator for outbound
// cross-chain dispatch (spec §3: CrossChainWithdrawMsg).
type WithdrawData struct {
	DstChainID string      `json:"dst_chain_id"`
	SrcChainID string      `json:"src_chain_id"`
	SrcNonce   Uint128     `json:"src_nonce"`
	Payload    HexString   `json:"payload"`
	Sigs       []Signature `json:"sigs"`
}

func (w *WithdrawData) Clone() *WithdrawData {
	if w == nil {
		return nil
	}
	out := *w
	out.Payload = NewHexStringFromBytes(w.Payload)
	out.Sigs = append([]Signature(nil), w.Sigs...)
	return &out
}

// Proposal is a validator-attested mutation of world state (spec §3).
type Proposal struct {
	Hash                 string               `json:"hash"`
	ChainID              string               `json:"chain_id"`
	Type                 ProposalType         `json:"proposal_type"`
	ProposedBy           Address              `json:"proposed_by"`
	ProposedAt           int64                `json:"proposed_at"`
	Data                 HexString            `json:"data"`
	Nonce                Uint128              `json:"nonce"`
	BlockNumber          uint64               `json:"block_number"`
	Signature            Signature            `json:"signature"`
	ValidatorsSignatures []ValidatorSignature `json:"validators_signatures"`

	// Timestamp is mined_at, set once the proposal is sealed into a block.
	Timestamp int64      `json:"timestamp"`
	Result    ExecResult `json:"result"`

	// ExtraData carries the outbound withdraw payload for a
	// CrossChainRequest proposal originated by this chain (spec §4.7a).
	ExtraData *WithdrawData `json:"extra_data,omitempty"`
}

// proposalFingerprint mirrors spec §3: "Hash computed over {chain_id,
// proposal_type, data} only — the content fingerprint, independent of
// signers or timestamps."
type proposalFingerprint struct {
	ChainID      string
	ProposalType string
	Data         string
}

// ComputeHash derives the proposal's content fingerprint.
func (p *Proposal) ComputeHash() string {
	view := proposalFingerprint{
		ChainID:      p.ChainID,
		ProposalType: p.Type.String(),
		Data:         p.Data.String(),
	}
	encoded, err := json.Marshal(view)
	if err != nil {
		panic(err)
	}
	sum := sha256.Sum256(encoded)
	return "0x" + hex.EncodeToString(sum[:])
}

// HasValidatorSignature reports whether addr has already attested.
func (p *Proposal) HasValidatorSignature(addr Address) bool {
	for _, vs := range p.ValidatorsSignatures {
		if vs.Validator.Equal(addr) {
			return true
		}
	}
	return false
}

// IsValid implements spec §4.6's validity predicate: the proposal's
// chain_id matches and at least 70% of the validator set has attested.
func (p *Proposal) IsValid(chainID string, validatorCount int) bool {
	if p.ChainID != chainID {
		return false
	}
	if validatorCount == 0 {
		return false
	}
	return 100*len(p.ValidatorsSignatures) >= 70*validatorCount
}

// Clone deep-copies the proposal for snapshot/rollback.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	out := *p
	out.Data = NewHexStringFromBytes(p.Data)
	out.ValidatorsSignatures = append([]ValidatorSignature(nil), p.ValidatorsSignatures...)
	out.ExtraData = p.ExtraData.Clone()
	return &out
}
