package types

import (
	"encoding/json"
	"fmt"
)

// TxTypeKind enumerates the transaction tagged-variant discriminants
// (spec §6.3).
type TxTypeKind string

const (
	TxTransfer           TxTypeKind = "Transfer"
	TxCrosschainTransfer TxTypeKind = "CrosschainTransfer"
	TxCrossChainRequest  TxTypeKind = "CrossChainRequest"
	TxUserKYC            TxTypeKind = "UserKYC"
	TxNone               TxTypeKind = "None"
	TxAddContractConfig  TxTypeKind = "AddContractConfig"
	TxAddToken           TxTypeKind = "AddToken"
	TxUpdateTokenAccepts TxTypeKind = "UpdateTokenAccepts"
	TxUpdateTokensPrice  TxTypeKind = "UpdateTokensPrice"
)

// txTypesWithPayload carries the chain_id (CrosschainTransfer) or a hex
// cross-chain descriptor (CrossChainRequest) inline in the variant string.
var txTypesWithPayload = map[TxTypeKind]bool{
	TxCrosschainTransfer: true,
	TxCrossChainRequest:  true,
}

var knownTxTypeKinds = map[TxTypeKind]bool{
	TxTransfer: true, TxCrosschainTransfer: true, TxCrossChainRequest: true,
	TxUserKYC: true, TxNone: true, TxAddContractConfig: true, TxAddToken: true,
	TxUpdateTokenAccepts: true, TxUpdateTokensPrice: true,
}

// TxType is the tagged-variant transaction discriminant. Payload holds the
// inline data for variants that carry it (chain_id or hex descriptor); it
// is empty for all others.
type TxType struct {
	Kind    TxTypeKind
	Payload string
}

func NewTxType(kind TxTypeKind, payload string) TxType {
	return TxType{Kind: kind, Payload: payload}
}

// RequiresKYC reports whether this tx type is gated behind the sender's
// is_kyc_done flag (spec §4.5 "Transaction pre-gate" — every type but
// UserKYC itself).
func (t TxType) RequiresKYC() bool {
	return t.Kind != TxUserKYC
}

func (t TxType) String() string {
	return formatVariant(string(t.Kind), t.Payload)
}

// ParseTxType parses the "Variant" / "Variant(payload)" wire form.
func ParseTxType(s string) (TxType, error) {
	name, payload, hasPayload := splitVariant(s)
	kind := TxTypeKind(name)
	if !knownTxTypeKinds[kind] {
		return TxType{}, fmt.Errorf("tx_type: unknown variant %q", name)
	}
	wantsPayload := txTypesWithPayload[kind]
	if wantsPayload != hasPayload {
		return TxType{}, fmt.Errorf("tx_type: variant %q payload mismatch", name)
	}
	return TxType{Kind: kind, Payload: payload}, nil
}

func (t TxType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TxType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTxType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
