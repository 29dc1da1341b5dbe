package types

import (
	"encoding/json"
	"fmt"
)

// ProposalTypeKind enumerates the proposal tagged-variant discriminants
// (spec §6.3).
type ProposalTypeKind string

const (
	ProposalUserKYC            ProposalTypeKind = "UserKYC"
	ProposalCrossChainRequest  ProposalTypeKind = "CrossChainRequest"
	ProposalUpdateToken        ProposalTypeKind = "UpdateToken"
	ProposalAddValidators      ProposalTypeKind = "AddValidators"
	ProposalRemoveValidators   ProposalTypeKind = "RemoveValidators"
	ProposalAddToken           ProposalTypeKind = "AddToken"
	ProposalAddChainToken      ProposalTypeKind = "AddChainToken"
	ProposalUpdateChainToken   ProposalTypeKind = "UpdateChainToken"
	ProposalAddContractConfig ProposalTypeKind = "AddContractConfig"
	ProposalUpdateTokensPrice ProposalTypeKind = "UpdateTokensPrice"
	ProposalNone              ProposalTypeKind = "None"
)

var proposalTypesWithPayload = map[ProposalTypeKind]bool{
	ProposalCrossChainRequest: true,
}

var knownProposalTypeKinds = map[ProposalTypeKind]bool{
	ProposalUserKYC: true, ProposalCrossChainRequest: true, ProposalUpdateToken: true,
	ProposalAddValidators: true, ProposalRemoveValidators: true, ProposalAddToken: true,
	ProposalAddChainToken: true, ProposalUpdateChainToken: true, ProposalAddContractConfig: true,
	ProposalUpdateTokensPrice: true, ProposalNone: true,
}

// ProposalType is the tagged-variant proposal discriminant. Payload carries
// the hex cross-chain descriptor for CrossChainRequest; empty otherwise.
type ProposalType struct {
	Kind    ProposalTypeKind
	Payload string
}

func NewProposalType(kind ProposalTypeKind, payload string) ProposalType {
	return ProposalType{Kind: kind, Payload: payload}
}

func (t ProposalType) String() string {
	return formatVariant(string(t.Kind), t.Payload)
}

// ParseProposalType parses the "Variant" / "Variant(payload)" wire form.
func ParseProposalType(s string) (ProposalType, error) {
	name, payload, hasPayload := splitVariant(s)
	kind := ProposalTypeKind(name)
	if !knownProposalTypeKinds[kind] {
		return ProposalType{}, fmt.Errorf("proposal_type: unknown variant %q", name)
	}
	wantsPayload := proposalTypesWithPayload[kind]
	if wantsPayload != hasPayload {
		return ProposalType{}, fmt.Errorf("proposal_type: variant %q payload mismatch", name)
	}
	return ProposalType{Kind: kind, Payload: payload}, nil
}

func (t ProposalType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ProposalType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseProposalType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
