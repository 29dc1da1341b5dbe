// Package txengine implements the Transaction Engine (C7): per-tx_type
// dispatch against a World snapshot (spec §4.5).
package txengine

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"digichain/core/codec"
	"digichain/core/state"
	"digichain/core/types"
	"digichain/observability"
)

var (
	ErrKYCRequired       = errors.New("txengine: kyc required")
	ErrUnknownTxType     = errors.New("txengine: unsupported tx_type")
	ErrSlippage          = errors.New("txengine: slippage")
	ErrLengthMismatch    = errors.New("txengine: token/data length mismatch")
	ErrEmptyValidatorSet = errors.New("txengine: empty validator set")
)

// ProposalSink is how emitted proposals reach the mempool without
// txengine importing it directly (the mempool already imports core/types,
// and a mempool->txengine import would cycle back).
type ProposalSink interface {
	AddProposal(label string, p *types.Proposal)
}

// Engine is the Transaction Engine (C7).
type Engine struct {
	Proposals ProposalSink
}

func New(sink ProposalSink) *Engine {
	return &Engine{Proposals: sink}
}

// Execute runs tx against w and returns its result record. The caller
// (chain package) owns the per-tx snapshot/rollback around this call
// (spec §5) and the post-execution nonce/index bookkeeping (spec §4.9).
func (e *Engine) Execute(w *state.World, tx *types.Transaction, now int64) types.ExecResult {
	msg, err := e.dispatch(w, tx, now)
	if err != nil {
		return types.ErrResult(err.Error())
	}
	return types.OkResult(msg)
}

// IngestGate implements the spec §4.5 transaction pre-gate, applied once
// at broadcast time: any tx_type other than UserKYC requires the sender's
// is_kyc_done flag; a CrossChainRequest additionally deduplicates
// per-validator broadcasts via CrossChain.Broadcasted.
func IngestGate(w *state.World, tx *types.Transaction) error {
	if tx.Type.RequiresKYC() {
		acc, ok := w.Accounts.Get(tx.From)
		if !ok || !acc.IsKYCDone {
			return ErrKYCRequired
		}
	}
	if tx.Type.Kind == types.TxCrossChainRequest {
		descHex, err := types.NewHexStringFromHex(tx.Type.Payload)
		if err != nil {
			return err
		}
		d, err := codec.DecodeCrossChainRequestDescriptor(descHex)
		if err != nil {
			return err
		}
		if err := w.CrossChain.Broadcasted(tx.From, d.SrcChainID, d.SrcNonce.String()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) dispatch(w *state.World, tx *types.Transaction, now int64) (string, error) {
	if tx.Type.RequiresKYC() {
		acc, ok := w.Accounts.Get(tx.From)
		if !ok || !acc.IsKYCDone {
			return "", ErrKYCRequired
		}
	}

	switch tx.Type.Kind {
	case types.TxUserKYC:
		return e.emit(w, tx, types.ProposalUserKYC, "", tx.Data, now)
	case types.TxAddToken:
		return e.emit(w, tx, types.ProposalAddToken, "", tx.Data, now)
	case types.TxAddContractConfig:
		return e.emit(w, tx, types.ProposalAddContractConfig, "", tx.Data, now)
	case types.TxUpdateTokensPrice:
		return e.emit(w, tx, types.ProposalUpdateTokensPrice, "", tx.Data, now)
	case types.TxUpdateTokenAccepts:
		return e.updateTokenAccepts(w, tx)
	case types.TxTransfer:
		return e.transfer(w, tx)
	case types.TxCrosschainTransfer:
		return e.crosschainTransfer(w, tx, now)
	case types.TxCrossChainRequest:
		return e.crossChainRequest(w, tx, now)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTxType, tx.Type.Kind)
	}
}

func (e *Engine) emit(w *state.World, tx *types.Transaction, kind types.ProposalTypeKind, payload string, data types.HexString, now int64) (string, error) {
	p := &types.Proposal{
		ChainID:    tx.ChainID,
		Type:       types.NewProposalType(kind, payload),
		ProposedBy: tx.From,
		ProposedAt: now,
		Data:       data,
	}
	p.Hash = p.ComputeHash()
	e.Proposals.AddProposal(string(kind), p)
	return p.Hash, nil
}

func (e *Engine) updateTokenAccepts(w *state.World, tx *types.Transaction) (string, error) {
	req, err := codec.DecodeUpdateTokenAccepts(tx.Data)
	if err != nil {
		return "", err
	}
	if len(req.TokenIDs) != len(req.Amounts) {
		return "", ErrLengthMismatch
	}
	tokens := make([]types.TokenId, len(req.TokenIDs))
	amounts := make([]types.Uint128, len(req.Amounts))
	for i, id := range req.TokenIDs {
		if _, err := w.Tokens.Get(types.TokenId(id)); err != nil {
			return "", err
		}
		amount, err := types.Uint128FromBig(req.Amounts[i])
		if err != nil {
			return "", err
		}
		tokens[i] = types.TokenId(id)
		amounts[i] = amount
	}
	if err := w.Accounts.UpdateAccepts(tx.From, tokens, amounts); err != nil {
		return "", err
	}
	return "accepts updated", nil
}

func (e *Engine) transfer(w *state.World, tx *types.Transaction) (string, error) {
	t, err := codec.DecodeTransfer(tx.Data)
	if err != nil {
		return "", err
	}
	if len(t.Tokens) != len(t.Data) {
		return "", ErrLengthMismatch
	}

	total := types.Uint128Zero
	for i, tokenID := range t.Tokens {
		payload, err := types.NewHexStringFromHex(t.Data[i])
		if err != nil {
			return "", err
		}
		perToken, err := codec.DecodeTokenTransferData(payload)
		if err != nil {
			return "", err
		}
		value, err := w.Tokens.Transfer(types.TokenId(tokenID), tx.From, perToken)
		if err != nil {
			return "", err
		}
		total, err = total.Add(value)
		if err != nil {
			return "", err
		}
		if tok, err := w.Tokens.Get(types.TokenId(tokenID)); err == nil {
			observability.Events().RecordTransfer(tok.Symbol)
		}
	}

	amount, err := types.Uint128FromBig(t.Amount)
	if err != nil {
		return "", err
	}
	slippage, err := types.Uint128FromBig(t.Slippage)
	if err != nil {
		return "", err
	}
	lower := types.Uint128Zero
	if amount.Cmp(slippage) >= 0 {
		lower, err = amount.Sub(slippage)
		if err != nil {
			return "", err
		}
	}
	upper, err := amount.Add(slippage)
	if err != nil {
		return "", err
	}
	if total.Cmp(lower) < 0 || total.Cmp(upper) > 0 {
		return "", ErrSlippage
	}
	return fmt.Sprintf("transferred value=%s", total.String()), nil
}

func (e *Engine) crosschainTransfer(w *state.World, tx *types.Transaction, now int64) (string, error) {
	dstChainID := tx.Type.Payload
	ct, err := codec.DecodeCrosschainTransfer(tx.Data)
	if err != nil {
		return "", err
	}
	if len(ct.Tokens) != len(ct.Data) {
		return "", ErrLengthMismatch
	}

	dstTokens := make([]types.Address, 0, len(ct.Tokens))
	dstAmounts := make([]*big.Int, 0, len(ct.Tokens))
	for i, tokenID := range ct.Tokens {
		payload := types.NewHexStringFromBytes(ct.Data[i])
		perToken, err := codec.DecodeTokenCrossTransferData(payload)
		if err != nil {
			return "", err
		}
		dstAddrStr, err := w.Tokens.CrossChainTransfer(types.TokenId(tokenID), tx.From, perToken, dstChainID)
		if err != nil {
			return "", err
		}
		dstAddr, err := types.ParseAddress(dstAddrStr)
		if err != nil {
			return "", err
		}
		dstTokens = append(dstTokens, dstAddr)
		dstAmounts = append(dstAmounts, perToken.Amount)
		if tok, err := w.Tokens.Get(types.TokenId(tokenID)); err == nil {
			observability.Events().RecordTransfer(tok.Symbol)
		}
	}

	srcNonce := w.CrossChain.IncreaseNonce()
	validator, ok := pickRandomValidator(w)
	if !ok {
		return "", ErrEmptyValidatorSet
	}

	descriptor := codec.CrossChainRequestDescriptor{
		RequestType: codec.RequestTypeUnlockedWithdraw,
		SrcChainID:  w.ChainID,
		SrcNonce:    srcNonce.Big(),
		DstChainID:  dstChainID,
		DstNonce:    big.NewInt(0),
		Validator:   validator.Address,
	}
	descHex, err := codec.EncodeCrossChainRequestDescriptor(descriptor)
	if err != nil {
		return "", err
	}

	withdrawPayload := codec.CrossChainWithdrawPayload{
		RequestType: codec.RequestTypeUnlockedWithdraw,
		Tokens:      dstTokens,
		Amounts:     dstAmounts,
		Sender:      tx.From,
		Recipient:   ct.Recipient,
		Message:     nil,
	}
	payloadHex, err := codec.EncodeCrossChainWithdrawPayload(withdrawPayload)
	if err != nil {
		return "", err
	}

	p := &types.Proposal{
		ChainID:    w.ChainID,
		Type:       types.NewProposalType(types.ProposalCrossChainRequest, descHex.String()),
		ProposedBy: tx.From,
		ProposedAt: now,
		Data:       payloadHex,
		ExtraData: &types.WithdrawData{
			DstChainID: dstChainID,
			SrcChainID: w.ChainID,
			SrcNonce:   srcNonce,
			Payload:    payloadHex,
			Sigs:       nil,
		},
	}
	p.Hash = p.ComputeHash()
	e.Proposals.AddProposal(string(types.ProposalCrossChainRequest), p)
	return p.Hash, nil
}

func (e *Engine) crossChainRequest(w *state.World, tx *types.Transaction, now int64) (string, error) {
	descHex, err := types.NewHexStringFromHex(tx.Type.Payload)
	if err != nil {
		return "", err
	}
	d, err := codec.DecodeCrossChainRequestDescriptor(descHex)
	if err != nil {
		return "", err
	}

	newDesc, err := GetCmpCCRData(w, d.RequestType, d.SrcChainID, d.DstChainID, d.SrcNonce, d.DstNonce)
	if err != nil {
		return "", err
	}
	newDescHex, err := codec.EncodeCrossChainRequestDescriptor(newDesc)
	if err != nil {
		return "", err
	}

	p := &types.Proposal{
		ChainID:    w.ChainID,
		Type:       types.NewProposalType(types.ProposalCrossChainRequest, newDescHex.String()),
		ProposedBy: tx.From,
		ProposedAt: now,
		Data:       tx.Data,
	}
	p.Hash = p.ComputeHash()
	e.Proposals.AddProposal(string(types.ProposalCrossChainRequest), p)
	return p.Hash, nil
}

// GetCmpCCRData implements the spec §4.9 helper get_cmp_ccr_data: when
// this chain is the destination of the request being wrapped, re-assign
// src_nonce from this chain's own counter; always pick a fresh random
// validator to carry the re-enveloped descriptor.
func GetCmpCCRData(w *state.World, requestType uint8, srcChainID, dstChainID string, srcNonce, dstNonce *big.Int) (codec.CrossChainRequestDescriptor, error) {
	newSrcNonce := srcNonce
	if dstChainID != w.ChainID {
		newSrcNonce = w.CrossChain.IncreaseNonce().Big()
	}
	validator, ok := pickRandomValidator(w)
	if !ok {
		return codec.CrossChainRequestDescriptor{}, ErrEmptyValidatorSet
	}
	return codec.CrossChainRequestDescriptor{
		RequestType: requestType,
		SrcChainID:  srcChainID,
		SrcNonce:    newSrcNonce,
		DstChainID:  dstChainID,
		DstNonce:    dstNonce,
		Validator:   validator.Address,
	}, nil
}

func pickRandomValidator(w *state.World) (types.Validator, bool) {
	count := w.ValidatorCount()
	if count == 0 {
		return types.Validator{}, false
	}
	return w.ValidatorAt(randomIntN(count))
}

// randomIntN draws a uniform random integer in [0, n) using a CSPRNG —
// the choice of dispatch validator is a routing decision, not simulation
// noise, so it is drawn the same way as the mempool's selection draw.
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
