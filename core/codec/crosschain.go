package codec

import (
	"math/big"

	"digichain/core/types"
)

var crossChainLockEventArgs = tuple(
	"string", "string", "address", "address", "address",
	"address[]", "uint256[]", "uint256", "uint64", "string",
)

// CrossChainLockEvent is the §4.1 CrossChainLockEvent schema.
type CrossChainLockEvent struct {
	SrcChainID     string
	DstChainID     string
	SrcContract    types.Address
	Recipient      types.Address
	Depositor      types.Address
	Tokens         []types.Address
	Amounts        []*big.Int
	SrcNonce       *big.Int
	SrcBlockNumber uint64
	SrcTxHash      string
}

func EncodeCrossChainLockEvent(e CrossChainLockEvent) (types.HexString, error) {
	packed, err := crossChainLockEventArgs.Pack(
		e.SrcChainID, e.DstChainID, toEthAddr(e.SrcContract), toEthAddr(e.Recipient), toEthAddr(e.Depositor),
		toEthAddrs(e.Tokens), e.Amounts, e.SrcNonce, e.SrcBlockNumber, e.SrcTxHash,
	)
	if err != nil {
		return nil, decodeErr("CrossChainLockEvent", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeCrossChainLockEvent(data types.HexString) (CrossChainLockEvent, error) {
	values, err := crossChainLockEventArgs.Unpack(data.Bytes())
	if err != nil {
		return CrossChainLockEvent{}, decodeErr("CrossChainLockEvent", err)
	}
	if len(values) != 10 {
		return CrossChainLockEvent{}, decodeErr("CrossChainLockEvent", errWrongArity(10, len(values)))
	}
	out := CrossChainLockEvent{
		SrcChainID:     values[0].(string),
		DstChainID:     values[1].(string),
		SrcContract:    addrValue(values[2]),
		Recipient:      addrValue(values[3]),
		Depositor:      addrValue(values[4]),
		Tokens:         addrsValue(values[5]),
		Amounts:        values[6].([]*big.Int),
		SrcNonce:       values[7].(*big.Int),
		SrcBlockNumber: values[8].(uint64),
		SrcTxHash:      values[9].(string),
	}
	if len(out.Tokens) != len(out.Amounts) {
		return CrossChainLockEvent{}, decodeErr("CrossChainLockEvent", errWrongArity(len(out.Tokens), len(out.Amounts)))
	}
	return out, nil
}

var crossChainUnlockReplyArgs = tuple(
	"string", "string", "address", "address", "address",
	"address[]", "uint256[]", "uint256", "uint64", "string",
	"uint256", "uint64", "string",
)

// CrossChainUnlockReply is the §4.1 CrossChainUnlockReply schema: the Lock
// fields plus dst_nonce, dst_block_number, dst_tx_hash.
type CrossChainUnlockReply struct {
	CrossChainLockEvent
	DstNonce       *big.Int
	DstBlockNumber uint64
	DstTxHash      string
}

func EncodeCrossChainUnlockReply(r CrossChainUnlockReply) (types.HexString, error) {
	e := r.CrossChainLockEvent
	packed, err := crossChainUnlockReplyArgs.Pack(
		e.SrcChainID, e.DstChainID, toEthAddr(e.SrcContract), toEthAddr(e.Recipient), toEthAddr(e.Depositor),
		toEthAddrs(e.Tokens), e.Amounts, e.SrcNonce, e.SrcBlockNumber, e.SrcTxHash,
		r.DstNonce, r.DstBlockNumber, r.DstTxHash,
	)
	if err != nil {
		return nil, decodeErr("CrossChainUnlockReply", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeCrossChainUnlockReply(data types.HexString) (CrossChainUnlockReply, error) {
	values, err := crossChainUnlockReplyArgs.Unpack(data.Bytes())
	if err != nil {
		return CrossChainUnlockReply{}, decodeErr("CrossChainUnlockReply", err)
	}
	if len(values) != 13 {
		return CrossChainUnlockReply{}, decodeErr("CrossChainUnlockReply", errWrongArity(13, len(values)))
	}
	tokens := addrsValue(values[5])
	amounts := values[6].([]*big.Int)
	if len(tokens) != len(amounts) {
		return CrossChainUnlockReply{}, decodeErr("CrossChainUnlockReply", errWrongArity(len(tokens), len(amounts)))
	}
	return CrossChainUnlockReply{
		CrossChainLockEvent: CrossChainLockEvent{
			SrcChainID:     values[0].(string),
			DstChainID:     values[1].(string),
			SrcContract:    addrValue(values[2]),
			Recipient:      addrValue(values[3]),
			Depositor:      addrValue(values[4]),
			Tokens:         tokens,
			Amounts:        amounts,
			SrcNonce:       values[7].(*big.Int),
			SrcBlockNumber: values[8].(uint64),
			SrcTxHash:      values[9].(string),
		},
		DstNonce:       values[10].(*big.Int),
		DstBlockNumber: values[11].(uint64),
		DstTxHash:      values[12].(string),
	}, nil
}

var crossChainRequestDescriptorArgs = tuple("uint8", "string", "uint256", "string", "uint256", "address")

// CrossChainRequestDescriptor is the §4.1 CrossChainRequestDescriptor
// schema, both proposal discriminator and routing key (Glossary).
type CrossChainRequestDescriptor struct {
	RequestType uint8
	SrcChainID  string
	SrcNonce    *big.Int
	DstChainID  string
	DstNonce    *big.Int
	Validator   types.Address
}

func EncodeCrossChainRequestDescriptor(d CrossChainRequestDescriptor) (types.HexString, error) {
	packed, err := crossChainRequestDescriptorArgs.Pack(
		d.RequestType, d.SrcChainID, d.SrcNonce, d.DstChainID, d.DstNonce, toEthAddr(d.Validator),
	)
	if err != nil {
		return nil, decodeErr("CrossChainRequestDescriptor", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeCrossChainRequestDescriptor(data types.HexString) (CrossChainRequestDescriptor, error) {
	values, err := crossChainRequestDescriptorArgs.Unpack(data.Bytes())
	if err != nil {
		return CrossChainRequestDescriptor{}, decodeErr("CrossChainRequestDescriptor", err)
	}
	if len(values) != 6 {
		return CrossChainRequestDescriptor{}, decodeErr("CrossChainRequestDescriptor", errWrongArity(6, len(values)))
	}
	return CrossChainRequestDescriptor{
		RequestType: values[0].(uint8),
		SrcChainID:  values[1].(string),
		SrcNonce:    values[2].(*big.Int),
		DstChainID:  values[3].(string),
		DstNonce:    values[4].(*big.Int),
		Validator:   addrValue(values[5]),
	}, nil
}

var crossChainWithdrawPayloadArgs = tuple("uint8", "address[]", "uint256[]", "address", "address", "bytes")

// CrossChainWithdrawPayload is the §4.1 CrossChainWithdrawPayload schema.
type CrossChainWithdrawPayload struct {
	RequestType uint8
	Tokens      []types.Address
	Amounts     []*big.Int
	Sender      types.Address
	Recipient   types.Address
	Message     []byte
}

func EncodeCrossChainWithdrawPayload(p CrossChainWithdrawPayload) (types.HexString, error) {
	packed, err := crossChainWithdrawPayloadArgs.Pack(
		p.RequestType, toEthAddrs(p.Tokens), p.Amounts, toEthAddr(p.Sender), toEthAddr(p.Recipient), p.Message,
	)
	if err != nil {
		return nil, decodeErr("CrossChainWithdrawPayload", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeCrossChainWithdrawPayload(data types.HexString) (CrossChainWithdrawPayload, error) {
	values, err := crossChainWithdrawPayloadArgs.Unpack(data.Bytes())
	if err != nil {
		return CrossChainWithdrawPayload{}, decodeErr("CrossChainWithdrawPayload", err)
	}
	if len(values) != 6 {
		return CrossChainWithdrawPayload{}, decodeErr("CrossChainWithdrawPayload", errWrongArity(6, len(values)))
	}
	tokens := addrsValue(values[1])
	amounts := values[2].([]*big.Int)
	if len(tokens) != len(amounts) {
		return CrossChainWithdrawPayload{}, decodeErr("CrossChainWithdrawPayload", errWrongArity(len(tokens), len(amounts)))
	}
	return CrossChainWithdrawPayload{
		RequestType: values[0].(uint8),
		Tokens:      tokens,
		Amounts:     amounts,
		Sender:      addrValue(values[3]),
		Recipient:   addrValue(values[4]),
		Message:     values[5].([]byte),
	}, nil
}

// Request-type discriminants re-exported for convenience (spec §4.1).
const (
	RequestTypeLockedFund       = types.RequestTypeLockedFund
	RequestTypeUnlockedWithdraw = types.RequestTypeUnlockedWithdraw
	RequestTypeUnlockedFailed   = types.RequestTypeUnlockedFailed
)
