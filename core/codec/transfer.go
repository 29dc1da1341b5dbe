package codec

import (
	"math/big"

	"digichain/core/types"
)

var transferArgs = tuple("address", "string[]", "string[]", "uint256", "uint256", "string")

// Transfer is the §4.1 Transfer schema.
type Transfer struct {
	To          types.Address
	Tokens      []string
	Data        []string // per-token ABI payload, one TokenTransferData each
	Amount      *big.Int
	Slippage    *big.Int
	RefundToken string
}

func EncodeTransfer(t Transfer) (types.HexString, error) {
	packed, err := transferArgs.Pack(toEthAddr(t.To), t.Tokens, t.Data, t.Amount, t.Slippage, t.RefundToken)
	if err != nil {
		return nil, decodeErr("Transfer", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeTransfer(data types.HexString) (Transfer, error) {
	values, err := transferArgs.Unpack(data.Bytes())
	if err != nil {
		return Transfer{}, decodeErr("Transfer", err)
	}
	if len(values) != 6 {
		return Transfer{}, decodeErr("Transfer", errWrongArity(6, len(values)))
	}
	out := Transfer{
		To:          addrValue(values[0]),
		Tokens:      values[1].([]string),
		Data:        values[2].([]string),
		Amount:      values[3].(*big.Int),
		Slippage:    values[4].(*big.Int),
		RefundToken: values[5].(string),
	}
	if len(out.Tokens) != len(out.Data) {
		return Transfer{}, decodeErr("Transfer", errWrongArity(len(out.Tokens), len(out.Data)))
	}
	return out, nil
}

var crosschainTransferArgs = tuple("address", "string[]", "bytes[]")

// CrosschainTransfer is the §4.1 CrosschainTransfer schema.
type CrosschainTransfer struct {
	Recipient types.Address
	Tokens    []string
	Data      [][]byte
}

func EncodeCrosschainTransfer(c CrosschainTransfer) (types.HexString, error) {
	packed, err := crosschainTransferArgs.Pack(toEthAddr(c.Recipient), c.Tokens, c.Data)
	if err != nil {
		return nil, decodeErr("CrosschainTransfer", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeCrosschainTransfer(data types.HexString) (CrosschainTransfer, error) {
	values, err := crosschainTransferArgs.Unpack(data.Bytes())
	if err != nil {
		return CrosschainTransfer{}, decodeErr("CrosschainTransfer", err)
	}
	if len(values) != 3 {
		return CrosschainTransfer{}, decodeErr("CrosschainTransfer", errWrongArity(3, len(values)))
	}
	return CrosschainTransfer{
		Recipient: addrValue(values[0]),
		Tokens:    values[1].([]string),
		Data:      values[2].([][]byte),
	}, nil
}

var tokenTransferDataArgs = tuple("address", "uint256")

// TokenTransferData is the §4.1 TokenTransferData schema, the per-token
// payload inside a Transfer's Data array.
type TokenTransferData struct {
	Recipient types.Address
	Amount    *big.Int
}

func EncodeTokenTransferData(t TokenTransferData) (types.HexString, error) {
	packed, err := tokenTransferDataArgs.Pack(toEthAddr(t.Recipient), t.Amount)
	if err != nil {
		return nil, decodeErr("TokenTransferData", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeTokenTransferData(data types.HexString) (TokenTransferData, error) {
	values, err := tokenTransferDataArgs.Unpack(data.Bytes())
	if err != nil {
		return TokenTransferData{}, decodeErr("TokenTransferData", err)
	}
	if len(values) != 2 {
		return TokenTransferData{}, decodeErr("TokenTransferData", errWrongArity(2, len(values)))
	}
	return TokenTransferData{
		Recipient: addrValue(values[0]),
		Amount:    values[1].(*big.Int),
	}, nil
}

var tokenCrossTransferDataArgs = tuple("uint256")

// TokenCrossTransferData is the §4.1 TokenCrossTransferData schema.
type TokenCrossTransferData struct {
	Amount *big.Int
}

func EncodeTokenCrossTransferData(t TokenCrossTransferData) (types.HexString, error) {
	packed, err := tokenCrossTransferDataArgs.Pack(t.Amount)
	if err != nil {
		return nil, decodeErr("TokenCrossTransferData", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeTokenCrossTransferData(data types.HexString) (TokenCrossTransferData, error) {
	values, err := tokenCrossTransferDataArgs.Unpack(data.Bytes())
	if err != nil {
		return TokenCrossTransferData{}, decodeErr("TokenCrossTransferData", err)
	}
	if len(values) != 1 {
		return TokenCrossTransferData{}, decodeErr("TokenCrossTransferData", errWrongArity(1, len(values)))
	}
	return TokenCrossTransferData{Amount: values[0].(*big.Int)}, nil
}
