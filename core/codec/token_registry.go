package codec

import (
	"math/big"

	"digichain/core/types"
)

var addTokenArgs = tuple("string", "string", "uint8", "uint256", "string[]", "string[]")

// AddToken is the §4.1 AddToken schema.
type AddToken struct {
	Name           string
	Symbol         string
	Decimal        uint8
	Price          *big.Int
	ChainIDs       []string
	TokenAddresses []string
}

func EncodeAddToken(a AddToken) (types.HexString, error) {
	packed, err := addTokenArgs.Pack(a.Name, a.Symbol, a.Decimal, a.Price, a.ChainIDs, a.TokenAddresses)
	if err != nil {
		return nil, decodeErr("AddToken", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeAddToken(data types.HexString) (AddToken, error) {
	values, err := addTokenArgs.Unpack(data.Bytes())
	if err != nil {
		return AddToken{}, decodeErr("AddToken", err)
	}
	if len(values) != 6 {
		return AddToken{}, decodeErr("AddToken", errWrongArity(6, len(values)))
	}
	out := AddToken{
		Name:           values[0].(string),
		Symbol:         values[1].(string),
		Decimal:        values[2].(uint8),
		Price:          values[3].(*big.Int),
		ChainIDs:       values[4].([]string),
		TokenAddresses: values[5].([]string),
	}
	if len(out.ChainIDs) != len(out.TokenAddresses) {
		return AddToken{}, decodeErr("AddToken", errWrongArity(len(out.ChainIDs), len(out.TokenAddresses)))
	}
	return out, nil
}

var addContractConfigArgs = tuple("string", "uint8", "string", "uint64")

// AddContractConfig is the §4.1 AddContractConfig schema.
type AddContractConfig struct {
	ChainID         string
	ChainType       uint8
	ContractAddress string
	StartBlock      uint64
}

func EncodeAddContractConfig(a AddContractConfig) (types.HexString, error) {
	packed, err := addContractConfigArgs.Pack(a.ChainID, a.ChainType, a.ContractAddress, a.StartBlock)
	if err != nil {
		return nil, decodeErr("AddContractConfig", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeAddContractConfig(data types.HexString) (AddContractConfig, error) {
	values, err := addContractConfigArgs.Unpack(data.Bytes())
	if err != nil {
		return AddContractConfig{}, decodeErr("AddContractConfig", err)
	}
	if len(values) != 4 {
		return AddContractConfig{}, decodeErr("AddContractConfig", errWrongArity(4, len(values)))
	}
	return AddContractConfig{
		ChainID:         values[0].(string),
		ChainType:       values[1].(uint8),
		ContractAddress: values[2].(string),
		StartBlock:      values[3].(uint64),
	}, nil
}

var updateTokensPriceArgs = tuple("string[]", "uint256[]")

// UpdateTokensPrice is the §4.1 UpdateTokensPrice schema.
type UpdateTokensPrice struct {
	TokenIDs []string
	Prices   []*big.Int
}

func EncodeUpdateTokensPrice(u UpdateTokensPrice) (types.HexString, error) {
	packed, err := updateTokensPriceArgs.Pack(u.TokenIDs, u.Prices)
	if err != nil {
		return nil, decodeErr("UpdateTokensPrice", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeUpdateTokensPrice(data types.HexString) (UpdateTokensPrice, error) {
	values, err := updateTokensPriceArgs.Unpack(data.Bytes())
	if err != nil {
		return UpdateTokensPrice{}, decodeErr("UpdateTokensPrice", err)
	}
	if len(values) != 2 {
		return UpdateTokensPrice{}, decodeErr("UpdateTokensPrice", errWrongArity(2, len(values)))
	}
	out := UpdateTokensPrice{
		TokenIDs: values[0].([]string),
		Prices:   values[1].([]*big.Int),
	}
	if len(out.TokenIDs) != len(out.Prices) {
		return UpdateTokensPrice{}, decodeErr("UpdateTokensPrice", errWrongArity(len(out.TokenIDs), len(out.Prices)))
	}
	return out, nil
}

var updateTokenAcceptsArgs = tuple("string[]", "uint256[]")

// UpdateTokenAccepts is the wire schema for the UpdateTokenAccepts
// tx_type: the sender's per-token maximum accepted amounts, mirroring
// UpdateTokensPrice's shape (not part of the distilled C1 schema table,
// added here since the tx engine dispatch names it).
type UpdateTokenAccepts struct {
	TokenIDs []string
	Amounts  []*big.Int
}

func EncodeUpdateTokenAccepts(u UpdateTokenAccepts) (types.HexString, error) {
	packed, err := updateTokenAcceptsArgs.Pack(u.TokenIDs, u.Amounts)
	if err != nil {
		return nil, decodeErr("UpdateTokenAccepts", err)
	}
	return types.NewHexStringFromBytes(packed), nil
}

func DecodeUpdateTokenAccepts(data types.HexString) (UpdateTokenAccepts, error) {
	values, err := updateTokenAcceptsArgs.Unpack(data.Bytes())
	if err != nil {
		return UpdateTokenAccepts{}, decodeErr("UpdateTokenAccepts", err)
	}
	if len(values) != 2 {
		return UpdateTokenAccepts{}, decodeErr("UpdateTokenAccepts", errWrongArity(2, len(values)))
	}
	out := UpdateTokenAccepts{
		TokenIDs: values[0].([]string),
		Amounts:  values[1].([]*big.Int),
	}
	if len(out.TokenIDs) != len(out.Amounts) {
		return UpdateTokenAccepts{}, decodeErr("UpdateTokenAccepts", errWrongArity(len(out.TokenIDs), len(out.Amounts)))
	}
	return out, nil
}
