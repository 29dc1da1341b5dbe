// Package codec implements the Codec component (spec §4.1): encode/decode
// of the ABI-tuple wire payloads carried by transactions and proposals.
// Every schema is expressed as a go-ethereum abi.Arguments tuple and
// packed/unpacked with Pack/Unpack, the idiomatic Go equivalent of the
// original's hand-rolled ABI helpers (see SPEC_FULL.md §2).
package codec

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"digichain/core/types"
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("codec: bad abi type %q: %v", t, err))
	}
	return typ
}

func tuple(types ...string) abi.Arguments {
	out := make(abi.Arguments, len(types))
	for i, t := range types {
		out[i] = abi.Argument{Type: mustType(t)}
	}
	return out
}

func toEthAddr(a types.Address) common.Address {
	return common.BytesToAddress(a.Bytes())
}

func fromEthAddr(a common.Address) types.Address {
	return types.BytesToAddress(a.Bytes())
}

func toEthAddrs(in []types.Address) []common.Address {
	out := make([]common.Address, len(in))
	for i, a := range in {
		out[i] = toEthAddr(a)
	}
	return out
}

func fromEthAddrs(in []common.Address) []types.Address {
	out := make([]types.Address, len(in))
	for i, a := range in {
		out[i] = fromEthAddr(a)
	}
	return out
}

// addrValue narrows an Unpack'd interface{} (always a common.Address for
// the abi "address" type) down to types.Address.
func addrValue(v interface{}) types.Address {
	return fromEthAddr(v.(common.Address))
}

// addrsValue narrows an Unpack'd interface{} for "address[]".
func addrsValue(v interface{}) []types.Address {
	return fromEthAddrs(v.([]common.Address))
}

// ErrDecode wraps any ABI-decode failure; spec §4.1 treats every decode
// failure as fatal for the containing operation (§7: malformed input).
type ErrDecode struct {
	Schema string
	Err    error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("codec: %s decode failed: %v", e.Schema, e.Err)
}

func (e *ErrDecode) Unwrap() error { return e.Err }

func decodeErr(schema string, err error) error {
	return &ErrDecode{Schema: schema, Err: err}
}

func errWrongArity(want, got int) error {
	return fmt.Errorf("want %d fields, got %d", want, got)
}
