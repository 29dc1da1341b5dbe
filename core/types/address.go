package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressLength is the fixed width of a chain address in bytes.
const AddressLength = 20

// Address is a fixed-width 20-byte identifier, rendered as 0x-prefixed hex.
type Address [AddressLength]byte

// ZeroAddress is the all-zero sentinel address.
var ZeroAddress = Address{}

// BytesToAddress left-pads or truncates b to AddressLength bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// ParseAddress decodes a 0x-prefixed (or bare) 40-hex-char address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("address: invalid hex: %w", err)
	}
	if len(raw) != AddressLength {
		return Address{}, fmt.Errorf("address: want %d bytes, got %d", AddressLength, len(raw))
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress panics on malformed input; reserved for tests and
// static seed data.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Equal(other Address) bool {
	return bytes.Equal(a[:], other[:])
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
