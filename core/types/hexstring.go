package types

import (
	"encoding/hex"
	"encoding/json"
	"strings"
)

// HexString is an opaque byte sequence used as the carrier for ABI-encoded
// payloads on the wire. It always renders as a 0x-prefixed hex string.
type HexString []byte

// NewHexStringFromBytes wraps raw bytes.
func NewHexStringFromBytes(b []byte) HexString {
	out := make(HexString, len(b))
	copy(out, b)
	return out
}

// NewHexStringFromHex decodes a 0x-prefixed (or bare) hex literal.
func NewHexStringFromHex(s string) (HexString, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return HexString(raw), nil
}

// Bytes returns the underlying byte slice.
func (h HexString) Bytes() []byte {
	return []byte(h)
}

func (h HexString) String() string {
	return "0x" + hex.EncodeToString(h)
}

func (h HexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := NewHexStringFromHex(s)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}
