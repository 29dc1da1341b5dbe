package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// SignatureLength matches go-ethereum's recoverable ECDSA signature shape:
// 32-byte r, 32-byte s, 1-byte recovery id.
const SignatureLength = 65

// Signature is a recoverable ECDSA signature in r||s||v form.
type Signature [SignatureLength]byte

func ParseSignature(s string) (Signature, error) {
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Signature{}, err
	}
	if len(raw) != SignatureLength {
		return Signature{}, fmt.Errorf("signature: want %d bytes, got %d", SignatureLength, len(raw))
	}
	var sig Signature
	copy(sig[:], raw)
	return sig, nil
}

func (s Signature) Bytes() []byte { return s[:] }

func (s Signature) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSignature(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ValidatorSignature pairs a validator address with its attestation.
type ValidatorSignature struct {
	Validator Address   `json:"validator"`
	Signature Signature `json:"signature"`
}
