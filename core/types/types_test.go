package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressHexRoundTrip(t *testing.T) {
	addr := MustParseAddress("0xAAbbCCddEEff00112233445566778899aAbBcCdD")
	require.Equal(t, "0xaabbccddeeff00112233445566778899aabbccdd", addr.String())

	encoded, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, addr, decoded)
}

func TestAddressRejectsWrongLength(t *testing.T) {
	_, err := ParseAddress("0xabcd")
	require.Error(t, err)
}

func TestUint128ArithmeticAndOverflow(t *testing.T) {
	a := NewUint128FromUint64(10)
	b := NewUint128FromUint64(5)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, "15", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, "5", diff.String())

	_, err = b.Sub(a)
	require.Error(t, err, "subtraction underflow must error")

	max128, err := ParseUint128("340282366920938463463374607431768211455")
	require.NoError(t, err)
	_, err = max128.Add(NewUint128FromUint64(1))
	require.ErrorIs(t, err, ErrUint128Overflow)
}

func TestUint128JSONIsDecimalString(t *testing.T) {
	v := NewUint128FromUint64(42)
	encoded, err := json.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `"42"`, string(encoded))

	var decoded Uint128
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, 0, v.Cmp(decoded))
}

func TestTxTypeVariantRoundTrip(t *testing.T) {
	cases := []TxType{
		NewTxType(TxTransfer, ""),
		NewTxType(TxCrosschainTransfer, "42"),
		NewTxType(TxUserKYC, ""),
	}
	for _, tc := range cases {
		s := tc.String()
		parsed, err := ParseTxType(s)
		require.NoError(t, err)
		require.Equal(t, tc, parsed)
	}
}

func TestTxTypePayloadMismatchRejected(t *testing.T) {
	_, err := ParseTxType("CrosschainTransfer")
	require.Error(t, err)
	_, err = ParseTxType("Transfer(oops)")
	require.Error(t, err)
}

func TestProposalHashIsContentFingerprint(t *testing.T) {
	p := &Proposal{
		ChainID:    "1",
		Type:       NewProposalType(ProposalUserKYC, ""),
		Data:       NewHexStringFromBytes([]byte("payload")),
		ProposedAt: 111,
		Timestamp:  222,
	}
	h1 := p.ComputeHash()

	p2 := p.Clone()
	p2.ProposedAt = 999
	p2.Timestamp = 999
	h2 := p2.ComputeHash()

	require.Equal(t, h1, h2, "hash must not depend on proposed_at/timestamp/signatures")
}

func TestProposalIsValidQuorum(t *testing.T) {
	p := &Proposal{ChainID: "1"}
	require.False(t, p.IsValid("1", 10))

	for i := 0; i < 7; i++ {
		p.ValidatorsSignatures = append(p.ValidatorsSignatures, ValidatorSignature{})
	}
	require.True(t, p.IsValid("1", 10), "70% exactly must satisfy strict >=70% quorum")
	require.False(t, p.IsValid("2", 10), "chain_id mismatch must fail")
}

func TestBlockHashChain(t *testing.T) {
	genesis := NewBlock(Address{}, 1000, 0, "", nil, nil)
	require.NotEmpty(t, genesis.Hash)

	tx := &Transaction{ChainID: "1", Type: NewTxType(TxUserKYC, "")}
	tx.Hash = tx.ComputeHash()

	next := NewBlock(Address{}, 1003, 1, genesis.Hash, []*Transaction{tx}, nil)
	require.Equal(t, genesis.Hash, next.PreviousHash)
	require.NotEqual(t, genesis.Hash, next.Hash)
}
