package codec

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"digichain/core/types"
)

var testAddr = types.MustParseAddress("0x000000000000000000000000000000000000aa")

func TestKYCParamsRoundTrip(t *testing.T) {
	want := KYCParams{Name: "alice", Aadhar: "1234", UpiID: "a@u", Mobile: "9", Address: "x", Country: "IN"}
	encoded, err := EncodeKYCParams(want)
	require.NoError(t, err)
	got, err := DecodeKYCParams(encoded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAddTokenRoundTrip(t *testing.T) {
	want := AddToken{
		Name: "USD", Symbol: "USDC", Decimal: 6, Price: big.NewInt(1_000_000_000),
		ChainIDs: []string{"11"}, TokenAddresses: []string{"0xabc"},
	}
	encoded, err := EncodeAddToken(want)
	require.NoError(t, err)
	got, err := DecodeAddToken(encoded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAddTokenRejectsArrayLengthMismatch(t *testing.T) {
	mismatched, err := addTokenArgs.Pack("n", "s", uint8(1), big.NewInt(1), []string{"a", "b"}, []string{"x"})
	require.NoError(t, err)
	_, err = DecodeAddToken(types.NewHexStringFromBytes(mismatched))
	require.Error(t, err)
}

func TestTransferRoundTrip(t *testing.T) {
	want := Transfer{
		To:     testAddr,
		Tokens: []string{"tok1"},
		Data:   []string{"0xdeadbeef"},
		Amount: big.NewInt(1_000_000_000), Slippage: big.NewInt(0), RefundToken: "tok1",
	}
	encoded, err := EncodeTransfer(want)
	require.NoError(t, err)
	got, err := DecodeTransfer(encoded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCrossChainLockEventRoundTrip(t *testing.T) {
	want := CrossChainLockEvent{
		SrcChainID: "42", DstChainID: "1",
		SrcContract: testAddr, Recipient: testAddr, Depositor: testAddr,
		Tokens: []types.Address{testAddr}, Amounts: []*big.Int{big.NewInt(50)},
		SrcNonce: big.NewInt(1), SrcBlockNumber: 7, SrcTxHash: "0xfeed",
	}
	encoded, err := EncodeCrossChainLockEvent(want)
	require.NoError(t, err)
	got, err := DecodeCrossChainLockEvent(encoded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCrossChainRequestDescriptorRoundTrip(t *testing.T) {
	want := CrossChainRequestDescriptor{
		RequestType: RequestTypeUnlockedWithdraw,
		SrcChainID:  "1", SrcNonce: big.NewInt(3),
		DstChainID: "42", DstNonce: big.NewInt(0),
		Validator: testAddr,
	}
	encoded, err := EncodeCrossChainRequestDescriptor(want)
	require.NoError(t, err)
	got, err := DecodeCrossChainRequestDescriptor(encoded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
