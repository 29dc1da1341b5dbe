package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"digichain/core/codec"
	"digichain/core/types"
)

var (
	addrA = types.MustParseAddress("0x000000000000000000000000000000000000aa")
	addrB = types.MustParseAddress("0x000000000000000000000000000000000000bb")
)

func TestTokenRegistryChainMappingInvariant(t *testing.T) {
	r := NewTokenRegistry()
	tok := r.New("USD", "USDC", 6, types.NewUint128FromUint64(1_000_000_000), map[string]string{
		"11": "0xABC0000000000000000000000000000000000D",
	})

	found, err := r.ByChain("11", "0xabc0000000000000000000000000000000000d")
	require.NoError(t, err)
	require.Equal(t, tok.ID, found.ID)
	require.Equal(t, "0xabc0000000000000000000000000000000000d", found.ChainTokenMapping["11"])
}

func TestTokenTransferRejectsSelfTransfer(t *testing.T) {
	r := NewTokenRegistry()
	tok := r.New("USD", "USDC", 6, types.NewUint128FromUint64(1), nil)
	require.NoError(t, r.Mint(tok.ID, addrA, types.NewUint128FromUint64(100)))

	_, err := r.Transfer(tok.ID, addrA, codec.TokenTransferData{Recipient: addrA, Amount: types.NewUint128FromUint64(10).Big()})
	require.ErrorIs(t, err, ErrSelfTransfer)
}

func TestTokenTransferRejectsInsufficientBalance(t *testing.T) {
	r := NewTokenRegistry()
	tok := r.New("USD", "USDC", 6, types.NewUint128FromUint64(1), nil)

	_, err := r.Transfer(tok.ID, addrA, codec.TokenTransferData{Recipient: addrB, Amount: types.NewUint128FromUint64(1).Big()})
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTokenTransferMovesBalanceAndReturnsValue(t *testing.T) {
	r := NewTokenRegistry()
	tok := r.New("USD", "USDC", 6, types.NewUint128FromUint64(1_000_000_000), nil)
	require.NoError(t, r.Mint(tok.ID, addrA, types.NewUint128FromUint64(1_000_000)))

	value, err := r.Transfer(tok.ID, addrA, codec.TokenTransferData{Recipient: addrB, Amount: types.NewUint128FromUint64(1_000_000).Big()})
	require.NoError(t, err)
	require.Equal(t, "1000000000000000", value.String())

	balA, _ := r.BalanceOf(tok.ID, addrA)
	balB, _ := r.BalanceOf(tok.ID, addrB)
	require.True(t, balA.IsZero())
	require.Equal(t, "1000000", balB.String())
}

func TestCrossChainBroadcastedAtMostOnce(t *testing.T) {
	c := NewCrossChainTracker("self")
	require.NoError(t, c.Broadcasted(addrA, "42", "1"))
	require.ErrorIs(t, c.Broadcasted(addrA, "42", "1"), ErrAlreadyBroadcasted)
	require.True(t, c.IsBroadcasted(addrA, "42", "1"))
	require.False(t, c.IsBroadcasted(addrB, "42", "1"))
}

func TestAccountStoreNonceIncrement(t *testing.T) {
	s := NewAccountStore()
	require.Equal(t, "1", s.IncreaseTxNonce(addrA).String())
	require.Equal(t, "2", s.IncreaseTxNonce(addrA).String())
}

func TestWorldCloneIsIndependent(t *testing.T) {
	w := NewWorld("1", []types.Validator{{Address: addrA, Staked: types.NewUint128FromUint64(10)}})
	tok := w.Tokens.New("USD", "USDC", 6, types.NewUint128FromUint64(1), nil)
	require.NoError(t, w.Tokens.Mint(tok.ID, addrA, types.NewUint128FromUint64(100)))

	clone := w.Clone()
	require.NoError(t, clone.Tokens.Mint(tok.ID, addrA, types.NewUint128FromUint64(50)))

	originalBal, _ := w.Tokens.BalanceOf(tok.ID, addrA)
	cloneBal, _ := clone.Tokens.BalanceOf(tok.ID, addrA)
	require.Equal(t, "100", originalBal.String())
	require.Equal(t, "150", cloneBal.String())
}
