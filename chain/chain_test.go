package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"digichain/core/codec"
	"digichain/core/state"
	"digichain/core/types"
)

var (
	selfValidator = types.MustParseAddress("0x0000000000000000000000000000000000000f")
	addrAA        = types.MustParseAddress("0x00000000000000000000000000000000000aaa")
	addrBB        = types.MustParseAddress("0x00000000000000000000000000000000000bbb")
)

func newTestChain(t *testing.T) *DigiChain {
	t.Helper()
	validators := []types.Validator{{Address: selfValidator, Staked: types.NewUint128FromUint64(1)}}
	c := New("1", selfValidator, validators, 0, nil)
	require.Equal(t, uint64(1), c.Height())
	return c
}

// TestGenesisBlockHasEmptyPreviousHash checks spec §8 invariant 2's
// genesis exception.
func TestGenesisBlockHasEmptyPreviousHash(t *testing.T) {
	c := newTestChain(t)
	blocks := c.Blocks(0, c.Height())
	require.Len(t, blocks, 1)
	require.Empty(t, blocks[0].PreviousHash)
}

// TestKYCScenarioEndToEnd mirrors spec §8 scenario S1: a UserKYC tx is
// sealed on the first tick (emitting a proposal), attested on the second
// tick's attest pass, and sealed on that same second tick once it clears
// the lone validator's 70% quorum.
func TestKYCScenarioEndToEnd(t *testing.T) {
	c := newTestChain(t)

	data, err := codec.EncodeKYCParams(codec.KYCParams{
		Name: "alice", Aadhar: "1234", UpiID: "a@u", Mobile: "9", Address: "x", Country: "IN",
	})
	require.NoError(t, err)
	tx := &types.Transaction{ChainID: "1", From: addrAA, Data: data, Type: types.NewTxType(types.TxUserKYC, "")}
	tx.Hash = tx.ComputeHash()
	c.Mempool.AddTransaction(tx)

	c.Tick()
	require.Equal(t, uint64(2), c.Height())
	c.Tick()

	acc, ok := c.World().Accounts.Get(addrAA)
	require.True(t, ok)
	require.True(t, acc.IsKYCDone)
	require.Equal(t, "alice", acc.Name)
	require.Equal(t, "1", acc.ProposalNonce.String())
}

// TestPauseSkipsTick verifies the §4.9 step 1 pause hook.
func TestPauseSkipsTick(t *testing.T) {
	c := newTestChain(t)
	c.SetPaused(true)
	require.True(t, c.Paused())
}

// TestSlippageRejectionLeavesBalancesUnchanged mirrors spec §8 scenario
// S3: a transfer outside its slippage envelope fails, the block still
// seals with the failed tx's result recorded as Err, and the sender's
// tx_nonce still advances (spec §8 invariant 4 — unconditional).
func TestSlippageRejectionLeavesBalancesUnchanged(t *testing.T) {
	c := newTestChain(t)
	c.World().Accounts.DoKYC(addrAA, 1, state.KYCFields{Name: "alice"})

	tok := c.World().Tokens.New("USD", "USDC", 6, types.NewUint128FromUint64(1_000_000_000), nil)
	require.NoError(t, c.World().Tokens.Mint(tok.ID, addrAA, types.NewUint128FromUint64(1_000_000)))

	perToken, err := codec.EncodeTokenTransferData(codec.TokenTransferData{Recipient: addrBB, Amount: big.NewInt(1_000_000)})
	require.NoError(t, err)
	transferData, err := codec.EncodeTransfer(codec.Transfer{
		To:       addrBB,
		Tokens:   []string{string(tok.ID)},
		Data:     []string{perToken.String()},
		Amount:   big.NewInt(2_000_000_000),
		Slippage: big.NewInt(0),
	})
	require.NoError(t, err)

	tx := &types.Transaction{ChainID: "1", From: addrAA, Data: transferData, Type: types.NewTxType(types.TxTransfer, "")}
	tx.Hash = tx.ComputeHash()
	c.Mempool.AddTransaction(tx)
	c.Tick()

	require.True(t, tx.Result.IsErr())
	balA, _ := c.World().Tokens.BalanceOf(tok.ID, addrAA)
	require.Equal(t, "1000000", balA.String())

	acc, ok := c.World().Accounts.Get(addrAA)
	require.True(t, ok)
	require.Equal(t, "1", acc.TxNonce.String())
}
