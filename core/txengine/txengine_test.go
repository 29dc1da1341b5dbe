package txengine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"digichain/core/codec"
	"digichain/core/state"
	"digichain/core/types"
)

type collectingSink struct {
	proposals []*types.Proposal
}

func (s *collectingSink) AddProposal(label string, p *types.Proposal) {
	s.proposals = append(s.proposals, p)
}

var addrA = types.MustParseAddress("0x000000000000000000000000000000000000aa")
var addrB = types.MustParseAddress("0x000000000000000000000000000000000000bb")

func kycAccount(w *state.World, addr types.Address) {
	w.Accounts.DoKYC(addr, 1, state.KYCFields{Name: "alice"})
}

func TestTransactionPreGateRejectsWithoutKYC(t *testing.T) {
	w := state.NewWorld("1", nil)
	sink := &collectingSink{}
	e := New(sink)

	data, err := codec.EncodeAddContractConfig(codec.AddContractConfig{ChainID: "2", ChainType: 0, ContractAddress: "0xabc", StartBlock: 1})
	require.NoError(t, err)
	tx := &types.Transaction{ChainID: "1", From: addrA, Data: data, Type: types.NewTxType(types.TxAddContractConfig, "")}

	result := e.Execute(w, tx, 100)
	require.True(t, result.IsErr())
	require.Empty(t, sink.proposals)
}

func TestUserKYCEmitsProposalWithoutGate(t *testing.T) {
	w := state.NewWorld("1", nil)
	sink := &collectingSink{}
	e := New(sink)

	data, err := codec.EncodeKYCParams(codec.KYCParams{Name: "alice", Aadhar: "1234", UpiID: "a@u", Mobile: "9", Address: "x", Country: "IN"})
	require.NoError(t, err)
	tx := &types.Transaction{ChainID: "1", From: addrA, Data: data, Type: types.NewTxType(types.TxUserKYC, "")}

	result := e.Execute(w, tx, 100)
	require.True(t, result.IsOk())
	require.Len(t, sink.proposals, 1)
	require.Equal(t, types.ProposalUserKYC, sink.proposals[0].Type.Kind)
}

func TestTransferSucceedsWithinSlippageEnvelope(t *testing.T) {
	w := state.NewWorld("1", nil)
	kycAccount(w, addrA)

	tok := w.Tokens.New("USD", "USDC", 6, types.NewUint128FromUint64(1_000_000_000), nil)
	require.NoError(t, w.Tokens.Mint(tok.ID, addrA, types.NewUint128FromUint64(1_000_000)))

	perToken, err := codec.EncodeTokenTransferData(codec.TokenTransferData{Recipient: addrB, Amount: big.NewInt(1_000_000)})
	require.NoError(t, err)

	transferData, err := codec.EncodeTransfer(codec.Transfer{
		To:          addrB,
		Tokens:      []string{string(tok.ID)},
		Data:        []string{perToken.String()},
		Amount:      big.NewInt(1_000_000_000),
		Slippage:    big.NewInt(0),
		RefundToken: "",
	})
	require.NoError(t, err)

	sink := &collectingSink{}
	e := New(sink)
	tx := &types.Transaction{ChainID: "1", From: addrA, Data: transferData, Type: types.NewTxType(types.TxTransfer, "")}

	result := e.Execute(w, tx, 100)
	require.True(t, result.IsOk())

	balA, _ := w.Tokens.BalanceOf(tok.ID, addrA)
	balB, _ := w.Tokens.BalanceOf(tok.ID, addrB)
	require.True(t, balA.IsZero())
	require.Equal(t, "1000000", balB.String())
}

func TestTransferRejectsOutsideSlippageEnvelope(t *testing.T) {
	w := state.NewWorld("1", nil)
	kycAccount(w, addrA)

	tok := w.Tokens.New("USD", "USDC", 6, types.NewUint128FromUint64(1_000_000_000), nil)
	require.NoError(t, w.Tokens.Mint(tok.ID, addrA, types.NewUint128FromUint64(1_000_000)))

	perToken, err := codec.EncodeTokenTransferData(codec.TokenTransferData{Recipient: addrB, Amount: big.NewInt(1_000_000)})
	require.NoError(t, err)

	transferData, err := codec.EncodeTransfer(codec.Transfer{
		To:          addrB,
		Tokens:      []string{string(tok.ID)},
		Data:        []string{perToken.String()},
		Amount:      big.NewInt(2_000_000_000),
		Slippage:    big.NewInt(0),
		RefundToken: "",
	})
	require.NoError(t, err)

	sink := &collectingSink{}
	e := New(sink)
	tx := &types.Transaction{ChainID: "1", From: addrA, Data: transferData, Type: types.NewTxType(types.TxTransfer, "")}

	result := e.Execute(w, tx, 100)
	require.True(t, result.IsErr())

	balA, _ := w.Tokens.BalanceOf(tok.ID, addrA)
	require.Equal(t, "1000000", balA.String())
}

func TestCrosschainTransferEmitsOutboundRequestProposal(t *testing.T) {
	w := state.NewWorld("1", []types.Validator{{Address: addrA, Staked: types.NewUint128FromUint64(1)}})
	kycAccount(w, addrA)

	tok := w.Tokens.New("USD", "USDC", 6, types.NewUint128FromUint64(1), map[string]string{
		"42": "0x00000000000000000000000000000000000001",
	})
	require.NoError(t, w.Tokens.Mint(tok.ID, addrA, types.NewUint128FromUint64(100)))

	perToken, err := codec.EncodeTokenCrossTransferData(codec.TokenCrossTransferData{Amount: big.NewInt(50)})
	require.NoError(t, err)

	ctData, err := codec.EncodeCrosschainTransfer(codec.CrosschainTransfer{
		Recipient: addrB,
		Tokens:    []string{string(tok.ID)},
		Data:      [][]byte{perToken.Bytes()},
	})
	require.NoError(t, err)

	sink := &collectingSink{}
	e := New(sink)
	tx := &types.Transaction{ChainID: "1", From: addrA, Data: ctData, Type: types.NewTxType(types.TxCrosschainTransfer, "42")}

	result := e.Execute(w, tx, 100)
	require.True(t, result.IsOk())
	require.Len(t, sink.proposals, 1)
	require.Equal(t, types.ProposalCrossChainRequest, sink.proposals[0].Type.Kind)
	require.NotNil(t, sink.proposals[0].ExtraData)
	require.Equal(t, "1", w.CrossChain.SelfNonce().String())

	bal, _ := w.Tokens.BalanceOf(tok.ID, addrA)
	require.Equal(t, "50", bal.String())
}
