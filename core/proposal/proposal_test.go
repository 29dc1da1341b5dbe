package proposal

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"digichain/core/codec"
	"digichain/core/state"
	"digichain/core/types"
)

type fakeMempool struct {
	labels      map[string][]*types.Proposal
	attested    map[string]int
	dispatched  map[types.Address][]*types.WithdrawData
}

func newFakeMempool() *fakeMempool {
	return &fakeMempool{
		labels:     make(map[string][]*types.Proposal),
		attested:   make(map[string]int),
		dispatched: make(map[types.Address][]*types.WithdrawData),
	}
}

func (m *fakeMempool) ProposalLabels() []string {
	labels := make([]string, 0, len(m.labels))
	for l := range m.labels {
		labels = append(labels, l)
	}
	return labels
}
func (m *fakeMempool) ProposalsInGroup(label string) []*types.Proposal { return m.labels[label] }
func (m *fakeMempool) AttestedIndex(label string) int                 { return m.attested[label] }
func (m *fakeMempool) SetAttestedIndex(label string, idx int)         { m.attested[label] = idx }
func (m *fakeMempool) AddCrossChainRequest(validator types.Address, msg *types.WithdrawData) {
	m.dispatched[validator] = append(m.dispatched[validator], msg)
}

var (
	selfAddr = types.MustParseAddress("0x00000000000000000000000000000000000001")
	addrA    = types.MustParseAddress("0x000000000000000000000000000000000000aa")
	addrB    = types.MustParseAddress("0x000000000000000000000000000000000000bb")
)

func TestAttestAppendsSelfSignatureOnce(t *testing.T) {
	mp := newFakeMempool()
	p := &types.Proposal{ChainID: "1", Type: types.NewProposalType(types.ProposalUserKYC, "")}
	mp.labels["UserKYC"] = []*types.Proposal{p}

	e := New(selfAddr)
	e.Attest(mp)
	require.Len(t, p.ValidatorsSignatures, 1)

	e.Attest(mp)
	require.Len(t, p.ValidatorsSignatures, 1)
}

func TestApplyAddTokenRegistersChainMapping(t *testing.T) {
	w := state.NewWorld("1", nil)
	data, err := codec.EncodeAddToken(codec.AddToken{
		Name: "USD", Symbol: "USDC", Decimal: 6, Price: big.NewInt(1_000_000_000),
		ChainIDs: []string{"42"}, TokenAddresses: []string{"0xABC0000000000000000000000000000000000D"},
	})
	require.NoError(t, err)
	p := &types.Proposal{ChainID: "1", Type: types.NewProposalType(types.ProposalAddToken, ""), Data: data, ProposedBy: addrA}

	e := New(selfAddr)
	result := e.Execute(w, newFakeMempool(), p, 100)
	require.True(t, result.IsOk())

	tok, err := w.Tokens.ByChain("42", "0xabc0000000000000000000000000000000000d")
	require.NoError(t, err)
	require.Equal(t, "USD", tok.Name)
}

func TestCrossChainOutboundOriginationQueuesDispatch(t *testing.T) {
	w := state.NewWorld("1", nil)
	mp := newFakeMempool()

	descriptor := codec.CrossChainRequestDescriptor{
		RequestType: codec.RequestTypeUnlockedWithdraw,
		SrcChainID:  "1", SrcNonce: big.NewInt(1),
		DstChainID: "42", DstNonce: big.NewInt(0), Validator: addrB,
	}
	descHex, err := codec.EncodeCrossChainRequestDescriptor(descriptor)
	require.NoError(t, err)

	withdrawData := &types.WithdrawData{DstChainID: "42", SrcChainID: "1", SrcNonce: types.NewUint128FromUint64(1)}
	p := &types.Proposal{
		ChainID:    "1",
		Type:       types.NewProposalType(types.ProposalCrossChainRequest, descHex.String()),
		ProposedBy: addrA,
		ExtraData:  withdrawData,
	}
	p.Hash = p.ComputeHash()

	e := New(selfAddr)
	result := e.Execute(w, mp, p, 100)
	require.True(t, result.IsOk())
	require.Len(t, mp.dispatched[addrB], 1)

	record, ok := w.CrossChain.GetRequest(types.CrossChainRequestKey{ChainID: "1", Nonce: "1"})
	require.True(t, ok)
	require.Equal(t, p.Hash, record.SrcTxHash)
}

func TestCrossChainDestinationLockReceiptMintsAndShortCircuits(t *testing.T) {
	w := state.NewWorld("1", nil)
	_, err := w.CrossChain.AddContractConfig("42", "0x00000000000000000000000000000000000099", 0, 0)
	require.NoError(t, err)

	tok := w.Tokens.New("USD", "USDC", 6, types.NewUint128FromUint64(1), map[string]string{
		"42": "0x0000000000000000000000000000000000000a",
	})

	lockEvent := codec.CrossChainLockEvent{
		SrcChainID: "42", DstChainID: "1",
		SrcContract: types.MustParseAddress("0x00000000000000000000000000000000000099"),
		Recipient:   addrB,
		Depositor:   addrA,
		Tokens:      []types.Address{types.MustParseAddress("0x0000000000000000000000000000000000000a")},
		Amounts:     []*big.Int{big.NewInt(50)},
		SrcNonce:    big.NewInt(1),
		SrcBlockNumber: 5,
		SrcTxHash:   "0xsrc",
	}
	lockData, err := codec.EncodeCrossChainLockEvent(lockEvent)
	require.NoError(t, err)

	descriptor := codec.CrossChainRequestDescriptor{
		RequestType: codec.RequestTypeLockedFund,
		SrcChainID:  "42", SrcNonce: big.NewInt(1),
		DstChainID: "1", DstNonce: big.NewInt(0), Validator: selfAddr,
	}
	descHex, err := codec.EncodeCrossChainRequestDescriptor(descriptor)
	require.NoError(t, err)

	p := &types.Proposal{
		ChainID: "1",
		Type:    types.NewProposalType(types.ProposalCrossChainRequest, descHex.String()),
		Data:    lockData,
	}
	p.Hash = p.ComputeHash()

	e := New(selfAddr)
	result := e.Execute(w, newFakeMempool(), p, 100)
	require.True(t, result.IsOk())

	bal, _ := w.Tokens.BalanceOf(tok.ID, addrB)
	require.Equal(t, "50", bal.String())

	cfg, ok := w.CrossChain.GetContractConfig("42")
	require.True(t, ok)
	require.Equal(t, uint64(5), cfg.LastProcessedBlock)

	// Short-circuit after a successful mint means no execution-result
	// record was written for this request.
	_, ok = w.CrossChain.GetRequest(types.CrossChainRequestKey{ChainID: "42", Nonce: "1"})
	require.False(t, ok)
}
