package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"digichain/chain"
	"digichain/core/codec"
	"digichain/core/state"
	"digichain/core/types"
)

var (
	selfValidator = types.MustParseAddress("0x0000000000000000000000000000000000000f")
	addrAA        = types.MustParseAddress("0x00000000000000000000000000000000000aaa")
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	validators := []types.Validator{{Address: selfValidator, Staked: types.NewUint128FromUint64(1)}}
	c := chain.New("1", selfValidator, validators, 0, nil)
	s := New(c, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, ts *httptest.Server, method string, params interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":     "1",
		"method": method,
		"params": params,
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestGetBlockNumber(t *testing.T) {
	_, ts := newTestServer(t)
	resp, out := post(t, ts, "get_block_number", map[string]interface{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), out["block_number"])
}

func TestGetAccountUnregistered(t *testing.T) {
	_, ts := newTestServer(t)
	resp, out := post(t, ts, "get_account", map[string]interface{}{"address": addrAA.String()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	acc := out["account"].(map[string]interface{})
	require.Equal(t, false, acc["is_registered"])
	require.Equal(t, false, acc["is_kyc_done"])
}

func TestUnknownMethodReturnsNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	resp, out := post(t, ts, "does_not_exist", map[string]interface{}{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotEmpty(t, out["error"])
}

// TestBroadcastTransactionKYCGate mirrors spec §4.5's pre-gate: a non-KYC
// tx from an unregistered sender is rejected before it ever reaches the
// mempool.
func TestBroadcastTransactionKYCGate(t *testing.T) {
	_, ts := newTestServer(t)

	tx := types.Transaction{
		ChainID: "1",
		From:    addrAA,
		Type:    types.NewTxType(types.TxTransfer, ""),
		Data:    types.NewHexStringFromBytes(nil),
	}
	resp, out := post(t, ts, "broadcast_transaction", map[string]interface{}{"transaction": tx})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, out["error"])
}

// TestBroadcastTransactionDuplicateCrossChainRequest mirrors spec §8
// scenario S6: the same validator re-broadcasting a (src_chain_id,
// src_nonce) pair is rejected the second time with HTTP 208.
func TestBroadcastTransactionDuplicateCrossChainRequest(t *testing.T) {
	s, ts := newTestServer(t)
	s.Chain.World().Accounts.DoKYC(addrAA, 1, state.KYCFields{Name: "alice"})

	desc := codec.CrossChainRequestDescriptor{
		RequestType: codec.RequestTypeUnlockedWithdraw,
		SrcChainID:  "42",
		SrcNonce:    big.NewInt(7),
		DstChainID:  "1",
		DstNonce:    big.NewInt(0),
		Validator:   selfValidator,
	}
	descHex, err := codec.EncodeCrossChainRequestDescriptor(desc)
	require.NoError(t, err)

	tx := types.Transaction{
		ChainID: "1",
		From:    addrAA,
		Type:    types.NewTxType(types.TxCrossChainRequest, descHex.String()),
		Data:    types.NewHexStringFromBytes(nil),
	}

	resp1, _ := post(t, ts, "broadcast_transaction", map[string]interface{}{"transaction": tx})
	require.Equal(t, http.StatusOK, resp1.StatusCode)

	resp2, out2 := post(t, ts, "broadcast_transaction", map[string]interface{}{"transaction": tx})
	require.Equal(t, http.StatusAlreadyReported, resp2.StatusCode)
	require.NotEmpty(t, out2["error"])
}

func TestAirdropAndBalanceOf(t *testing.T) {
	s, ts := newTestServer(t)
	tok := s.Chain.World().Tokens.New("USD Coin", "USDC", 6, types.NewUint128FromUint64(1_000_000_000), nil)

	resp, out := post(t, ts, "airdrop", map[string]interface{}{
		"address": addrAA.String(),
		"token":   string(tok.ID),
		"amount":  "500",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["minted"])

	_, balOut := post(t, ts, "balance_of", map[string]interface{}{
		"token_id": string(tok.ID),
		"address":  addrAA.String(),
	})
	require.Equal(t, "500", balOut["balance"])
}

func TestAirdropUnknownTokenNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	resp, _ := post(t, ts, "airdrop", map[string]interface{}{
		"address": addrAA.String(),
		"token":   "nonexistent",
		"amount":  "1",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestGetOptimalPathSingleToken exercises the simplest binary-search case:
// one token whose cap covers the requested amount exactly.
func TestGetOptimalPathSingleToken(t *testing.T) {
	s, ts := newTestServer(t)
	tok := s.Chain.World().Tokens.New("USD Coin", "USDC", 0, types.NewUint128FromUint64(1), nil)

	resp, out := post(t, ts, "get_optimal_path", map[string]interface{}{
		"tokens":  []string{string(tok.ID)},
		"amounts": []string{"1000"},
		"amount":  "500",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	require.Equal(t, "500", data["max_amount"])
	useTokens := data["use_tokens"].([]interface{})
	require.Len(t, useTokens, 1)
}

func TestPauseTogglesChain(t *testing.T) {
	s, ts := newTestServer(t)
	resp, out := post(t, ts, "pause", map[string]interface{}{"pause": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["paused"])
	require.True(t, s.Chain.Paused())
}

func TestGetChainClampsOutOfRangeBounds(t *testing.T) {
	_, ts := newTestServer(t)
	resp, out := post(t, ts, "get_chain", map[string]interface{}{"start_block": 50, "end_block": 50})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	blocks := out["chain"].([]interface{})
	require.Len(t, blocks, 1)
}
