package rpc

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"digichain/chain"
	"digichain/core/types"
	"digichain/observability/logging"
)

// TestRPCRequestLogRedactsParams mirrors the teacher's seed-log sanitization
// test: request params may carry a transaction's signature or other signing
// material, so the debug log must never emit them in the clear.
func TestRPCRequestLogRedactsParams(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validators := []types.Validator{{Address: selfValidator, Staked: types.NewUint128FromUint64(1)}}
	c := chain.New("1", selfValidator, validators, 0, nil)
	s := New(c, logger)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	sig, err := types.ParseSignature("0x" + strings.Repeat("ab", types.SignatureLength))
	require.NoError(t, err)

	tx := types.Transaction{
		ChainID:   "1",
		From:      addrAA,
		Type:      types.NewTxType(types.TxTransfer, ""),
		Data:      types.NewHexStringFromBytes(nil),
		Signature: sig,
	}
	post(t, ts, "broadcast_transaction", map[string]interface{}{"transaction": tx})

	raw := buf.Bytes()
	require.NotContains(t, string(raw), sig.String(), "log output leaked a raw request param")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.SplitN(raw, []byte("\n"), 2)[0], &entry))
	require.False(t, logging.IsAllowlisted("params"))
	require.Equal(t, logging.RedactedValue, entry["params"])
}
