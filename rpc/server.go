// Package rpc implements the JSON-RPC 2.0 HTTP surface (spec §6.1): a
// single POST / endpoint dispatching on a "method" field to the chain's
// read queries and the two write entry points (broadcast_transaction,
// and the pause/airdrop test hooks).
package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"digichain/chain"
	"digichain/observability"
	"digichain/observability/logging"
)

// envelope is the request body shape (spec §6.1: "{id, method, params}",
// params always object-shaped).
type envelope struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// errorBody is the JSON payload written alongside a non-2xx status.
type errorBody struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Server dispatches JSON-RPC requests against a running chain.
type Server struct {
	Chain  *chain.DigiChain
	logger *slog.Logger
}

func New(c *chain.DigiChain, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Chain: c, logger: logger}
}

// Handler returns the http.Handler to mount at "/".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

// statusRecorder captures the status code written by a handler so the
// outer dispatch can log and record metrics after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func outcomeFor(status int) string {
	if status >= 200 && status < 300 {
		return "ok"
	}
	if status == http.StatusAlreadyReported {
		return "duplicate"
	}
	return "error"
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "", "only POST is supported")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", "failed to read request body")
		return
	}
	var req envelope
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "", "invalid JSON payload")
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, "method is required")
		return
	}

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	defer func() {
		observability.Metrics().ObserveRPC(req.Method, outcomeFor(recorder.status))
		s.logger.Debug("rpc request",
			"method", req.Method,
			"status", recorder.status,
			"elapsed", time.Since(start),
			logging.MaskField("params", string(req.Params)))
	}()

	switch req.Method {
	case "get_block_number":
		s.handleGetBlockNumber(recorder, req.ID)
	case "get_chain_id":
		s.handleGetChainID(recorder, req.ID)
	case "get_chain":
		s.handleGetChain(recorder, req.ID, req.Params)
	case "broadcast_transaction":
		s.handleBroadcastTransaction(recorder, req.ID, req.Params)
	case "is_broadcasted":
		s.handleIsBroadcasted(recorder, req.ID, req.Params)
	case "get_mempool":
		s.handleGetMempool(recorder, req.ID)
	case "get_account":
		s.handleGetAccount(recorder, req.ID, req.Params)
	case "get_token":
		s.handleGetToken(recorder, req.ID, req.Params)
	case "get_tokens":
		s.handleGetTokens(recorder, req.ID, req.Params)
	case "get_token_by_chain":
		s.handleGetTokenByChain(recorder, req.ID, req.Params)
	case "get_contracts_config":
		s.handleGetContractsConfig(recorder, req.ID, req.Params)
	case "get_validators":
		s.handleGetValidators(recorder, req.ID)
	case "get_proposals":
		s.handleGetProposals(recorder, req.ID, req.Params)
	case "balance_of":
		s.handleBalanceOf(recorder, req.ID, req.Params)
	case "get_balances":
		s.handleGetBalances(recorder, req.ID, req.Params)
	case "get_transaction":
		s.handleGetTransaction(recorder, req.ID, req.Params)
	case "get_transactions":
		s.handleGetTransactions(recorder, req.ID, req.Params)
	case "get_crosschain_requests":
		s.handleGetCrossChainRequests(recorder, req.ID, req.Params)
	case "get_optimal_path":
		s.handleGetOptimalPath(recorder, req.ID, req.Params)
	case "airdrop":
		s.handleAirdrop(recorder, req.ID, req.Params)
	case "pause":
		s.handlePause(recorder, req.ID, req.Params)
	default:
		writeError(recorder, http.StatusNotFound, req.ID, "unknown method: "+req.Method)
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, id, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{ID: id, Error: message})
}
