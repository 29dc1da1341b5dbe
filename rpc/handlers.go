package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	cryptorand "crypto/rand"
	"encoding/binary"

	"digichain/core/state"
	"digichain/core/txengine"
	"digichain/core/types"
)

func (s *Server) handleGetBlockNumber(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "block_number": s.Chain.Height()})
}

func (s *Server) handleGetChainID(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "chain_id": s.Chain.ChainID()})
}

func (s *Server) handleGetChain(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		StartBlock uint64 `json:"start_block"`
		EndBlock   uint64 `json:"end_block"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	height := s.Chain.Height()
	if height == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "chain": []interface{}{}})
		return
	}
	if p.EndBlock >= height {
		p.EndBlock = height - 1
	}
	if p.StartBlock > height {
		p.StartBlock = 0
	}
	blocks := s.Chain.Blocks(p.StartBlock, p.EndBlock+1)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "chain": blocks})
}

func (s *Server) handleBroadcastTransaction(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Transaction types.Transaction `json:"transaction"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params: "+err.Error())
		return
	}
	tx := p.Transaction
	tx.Hash = tx.ComputeHash()

	world := s.Chain.World()
	if err := txengine.IngestGate(world, &tx); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, state.ErrAlreadyBroadcasted) {
			status = http.StatusAlreadyReported
		}
		writeError(w, status, id, err.Error())
		return
	}
	s.Chain.Mempool.AddTransaction(&tx)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": id,
		"data": map[string]interface{}{
			"tx_hash": tx.Hash,
		},
	})
}

func (s *Server) handleIsBroadcasted(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Validator  types.Address `json:"validator"`
		SrcChainID string        `json:"src_chain_id"`
		SrcNonce   string        `json:"src_nonce"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	res := s.Chain.World().CrossChain.IsBroadcasted(p.Validator, p.SrcChainID, p.SrcNonce)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_broadcasted": res})
}

func (s *Server) handleGetMempool(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": id,
		"mempool": map[string]interface{}{
			"transactions": s.Chain.Mempool.Transactions(),
			"proposals":    s.Chain.Mempool.AllProposals(),
		},
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Address types.Address `json:"address"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	acc, ok := s.Chain.World().Accounts.Get(p.Address)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id": id,
			"account": map[string]interface{}{
				"address":       p.Address.String(),
				"is_registered": false,
				"is_kyc_done":   false,
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": id,
		"account": map[string]interface{}{
			"address":          p.Address.String(),
			"is_registered":    true,
			"tx_nonce":         acc.TxNonce.String(),
			"proposal_nonce":   acc.ProposalNonce.String(),
			"is_kyc_done":      acc.IsKYCDone,
			"name":             acc.Name,
			"country":          acc.Country,
			"mobile":           acc.Mobile,
			"upi_id":           acc.UpiID,
			"aadhar_no":        acc.AadharNo,
			"kyc_completed_at": acc.KYCCompletedAt,
			"accepts":          acc.Accepts,
			"transactions":     acc.Transactions,
		},
	})
}

func (s *Server) handleGetToken(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		TokenID string `json:"token_id"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	tok, err := s.Chain.World().Tokens.Get(types.TokenId(p.TokenID))
	if err != nil {
		writeError(w, http.StatusNotFound, id, "token not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "token": tok})
}

// sortedTokens orders tokens by id for stable pagination, a deliberate
// improvement over the map's non-deterministic iteration order.
func sortedTokens(tokens []*types.Token) []*types.Token {
	out := append([]*types.Token(nil), tokens...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleGetTokens(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		From *uint64 `json:"from"`
		To   *uint64 `json:"to"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	tokens := sortedTokens(s.Chain.World().Tokens.List())
	n := uint64(len(tokens))
	if n == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "tokens": []interface{}{}})
		return
	}

	to := n - 1
	if p.To != nil && *p.To < n {
		to = *p.To
	}
	from := uint64(0)
	if p.From != nil && *p.From <= n {
		from = *p.From
	}
	end := to + 1
	if end > n {
		end = n
	}
	if from > end {
		from = end
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "tokens": tokens[from:end]})
}

func (s *Server) handleGetTokenByChain(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		ChainID      string `json:"chain_id"`
		TokenAddress string `json:"token_address"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	tok, err := s.Chain.World().Tokens.ByChain(p.ChainID, p.TokenAddress)
	if err != nil {
		writeError(w, http.StatusNotFound, id, "token not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "token": tok})
}

func (s *Server) handleGetContractsConfig(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		ChainIDs []string `json:"chain_ids"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	configs := s.Chain.World().CrossChain.ListContractConfigs(p.ChainIDs)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "configs": configs})
}

func (s *Server) handleGetValidators(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "validators": s.Chain.World().Validators()})
}

// paginate replicates the get_proposals/get_crosschain_requests clamp:
// from defaults to 0 and is kept only if it does not exceed the length;
// to defaults to the last index and is kept only if within range; the
// slice is then [from, to] inclusive.
func paginate[T any](items []T, from, to *uint64) []T {
	n := uint64(len(items))
	if n == 0 {
		return items
	}
	start := uint64(0)
	if from != nil && *from <= n {
		start = *from
	}
	end := n
	if to != nil {
		t := *to + 1
		if t < n {
			end = t
		}
	}
	if start > end {
		start = end
	}
	return items[start:end]
}

func (s *Server) handleGetProposals(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		From         *uint64        `json:"from"`
		To           *uint64        `json:"to"`
		Hash         *string        `json:"hash"`
		ProposalType *string        `json:"proposal_type"`
		ProposedBy   *types.Address `json:"proposed_by"`
		BlockNumber  *uint64        `json:"block_number"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}

	mp := s.Chain.Mempool
	var matched []*types.Proposal
	for _, label := range mp.ProposalLabels() {
		if p.ProposalType != nil && label != *p.ProposalType {
			continue
		}
		for _, prop := range mp.ProposalsInGroup(label) {
			if p.Hash != nil && prop.Hash != *p.Hash {
				continue
			}
			if p.ProposedBy != nil && !prop.ProposedBy.Equal(*p.ProposedBy) {
				continue
			}
			if p.BlockNumber != nil && prop.BlockNumber != *p.BlockNumber {
				continue
			}
			matched = append(matched, prop)
		}
	}
	matched = paginate(matched, p.From, p.To)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "proposals": matched})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		TokenID string        `json:"token_id"`
		Address types.Address `json:"address"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	bal, err := s.Chain.World().Tokens.BalanceOf(types.TokenId(p.TokenID), p.Address)
	if err != nil {
		writeError(w, http.StatusNotFound, id, "token not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "balance": bal.String()})
}

func (s *Server) handleGetBalances(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Tokens    []string        `json:"tokens"`
		Addresses []types.Address `json:"addresses"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	if len(p.Tokens) != len(p.Addresses) {
		writeError(w, http.StatusBadRequest, id, "tokens/addresses length mismatch")
		return
	}
	world := s.Chain.World()
	balances := make(map[string]string, len(p.Tokens))
	for i, tokenID := range p.Tokens {
		bal, err := world.Tokens.BalanceOf(types.TokenId(tokenID), p.Addresses[i])
		if err != nil {
			writeError(w, http.StatusNotFound, id, "token not found: "+tokenID)
			return
		}
		balances[tokenID] = bal.String()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "balance": balances})
}

// lookupTransaction resolves a transaction by hash via the block index,
// mirroring get_transaction/get_transactions (spec §6.1).
func (s *Server) lookupTransaction(hash string) (*types.Transaction, bool) {
	bn, ok := s.Chain.TxBlockNumber(hash)
	if !ok {
		return nil, false
	}
	blocks := s.Chain.Blocks(bn, bn+1)
	if len(blocks) == 0 {
		return nil, false
	}
	for _, tx := range blocks[0].Transactions {
		if tx.Hash == hash {
			return tx, true
		}
	}
	return nil, false
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	tx, ok := s.lookupTransaction(p.TxHash)
	if !ok {
		writeError(w, http.StatusNotFound, id, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "transaction": tx})
}

// handleGetTransactions preserves the original's quirk of only supporting
// a per-address query: a missing address param is a 404, not a listing of
// every transaction ever sealed.
func (s *Server) handleGetTransactions(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Address *types.Address `json:"address"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	if p.Address == nil {
		writeError(w, http.StatusNotFound, id, "options not supported")
		return
	}
	acc, ok := s.Chain.World().Accounts.Get(*p.Address)
	if !ok {
		writeError(w, http.StatusNotFound, id, "user not found")
		return
	}
	txs := make([]*types.Transaction, 0, len(acc.Transactions))
	for _, hash := range acc.Transactions {
		if tx, ok := s.lookupTransaction(hash); ok {
			txs = append(txs, tx)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "transactions": txs})
}

func (s *Server) handleGetCrossChainRequests(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Validator types.Address `json:"validator"`
		From      *uint64       `json:"from"`
		To        *uint64       `json:"to"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	reqs := s.Chain.Mempool.CrossChainRequestsFor(p.Validator)
	reqs = paginate(reqs, p.From, p.To)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "crosschain_withdraw_requests": reqs})
}

func (s *Server) handleAirdrop(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Address types.Address `json:"address"`
		Token   string        `json:"token"`
		Amount  string        `json:"amount"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	amount, err := types.ParseUint128(p.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid amount")
		return
	}
	if err := s.Chain.World().Tokens.Mint(types.TokenId(p.Token), p.Address, amount); err != nil {
		writeError(w, http.StatusNotFound, id, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "minted": true})
}

func (s *Server) handlePause(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Pause bool `json:"pause"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	s.Chain.SetPaused(p.Pause)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "paused": p.Pause})
}

// randomOrder returns a CSPRNG Fisher-Yates permutation of [0, n), matching
// get_optimal_path's "tokens considered in randomized order" (spec §6.2).
func randomOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := randIntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func randIntN(n int) int {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n))
}

func absDiff(a, b types.Uint128) types.Uint128 {
	if a.Cmp(b) >= 0 {
		d, _ := a.Sub(b)
		return d
	}
	d, _ := b.Sub(a)
	return d
}

// handleGetOptimalPath implements the spec §6.2 binary search: for each
// token (in randomized order) whose supplied cap is nonzero, binary-search
// the sub-amount of that token whose USD contribution brings the running
// total closest to the target amount, then carry that total into the next
// token's search.
func (s *Server) handleGetOptimalPath(w http.ResponseWriter, id string, raw json.RawMessage) {
	var p struct {
		Tokens  []string `json:"tokens"`
		Amounts []string `json:"amounts"`
		Amount  string   `json:"amount"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid params")
		return
	}
	if len(p.Tokens) != len(p.Amounts) {
		writeError(w, http.StatusBadRequest, id, "tokens/amounts length mismatch")
		return
	}
	target, err := types.ParseUint128(p.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, id, "invalid amount")
		return
	}

	world := s.Chain.World()
	type capped struct {
		tok *types.Token
		max types.Uint128
	}
	caps := make([]capped, len(p.Tokens))
	for i, tokenID := range p.Tokens {
		tok, err := world.Tokens.Get(types.TokenId(tokenID))
		if err != nil {
			writeError(w, http.StatusNotFound, id, "token not found: "+tokenID)
			return
		}
		max, err := types.ParseUint128(p.Amounts[i])
		if err != nil {
			writeError(w, http.StatusBadRequest, id, "invalid amounts")
			return
		}
		caps[i] = capped{tok: tok, max: max}
	}

	one := types.NewUint128FromUint64(1)
	two := types.NewUint128FromUint64(2)

	runningSum := types.Uint128Zero
	useTokens := make([]string, 0, len(p.Tokens))
	useAmounts := make([]string, 0, len(p.Tokens))

	for _, idx := range randomOrder(len(p.Tokens)) {
		c := caps[idx]
		if c.max.IsZero() {
			continue
		}

		left := types.Uint128Zero
		right := c.max
		closest := runningSum
		bestMid := types.Uint128Zero
		haveBest := false

		for left.Cmp(right) <= 0 {
			span, _ := right.Sub(left)
			half, _ := span.Div(two)
			mid, _ := left.Add(half)

			contribution, err := state.UsdValue(mid, c.tok.Price, c.tok.Decimal)
			if err != nil {
				break
			}
			current, err := runningSum.Add(contribution)
			if err != nil {
				break
			}

			if !haveBest || absDiff(target, current).Cmp(absDiff(target, closest)) <= 0 {
				closest = current
				bestMid = mid
				haveBest = true
			}

			if current.Cmp(target) < 0 {
				left, _ = mid.Add(one)
			} else {
				if mid.IsZero() {
					break
				}
				right, _ = mid.Sub(one)
			}
		}

		runningSum = closest
		useTokens = append(useTokens, p.Tokens[idx])
		useAmounts = append(useAmounts, bestMid.String())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": id,
		"data": map[string]interface{}{
			"use_tokens":  useTokens,
			"use_amounts": useAmounts,
			"max_amount":  runningSum.String(),
		},
	})
}
