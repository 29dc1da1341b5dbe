package types

// TokenId is a 40-character alphanumeric identifier, randomly generated at
// registration time (spec §4.2).
type TokenId string

// Token is a registered fungible token (spec §3). Created by AddToken
// proposal execution; price mutated by UpdateTokensPrice; balances mutated
// by transfer and mint operations.
type Token struct {
	ID      TokenId `json:"id"`
	Name    string  `json:"name"`
	Symbol  string  `json:"symbol"`
	Decimal uint8   `json:"decimal"`

	// Price is denominated in units of 10^-9 USD.
	Price Uint128 `json:"price"`

	// ChainTokenMapping maps a peer chain_id to this token's contract
	// address on that chain, lowercased.
	ChainTokenMapping map[string]string `json:"chain_token_mapping"`

	balanceOf map[Address]Uint128
}

// NewToken constructs a token with the given chain mapping; the caller is
// responsible for generating a fresh TokenId (state.TokenRegistry.New).
func NewToken(id TokenId, name, symbol string, decimal uint8, price Uint128, mapping map[string]string) *Token {
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return &Token{
		ID:                id,
		Name:              name,
		Symbol:            symbol,
		Decimal:           decimal,
		Price:             price,
		ChainTokenMapping: m,
		balanceOf:         make(map[Address]Uint128),
	}
}

// BalanceOf returns the balance for addr; a missing entry is zero (spec
// §4.2).
func (t *Token) BalanceOf(addr Address) Uint128 {
	if t.balanceOf == nil {
		return Uint128Zero
	}
	if bal, ok := t.balanceOf[addr]; ok {
		return bal
	}
	return Uint128Zero
}

func (t *Token) setBalance(addr Address, amount Uint128) {
	if t.balanceOf == nil {
		t.balanceOf = make(map[Address]Uint128)
	}
	t.balanceOf[addr] = amount
}

// Mint unconditionally increases addr's balance; it never fails (spec
// §4.2). Overflow past 128 bits is treated as a saturating-to-error
// internal invariant violation since token supply is expected to fit.
func (t *Token) Mint(addr Address, amount Uint128) error {
	current := t.BalanceOf(addr)
	next, err := current.Add(amount)
	if err != nil {
		return err
	}
	t.setBalance(addr, next)
	return nil
}

// Debit decreases addr's balance by amount, erroring on insufficient
// balance.
func (t *Token) Debit(addr Address, amount Uint128) error {
	current := t.BalanceOf(addr)
	next, err := current.Sub(amount)
	if err != nil {
		return err
	}
	t.setBalance(addr, next)
	return nil
}

// Clone deep-copies the token for snapshot/rollback.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	out := &Token{
		ID:                t.ID,
		Name:              t.Name,
		Symbol:            t.Symbol,
		Decimal:           t.Decimal,
		Price:             t.Price,
		ChainTokenMapping: make(map[string]string, len(t.ChainTokenMapping)),
		balanceOf:         make(map[Address]Uint128, len(t.balanceOf)),
	}
	for k, v := range t.ChainTokenMapping {
		out.ChainTokenMapping[k] = v
	}
	for k, v := range t.balanceOf {
		out.balanceOf[k] = v
	}
	return out
}
