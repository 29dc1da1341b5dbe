package types

import (
	"encoding/json"
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrUint128Overflow is returned when an operation would produce a value
// that no longer fits in 128 bits.
var ErrUint128Overflow = errors.New("uint128: value exceeds 128 bits")

// Uint128 is an unsigned 128-bit integer, serialized on the wire as a
// decimal string (spec §6.3). It is backed by uint256.Int, the same
// overflow-checked-arithmetic type the teacher uses for on-chain balances;
// values are constrained to 128 bits at every construction boundary.
type Uint128 struct {
	v uint256.Int
}

// Uint128Zero is the additive identity.
var Uint128Zero = Uint128{}

func fits128(z *uint256.Int) bool {
	return z.BitLen() <= 128
}

// Uint128Pow10 returns 10^n, used to scale a raw token amount by its
// decimal count (spec §6.2: "price * mid / 10^decimal").
func Uint128Pow10(n uint8) Uint128 {
	var u Uint128
	ten := new(big.Int).SetUint64(10)
	u.v.SetFromBig(new(big.Int).Exp(ten, big.NewInt(int64(n)), nil))
	return u
}

// NewUint128FromUint64 builds a Uint128 from a native uint64.
func NewUint128FromUint64(x uint64) Uint128 {
	var u Uint128
	u.v.SetUint64(x)
	return u
}

// ParseUint128 parses a base-10 string into a Uint128.
func ParseUint128(s string) (Uint128, error) {
	var u Uint128
	if err := u.v.SetFromDecimal(s); err != nil {
		return Uint128{}, err
	}
	if !fits128(&u.v) {
		return Uint128{}, ErrUint128Overflow
	}
	return u, nil
}

// MustUint128 parses s and panics on error; for static test data.
func MustUint128(s string) Uint128 {
	u, err := ParseUint128(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Add returns a+b, erroring if the result no longer fits in 128 bits.
func (a Uint128) Add(b Uint128) (Uint128, error) {
	var out Uint128
	out.v.Add(&a.v, &b.v)
	if !fits128(&out.v) {
		return Uint128{}, ErrUint128Overflow
	}
	return out, nil
}

// Sub returns a-b, erroring if b > a.
func (a Uint128) Sub(b Uint128) (Uint128, error) {
	if a.Cmp(b) < 0 {
		return Uint128{}, errors.New("uint128: subtraction underflow")
	}
	var out Uint128
	out.v.Sub(&a.v, &b.v)
	return out, nil
}

// Mul returns a*b, erroring if the result no longer fits in 128 bits.
func (a Uint128) Mul(b Uint128) (Uint128, error) {
	var out Uint128
	out.v.Mul(&a.v, &b.v)
	if !fits128(&out.v) {
		return Uint128{}, ErrUint128Overflow
	}
	return out, nil
}

// Div returns a/b, truncating toward zero; erroring on division by zero.
func (a Uint128) Div(b Uint128) (Uint128, error) {
	if b.IsZero() {
		return Uint128{}, errors.New("uint128: division by zero")
	}
	var out Uint128
	out.v.Div(&a.v, &b.v)
	return out, nil
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Uint128) Cmp(b Uint128) int {
	return a.v.Cmp(&b.v)
}

// IsZero reports whether the value is zero.
func (a Uint128) IsZero() bool {
	return a.v.IsZero()
}

// Uint64 returns the low 64 bits; callers must ensure the value fits.
func (a Uint128) Uint64() uint64 {
	return a.v.Uint64()
}

// Big returns the value as a big.Int-compatible uint256 snapshot, useful
// for ABI packing of uint256-typed fields.
func (a Uint128) Uint256() *uint256.Int {
	z := a.v
	return &z
}

// FromUint256 narrows a uint256.Int down to a Uint128, erroring on overflow.
func FromUint256(z *uint256.Int) (Uint128, error) {
	if !fits128(z) {
		return Uint128{}, ErrUint128Overflow
	}
	var out Uint128
	out.v.Set(z)
	return out, nil
}

// Uint128FromBig narrows a *big.Int (as produced by ABI-decoded uint256
// fields) down to a Uint128, erroring on overflow or a negative value.
func Uint128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 {
		return Uint128{}, errors.New("uint128: negative value")
	}
	var z uint256.Int
	overflow := z.SetFromBig(b)
	if overflow || !fits128(&z) {
		return Uint128{}, ErrUint128Overflow
	}
	return Uint128{v: z}, nil
}

// Big returns the value as a *big.Int, for ABI re-encoding.
func (a Uint128) Big() *big.Int {
	return a.v.ToBig()
}

func (a Uint128) String() string {
	return a.v.Dec()
}

func (a Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.Dec())
}

func (a *Uint128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUint128(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
