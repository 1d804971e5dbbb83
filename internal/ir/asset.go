package ir

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAssetAmount is the largest magnitude a valid asset amount may have.
const MaxAssetAmount int64 = 1<<62 - 1

var amountPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Asset is a token quantity. Amount is in the smallest unit, so
// "100.0000 SYS" has Amount 1000000 and precision 4.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// ParseAsset parses "<amount> <CODE>". The number of decimals in amount
// sets the symbol precision. Exponents and a leading '+' are rejected.
func ParseAsset(s string) (Asset, error) {
	amt, code, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Asset{}, fmt.Errorf("asset %q: expected <amount> <code>", s)
	}
	code = strings.TrimSpace(code)
	if !amountPattern.MatchString(amt) {
		return Asset{}, fmt.Errorf("asset %q: invalid amount", s)
	}

	precision := 0
	if dot := strings.IndexByte(amt, '.'); dot >= 0 {
		precision = len(amt) - dot - 1
	}
	if precision > MaxPrecision {
		return Asset{}, fmt.Errorf("asset %q: precision exceeds %d", s, MaxPrecision)
	}

	d, err := decimal.NewFromString(amt)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %q: %w", s, err)
	}
	units := d.Shift(int32(precision)).BigInt()
	if !units.IsInt64() {
		return Asset{}, fmt.Errorf("asset %q: amount overflow", s)
	}

	sc, err := ParseSymbolCode(code)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %q: %w", s, err)
	}
	return Asset{Amount: units.Int64(), Symbol: NewSymbol(uint8(precision), sc)}, nil
}

// MustAsset is like ParseAsset but panics on error.
func MustAsset(s string) Asset {
	a, err := ParseAsset(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String formats the asset with exactly Precision decimals.
func (a Asset) String() string {
	p := int32(a.Symbol.Precision())
	return decimal.New(a.Amount, -p).StringFixed(p) + " " + a.Symbol.Code().String()
}

// IsValid reports whether the amount is within range and the symbol valid.
func (a Asset) IsValid() bool {
	return a.Amount >= -MaxAssetAmount && a.Amount <= MaxAssetAmount && a.Symbol.IsValid()
}

// Add returns a+b. Errors carry the messages the token contract reports.
func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, errors.New("attempt to add asset with different symbol")
	}
	sum := a.Amount + b.Amount
	if sum < -MaxAssetAmount {
		return Asset{}, errors.New("addition underflow")
	}
	if sum > MaxAssetAmount {
		return Asset{}, errors.New("addition overflow")
	}
	return Asset{Amount: sum, Symbol: a.Symbol}, nil
}

// Sub returns a-b.
func (a Asset) Sub(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, errors.New("attempt to subtract asset with different symbol")
	}
	diff := a.Amount - b.Amount
	if diff < -MaxAssetAmount {
		return Asset{}, errors.New("subtraction underflow")
	}
	if diff > MaxAssetAmount {
		return Asset{}, errors.New("subtraction overflow")
	}
	return Asset{Amount: diff, Symbol: a.Symbol}, nil
}

// Zero returns an asset of the same symbol with zero amount.
func (a Asset) Zero() Asset { return Asset{Symbol: a.Symbol} }

// MarshalText encodes the asset as "100.0000 SYS".
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses "100.0000 SYS".
func (a *Asset) UnmarshalText(b []byte) error {
	parsed, err := ParseAsset(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
