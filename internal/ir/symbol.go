package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPrecision is the largest number of decimals a symbol may carry.
const MaxPrecision = 18

// SymbolCode is up to seven uppercase letters packed little-endian into a
// uint64, first letter in the lowest byte.
type SymbolCode uint64

// ParseSymbolCode packs s. It requires 1-7 characters in [A-Z].
func ParseSymbolCode(s string) (SymbolCode, error) {
	if len(s) == 0 || len(s) > 7 {
		return 0, fmt.Errorf("symbol code %q: must be 1-7 characters", s)
	}
	var v uint64
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("symbol code %q: invalid character %q", s, c)
		}
		v = v<<8 | uint64(c)
	}
	return SymbolCode(v), nil
}

// String unpacks the code.
func (c SymbolCode) String() string {
	var sb strings.Builder
	for v := uint64(c); v != 0; v >>= 8 {
		sb.WriteByte(byte(v & 0xff))
	}
	return sb.String()
}

// IsValid reports whether the packed code has 1-7 uppercase letters with no
// gaps.
func (c SymbolCode) IsValid() bool {
	v := uint64(c)
	if v == 0 || v>>56 != 0 {
		return false
	}
	for ; v != 0; v >>= 8 {
		b := byte(v & 0xff)
		if b < 'A' || b > 'Z' {
			return false
		}
	}
	return true
}

// AsName reinterprets the code as a table scope.
func (c SymbolCode) AsName() Name { return Name(c) }

// Symbol is a token symbol: precision in the low byte, code above it.
type Symbol uint64

// NewSymbol builds a symbol from a precision and code.
func NewSymbol(precision uint8, code SymbolCode) Symbol {
	return Symbol(uint64(code)<<8 | uint64(precision))
}

// ParseSymbol parses the "<precision>,<CODE>" form, e.g. "4,SYS".
func ParseSymbol(s string) (Symbol, error) {
	p, code, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, fmt.Errorf("symbol %q: expected <precision>,<code>", s)
	}
	prec, err := strconv.ParseUint(p, 10, 8)
	if err != nil || prec > MaxPrecision {
		return 0, fmt.Errorf("symbol %q: invalid precision", s)
	}
	sc, err := ParseSymbolCode(code)
	if err != nil {
		return 0, err
	}
	return NewSymbol(uint8(prec), sc), nil
}

// Precision returns the number of decimals.
func (s Symbol) Precision() uint8 { return uint8(s & 0xff) }

// Code returns the symbol code.
func (s Symbol) Code() SymbolCode { return SymbolCode(s >> 8) }

// IsValid reports whether precision and code are both valid.
func (s Symbol) IsValid() bool {
	return s.Precision() <= MaxPrecision && s.Code().IsValid()
}

// String formats the symbol as "4,SYS".
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision(), s.Code())
}

// MarshalText encodes the symbol as "4,SYS".
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses "4,SYS".
func (s *Symbol) UnmarshalText(b []byte) error {
	parsed, err := ParseSymbol(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText encodes the code as its letters.
func (c SymbolCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a symbol code.
func (c *SymbolCode) UnmarshalText(b []byte) error {
	parsed, err := ParseSymbolCode(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
