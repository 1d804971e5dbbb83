package ir

import (
	"fmt"
	"strings"
)

// nameCharmap maps 5-bit symbols to name characters.
const nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"

// Name is a 64-bit encoded account, action, permission or table name.
//
// Up to 12 characters from [.1-5a-z] are packed 5 bits each from the most
// significant end; an optional 13th character uses the low 4 bits and is
// limited to [.1-5a-j].
type Name uint64

// ParseName encodes s. It rejects characters outside the charset, names
// longer than 13 characters, and names that would not round-trip (trailing
// dots or an out-of-range 13th character).
func ParseName(s string) (Name, error) {
	if len(s) > 13 {
		return 0, fmt.Errorf("name %q: longer than 13 characters", s)
	}

	var v uint64
	for i := 0; i < len(s); i++ {
		c, ok := nameSymbol(s[i])
		if !ok {
			return 0, fmt.Errorf("name %q: invalid character %q", s, s[i])
		}
		if i < 12 {
			v |= (c & 0x1f) << (64 - 5*(i+1))
			continue
		}
		if c > 0x0f {
			return 0, fmt.Errorf("name %q: thirteenth character must be in [.1-5a-j]", s)
		}
		v |= c
	}

	n := Name(v)
	if n.String() != s {
		return 0, fmt.Errorf("name %q: not normalized", s)
	}
	return n, nil
}

// MustName is like ParseName but panics on error.
// Use only in tests or for compile-time constants.
func MustName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func nameSymbol(c byte) (uint64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case c == '.':
		return 0, true
	default:
		return 0, false
	}
}

// String decodes the name, trimming trailing dots.
func (n Name) String() string {
	var buf [13]byte
	tmp := uint64(n)
	for i := 0; i <= 12; i++ {
		if i == 0 {
			buf[12] = nameCharmap[tmp&0x0f]
			tmp >>= 4
			continue
		}
		buf[12-i] = nameCharmap[tmp&0x1f]
		tmp >>= 5
	}
	return strings.TrimRight(string(buf[:]), ".")
}

// IsEmpty reports whether n is the zero name.
func (n Name) IsEmpty() bool { return n == 0 }

// MarshalText encodes the name as its string form.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText parses a name string.
func (n *Name) UnmarshalText(b []byte) error {
	parsed, err := ParseName(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Well-known names.
var (
	SystemAccount  = MustName("eosio")
	CodePermission = MustName("eosio.code")
	ActivePerm     = MustName("active")
	OwnerPerm      = MustName("owner")
)
