package codec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/mytoken/internal/ir"
)

type builtin struct {
	pack   func(e *encoder, v ir.IRValue) error
	unpack func(d *decoder) (ir.IRValue, error)
}

// builtins are the primitive ABI types. Floating point types are absent:
// values never carry floats.
var builtins = map[string]builtin{
	"bool":        {packBool, unpackBool},
	"int8":        signed(1),
	"int16":       signed(2),
	"int32":       signed(4),
	"int64":       signed(8),
	"uint8":       unsigned(1),
	"uint16":      unsigned(2),
	"uint32":      unsigned(4),
	"uint64":      unsigned(8),
	"varuint32":   {packVaruint32, unpackVaruint32},
	"name":        {packName, unpackName},
	"string":      {packString, unpackString},
	"bytes":       {packBytes, unpackBytes},
	"symbol":      {packSymbol, unpackSymbol},
	"symbol_code": {packSymbolCode, unpackSymbolCode},
	"asset":       {packAsset, unpackAsset},
	"checksum256": fixedHex(32),
	"checksum160": fixedHex(20),
	"public_key":  {packString, unpackString},
}

// IsBuiltin reports whether t names a primitive ABI type.
func IsBuiltin(t string) bool {
	_, ok := builtins[t]
	return ok
}

func packBool(e *encoder, v ir.IRValue) error {
	b, ok := v.(ir.IRBool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", v)
	}
	if b {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
	return nil
}

func unpackBool(d *decoder) (ir.IRValue, error) {
	b, err := d.readBytes(1)
	if err != nil {
		return nil, err
	}
	return ir.IRBool(b[0] != 0), nil
}

func signed(size int) builtin {
	bits := uint(size * 8)
	lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
	if size == 8 {
		lo, hi = math.MinInt64, math.MaxInt64
	}
	return builtin{
		pack: func(e *encoder, v ir.IRValue) error {
			n, err := intValue(v)
			if err != nil {
				return err
			}
			if n < lo || n > hi {
				return fmt.Errorf("value %d out of range for int%d", n, bits)
			}
			e.writeUint(size, uint64(n))
			return nil
		},
		unpack: func(d *decoder) (ir.IRValue, error) {
			u, err := d.readUint(size)
			if err != nil {
				return nil, err
			}
			// sign-extend from the field width
			shift := 64 - bits
			return ir.IRInt(int64(u<<shift) >> shift), nil
		},
	}
}

func unsigned(size int) builtin {
	bits := uint(size * 8)
	hi := uint64(math.MaxUint64)
	if size < 8 {
		hi = uint64(1)<<bits - 1
	}
	return builtin{
		pack: func(e *encoder, v ir.IRValue) error {
			n, err := uintValue(v)
			if err != nil {
				return err
			}
			if n > hi {
				return fmt.Errorf("value %d out of range for uint%d", n, bits)
			}
			e.writeUint(size, n)
			return nil
		},
		unpack: func(d *decoder) (ir.IRValue, error) {
			u, err := d.readUint(size)
			if err != nil {
				return nil, err
			}
			if u > math.MaxInt64 {
				return ir.IRString(strconv.FormatUint(u, 10)), nil
			}
			return ir.IRInt(int64(u)), nil
		},
	}
}

func packVaruint32(e *encoder, v ir.IRValue) error {
	n, err := uintValue(v)
	if err != nil {
		return err
	}
	if n > math.MaxUint32 {
		return fmt.Errorf("value %d out of range for varuint32", n)
	}
	e.writeVaruint32(uint32(n))
	return nil
}

func unpackVaruint32(d *decoder) (ir.IRValue, error) {
	n, err := d.readVaruint32()
	if err != nil {
		return nil, err
	}
	return ir.IRInt(int64(n)), nil
}

func packName(e *encoder, v ir.IRValue) error {
	s, err := stringValue(v)
	if err != nil {
		return err
	}
	n, err := ir.ParseName(s)
	if err != nil {
		return err
	}
	e.writeUint(8, uint64(n))
	return nil
}

func unpackName(d *decoder) (ir.IRValue, error) {
	u, err := d.readUint(8)
	if err != nil {
		return nil, err
	}
	return ir.IRString(ir.Name(u).String()), nil
}

func packString(e *encoder, v ir.IRValue) error {
	s, err := stringValue(v)
	if err != nil {
		return err
	}
	e.writeVaruint32(uint32(len(s)))
	e.buf.WriteString(s)
	return nil
}

func unpackString(d *decoder) (ir.IRValue, error) {
	n, err := d.readVaruint32()
	if err != nil {
		return nil, err
	}
	b, err := d.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	return ir.IRString(b), nil
}

func packBytes(e *encoder, v ir.IRValue) error {
	b, err := hexValue(v)
	if err != nil {
		return err
	}
	e.writeVaruint32(uint32(len(b)))
	e.buf.Write(b)
	return nil
}

func unpackBytes(d *decoder) (ir.IRValue, error) {
	n, err := d.readVaruint32()
	if err != nil {
		return nil, err
	}
	b, err := d.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	return ir.IRString(fmt.Sprintf("%x", b)), nil
}

func packSymbol(e *encoder, v ir.IRValue) error {
	s, err := stringValue(v)
	if err != nil {
		return err
	}
	sym, err := ir.ParseSymbol(s)
	if err != nil {
		return err
	}
	e.writeUint(8, uint64(sym))
	return nil
}

func unpackSymbol(d *decoder) (ir.IRValue, error) {
	u, err := d.readUint(8)
	if err != nil {
		return nil, err
	}
	return ir.IRString(ir.Symbol(u).String()), nil
}

func packSymbolCode(e *encoder, v ir.IRValue) error {
	s, err := stringValue(v)
	if err != nil {
		return err
	}
	sc, err := ir.ParseSymbolCode(s)
	if err != nil {
		return err
	}
	e.writeUint(8, uint64(sc))
	return nil
}

func unpackSymbolCode(d *decoder) (ir.IRValue, error) {
	u, err := d.readUint(8)
	if err != nil {
		return nil, err
	}
	return ir.IRString(ir.SymbolCode(u).String()), nil
}

// packAsset writes amount then symbol. Range and sign are not checked here:
// "-100.0000 SYS" must reach the contract so it can reject it.
func packAsset(e *encoder, v ir.IRValue) error {
	s, err := stringValue(v)
	if err != nil {
		return err
	}
	a, err := ir.ParseAsset(s)
	if err != nil {
		return err
	}
	e.writeUint(8, uint64(a.Amount))
	e.writeUint(8, uint64(a.Symbol))
	return nil
}

func unpackAsset(d *decoder) (ir.IRValue, error) {
	amount, err := d.readUint(8)
	if err != nil {
		return nil, err
	}
	sym, err := d.readUint(8)
	if err != nil {
		return nil, err
	}
	a := ir.Asset{Amount: int64(amount), Symbol: ir.Symbol(sym)}
	return ir.IRString(a.String()), nil
}

func fixedHex(size int) builtin {
	return builtin{
		pack: func(e *encoder, v ir.IRValue) error {
			b, err := hexValue(v)
			if err != nil {
				return err
			}
			if len(b) != size {
				return fmt.Errorf("expected %d bytes, got %d", size, len(b))
			}
			e.buf.Write(b)
			return nil
		},
		unpack: func(d *decoder) (ir.IRValue, error) {
			b, err := d.readBytes(size)
			if err != nil {
				return nil, err
			}
			return ir.IRString(fmt.Sprintf("%x", b)), nil
		},
	}
}
