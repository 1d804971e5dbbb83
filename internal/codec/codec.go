// Package codec packs and unpacks action data in the ABI binary format:
// little-endian integers, varuint32 length prefixes, 64-bit names, and
// struct fields in declaration order with base fields first.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/mytoken/internal/ir"
)

// maxDepth bounds struct and array nesting.
const maxDepth = 32

// ErrTrailingBytes is returned by Unpack when data remains after decoding.
var ErrTrailingBytes = errors.New("unexpected trailing bytes")

// PackAction packs args as the data of the named action.
func PackAction(abi *ir.ABI, action string, args ir.IRObject) ([]byte, error) {
	ad, ok := abi.Action(action)
	if !ok {
		return nil, fmt.Errorf("action %q not found in ABI", action)
	}
	data, err := Pack(abi, ad.Type, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return data, nil
}

// UnpackAction decodes the data of the named action.
func UnpackAction(abi *ir.ABI, action string, data []byte) (ir.IRObject, error) {
	ad, ok := abi.Action(action)
	if !ok {
		return nil, fmt.Errorf("action %q not found in ABI", action)
	}
	v, err := Unpack(abi, ad.Type, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("%s: action type %q is not a struct", action, ad.Type)
	}
	return obj, nil
}

// Pack serializes v as typ.
func Pack(abi *ir.ABI, typ string, v ir.IRValue) ([]byte, error) {
	e := &encoder{abi: abi}
	if err := e.encode(typ, v, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// Unpack deserializes data as typ. All bytes must be consumed.
func Unpack(abi *ir.ABI, typ string, data []byte) (ir.IRValue, error) {
	d := &decoder{abi: abi, r: bytes.NewReader(data)}
	v, err := d.decode(typ, 0)
	if err != nil {
		return nil, err
	}
	if d.r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, d.r.Len())
	}
	return v, nil
}

type encoder struct {
	abi *ir.ABI
	buf bytes.Buffer
}

func (e *encoder) encode(typ string, v ir.IRValue, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("type %q: nesting too deep", typ)
	}
	typ = e.abi.ResolveType(typ)
	base, suffix := ir.SplitTypeSuffix(typ)

	switch suffix {
	case "[]":
		arr, ok := v.(ir.IRArray)
		if !ok {
			return fmt.Errorf("expected array for %s, got %T", typ, v)
		}
		e.writeVaruint32(uint32(len(arr)))
		for i, elem := range arr {
			if err := e.encode(base, elem, depth+1); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case "?":
		if _, isNull := v.(ir.IRNull); isNull || v == nil {
			e.buf.WriteByte(0)
			return nil
		}
		e.buf.WriteByte(1)
		return e.encode(base, v, depth+1)
	case "$":
		if v == nil {
			return nil
		}
		return e.encode(base, v, depth+1)
	}

	if enc, ok := builtins[base]; ok {
		return enc.pack(e, v)
	}
	if vd, ok := e.abi.Variant(base); ok {
		return e.encodeVariant(vd, v, depth)
	}

	fields, ok := e.abi.FlattenFields(base)
	if !ok {
		return fmt.Errorf("unknown type %q", base)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return fmt.Errorf("expected object for %s, got %T", base, v)
	}
	for _, f := range fields {
		fv, present := obj[f.Name]
		if !present {
			if _, fsuffix := ir.SplitTypeSuffix(f.Type); fsuffix == "$" {
				continue
			}
			if _, fsuffix := ir.SplitTypeSuffix(f.Type); fsuffix != "?" {
				return fmt.Errorf("%s: missing field", f.Name)
			}
			fv = ir.IRNull{}
		}
		if err := e.encode(f.Type, fv, depth+1); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

func (e *encoder) encodeVariant(vd *ir.VariantDef, v ir.IRValue, depth int) error {
	pair, ok := v.(ir.IRArray)
	if !ok || len(pair) != 2 {
		return fmt.Errorf("variant %s: expected [type, value]", vd.Name)
	}
	tname, ok := pair[0].(ir.IRString)
	if !ok {
		return fmt.Errorf("variant %s: type tag must be a string", vd.Name)
	}
	for i, t := range vd.Types {
		if t == string(tname) {
			e.writeVaruint32(uint32(i))
			return e.encode(t, pair[1], depth+1)
		}
	}
	return fmt.Errorf("variant %s: unknown alternative %q", vd.Name, tname)
}

func (e *encoder) writeVaruint32(n uint32) {
	e.buf.Write(binary.AppendUvarint(nil, uint64(n)))
}

func (e *encoder) writeUint(size int, n uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	e.buf.Write(b[:size])
}

type decoder struct {
	abi *ir.ABI
	r   *bytes.Reader
}

func (d *decoder) decode(typ string, depth int) (ir.IRValue, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("type %q: nesting too deep", typ)
	}
	typ = d.abi.ResolveType(typ)
	base, suffix := ir.SplitTypeSuffix(typ)

	switch suffix {
	case "[]":
		n, err := d.readVaruint32()
		if err != nil {
			return nil, err
		}
		if int(n) > d.r.Len() {
			return nil, fmt.Errorf("array length %d exceeds remaining data", n)
		}
		arr := make(ir.IRArray, 0, n)
		for i := range int(n) {
			elem, err := d.decode(base, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case "?":
		flag, err := d.r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("optional flag: %w", err)
		}
		if flag == 0 {
			return ir.IRNull{}, nil
		}
		return d.decode(base, depth+1)
	case "$":
		if d.r.Len() == 0 {
			return nil, nil
		}
		return d.decode(base, depth+1)
	}

	if enc, ok := builtins[base]; ok {
		return enc.unpack(d)
	}
	if vd, ok := d.abi.Variant(base); ok {
		idx, err := d.readVaruint32()
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(vd.Types) {
			return nil, fmt.Errorf("variant %s: index %d out of range", vd.Name, idx)
		}
		inner, err := d.decode(vd.Types[idx], depth+1)
		if err != nil {
			return nil, err
		}
		return ir.IRArray{ir.IRString(vd.Types[idx]), inner}, nil
	}

	fields, ok := d.abi.FlattenFields(base)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", base)
	}
	obj := make(ir.IRObject, len(fields))
	for _, f := range fields {
		fv, err := d.decode(f.Type, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if fv == nil {
			continue
		}
		obj[f.Name] = fv
	}
	return obj, nil
}

func (d *decoder) readVaruint32() (uint32, error) {
	n, err := binary.ReadUvarint(d.r)
	if err != nil {
		return 0, fmt.Errorf("varuint32: %w", err)
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("varuint32 overflow")
	}
	return uint32(n), nil
}

func (d *decoder) readUint(size int) (uint64, error) {
	b, err := d.readBytes(size)
	if err != nil {
		return 0, err
	}
	var full [8]byte
	copy(full[:], b)
	return binary.LittleEndian.Uint64(full[:]), nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if n > d.r.Len() {
		return nil, fmt.Errorf("need %d bytes, have %d", n, d.r.Len())
	}
	out := make([]byte, n)
	_, _ = d.r.Read(out)
	return out, nil
}

// intValue reads an integer from an IRInt or a decimal IRString.
func intValue(v ir.IRValue) (int64, error) {
	switch val := v.(type) {
	case ir.IRInt:
		return int64(val), nil
	case ir.IRString:
		return strconv.ParseInt(string(val), 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// uintValue reads an unsigned integer; uint64 values above MaxInt64 travel
// as decimal strings.
func uintValue(v ir.IRValue) (uint64, error) {
	switch val := v.(type) {
	case ir.IRInt:
		if val < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned type", val)
		}
		return uint64(val), nil
	case ir.IRString:
		return strconv.ParseUint(string(val), 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func stringValue(v ir.IRValue) (string, error) {
	s, ok := v.(ir.IRString)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return string(s), nil
}

func hexValue(v ir.IRValue) ([]byte, error) {
	s, err := stringValue(v)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(s)
}
