package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mytoken/internal/compiler"
	"github.com/roach88/mytoken/internal/ir"
)

func loadABI(t *testing.T, path string) *ir.ABI {
	t.Helper()
	abi, err := compiler.LoadABI(path)
	require.NoError(t, err)
	return abi
}

func TestPositionalArgs(t *testing.T) {
	abi := loadABI(t, tokenABI)

	obj, err := PositionalArgs(abi, "issue", []any{"alice", "100.0000 SYS", "memo"})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{
		"to":       ir.IRString("alice"),
		"quantity": ir.IRString("100.0000 SYS"),
		"memo":     ir.IRString("memo"),
	}, obj)
}

func TestPositionalArgsAcceptsHandles(t *testing.T) {
	abi := loadABI(t, tokenABI)
	acct := &Account{Name: ir.MustName("alice")}

	obj, err := PositionalArgs(abi, "create", []any{acct, "1000000000.0000 SYS"})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("alice"), obj["issuer"])
}

func TestPositionalArgsErrors(t *testing.T) {
	abi := loadABI(t, tokenABI)

	tests := []struct {
		name   string
		action string
		args   []any
		want   string
	}{
		{"unknown action", "mint", nil, `action "mint" not found`},
		{"too few", "issue", []any{"alice"}, "expected 3 arguments, got 1"},
		{"too many", "retire", []any{"1.0000 SYS", "", "extra"}, "expected 2 arguments, got 3"},
		{"nil", "issue", []any{nil, "1.0000 SYS", ""}, "argument 0 (to): nil value for name"},
		{"float", "issue", []any{"alice", 1.5, ""}, "non-integer number 1.5"},
		{"unsupported", "issue", []any{"alice", struct{}{}, ""}, "unsupported argument type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PositionalArgs(abi, tt.action, tt.args)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		in   any
		want ir.IRValue
	}{
		{"x", ir.IRString("x")},
		{true, ir.IRBool(true)},
		{7, ir.IRInt(7)},
		{int64(-3), ir.IRInt(-3)},
		{uint32(9), ir.IRInt(9)},
		{float64(42), ir.IRInt(42)},
		{float64(-(1 << 63)), ir.IRInt(math.MinInt64)},
		{ir.MustName("bob"), ir.IRString("bob")},
		{ir.IRInt(1), ir.IRInt(1)},
	}
	for _, tt := range tests {
		got, err := scalar(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := scalar(uint64(1) << 63)
	assert.ErrorContains(t, err, "overflows int64")

	for _, f := range []float64{1 << 63, math.MaxInt64, 1e19, -1e19, math.Inf(1)} {
		_, err = scalar(f)
		assert.ErrorContains(t, err, "overflows int64", "%v", f)
	}
	_, err = scalar(1.5)
	assert.ErrorContains(t, err, "non-integer number")
	_, err = scalar(math.NaN())
	assert.ErrorContains(t, err, "non-integer number")
}

func TestToValueArraysAndStructs(t *testing.T) {
	abi := &ir.ABI{
		Version: "eosio::abi/1.1",
		Structs: []ir.StructDef{
			{Name: "pair", Fields: []ir.FieldDef{{Name: "k", Type: "name"}, {Name: "v", Type: "uint64"}}},
		},
	}

	got, err := toValue(abi, "name[]", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, ir.IRArray{ir.IRString("alice"), ir.IRString("bob")}, got)

	got, err = toValue(abi, "pair", map[string]any{"k": "alice", "v": 3})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"k": ir.IRString("alice"), "v": ir.IRInt(3)}, got)

	got, err = toValue(abi, "name?", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRNull{}, got)

	_, err = toValue(abi, "name[]", "alice")
	assert.ErrorContains(t, err, "expected list")
	_, err = toValue(abi, "pair", "alice")
	assert.ErrorContains(t, err, "expected object")
}
