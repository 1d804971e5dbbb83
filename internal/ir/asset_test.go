package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolEncoding(t *testing.T) {
	sym, err := ParseSymbol("4,SYS")
	require.NoError(t, err)
	assert.Equal(t, uint64(1398362884), uint64(sym))
	assert.Equal(t, uint8(4), sym.Precision())
	assert.Equal(t, "SYS", sym.Code().String())
	assert.Equal(t, "4,SYS", sym.String())
	assert.True(t, sym.IsValid())
}

func TestParseSymbolInvalid(t *testing.T) {
	for _, s := range []string{"SYS", "4,sys", "19,SYS", "4,TOOLONGX", "x,SYS", "4,"} {
		_, err := ParseSymbol(s)
		assert.Error(t, err, s)
	}
}

func TestSymbolCodeValidity(t *testing.T) {
	assert.False(t, SymbolCode(0).IsValid())
	assert.False(t, SymbolCode('S'|0<<8|'S'<<16).IsValid(), "gap inside code")

	sc, err := ParseSymbolCode("ABCDEFG")
	require.NoError(t, err)
	assert.True(t, sc.IsValid())
}

func TestParseAsset(t *testing.T) {
	tests := []struct {
		input     string
		amount    int64
		precision uint8
		code      string
	}{
		{"1000000000.0000 SYS", 10000000000000, 4, "SYS"},
		{"100.0000 SYS", 1000000, 4, "SYS"},
		{"-100.0000 SYS", -1000000, 4, "SYS"},
		{"0.0001 SYS", 1, 4, "SYS"},
		{"5 TOK", 5, 0, "TOK"},
		{"  1.50 EUR  ", 150, 2, "EUR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a, err := ParseAsset(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, a.Amount)
			assert.Equal(t, tt.precision, a.Symbol.Precision())
			assert.Equal(t, tt.code, a.Symbol.Code().String())
		})
	}
}

func TestAssetString(t *testing.T) {
	for _, s := range []string{"1000000000.0000 SYS", "100.0000 SYS", "-100.0000 SYS", "0.0000 SYS", "0.0001 SYS", "7 TOK"} {
		assert.Equal(t, s, MustAsset(s).String())
	}
}

func TestParseAssetInvalid(t *testing.T) {
	for _, s := range []string{"100.0000", "100.0000 sys", "1e4 SYS", "+1.0 SYS", ".5 SYS", "1. SYS", "99999999999999999999 SYS", "1.0000000000000000000 SYS"} {
		_, err := ParseAsset(s)
		assert.Error(t, err, s)
	}
}

func TestAssetIsValid(t *testing.T) {
	assert.True(t, MustAsset("-100.0000 SYS").IsValid(), "validity does not check sign")
	assert.False(t, Asset{Amount: MaxAssetAmount + 1, Symbol: MustAsset("1 SYS").Symbol}.IsValid())
	assert.False(t, Asset{Amount: 1}.IsValid())
}

func TestAssetArithmetic(t *testing.T) {
	a := MustAsset("100.0000 SYS")
	b := MustAsset("0.5000 SYS")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "100.5000 SYS", sum.String())

	diff, err := b.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, "-99.5000 SYS", diff.String())

	_, err = a.Add(MustAsset("1.00 SYS"))
	assert.EqualError(t, err, "attempt to add asset with different symbol")

	_, err = a.Sub(MustAsset("1.0000 EOS"))
	assert.EqualError(t, err, "attempt to subtract asset with different symbol")

	big := Asset{Amount: MaxAssetAmount, Symbol: a.Symbol}
	_, err = big.Add(MustAsset("0.0001 SYS"))
	assert.EqualError(t, err, "addition overflow")

	_, err = Asset{Amount: -MaxAssetAmount, Symbol: a.Symbol}.Sub(MustAsset("0.0001 SYS"))
	assert.EqualError(t, err, "subtraction underflow")
}

func TestAssetJSON(t *testing.T) {
	type row struct {
		Balance Asset `json:"balance"`
	}
	data, err := json.Marshal(row{Balance: MustAsset("100.0000 SYS")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":"100.0000 SYS"}`, string(data))

	var back row
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, MustAsset("100.0000 SYS"), back.Balance)
}
