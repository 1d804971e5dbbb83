package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testABI() *ABI {
	return &ABI{
		Version: "eosio::abi/1.1",
		Types:   []TypeDef{{NewTypeName: "account_name", Type: "name"}, {NewTypeName: "owner_t", Type: "account_name"}},
		Structs: []StructDef{
			{Name: "transfer", Fields: []FieldDef{{Name: "from", Type: "account_name"}, {Name: "to", Type: "name"}, {Name: "quantity", Type: "asset"}, {Name: "memo", Type: "string"}}},
			{Name: "transferfrom", Base: "transfer", Fields: []FieldDef{{Name: "spender", Type: "name"}}},
			{Name: "loop_a", Base: "loop_b"},
			{Name: "loop_b", Base: "loop_a"},
		},
		Actions: []ActionDef{{Name: "transfer", Type: "transfer"}, {Name: "transferfrom", Type: "transferfrom"}},
		Tables:  []TableDef{{Name: "accounts", Type: "account", IndexType: "i64"}},
	}
}

func TestABILookups(t *testing.T) {
	abi := testABI()

	_, ok := abi.Struct("transfer")
	assert.True(t, ok)
	_, ok = abi.Action("issue")
	assert.False(t, ok)
	td, ok := abi.Table("accounts")
	require.True(t, ok)
	assert.Equal(t, "account", td.Type)
}

func TestABIResolveType(t *testing.T) {
	abi := testABI()
	assert.Equal(t, "name", abi.ResolveType("owner_t"))
	assert.Equal(t, "name[]", abi.ResolveType("account_name[]"))
	assert.Equal(t, "asset", abi.ResolveType("asset"))
}

func TestABIFlattenFields(t *testing.T) {
	abi := testABI()

	fields, ok := abi.ActionFields("transferfrom")
	require.True(t, ok)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"from", "to", "quantity", "memo", "spender"}, names)

	_, ok = abi.FlattenFields("loop_a")
	assert.False(t, ok, "base cycles are rejected")
}

func TestSplitTypeSuffix(t *testing.T) {
	base, suffix := SplitTypeSuffix("asset[]")
	assert.Equal(t, "asset", base)
	assert.Equal(t, "[]", suffix)

	base, suffix = SplitTypeSuffix("name?")
	assert.Equal(t, "name", base)
	assert.Equal(t, "?", suffix)

	base, suffix = SplitTypeSuffix("string")
	assert.Equal(t, "string", base)
	assert.Equal(t, "", suffix)
}

func TestABIMarshalJSONEmptyLists(t *testing.T) {
	abi := ABI{
		Version: "eosio::abi/1.1",
		Structs: []StructDef{{Name: "hi"}},
		Tables:  []TableDef{{Name: "greeted", Type: "hi", IndexType: "i64"}},
	}

	data, err := json.Marshal(abi)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.Contains(t, string(data), `"fields":[]`)
	assert.Contains(t, string(data), `"key_names":[]`)

	// The receiver keeps its nil slices.
	assert.Nil(t, abi.Structs[0].Fields)
}
