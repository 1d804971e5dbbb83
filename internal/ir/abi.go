package ir

import (
	"encoding/json"
	"strings"
)

// ABI is a contract interface description in eosio::abi/1.x form.
type ABI struct {
	Version          string       `json:"version"`
	Types            []TypeDef    `json:"types"`
	Structs          []StructDef  `json:"structs"`
	Actions          []ActionDef  `json:"actions"`
	Tables           []TableDef   `json:"tables"`
	RicardianClauses []ClauseDef  `json:"ricardian_clauses"`
	Variants         []VariantDef `json:"variants"`
}

// TypeDef aliases NewTypeName to Type.
type TypeDef struct {
	NewTypeName string `json:"new_type_name"`
	Type        string `json:"type"`
}

// FieldDef is one named, typed struct field.
type FieldDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// StructDef is a struct with an optional base struct whose fields come first.
type StructDef struct {
	Name   string     `json:"name"`
	Base   string     `json:"base"`
	Fields []FieldDef `json:"fields"`
}

// ActionDef binds an action name to the struct describing its data.
type ActionDef struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	RicardianContract string `json:"ricardian_contract"`
}

// TableDef binds a table name to its row struct.
type TableDef struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	IndexType string   `json:"index_type"`
	KeyNames  []string `json:"key_names"`
	KeyTypes  []string `json:"key_types"`
}

// ClauseDef is a ricardian clause. Carried through, never interpreted.
type ClauseDef struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// VariantDef is a tagged union of types.
type VariantDef struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// Struct looks up a struct by name.
func (a *ABI) Struct(name string) (*StructDef, bool) {
	for i := range a.Structs {
		if a.Structs[i].Name == name {
			return &a.Structs[i], true
		}
	}
	return nil, false
}

// Action looks up an action by name.
func (a *ABI) Action(name string) (*ActionDef, bool) {
	for i := range a.Actions {
		if a.Actions[i].Name == name {
			return &a.Actions[i], true
		}
	}
	return nil, false
}

// Table looks up a table by name.
func (a *ABI) Table(name string) (*TableDef, bool) {
	for i := range a.Tables {
		if a.Tables[i].Name == name {
			return &a.Tables[i], true
		}
	}
	return nil, false
}

// Variant looks up a variant by name.
func (a *ABI) Variant(name string) (*VariantDef, bool) {
	for i := range a.Variants {
		if a.Variants[i].Name == name {
			return &a.Variants[i], true
		}
	}
	return nil, false
}

// ResolveType follows type aliases until a non-alias name is reached.
// Array and optional suffixes are preserved.
func (a *ABI) ResolveType(t string) string {
	for range len(a.Types) + 1 {
		base, suffix := SplitTypeSuffix(t)
		next := ""
		for _, td := range a.Types {
			if td.NewTypeName == base {
				next = td.Type
				break
			}
		}
		if next == "" {
			return t
		}
		t = next + suffix
	}
	return t
}

// FlattenFields returns the fields of a struct including those inherited
// from its base chain, base fields first.
func (a *ABI) FlattenFields(name string) ([]FieldDef, bool) {
	seen := make(map[string]bool)
	var chain []*StructDef
	for cur := name; cur != ""; {
		if seen[cur] {
			return nil, false
		}
		seen[cur] = true
		sd, ok := a.Struct(a.ResolveType(cur))
		if !ok {
			return nil, false
		}
		chain = append(chain, sd)
		cur = sd.Base
	}

	var fields []FieldDef
	for i := len(chain) - 1; i >= 0; i-- {
		fields = append(fields, chain[i].Fields...)
	}
	return fields, true
}

// ActionFields returns the flattened data fields of an action.
func (a *ABI) ActionFields(action string) ([]FieldDef, bool) {
	ad, ok := a.Action(action)
	if !ok {
		return nil, false
	}
	return a.FlattenFields(ad.Type)
}

// SplitTypeSuffix splits "asset[]" into ("asset", "[]") and "name?" into
// ("name", "?"). Types without a suffix return an empty suffix.
func SplitTypeSuffix(t string) (string, string) {
	switch {
	case strings.HasSuffix(t, "[]"):
		return strings.TrimSuffix(t, "[]"), "[]"
	case strings.HasSuffix(t, "?"):
		return strings.TrimSuffix(t, "?"), "?"
	case strings.HasSuffix(t, "$"):
		return strings.TrimSuffix(t, "$"), "$"
	default:
		return t, ""
	}
}

// MarshalJSON writes empty lists instead of null so that the output
// compiles back against the ABI schema. The receiver is not modified.
func (a ABI) MarshalJSON() ([]byte, error) {
	type plain ABI
	p := plain(a)
	p.Types = nonNil(p.Types)
	p.Structs = make([]StructDef, len(a.Structs))
	for i, sd := range a.Structs {
		sd.Fields = nonNil(sd.Fields)
		p.Structs[i] = sd
	}
	p.Actions = nonNil(p.Actions)
	p.Tables = make([]TableDef, len(a.Tables))
	for i, td := range a.Tables {
		td.KeyNames = nonNil(td.KeyNames)
		td.KeyTypes = nonNil(td.KeyTypes)
		p.Tables[i] = td
	}
	p.RicardianClauses = nonNil(p.RicardianClauses)
	p.Variants = make([]VariantDef, len(a.Variants))
	for i, vd := range a.Variants {
		vd.Types = nonNil(vd.Types)
		p.Variants[i] = vd
	}
	return json.Marshal(p)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
