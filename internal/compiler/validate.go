package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/mytoken/internal/codec"
	"github.com/roach88/mytoken/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrCompile            = "E100" // source does not read or compile
	ErrDuplicateStruct    = "E101" // struct name declared twice
	ErrUnknownFieldType   = "E102" // field type resolves to nothing
	ErrUnknownActionType  = "E103" // action type is not a struct
	ErrInvalidActionName  = "E104" // action name is not a valid name
	ErrDuplicateAction    = "E105" // action declared twice
	ErrUnknownTableType   = "E106" // table row type is not a struct
	ErrInvalidTableName   = "E107" // table name is not a valid name
	ErrInvalidBase        = "E108" // unknown base struct or base cycle
	ErrUnsupportedVersion = "E109" // version is not eosio::abi/1.x
	ErrInvalidTypeAlias   = "E110" // alias redefines a builtin or is declared twice
	ErrFloatTypeForbidden = "E111" // float types not allowed
)

// ValidationError represents an ABI validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors joins several validation errors into one error.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateABI checks an ABI for semantic errors.
// Returns all errors found (does not fail-fast).
func ValidateABI(abi *ir.ABI) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if !strings.HasPrefix(abi.Version, ir.ABIVersionPrefix) {
		add("version", ErrUnsupportedVersion, "unsupported version %q", abi.Version)
	}

	aliases := make(map[string]bool)
	for i, td := range abi.Types {
		field := fmt.Sprintf("types[%d]", i)
		switch {
		case codec.IsBuiltin(td.NewTypeName):
			add(field, ErrInvalidTypeAlias, "alias %q redefines a builtin type", td.NewTypeName)
		case aliases[td.NewTypeName]:
			add(field, ErrInvalidTypeAlias, "duplicate alias %q", td.NewTypeName)
		}
		aliases[td.NewTypeName] = true
	}

	structs := make(map[string]bool)
	for i, sd := range abi.Structs {
		if structs[sd.Name] {
			add(fmt.Sprintf("structs[%d].name", i), ErrDuplicateStruct, "duplicate struct %q", sd.Name)
		}
		structs[sd.Name] = true
	}

	for i, sd := range abi.Structs {
		if sd.Base != "" {
			if _, ok := abi.FlattenFields(sd.Name); !ok {
				add(fmt.Sprintf("structs[%d].base", i), ErrInvalidBase, "struct %q has unknown base or base cycle via %q", sd.Name, sd.Base)
			}
		}
		for j, f := range sd.Fields {
			field := fmt.Sprintf("structs[%d].fields[%d]", i, j)
			if isFloatType(abi.ResolveType(f.Type)) {
				add(field, ErrFloatTypeForbidden, "float type forbidden for field %q", f.Name)
				continue
			}
			if !typeExists(abi, f.Type) {
				add(field, ErrUnknownFieldType, "unknown type %q for field %q", f.Type, f.Name)
			}
		}
	}

	actions := make(map[string]bool)
	for i, ad := range abi.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		if _, err := ir.ParseName(ad.Name); err != nil || ad.Name == "" {
			add(field+".name", ErrInvalidActionName, "invalid action name %q", ad.Name)
		}
		if actions[ad.Name] {
			add(field+".name", ErrDuplicateAction, "duplicate action %q", ad.Name)
		}
		actions[ad.Name] = true
		if _, ok := abi.Struct(abi.ResolveType(ad.Type)); !ok {
			add(field+".type", ErrUnknownActionType, "action %q references unknown struct %q", ad.Name, ad.Type)
		}
	}

	for i, td := range abi.Tables {
		field := fmt.Sprintf("tables[%d]", i)
		if _, err := ir.ParseName(td.Name); err != nil || td.Name == "" {
			add(field+".name", ErrInvalidTableName, "invalid table name %q", td.Name)
		}
		if _, ok := abi.Struct(abi.ResolveType(td.Type)); !ok {
			add(field+".type", ErrUnknownTableType, "table %q references unknown struct %q", td.Name, td.Type)
		}
	}

	return errs
}

// typeExists resolves t (with any array/optional suffix) to a builtin,
// struct or variant.
func typeExists(abi *ir.ABI, t string) bool {
	base, _ := ir.SplitTypeSuffix(abi.ResolveType(t))
	if codec.IsBuiltin(base) {
		return true
	}
	if _, ok := abi.Struct(base); ok {
		return true
	}
	_, ok := abi.Variant(base)
	return ok
}

func isFloatType(t string) bool {
	base, _ := ir.SplitTypeSuffix(t)
	return strings.HasPrefix(base, "float")
}
