package compiler

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mytoken/internal/ir"
)

//go:embed abi_schema.cue
var abiSchema string

// LoadABI reads and compiles an interface description. JSON (.abi, .json)
// and CUE (.cue) sources are both accepted; a CUE file may either be the
// document itself or nest it under an "abi" field.
func LoadABI(path string) (*ir.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ABI: %w", err)
	}
	return CompileABI(path, data)
}

// CompileABI compiles src against the #ABI schema and decodes it.
// Defaults (empty lists, index_type "i64") are filled in by the schema.
func CompileABI(filename string, src []byte) (*ir.ABI, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(abiSchema, cue.Filename("abi_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile ABI schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if nested := v.LookupPath(cue.ParsePath("abi")); nested.Exists() {
		v = nested
	}

	unified := schema.LookupPath(cue.ParsePath("#ABI")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var abi ir.ABI
	if err := unified.Decode(&abi); err != nil {
		return nil, formatCUEError(err)
	}
	return &abi, nil
}

// CompileError is a CUE compilation or schema error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from the first CUE error.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "abi"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	ce := &CompileError{Field: field, Message: first.Error()}

	// Prefer a position in the user's document over one in the schema.
	for _, pos := range errors.Positions(first) {
		if !ce.Pos.IsValid() || pos.Filename() != "abi_schema.cue" {
			ce.Pos = pos
		}
		if pos.Filename() != "abi_schema.cue" {
			break
		}
	}
	return ce
}
