package contract

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/mytoken/internal/ir"
)

// Decode copies decoded action data into out, a pointer to a struct whose
// fields are tagged `abi:"field_name"`. Types implementing
// encoding.TextUnmarshaler (ir.Name, ir.Asset, ir.Symbol) are parsed from
// their string form. Unknown fields are an error.
func Decode(data ir.IRObject, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.TextUnmarshallerHookFunc(),
		ErrorUnused: true,
		TagName:     "abi",
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("decode action data: %w", err)
	}
	if err := dec.Decode(ir.ToGo(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}
