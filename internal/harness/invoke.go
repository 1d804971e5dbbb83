package harness

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/mytoken/internal/codec"
	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// InvokeOption configures one invocation.
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	auth []ir.PermissionLevel
}

// From authorizes the action with account@active. Without it the
// contract's own account authorizes.
func From(account *Account) InvokeOption {
	return func(c *invokeConfig) {
		c.auth = []ir.PermissionLevel{account.Active()}
	}
}

// WithAuthorization sets the exact permission levels.
func WithAuthorization(levels ...ir.PermissionLevel) InvokeOption {
	return func(c *invokeConfig) {
		c.auth = levels
	}
}

// Action builds a packed action. args are matched to the action's ABI
// fields by position.
func (c *Contract) Action(name string, args []any, opts ...InvokeOption) (ir.Action, error) {
	cfg := invokeConfig{auth: []ir.PermissionLevel{c.Account.Active()}}
	for _, opt := range opts {
		opt(&cfg)
	}

	n, err := ir.ParseName(name)
	if err != nil {
		return ir.Action{}, err
	}
	obj, err := PositionalArgs(c.ABI, name, args)
	if err != nil {
		return ir.Action{}, fmt.Errorf("%s::%s: %w", c.Name, name, err)
	}
	act, err := packAction(c.ABI, c.Name, n, obj)
	if err != nil {
		return ir.Action{}, err
	}
	act.Authorization = cfg.auth
	return act, nil
}

// Invoke pushes one action in its own transaction.
func (c *Contract) Invoke(ctx context.Context, name string, args []any, opts ...InvokeOption) (ir.TransactionReceipt, error) {
	act, err := c.Action(name, args, opts...)
	if err != nil {
		return ir.TransactionReceipt{}, err
	}
	return c.h.Push(ctx, act)
}

// GetTableRows returns the rows of one of the contract's tables in scope.
func (c *Contract) GetTableRows(ctx context.Context, scope ir.Name, table string) ([]ir.TableRow, error) {
	t, err := ir.ParseName(table)
	if err != nil {
		return nil, err
	}
	return c.h.store.ScanRows(ctx, store.TableRef{Code: c.Name, Scope: scope, Table: t})
}

// PositionalArgs maps args onto the fields of action in declaration
// order and converts each to the field's type.
func PositionalArgs(abi *ir.ABI, action string, args []any) (ir.IRObject, error) {
	fields, ok := abi.ActionFields(action)
	if !ok {
		return nil, fmt.Errorf("action %q not found in ABI", action)
	}
	if len(args) != len(fields) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(fields), len(args))
	}

	obj := make(ir.IRObject, len(fields))
	for i, f := range fields {
		v, err := toValue(abi, f.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, f.Name, err)
		}
		obj[f.Name] = v
	}
	return obj, nil
}

// toValue converts a Go value to the IR form of ABI type typ.
func toValue(abi *ir.ABI, typ string, v any) (ir.IRValue, error) {
	base, suffix := ir.SplitTypeSuffix(abi.ResolveType(typ))

	if v == nil {
		if suffix == "?" {
			return ir.IRNull{}, nil
		}
		return nil, fmt.Errorf("nil value for %s", typ)
	}

	switch suffix {
	case "[]":
		items, ok := v.([]any)
		if !ok {
			if strs, isStrs := v.([]string); isStrs {
				items = make([]any, len(strs))
				for i, s := range strs {
					items[i] = s
				}
			} else {
				return nil, fmt.Errorf("expected list for %s, got %T", typ, v)
			}
		}
		arr := make(ir.IRArray, len(items))
		for i, item := range items {
			iv, err := toValue(abi, base, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = iv
		}
		return arr, nil
	case "?", "$":
		return toValue(abi, base, v)
	}

	if fields, ok := abi.FlattenFields(base); ok && !codec.IsBuiltin(base) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object for %s, got %T", base, v)
		}
		obj := make(ir.IRObject, len(fields))
		for _, f := range fields {
			fv, present := m[f.Name]
			if !present {
				continue
			}
			iv, err := toValue(abi, f.Type, fv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			obj[f.Name] = iv
		}
		return obj, nil
	}

	return scalar(v)
}

func scalar(v any) (ir.IRValue, error) {
	switch x := v.(type) {
	case ir.IRValue:
		return x, nil
	case *Account:
		return ir.IRString(x.Name.String()), nil
	case *Contract:
		return ir.IRString(x.Name.String()), nil
	case fmt.Stringer:
		return ir.IRString(x.String()), nil
	case string:
		return ir.IRString(x), nil
	case bool:
		return ir.IRBool(x), nil
	case int:
		return ir.IRInt(x), nil
	case int32:
		return ir.IRInt(x), nil
	case int64:
		return ir.IRInt(x), nil
	case uint32:
		return ir.IRInt(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("%d overflows int64", x)
		}
		return ir.IRInt(x), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("non-integer number %v", x)
		}
		// float64(math.MaxInt64) rounds up to 2^63.
		if x >= math.MaxInt64 || x < math.MinInt64 {
			return nil, fmt.Errorf("%v overflows int64", x)
		}
		return ir.IRInt(x), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", v)
	}
}

func packAction(abi *ir.ABI, account, name ir.Name, args ir.IRObject) (ir.Action, error) {
	data, err := codec.PackAction(abi, name.String(), args)
	if err != nil {
		return ir.Action{}, fmt.Errorf("pack %s::%s: %w", account, name, err)
	}
	return ir.Action{Account: account, Name: name, Data: data}, nil
}
