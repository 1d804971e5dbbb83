package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mytoken/internal/ir"
)

type greetArgs struct {
	User  ir.Name  `abi:"user"`
	Tip   ir.Asset `abi:"tip"`
	Times uint32   `abi:"times"`
}

func TestDecode(t *testing.T) {
	var args greetArgs
	err := Decode(ir.IRObject{
		"user":  ir.IRString("alice"),
		"tip":   ir.IRString("1.5000 SYS"),
		"times": ir.IRInt(3),
	}, &args)
	require.NoError(t, err)

	assert.Equal(t, ir.MustName("alice"), args.User)
	assert.Equal(t, ir.MustAsset("1.5000 SYS"), args.Tip)
	assert.Equal(t, uint32(3), args.Times)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data ir.IRObject
	}{
		{"bad name", ir.IRObject{"user": ir.IRString("Alice")}},
		{"bad asset", ir.IRObject{"tip": ir.IRString("1.5 sys")}},
		{"unused field", ir.IRObject{"user": ir.IRString("alice"), "extra": ir.IRInt(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args greetArgs
			assert.ErrorIs(t, Decode(tt.data, &args), ErrInvalidArgs)
		})
	}
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(true, "unused"))

	err := Check(false, "must issue positive quantity")
	ae, ok := AsAssert(err)
	require.True(t, ok)
	assert.Equal(t, "must issue positive quantity", ae.Message)
	assert.Equal(t, "assertion failure with message: must issue positive quantity", err.Error())

	_, ok = AsAssert(errors.New("plain"))
	assert.False(t, ok)

	assert.Equal(t, "memo has more than 256 bytes", Assertf("memo has more than %d bytes", 256).(*AssertError).Message)
}

func TestDispatcher(t *testing.T) {
	self := ir.MustName("greeter")
	var got greetArgs
	d := Dispatcher{
		ir.MustName("greet"): Action(func(ctx context.Context, h Host, args greetArgs) error {
			got = args
			return nil
		}),
	}

	h := newFakeHost(t, self)
	ctx := context.Background()

	err := d.Apply(ctx, h, ir.MustName("greet"), ir.IRObject{"user": ir.IRString("bob")})
	require.NoError(t, err)
	assert.Equal(t, ir.MustName("bob"), got.User)

	err = d.Apply(ctx, h, ir.MustName("wave"), ir.IRObject{})
	assert.ErrorIs(t, err, ErrUnknownAction)

	// Notifications are not dispatched.
	got = greetArgs{}
	h.receiver = ir.MustName("bob")
	require.NoError(t, d.Apply(ctx, h, ir.MustName("greet"), ir.IRObject{"user": ir.IRString("carol")}))
	assert.Equal(t, greetArgs{}, got)
}

func TestDispatcherWith(t *testing.T) {
	var called string
	mk := func(tag string) Handler {
		return func(context.Context, Host, ir.IRObject) error {
			called = tag
			return nil
		}
	}
	base := Dispatcher{ir.MustName("issue"): mk("base"), ir.MustName("retire"): mk("retire")}
	over := base.With(Dispatcher{ir.MustName("issue"): mk("override")})

	h := newFakeHost(t, ir.MustName("token"))
	require.NoError(t, over.Apply(context.Background(), h, ir.MustName("issue"), nil))
	assert.Equal(t, "override", called)
	require.NoError(t, base.Apply(context.Background(), h, ir.MustName("issue"), nil))
	assert.Equal(t, "base", called)
	assert.Len(t, over, 2)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("b", func() Code { return Dispatcher{} }))
	require.NoError(t, r.Register("a", func() Code { return Dispatcher{} }))
	assert.Error(t, r.Register("a", func() Code { return Dispatcher{} }))
	assert.Error(t, r.Register("", func() Code { return Dispatcher{} }))

	assert.Equal(t, []string{"a", "b"}, r.IDs())

	_, ok := r.Lookup("a")
	assert.True(t, ok)
	_, ok = r.Lookup("zzz")
	assert.False(t, ok)
}
