package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mytoken/internal/ir"
)

type balanceRow struct {
	Balance ir.Asset `json:"balance"`
}

func balanceKey(r *balanceRow) uint64 { return uint64(r.Balance.Symbol.Code()) }

func TestTableLifecycle(t *testing.T) {
	self := ir.MustName("token")
	alice := ir.MustName("alice")
	h := newFakeHost(t, self)
	ctx := context.Background()

	tbl := NewTable(h, self, alice, ir.MustName("accounts"), balanceKey)
	row := &balanceRow{Balance: ir.MustAsset("10.0000 SYS")}
	pk := balanceKey(row)

	_, ok, err := tbl.Find(ctx, pk)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tbl.Emplace(ctx, alice, row))

	err = tbl.Emplace(ctx, alice, row)
	ae, ok := AsAssert(err)
	require.True(t, ok)
	assert.Contains(t, ae.Message, "uniqueness constraint")

	row.Balance = ir.MustAsset("4.0000 SYS")
	require.NoError(t, tbl.Modify(ctx, alice, row))

	got, err := tbl.Get(ctx, pk, "no balance object found")
	require.NoError(t, err)
	assert.Equal(t, "4.0000 SYS", got.Balance.String())

	stored, _, err := h.FindRow(ctx, tbl.ref, pk)
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":"4.0000 SYS"}`, string(stored.Value))
	assert.Equal(t, alice, stored.Payer)

	require.NoError(t, tbl.Erase(ctx, row))
	_, err = tbl.Get(ctx, pk, "no balance object found")
	ae, ok = AsAssert(err)
	require.True(t, ok)
	assert.Equal(t, "no balance object found", ae.Message)

	_, ok = AsAssert(tbl.Erase(ctx, row))
	assert.True(t, ok)
	_, ok = AsAssert(tbl.Modify(ctx, alice, row))
	assert.True(t, ok)
}

type allowRow struct {
	Key uint64 `json:"key"`
}

func TestTableAllAndAvailablePrimaryKey(t *testing.T) {
	self := ir.MustName("token")
	h := newFakeHost(t, self)
	ctx := context.Background()

	tbl := NewTable(h, self, ir.MustName("alice"), ir.MustName("allowed"), func(r *allowRow) uint64 { return r.Key })

	next, err := tbl.AvailablePrimaryKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), next)

	for _, k := range []uint64{4, 1} {
		require.NoError(t, tbl.Emplace(ctx, self, &allowRow{Key: k}))
	}

	all, err := tbl.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint64(1), all[0].Key)
	assert.Equal(t, uint64(4), all[1].Key)

	next, err = tbl.AvailablePrimaryKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), next)
}

func TestTableModifySamePayer(t *testing.T) {
	self := ir.MustName("token")
	alice := ir.MustName("alice")
	h := newFakeHost(t, self)
	ctx := context.Background()

	tbl := NewTable(h, self, alice, ir.MustName("accounts"), balanceKey)
	row := &balanceRow{Balance: ir.MustAsset("1.0000 SYS")}
	require.NoError(t, tbl.Emplace(ctx, alice, row))

	row.Balance = ir.MustAsset("2.0000 SYS")
	require.NoError(t, tbl.Modify(ctx, SamePayer, row))

	stored, _, err := h.FindRow(ctx, tbl.ref, balanceKey(row))
	require.NoError(t, err)
	assert.Equal(t, alice, stored.Payer)
}
