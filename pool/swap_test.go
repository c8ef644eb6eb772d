package pool

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapConstantProductEffect(t *testing.T) {
	c := newTestCalculator(t, testCPPool())
	primary := c.Pool().PrimaryAsset

	swap, err := NewSwap(c, primary, 1_000, decimal.NewFromInt(10), false)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), swap.AssetReceived.Index)
	assert.Equal(t, uint64(1_000), swap.Effect.AmountDeposited)
	assert.Equal(t, uint64(949), swap.Effect.AmountReceived)
	assert.Equal(t, uint64(854), swap.Effect.MinimumAmountReceived)
	assert.Equal(t, uint64(3), swap.Effect.Fee)
	assert.True(t, swap.Effect.Price.Equal(decimal.RequireFromString("9.52")), "got %s", swap.Effect.Price)
	assert.InDelta(t, 9.071904761904761, swap.Effect.PrimaryAssetPriceAfterSwap.InexactFloat64(), 1e-9)
	assert.InDelta(t, 0.110230434097947, swap.Effect.SecondaryAssetPriceAfterSwap.InexactFloat64(), 1e-9)
	assert.InDelta(t, -9.280952380952382, swap.Effect.PrimaryAssetPriceChangePct.InexactFloat64(), 1e-9)
	assert.InDelta(t, 10.230434097947615, swap.Effect.SecondaryAssetPriceChangePct.InexactFloat64(), 1e-9)
	assert.True(t, swap.Effect.Amplifier.IsZero())
	assert.Equal(t, uint64(2_000), swap.Effect.TxFee)
}

func TestSwapFeeTakenFromGrossPayout(t *testing.T) {
	c := newTestCalculator(t, testCPPool())

	// Gross 334, net 332. The fee is their difference; reconstructing the
	// gross amount from the floored net one would lose a unit here.
	swap, err := NewSwap(c, c.Pool().PrimaryAsset, 340, decimal.Zero, false)
	require.NoError(t, err)

	assert.Equal(t, uint64(332), swap.Effect.AmountReceived)
	assert.Equal(t, uint64(2), swap.Effect.Fee)
}

func TestSwapForExact(t *testing.T) {
	c := newTestCalculator(t, testCPPool())
	primary := c.Pool().PrimaryAsset

	swap, err := NewSwap(c, primary, 949, decimal.Zero, true)
	require.NoError(t, err)

	assert.True(t, swap.SwapForExact)
	assert.Equal(t, uint64(949), swap.Effect.AmountReceived)
	assert.Equal(t, uint64(1_000), swap.Effect.AmountDeposited)
}

func TestSwapForExactExceedingReserve(t *testing.T) {
	c := newTestCalculator(t, testCPPool())

	_, err := NewSwap(c, c.Pool().PrimaryAsset, 25_000, decimal.Zero, true)
	assert.ErrorIs(t, err, ErrAmountExceedsReserve)
}

func TestSwapStableswapEffect(t *testing.T) {
	c := newTestCalculator(t, testStableswapPool(100, 2))
	primary := c.Pool().PrimaryAsset

	swap, err := NewSwap(c, primary, 1_000, decimal.Zero, false)
	require.NoError(t, err)

	// Gross 984, pool fee 30 bps.
	assert.Equal(t, uint64(981), swap.Effect.AmountReceived)
	assert.True(t, swap.Effect.Amplifier.Equal(decimal.NewFromInt(50)), "got %s", swap.Effect.Amplifier)
	assert.Equal(t, uint64(4_000), swap.Effect.TxFee)
}

func TestSwapValidation(t *testing.T) {
	c := newTestCalculator(t, testCPPool())
	primary := c.Pool().PrimaryAsset

	_, err := NewSwap(c, Asset{Index: 99}, 1_000, decimal.Zero, false)
	assert.ErrorIs(t, err, ErrAssetNotInPool)

	_, err = NewSwap(c, primary, 1_000, decimal.NewFromInt(-1), false)
	assert.ErrorIs(t, err, ErrInvalidSlippage)

	_, err = NewSwap(c, primary, 1_000, decimal.RequireFromString("100.5"), false)
	assert.ErrorIs(t, err, ErrInvalidSlippage)

	empty := testCPPool()
	empty.ReserveA = 0
	_, err = NewSwap(newTestCalculator(t, empty), primary, 1_000, decimal.Zero, false)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestSwapSecondaryAsset(t *testing.T) {
	c := newTestCalculator(t, testCPPool())
	secondary := c.Pool().SecondaryAsset

	swap, err := NewSwap(c, secondary, 1_000, decimal.Zero, false)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), swap.AssetReceived.Index)
	assert.Equal(t, uint64(949), swap.Effect.AmountReceived)
	// Depositing the secondary asset moves the primary price up.
	assert.True(t, swap.Effect.PrimaryAssetPriceChangePct.IsPositive())
	assert.True(t, swap.Effect.SecondaryAssetPriceChangePct.IsNegative())
}
