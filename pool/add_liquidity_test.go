package pool

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLiquidityFirstDeposit(t *testing.T) {
	pool := testCPPool()
	pool.ReserveA = 0
	pool.ReserveB = 0
	pool.TotalLiquidity = 0
	c := newTestCalculator(t, pool)

	addition, err := NewLiquidityAddition(c, 20_000, 20_000, decimal.Zero)
	require.NoError(t, err)

	// The contract credits the full sqrt(20000*20000); the permanently
	// locked tokens only lower the accepted minimum.
	assert.Equal(t, uint64(20_000), addition.Effect.MintedLiquidityTokens)
	assert.Equal(t, int64(19_000), addition.Effect.MinimumMintedLiquidityTokens)
	assert.True(t, addition.Effect.BonusPct.IsZero())
	assert.Equal(t, uint64(3_000), addition.Effect.TxFee)
}

func TestAddLiquidityFirstDepositTooSmall(t *testing.T) {
	pool := testCPPool()
	pool.ReserveA = 0
	pool.ReserveB = 0
	pool.TotalLiquidity = 0
	c := newTestCalculator(t, pool)

	_, err := NewLiquidityAddition(c, 1_000, 1_000, decimal.Zero)
	assert.ErrorIs(t, err, ErrInsufficientInitialLiquidity)

	// The first-deposit check fires before slippage validation.
	_, err = NewLiquidityAddition(c, 1_000, 1_000, decimal.NewFromInt(101))
	assert.ErrorIs(t, err, ErrInsufficientInitialLiquidity)

	// One token over the lock is enough.
	addition, err := NewLiquidityAddition(c, 1_001, 1_001, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_001), addition.Effect.MintedLiquidityTokens)
	assert.Equal(t, int64(1), addition.Effect.MinimumMintedLiquidityTokens)
}

func TestAddLiquidityFirstDepositMinimumCanGoNegative(t *testing.T) {
	pool := testCPPool()
	pool.ReserveA = 0
	pool.ReserveB = 0
	pool.TotalLiquidity = 0
	c := newTestCalculator(t, pool)

	addition, err := NewLiquidityAddition(c, 1_200, 1_200, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_200), addition.Effect.MintedLiquidityTokens)
	assert.Equal(t, int64(-400), addition.Effect.MinimumMintedLiquidityTokens)
}

func TestAddLiquiditySlippageValidation(t *testing.T) {
	c := newTestCalculator(t, testCPPool())

	_, err := NewLiquidityAddition(c, 1_000, 1_000, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidSlippage)

	_, err = NewLiquidityAddition(c, 1_000, 1_000, decimal.RequireFromString("100.01"))
	assert.ErrorIs(t, err, ErrInvalidSlippage)
}

func TestAddLiquidityMinimumRoundsHalfToEven(t *testing.T) {
	c := newTestCalculator(t, testCPPool())

	// Minted 1000; 0.05% slippage puts the minimum at 999.5.
	addition, err := NewLiquidityAddition(c, 1_000, 1_000, decimal.RequireFromString("0.05"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), addition.Effect.MintedLiquidityTokens)
	assert.Equal(t, int64(1_000), addition.Effect.MinimumMintedLiquidityTokens)

	// 0.15% puts it at 998.5, which rounds down to the even side.
	addition, err = NewLiquidityAddition(c, 1_000, 1_000, decimal.RequireFromString("0.15"))
	require.NoError(t, err)
	assert.Equal(t, int64(998), addition.Effect.MinimumMintedLiquidityTokens)
}

func TestAddLiquidityZeroMint(t *testing.T) {
	c := newTestCalculator(t, testCPPool())

	_, err := NewLiquidityAddition(c, 1, 0, decimal.Zero)
	assert.ErrorIs(t, err, ErrMintedTokensNonPositive)
}

func TestAddLiquidityStableswap(t *testing.T) {
	pool := testStableswapPool(80_000, 1_000)
	pool.ReserveA = 1_000_000
	pool.ReserveB = 1_000_000
	pool.TotalLiquidity = 1_000_000
	c := newTestCalculator(t, pool)

	addition, err := NewLiquidityAddition(c, 50_000, 25_000, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, uint64(37_481), addition.Effect.MintedLiquidityTokens)
	assert.Equal(t, int64(37_481), addition.Effect.MinimumMintedLiquidityTokens)
	assert.InDelta(t, -0.0493333333, addition.Effect.BonusPct.InexactFloat64(), 1e-9)
	assert.True(t, addition.Effect.Amplifier.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, uint64(8_000), addition.Effect.TxFee)
}

func TestAddLiquidityStableswapLowLiquidity(t *testing.T) {
	pool := testStableswapPool(80_000, 1_000)
	pool.ReserveA = 100
	pool.ReserveB = 100
	pool.TotalLiquidity = 100
	c := newTestCalculator(t, pool)

	_, err := NewLiquidityAddition(c, 0, 1_000_000, decimal.Zero)
	assert.ErrorIs(t, err, ErrLiquidityTooLowForFee)
}
