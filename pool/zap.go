package pool

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ZapParams is the split of a zap into its swap and add-liquidity legs.
type ZapParams struct {
	// SwapDeposited is the part of the zapped amount exchanged for the
	// other asset.
	SwapDeposited uint64

	// PrimaryAddLiq and SecondaryAddLiq are the amounts deposited into the
	// pool after the swap settles.
	PrimaryAddLiq   uint64
	SecondaryAddLiq uint64
}

// Zap converts a single asset into pool liquidity: part of the amount is
// swapped for the other asset and both are then deposited. Only constant
// product pools support zaps; a stableswap pool accepts a one-sided
// deposit directly.
//
// Rounding and the slippage tolerance can leave the zapper with small
// leftovers of both assets.
type Zap struct {
	Asset       Asset
	Amount      uint64
	SlippagePct decimal.Decimal

	Params            ZapParams
	Swap              *Swap
	LiquidityAddition *LiquidityAddition
}

// NewZap prepares a zap of the given asset into the pool.
func NewZap(calculator *Calculator, asset Asset, amount uint64, slippagePct decimal.Decimal) (*Zap, error) {
	pool := calculator.Pool()
	if !pool.IsAssetInPool(asset) {
		return nil, fmt.Errorf("asset %d: %w", asset.Index, ErrAssetNotInPool)
	}
	if pool.Kind != ConstantProduct {
		return nil, fmt.Errorf("zap: %w", ErrUnsupportedPoolKind)
	}
	if pool.IsEmpty() {
		return nil, fmt.Errorf("zap: %w", ErrEmptyPool)
	}

	zap := &Zap{
		Asset:       asset,
		Amount:      amount,
		SlippagePct: slippagePct,
	}
	params, err := zap.buildParams(pool)
	if err != nil {
		return nil, err
	}
	zap.Params = params

	swap, err := NewSwap(calculator, asset, zap.Params.SwapDeposited, slippagePct, false)
	if err != nil {
		return nil, err
	}
	zap.Swap = swap

	addition, err := zap.prepareLiquidityAddition(pool)
	if err != nil {
		return nil, err
	}
	zap.LiquidityAddition = addition
	return zap, nil
}

func (z *Zap) isAssetPrimary(pool Snapshot) bool {
	return z.Asset.Index == pool.PrimaryAsset.Index
}

// buildParams solves the zap split. The swapped-for side is lowered by one
// base unit so the add-liquidity leg never exceeds what the swap actually
// delivers.
func (z *Zap) buildParams(pool Snapshot) (ZapParams, error) {
	liqA, liqB := pool.Liquidities(z.Asset)
	swapDeposited := zapSwapDeposited(z.Amount, liqA, pool.FeeBps, pool.PactFeeBps)
	if swapDeposited == 0 {
		return ZapParams{}, fmt.Errorf("zap of %d: %w", z.Amount, ErrZapAmountTooSmall)
	}
	addLiq := z.Amount - swapDeposited
	swappedFor := zapSecondaryAddedLiquidity(swapDeposited, liqA, liqB, pool.FeeBps)
	if swappedFor == 0 {
		return ZapParams{}, fmt.Errorf("zap of %d: %w", z.Amount, ErrZapAmountTooSmall)
	}

	if z.isAssetPrimary(pool) {
		return ZapParams{
			SwapDeposited:   swapDeposited,
			PrimaryAddLiq:   addLiq,
			SecondaryAddLiq: swappedFor - 1,
		}, nil
	}
	return ZapParams{
		SwapDeposited:   swapDeposited,
		PrimaryAddLiq:   swappedFor - 1,
		SecondaryAddLiq: addLiq,
	}, nil
}

// prepareLiquidityAddition builds the add-liquidity leg against the pool
// state the swap leg will leave behind.
func (z *Zap) prepareLiquidityAddition(pool Snapshot) (*LiquidityAddition, error) {
	updated := pool
	if z.isAssetPrimary(pool) {
		updated.ReserveA += z.Params.SwapDeposited
		updated.ReserveB -= z.Params.SecondaryAddLiq
	} else {
		updated.ReserveA -= z.Params.PrimaryAddLiq
		updated.ReserveB += z.Params.SwapDeposited
	}

	calculator, err := NewCalculator(updated, time.Time{}, nil)
	if err != nil {
		return nil, err
	}
	return NewLiquidityAddition(calculator, z.Params.PrimaryAddLiq, z.Params.SecondaryAddLiq, z.SlippagePct)
}

// zapSwapDeposited solves the quadratic for the amount to swap so that the
// swap's payout and the remainder of the zapped amount match the post-swap
// reserve ratio. The protocol's cut of the fee stays in the pool, hence the
// two fee terms.
func zapSwapDeposited(zapAmount, totalAmount, feeBps, pactFeeBps uint64) uint64 {
	poolFee := bigFromUint(feeBps - pactFeeBps)
	zap := bigFromUint(zapAmount)
	total := bigFromUint(totalAmount)

	a := new(big.Int).Neg(bigBps)
	a.Sub(a, poolFee)
	a.Add(a, bigFromUint(feeBps))
	a = floorDiv(a, bigBps)

	b := new(big.Int).Mul(big.NewInt(-2), total)
	b.Mul(b, bigBps)
	b.Add(b, new(big.Int).Mul(zap, poolFee))
	b.Add(b, new(big.Int).Mul(total, bigFromUint(feeBps)))
	b = floorDiv(b, bigBps)

	c := new(big.Int).Mul(total, zap)

	delta := new(big.Int).Mul(b, b)
	delta.Sub(delta, new(big.Int).Mul(bigFour, new(big.Int).Mul(a, c)))
	root := new(big.Int).Sqrt(delta)

	var result *big.Int
	if b.Sign() < 0 {
		result = floorDiv(new(big.Int).Sub(new(big.Int).Neg(b), root), new(big.Int).Mul(bigTwo, a))
	} else {
		result = floorDiv(new(big.Int).Mul(bigTwo, c), root.Sub(root, b))
	}
	return result.Uint64()
}

// zapSecondaryAddedLiquidity is the post-fee payout of the swap leg,
// rounded up to match the contract's accounting of the second deposit.
func zapSecondaryAddedLiquidity(swapDeposited, totalPrimary, totalSecondary, feeBps uint64) uint64 {
	num := new(big.Int).Mul(bigFromUint(swapDeposited), bigFromUint(totalSecondary))
	num.Mul(num, bigFromUint(10_000-feeBps))
	den := new(big.Int).Add(bigFromUint(totalPrimary), bigFromUint(swapDeposited))
	den.Mul(den, bigBps)
	return ceilDiv(num, den).Uint64()
}
