package pool

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculator answers price and amount questions about a single pool
// snapshot. It binds the snapshot to the swap strategy of its curve, with
// the amplifier of stableswap pools evaluated at construction time.
type Calculator struct {
	pool     Snapshot
	strategy SwapStrategy
}

// NewCalculator builds a calculator for the snapshot. For stableswap pools
// the amplifier is interpolated at the given time. The logger may be nil.
func NewCalculator(pool Snapshot, at time.Time, logger *zap.Logger) (*Calculator, error) {
	strategy, err := strategyForPool(pool, at, logger)
	if err != nil {
		return nil, err
	}
	return &Calculator{pool: pool, strategy: strategy}, nil
}

// Pool returns the snapshot the calculator was built from.
func (c *Calculator) Pool() Snapshot { return c.pool }

// PrimaryAssetAmount returns the primary reserve in display units.
func (c *Calculator) PrimaryAssetAmount() decimal.Decimal {
	return decimalFromUint(c.pool.ReserveA).Div(c.pool.PrimaryAsset.Ratio())
}

// SecondaryAssetAmount returns the secondary reserve in display units.
func (c *Calculator) SecondaryAssetAmount() decimal.Decimal {
	return decimalFromUint(c.pool.ReserveB).Div(c.pool.SecondaryAsset.Ratio())
}

// PrimaryAssetPrice quotes the primary asset in units of the secondary.
// Zero for an empty pool.
func (c *Calculator) PrimaryAssetPrice() decimal.Decimal {
	return c.strategy.Price(c.PrimaryAssetAmount(), c.SecondaryAssetAmount())
}

// SecondaryAssetPrice quotes the secondary asset in units of the primary.
// Zero for an empty pool.
func (c *Calculator) SecondaryAssetPrice() decimal.Decimal {
	return c.strategy.Price(c.SecondaryAssetAmount(), c.PrimaryAssetAmount())
}

// AmountDepositedToGrossAmountReceived converts a deposit of the given
// asset to the amount the contract pays out before the fee is subtracted.
func (c *Calculator) AmountDepositedToGrossAmountReceived(deposited Asset, amountDeposited uint64) (Quote, error) {
	if err := c.requireAsset(deposited); err != nil {
		return Quote{}, err
	}
	liqA, liqB := c.pool.Liquidities(deposited)
	return c.strategy.GrossAmountReceived(liqA, liqB, amountDeposited)
}

// AmountDepositedToNetAmountReceived converts a deposit of the given asset
// to the amount actually received after the pool fee.
func (c *Calculator) AmountDepositedToNetAmountReceived(deposited Asset, amountDeposited uint64) (Quote, error) {
	gross, err := c.AmountDepositedToGrossAmountReceived(deposited, amountDeposited)
	if err != nil {
		return Quote{}, err
	}
	gross.Amount -= c.FeeFromGrossAmount(gross.Amount)
	return gross, nil
}

// NetAmountReceivedToAmountDeposited is the inverse of
// AmountDepositedToNetAmountReceived: the deposit of the given asset
// required to receive netAmountReceived of the other one after the fee.
func (c *Calculator) NetAmountReceivedToAmountDeposited(deposited Asset, netAmountReceived uint64) (Quote, error) {
	if err := c.requireAsset(deposited); err != nil {
		return Quote{}, err
	}
	gross := netAmountReceived + c.FeeFromNetAmount(netAmountReceived)
	liqA, liqB := c.pool.Liquidities(deposited)
	return c.strategy.AmountDeposited(liqA, liqB, gross)
}

// FeeFromGrossAmount returns the pool fee taken from a gross payout.
func (c *Calculator) FeeFromGrossAmount(grossAmount uint64) uint64 {
	gross := bigFromUint(grossAmount)
	kept := new(big.Int).Mul(gross, bigFromUint(10_000-c.pool.FeeBps))
	kept.Div(kept, bigBps)
	return grossAmount - kept.Uint64()
}

// Fee returns the pool fee charged on a swap of the given deposit: the
// difference between the gross payout and the net amount the swapper
// receives.
func (c *Calculator) Fee(deposited Asset, amountDeposited uint64) (uint64, error) {
	gross, err := c.AmountDepositedToGrossAmountReceived(deposited, amountDeposited)
	if err != nil {
		return 0, err
	}
	return c.FeeFromGrossAmount(gross.Amount), nil
}

// FeeFromNetAmount returns the pool fee that was taken from a gross payout
// which netted the given amount. Rounded up, so converting net to gross and
// back never under-delivers.
func (c *Calculator) FeeFromNetAmount(netAmount uint64) uint64 {
	net := bigFromUint(netAmount)
	gross := ceilDiv(new(big.Int).Mul(net, bigBps), bigFromUint(10_000-c.pool.FeeBps))
	return gross.Uint64() - netAmount
}

// MinimumAmountReceived applies a slippage tolerance to the net payout of a
// deposit. The result is the least amount the swapper accepts.
func (c *Calculator) MinimumAmountReceived(deposited Asset, amountDeposited uint64, slippagePct decimal.Decimal) (uint64, error) {
	net, err := c.AmountDepositedToNetAmountReceived(deposited, amountDeposited)
	if err != nil {
		return 0, err
	}
	received := decimalFromUint(net.Amount)
	minimum := received.Sub(received.Mul(slippagePct).Div(bigHundredDec)).Floor()
	return minimum.BigInt().Uint64(), nil
}

// SwapPrice is the effective exchange rate of a swap in display units,
// computed on the gross payout so it reflects the curve alone, not the fee.
func (c *Calculator) SwapPrice(deposited Asset, amountDeposited uint64) (decimal.Decimal, error) {
	received, err := c.pool.OtherAsset(deposited)
	if err != nil {
		return decimal.Decimal{}, err
	}
	gross, err := c.AmountDepositedToGrossAmountReceived(deposited, amountDeposited)
	if err != nil {
		return decimal.Decimal{}, err
	}
	depositedDec := decimalFromUint(amountDeposited).Div(deposited.Ratio())
	receivedDec := decimalFromUint(gross.Amount).Div(received.Ratio())
	return receivedDec.Div(depositedDec), nil
}

// AssetPriceAfterLiqChange quotes the asset after applying the given signed
// changes to the reserves, e.g. the state the pool would be in once a
// planned swap settles.
func (c *Calculator) AssetPriceAfterLiqChange(asset Asset, primaryLiqChange, secondaryLiqChange int64) (decimal.Decimal, error) {
	if err := c.requireAsset(asset); err != nil {
		return decimal.Decimal{}, err
	}
	primary := c.PrimaryAssetAmount().Add(decimal.NewFromInt(primaryLiqChange).Div(c.pool.PrimaryAsset.Ratio()))
	secondary := c.SecondaryAssetAmount().Add(decimal.NewFromInt(secondaryLiqChange).Div(c.pool.SecondaryAsset.Ratio()))
	if asset.Index == c.pool.PrimaryAsset.Index {
		return c.strategy.Price(primary, secondary), nil
	}
	return c.strategy.Price(secondary, primary), nil
}

// PriceImpactPct is the relative change of the asset's price caused by the
// given reserve changes, in percent. Negative when the price drops.
func (c *Calculator) PriceImpactPct(asset Asset, primaryLiqChange, secondaryLiqChange int64) (decimal.Decimal, error) {
	newPrice, err := c.AssetPriceAfterLiqChange(asset, primaryLiqChange, secondaryLiqChange)
	if err != nil {
		return decimal.Decimal{}, err
	}
	oldPrice := c.PrimaryAssetPrice()
	if asset.Index == c.pool.SecondaryAsset.Index {
		oldPrice = c.SecondaryAssetPrice()
	}
	return newPrice.Mul(bigHundredDec).Div(oldPrice).Sub(bigHundredDec), nil
}

// MintedLiquidityTokens is the amount of liquidity tokens minted for a
// deposit of both assets, before any first-deposit lock.
func (c *Calculator) MintedLiquidityTokens(addedPrimary, addedSecondary uint64) (MintQuote, error) {
	return c.strategy.MintedLiquidityTokens(addedPrimary, addedSecondary)
}

// AddLiquidityBonusPct is the stableswap deposit premium or penalty in
// percent. Zero for constant product pools.
func (c *Calculator) AddLiquidityBonusPct(addedPrimary, addedSecondary uint64) (decimal.Decimal, error) {
	s, ok := c.strategy.(*StableswapStrategy)
	if !ok {
		return decimal.Zero, nil
	}
	return s.AddLiquidityBonusPct(addedPrimary, addedSecondary)
}

// AddLiquidityTxFee is the fee of the add-liquidity application call.
func (c *Calculator) AddLiquidityTxFee(invariantIterations int) uint64 {
	if c.pool.Kind == ConstantProduct {
		return 3000
	}
	return AppCallFee(invariantIterations, 4)
}

// Amplifier is the pool's current amplifier with precision scaling removed.
// Zero for constant product pools.
func (c *Calculator) Amplifier() decimal.Decimal {
	s, ok := c.strategy.(*StableswapStrategy)
	if !ok {
		return decimal.Zero
	}
	precision := s.params.Precision
	if precision == 0 {
		precision = 1
	}
	return decimalFromUint(s.Amplifier()).Div(decimalFromUint(precision))
}

// SwapTxFee is the fee of the swap application call. Constant product swaps
// cost a flat two transactions; stableswap swaps scale with the invariant
// iteration count.
func (c *Calculator) SwapTxFee(invariantIterations int) uint64 {
	if c.pool.Kind == ConstantProduct {
		return 2000
	}
	return AppCallFee(invariantIterations, 1)
}

func (c *Calculator) requireAsset(asset Asset) error {
	if !c.pool.IsAssetInPool(asset) {
		return fmt.Errorf("asset %d: %w", asset.Index, ErrAssetNotInPool)
	}
	return nil
}

var bigHundredDec = decimal.NewFromInt(100)
