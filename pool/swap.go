package pool

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SwapEffect describes everything a prepared swap will do to the pool and
// to the swapper, including the price the swap executes at and the fee of
// the application call transaction.
type SwapEffect struct {
	AmountDeposited       uint64
	AmountReceived        uint64
	MinimumAmountReceived uint64
	Fee                   uint64
	Price                 decimal.Decimal

	PrimaryAssetPriceAfterSwap   decimal.Decimal
	SecondaryAssetPriceAfterSwap decimal.Decimal
	PrimaryAssetPriceChangePct   decimal.Decimal
	SecondaryAssetPriceChangePct decimal.Decimal

	// Amplifier is the pool's amplifier with precision scaling removed.
	// Zero for constant product pools.
	Amplifier decimal.Decimal

	TxFee uint64
}

// Swap is a prepared exchange of one pool asset for the other. The effect
// is computed against the snapshot at construction time and does not track
// later pool updates.
type Swap struct {
	AssetDeposited Asset
	AssetReceived  Asset
	SlippagePct    decimal.Decimal

	// SwapForExact marks an exact-out swap: the requested amount is what the
	// swapper wants to receive, and the deposit is derived from it.
	SwapForExact bool

	Effect SwapEffect
}

// NewSwap prepares a swap of the given asset for the pool's other asset.
// When swapForExact is false, amount is the deposit; otherwise amount is
// the exact net payout to receive. The slippage tolerance applies to the
// payout and must be within [0, 100].
func NewSwap(calculator *Calculator, assetDeposited Asset, amount uint64, slippagePct decimal.Decimal, swapForExact bool) (*Swap, error) {
	pool := calculator.Pool()
	if !pool.IsAssetInPool(assetDeposited) {
		return nil, fmt.Errorf("asset %d: %w", assetDeposited.Index, ErrAssetNotInPool)
	}
	if slippagePct.IsNegative() || slippagePct.GreaterThan(bigHundredDec) {
		return nil, ErrInvalidSlippage
	}
	if pool.IsEmpty() {
		return nil, ErrEmptyPool
	}
	assetReceived, err := pool.OtherAsset(assetDeposited)
	if err != nil {
		return nil, err
	}

	swap := &Swap{
		AssetDeposited: assetDeposited,
		AssetReceived:  assetReceived,
		SlippagePct:    slippagePct,
		SwapForExact:   swapForExact,
	}
	if err := swap.buildEffect(calculator, amount); err != nil {
		return nil, err
	}
	return swap, nil
}

func (s *Swap) buildEffect(calculator *Calculator, amount uint64) error {
	var deposited, received Quote
	var err error
	if s.SwapForExact {
		received = Quote{Amount: amount}
		deposited, err = calculator.NetAmountReceivedToAmountDeposited(s.AssetDeposited, amount)
	} else {
		deposited = Quote{Amount: amount}
		received, err = calculator.AmountDepositedToNetAmountReceived(s.AssetDeposited, amount)
	}
	if err != nil {
		return err
	}
	iterations := deposited.Iterations + received.Iterations

	pool := calculator.Pool()
	var primaryLiqChange, secondaryLiqChange int64
	if s.AssetDeposited.Index == pool.PrimaryAsset.Index {
		primaryLiqChange = int64(deposited.Amount)
		secondaryLiqChange = -int64(received.Amount)
	} else {
		primaryLiqChange = -int64(received.Amount)
		secondaryLiqChange = int64(deposited.Amount)
	}

	fee, err := calculator.Fee(s.AssetDeposited, deposited.Amount)
	if err != nil {
		return err
	}
	minimumReceived, err := calculator.MinimumAmountReceived(s.AssetDeposited, deposited.Amount, s.SlippagePct)
	if err != nil {
		return err
	}
	price, err := calculator.SwapPrice(s.AssetDeposited, deposited.Amount)
	if err != nil {
		return err
	}
	primaryPriceAfter, err := calculator.AssetPriceAfterLiqChange(pool.PrimaryAsset, primaryLiqChange, secondaryLiqChange)
	if err != nil {
		return err
	}
	secondaryPriceAfter, err := calculator.AssetPriceAfterLiqChange(pool.SecondaryAsset, primaryLiqChange, secondaryLiqChange)
	if err != nil {
		return err
	}
	primaryChangePct, err := calculator.PriceImpactPct(pool.PrimaryAsset, primaryLiqChange, secondaryLiqChange)
	if err != nil {
		return err
	}
	secondaryChangePct, err := calculator.PriceImpactPct(pool.SecondaryAsset, primaryLiqChange, secondaryLiqChange)
	if err != nil {
		return err
	}

	s.Effect = SwapEffect{
		AmountDeposited:              deposited.Amount,
		AmountReceived:               received.Amount,
		MinimumAmountReceived:        minimumReceived,
		Fee:                          fee,
		Price:                        price,
		PrimaryAssetPriceAfterSwap:   primaryPriceAfter,
		SecondaryAssetPriceAfterSwap: secondaryPriceAfter,
		PrimaryAssetPriceChangePct:   primaryChangePct,
		SecondaryAssetPriceChangePct: secondaryChangePct,
		Amplifier:                    calculator.Amplifier(),
		TxFee:                        calculator.SwapTxFee(iterations),
	}
	return nil
}
