package pool

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote is an integer swap amount together with the number of invariant
// iterations spent computing it. Iterations is zero for constant product
// pools; for stableswap pools the caller sizes the app call fee from it.
type Quote struct {
	Amount     uint64
	Iterations int
}

// MintQuote is the result of a liquidity-addition computation.
type MintQuote struct {
	MintedTokens uint64
	Iterations   int
}

// SwapStrategy is the math of a single pool curve. Exactly two
// implementations exist, selected once per snapshot by pool kind.
type SwapStrategy interface {
	// Price quotes the first asset in terms of the second. Both arguments
	// are display-scaled (base units divided by the asset ratio).
	Price(liqA, liqB decimal.Decimal) decimal.Decimal

	// GrossAmountReceived is the pre-fee amount paid out for a deposit.
	GrossAmountReceived(liqA, liqB, amountDeposited uint64) (Quote, error)

	// AmountDeposited is the deposit required for a pre-fee payout.
	AmountDeposited(liqA, liqB, grossAmountReceived uint64) (Quote, error)

	// MintedLiquidityTokens is the amount of liquidity tokens minted for
	// adding both assets to the pool held by the strategy.
	MintedLiquidityTokens(addedA, addedB uint64) (MintQuote, error)
}

func strategyForPool(pool Snapshot, at time.Time, logger *zap.Logger) (SwapStrategy, error) {
	switch pool.Kind {
	case ConstantProduct:
		return NewConstantProductStrategy(pool), nil
	case Stableswap:
		if pool.Stableswap == nil {
			return nil, fmt.Errorf("pool kind %s requires stableswap params", pool.Kind)
		}
		return NewStableswapStrategy(pool, at, logger), nil
	}
	return nil, fmt.Errorf("unknown pool kind %q", pool.Kind)
}
