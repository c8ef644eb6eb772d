package pool

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ConstantProductStrategy implements the math behind x*y=k pools.
type ConstantProductStrategy struct {
	pool Snapshot
}

// NewConstantProductStrategy creates the strategy for a pool snapshot.
func NewConstantProductStrategy(pool Snapshot) *ConstantProductStrategy {
	return &ConstantProductStrategy{pool: pool}
}

// Price returns the price of the first asset expressed in the second, for
// display-scaled reserves. Zero if either reserve is zero.
func (s *ConstantProductStrategy) Price(liqA, liqB decimal.Decimal) decimal.Decimal {
	if liqA.IsZero() || liqB.IsZero() {
		return decimal.Zero
	}
	return liqB.Div(liqA)
}

// GrossAmountReceived returns floor(liqB*amount / (liqA+amount)), the amount
// paid out by the contract before any fee is considered.
func (s *ConstantProductStrategy) GrossAmountReceived(liqA, liqB, amountDeposited uint64) (Quote, error) {
	out := constantProductGrossReceived(bigFromUint(liqA), bigFromUint(liqB), bigFromUint(amountDeposited))
	return Quote{Amount: out.Uint64()}, nil
}

// AmountDeposited inverts GrossAmountReceived: the deposit required for the
// contract to pay out grossAmountReceived. Rounded up so the resulting swap
// cannot under-deliver.
func (s *ConstantProductStrategy) AmountDeposited(liqA, liqB, grossAmountReceived uint64) (Quote, error) {
	if grossAmountReceived >= liqB {
		return Quote{}, ErrAmountExceedsReserve
	}
	liqABig := bigFromUint(liqA)
	num := new(big.Int).Mul(liqABig, bigFromUint(grossAmountReceived))
	den := new(big.Int).Sub(bigFromUint(liqB), bigFromUint(grossAmountReceived))
	return Quote{Amount: ceilDiv(num, den).Uint64()}, nil
}

// MintedLiquidityTokens returns the liquidity tokens minted for adding both
// assets to the pool.
func (s *ConstantProductStrategy) MintedLiquidityTokens(addedA, addedB uint64) (MintQuote, error) {
	minted := constantProductMintedTokens(
		bigFromUint(addedA),
		bigFromUint(addedB),
		bigFromUint(s.pool.ReserveA),
		bigFromUint(s.pool.ReserveB),
		bigFromUint(s.pool.TotalLiquidity),
	)
	if minted.Sign() <= 0 {
		return MintQuote{}, ErrMintedTokensNonPositive
	}
	return MintQuote{MintedTokens: minted.Uint64()}, nil
}

func constantProductGrossReceived(liqA, liqB, amountDeposited *big.Int) *big.Int {
	num := new(big.Int).Mul(liqB, amountDeposited)
	den := new(big.Int).Add(liqA, amountDeposited)
	return num.Div(num, den)
}

func constantProductMintedTokens(addedA, addedB, totalA, totalB, totalLiquidity *big.Int) *big.Int {
	if totalA.Sign() == 0 && totalB.Sign() == 0 {
		// First deposit mints sqrt(a*b) tokens.
		return new(big.Int).Sqrt(new(big.Int).Mul(addedA, addedB))
	}

	ltA := new(big.Int).Mul(addedA, totalLiquidity)
	ltA.Div(ltA, totalA)
	ltB := new(big.Int).Mul(addedB, totalLiquidity)
	ltB.Div(ltB, totalB)
	if ltA.Cmp(ltB) > 0 {
		return ltB
	}
	return ltA
}
