package pool

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MinLiquidityTokens is the amount of liquidity tokens permanently locked
// in the pool on the first deposit.
const MinLiquidityTokens = 1000

// AddLiquidityEffect describes the outcome of a prepared liquidity
// addition.
type AddLiquidityEffect struct {
	// MintedLiquidityTokens is the amount of liquidity tokens the contract
	// credits for the deposit.
	MintedLiquidityTokens uint64

	// MinimumMintedLiquidityTokens is the least amount acceptable under the
	// slippage tolerance, less the permanently locked tokens on a first
	// deposit. Negative values are possible when the tolerance eats into
	// the locked amount.
	MinimumMintedLiquidityTokens int64

	// BonusPct is positive when the deposit improves a stableswap pool's
	// balance and the depositor is paid a premium, negative for the
	// penalty. Always zero for constant product pools.
	BonusPct decimal.Decimal

	Amplifier decimal.Decimal
	TxFee     uint64
}

// LiquidityAddition is a prepared deposit of both pool assets. The effect
// is computed against the snapshot at construction time.
type LiquidityAddition struct {
	PrimaryAssetAmount   uint64
	SecondaryAssetAmount uint64
	SlippagePct          decimal.Decimal

	Effect AddLiquidityEffect
}

// NewLiquidityAddition prepares a deposit of both assets into the pool. On
// a first deposit the minted amount must exceed the permanently locked
// MinLiquidityTokens. The slippage tolerance must be within [0, 100].
func NewLiquidityAddition(calculator *Calculator, primaryAssetAmount, secondaryAssetAmount uint64, slippagePct decimal.Decimal) (*LiquidityAddition, error) {
	pool := calculator.Pool()

	firstDeposit := pool.TotalLiquidity == 0
	if firstDeposit {
		product := new(big.Int).Mul(bigFromUint(primaryAssetAmount), bigFromUint(secondaryAssetAmount))
		if product.Sqrt(product).Cmp(big.NewInt(MinLiquidityTokens)) <= 0 {
			return nil, fmt.Errorf("%w, the first deposit must mint more than %d liquidity tokens", ErrInsufficientInitialLiquidity, MinLiquidityTokens)
		}
	}
	if slippagePct.IsNegative() || slippagePct.GreaterThan(bigHundredDec) {
		return nil, ErrInvalidSlippage
	}

	minted, err := calculator.MintedLiquidityTokens(primaryAssetAmount, secondaryAssetAmount)
	if err != nil {
		return nil, err
	}
	bonusPct := decimal.Zero
	if pool.Kind == Stableswap {
		bonusPct, err = calculator.AddLiquidityBonusPct(primaryAssetAmount, secondaryAssetAmount)
		if err != nil {
			return nil, err
		}
	}

	// Banker's rounding matches the contract's argument encoding for the
	// minimum accepted amount. The permanently locked tokens come out of
	// the minimum only; the provider still receives the full minted amount
	// credited by the contract.
	mintedDec := decimalFromUint(minted.MintedTokens)
	minimum := mintedDec.Sub(mintedDec.Mul(slippagePct).Div(bigHundredDec)).RoundBank(0).IntPart()
	if firstDeposit {
		minimum -= MinLiquidityTokens
	}

	return &LiquidityAddition{
		PrimaryAssetAmount:   primaryAssetAmount,
		SecondaryAssetAmount: secondaryAssetAmount,
		SlippagePct:          slippagePct,
		Effect: AddLiquidityEffect{
			MintedLiquidityTokens:        minted.MintedTokens,
			MinimumMintedLiquidityTokens: minimum,
			BonusPct:                     bonusPct,
			Amplifier:                    calculator.Amplifier(),
			TxFee:                        calculator.AddLiquidityTxFee(minted.Iterations),
		},
	}, nil
}
