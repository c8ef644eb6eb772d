package pool

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// invariantIterationCap bounds the Newton-Raphson solve. The on-chain
	// contract runs the same loop, so exceeding the cap means the contract
	// call would fail as well.
	invariantIterationCap = 64

	// maxPriceRetries bounds the price estimator's probe-escalation loop.
	maxPriceRetries = 5
)

// StableswapStrategy implements the math behind stableswap pools. The
// amplifier is interpolated at the timestamp given to the constructor, so a
// strategy is a snapshot in time just like the pool state it wraps.
type StableswapStrategy struct {
	pool   Snapshot
	params StableswapParams
	at     int64
	logger *zap.Logger
}

// NewStableswapStrategy creates the strategy for a pool snapshot, evaluating
// the amplifier at the given time.
func NewStableswapStrategy(pool Snapshot, at time.Time, logger *zap.Logger) *StableswapStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StableswapStrategy{
		pool:   pool,
		params: *pool.Stableswap,
		at:     at.Unix(),
		logger: logger,
	}
}

// Amplifier returns the interpolated amplifier at the strategy's timestamp,
// scaled by the pool's precision.
func (s *StableswapStrategy) Amplifier() uint64 {
	return amplifierAt(s.params, s.at)
}

// Price estimates the price of the first asset in terms of the second by
// simulating a small swap. The estimate is inaccurate for low liquidity
// pools and may be zero for highly unbalanced ones.
func (s *StableswapStrategy) Price(liqA, liqB decimal.Decimal) decimal.Decimal {
	if liqA.IsZero() || liqB.IsZero() {
		return decimal.Zero
	}
	if s.pool.PrimaryAsset.Decimals != s.pool.SecondaryAsset.Decimals {
		s.logger.Warn("number of decimals differs between pool assets, stableswap price estimation does not support this scenario correctly",
			zap.Uint8("primary_decimals", s.pool.PrimaryAsset.Decimals),
			zap.Uint8("secondary_decimals", s.pool.SecondaryAsset.Decimals),
		)
	}
	return s.estimatePrice(liqA, liqB, maxPriceRetries)
}

// estimatePrice simulates a swap of ~10^6 base units, capped at 1% of either
// reserve. On a convergence failure or a zero payout the probe is retried
// with a magnitude ten times larger, up to maxPriceRetries attempts, and
// zero is returned if all of them fail.
func (s *StableswapStrategy) estimatePrice(liqA, liqB decimal.Decimal, retries int) decimal.Decimal {
	if retries <= 0 {
		return decimal.Zero
	}

	ratio := s.pool.PrimaryAsset.Ratio()
	liqA = liqA.Mul(ratio)
	liqB = liqB.Mul(ratio)
	intA := liqA.BigInt()
	intB := liqB.BigInt()

	amount := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(6+maxPriceRetries-retries)), nil)
	capA := new(big.Int).Div(intA, bigHundred)
	capB := new(big.Int).Div(intB, bigHundred)
	if amount.Cmp(capA) > 0 {
		amount.Set(capA)
	}
	if amount.Cmp(capB) > 0 {
		amount.Set(capB)
	}

	received, _, err := stableswapGrossReceived(intB, intA, amount, s.Amplifier(), s.params.Precision)
	if err != nil || received.Sign() <= 0 {
		s.logger.Debug("stableswap price probe failed, retrying with a larger amount",
			zap.Int("retries_left", retries-1))
		return s.estimatePrice(liqA, liqB, retries-1)
	}
	return decimal.NewFromBigInt(amount, 0).Div(decimal.NewFromBigInt(received, 0))
}

// GrossAmountReceived is the pre-fee amount paid out for a deposit, solved
// through the pool invariant at the current amplifier.
func (s *StableswapStrategy) GrossAmountReceived(liqA, liqB, amountDeposited uint64) (Quote, error) {
	received, iterations, err := stableswapGrossReceived(
		bigFromUint(liqA), bigFromUint(liqB), bigFromUint(amountDeposited),
		s.Amplifier(), s.params.Precision,
	)
	if err != nil {
		return Quote{}, err
	}
	if received.Sign() < 0 {
		return Quote{Iterations: iterations}, nil
	}
	return Quote{Amount: received.Uint64(), Iterations: iterations}, nil
}

// AmountDeposited is the deposit required for a pre-fee payout, solved
// through the pool invariant at the current amplifier.
func (s *StableswapStrategy) AmountDeposited(liqA, liqB, grossAmountReceived uint64) (Quote, error) {
	if grossAmountReceived >= liqB {
		return Quote{}, ErrAmountExceedsReserve
	}
	deposited, iterations, err := stableswapAmountDeposited(
		bigFromUint(liqA), bigFromUint(liqB), bigFromUint(grossAmountReceived),
		s.Amplifier(), s.params.Precision,
	)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Amount: deposited.Uint64(), Iterations: iterations}, nil
}

// MintedLiquidityTokens returns the liquidity tokens minted for a deposit of
// both assets. The add-liquidity fee is charged on each side's deviation
// from the balanced allocation, so a one-sided deposit on a pool with low
// liquidity can fail with ErrLiquidityTooLowForFee.
func (s *StableswapStrategy) MintedLiquidityTokens(addedA, addedB uint64) (MintQuote, error) {
	minted, iterations, err := stableswapMintedTokens(
		bigFromUint(addedA), bigFromUint(addedB),
		bigFromUint(s.pool.ReserveA), bigFromUint(s.pool.ReserveB),
		bigFromUint(s.pool.TotalLiquidity),
		s.pool.FeeBps, s.Amplifier(), s.params.Precision,
	)
	if err != nil {
		return MintQuote{}, err
	}
	if minted.Sign() < 0 {
		// The fee is taken from the pool's current liquidity when the
		// deposit does not cover it; the contract would reject this call.
		return MintQuote{}, ErrLiquidityTooLowForFee
	}
	if minted.Sign() == 0 {
		return MintQuote{}, ErrMintedTokensNonPositive
	}
	return MintQuote{MintedTokens: minted.Uint64(), Iterations: iterations}, nil
}

// AddLiquidityBonusPct compares the invariant growth against the sum
// deposited, valuing each unit of the invariant at one unit of either
// asset. A negative value is the penalty for worsening the pool balance.
func (s *StableswapStrategy) AddLiquidityBonusPct(addedA, addedB uint64) (decimal.Decimal, error) {
	totalA := bigFromUint(s.pool.ReserveA)
	totalB := bigFromUint(s.pool.ReserveB)
	if s.pool.ReserveA == 0 && s.pool.ReserveB == 0 {
		return decimal.Zero, nil
	}

	updatedA := new(big.Int).Add(totalA, bigFromUint(addedA))
	updatedB := new(big.Int).Add(totalB, bigFromUint(addedB))

	feeA, feeB, initialD, _, err := stableswapAddLiquidityFees(
		totalA, totalB, updatedA, updatedB,
		s.pool.FeeBps, s.Amplifier(), s.params.Precision,
	)
	if err != nil {
		return decimal.Zero, err
	}

	finalD, _, err := stableswapInvariant(
		new(big.Int).Sub(updatedA, feeA),
		new(big.Int).Sub(updatedB, feeB),
		s.Amplifier(), s.params.Precision,
	)
	if err != nil {
		return decimal.Zero, err
	}

	totalAdded := decimal.NewFromBigInt(new(big.Int).Add(bigFromUint(addedA), bigFromUint(addedB)), 0)
	gain := decimal.NewFromBigInt(new(big.Int).Sub(finalD, initialD), 0)
	return gain.Div(totalAdded).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)), nil
}

// amplifierAt interpolates the amplifier linearly between
// (InitialATime, InitialA) and (FutureATime, FutureA), clamped to the range
// of the two values and rounded up.
func amplifierAt(params StableswapParams, timestamp int64) uint64 {
	dt := params.FutureATime - params.InitialATime
	dv := int64(params.FutureA) - int64(params.InitialA)
	if dt == 0 || dv == 0 {
		return params.FutureA
	}

	minA, maxA := params.InitialA, params.FutureA
	if params.FutureA < params.InitialA {
		minA, maxA = params.FutureA, params.InitialA
	}

	current := int64(params.InitialA) + ceilDivInt64(dv*(timestamp-params.InitialATime), dt)
	if current < int64(minA) {
		return minA
	}
	if current > int64(maxA) {
		return maxA
	}
	return uint64(current)
}

// stableswapInvariant solves for the invariant D with the Newton-Raphson
// method, returning the number of iterations used. The iteration count is
// part of the contract's observable behavior: callers size transaction fees
// from it.
func stableswapInvariant(liqA, liqB *big.Int, amp, precision uint64) (*big.Int, int, error) {
	sum := new(big.Int).Add(liqA, liqB)
	if sum.Sign() == 0 {
		return sum, 0, nil
	}

	ann := new(big.Int).Mul(bigFromUint(amp), bigFour)
	prec := bigFromUint(precision)
	annSum := floorDiv(new(big.Int).Mul(ann, sum), prec)
	annLessPrec := new(big.Int).Sub(ann, prec)
	product4 := new(big.Int).Mul(new(big.Int).Mul(liqA, liqB), bigFour)

	d := new(big.Int).Set(sum)
	prev := new(big.Int)
	for i := 1; i <= invariantIterationCap; i++ {
		dp := new(big.Int).Mul(d, d)
		dp.Mul(dp, d)
		dp = floorDiv(dp, product4)

		prev.Set(d)

		numerator := new(big.Int).Add(annSum, new(big.Int).Mul(dp, bigTwo))
		numerator.Mul(numerator, d)
		divisor := floorDiv(new(big.Int).Mul(annLessPrec, d), prec)
		divisor.Add(divisor, new(big.Int).Mul(dp, bigThree))
		d = floorDiv(numerator, divisor)

		diff := new(big.Int).Sub(d, prev)
		if diff.CmpAbs(bigOne) <= 0 && i < invariantIterationCap {
			return d, i, nil
		}
	}
	return nil, invariantIterationCap, &ConvergenceError{
		Iterations: invariantIterationCap,
		Prev:       prev,
		Last:       d,
	}
}

// stableswapNewLiquidity solves the quadratic x^2 + (b-D)x - c = 0 for the
// updated reserve of one side given the other side's reserve and the
// invariant, taking the positive root.
func stableswapNewLiquidity(liqOther *big.Int, amp uint64, invariant *big.Int, precision uint64) *big.Int {
	ann := new(big.Int).Mul(bigFromUint(amp), bigFour)
	prec := bigFromUint(precision)

	b := floorDiv(new(big.Int).Mul(invariant, prec), ann)
	b.Add(b, liqOther)

	c := new(big.Int).Mul(invariant, invariant)
	c.Mul(c, invariant)
	c.Mul(c, prec)
	c = floorDiv(c, new(big.Int).Mul(new(big.Int).Mul(liqOther, bigFour), ann))

	bq := new(big.Int).Sub(b, invariant)
	delta := new(big.Int).Mul(bq, bq)
	delta.Add(delta, new(big.Int).Mul(c, bigFour))

	root := new(big.Int).Sqrt(delta)
	root.Sub(root, bq)
	return floorDiv(root, bigTwo)
}

func stableswapGrossReceived(liqA, liqB, amountDeposited *big.Int, amp, precision uint64) (*big.Int, int, error) {
	invariant, iterations, err := stableswapInvariant(liqA, liqB, amp, precision)
	if err != nil {
		return nil, iterations, err
	}
	newLiqB := stableswapNewLiquidity(new(big.Int).Add(liqA, amountDeposited), amp, invariant, precision)
	return new(big.Int).Sub(liqB, newLiqB), iterations, nil
}

func stableswapAmountDeposited(liqA, liqB, grossAmountReceived *big.Int, amp, precision uint64) (*big.Int, int, error) {
	invariant, iterations, err := stableswapInvariant(liqA, liqB, amp, precision)
	if err != nil {
		return nil, iterations, err
	}
	newLiqA := stableswapNewLiquidity(new(big.Int).Sub(liqB, grossAmountReceived), amp, invariant, precision)
	return newLiqA.Sub(newLiqA, liqA), iterations, nil
}

// stableswapAddLiquidityFees charges each side's deviation from the
// balanced allocation implied by the invariant ratio. The deposit is first
// priced as if it were added without fees, then each side pays
// |delta| * feeBps * n / (10000 * 4 * (n-1)) with n = 2.
func stableswapAddLiquidityFees(initialA, initialB, updatedA, updatedB *big.Int, feeBps, amp, precision uint64) (feeA, feeB, initialD *big.Int, iterations int, err error) {
	initialD, initialIterations, err := stableswapInvariant(initialA, initialB, amp, precision)
	if err != nil {
		return nil, nil, nil, initialIterations, err
	}
	nextD, nextIterations, err := stableswapInvariant(updatedA, updatedB, amp, precision)
	if err != nil {
		return nil, nil, nil, initialIterations + nextIterations, err
	}

	feeFor := func(updated, initialTotal *big.Int) *big.Int {
		perfect := floorDiv(new(big.Int).Mul(nextD, initialTotal), initialD)
		delta := new(big.Int).Sub(updated, perfect)
		delta.Abs(delta)
		delta.Mul(delta, bigFromUint(feeBps))
		delta.Mul(delta, bigTwo)
		return floorDiv(delta, big.NewInt(40_000))
	}

	return feeFor(updatedA, initialA), feeFor(updatedB, initialB), initialD, initialIterations + nextIterations, nil
}

func stableswapMintedTokens(addedA, addedB, totalA, totalB, totalLiquidity *big.Int, feeBps, amp, precision uint64) (*big.Int, int, error) {
	if totalA.Sign() == 0 && totalB.Sign() == 0 {
		return constantProductMintedTokens(addedA, addedB, totalA, totalB, totalLiquidity), 0, nil
	}

	updatedA := new(big.Int).Add(totalA, addedA)
	updatedB := new(big.Int).Add(totalB, addedB)

	feeA, feeB, initialD, feeIterations, err := stableswapAddLiquidityFees(totalA, totalB, updatedA, updatedB, feeBps, amp, precision)
	if err != nil {
		return nil, feeIterations, err
	}

	nextD, nextIterations, err := stableswapInvariant(
		new(big.Int).Sub(updatedA, feeA),
		new(big.Int).Sub(updatedB, feeB),
		amp, precision,
	)
	if err != nil {
		return nil, feeIterations + nextIterations, err
	}

	minted := new(big.Int).Sub(nextD, initialD)
	minted.Mul(minted, totalLiquidity)
	return floorDiv(minted, initialD), feeIterations + nextIterations, nil
}

// AppCallFee sizes the transaction fee for a stableswap app call from the
// invariant iteration count. The contract performs the same Newton-Raphson
// loop and creates an empty inner transaction for every ~700 ops above the
// base budget (369 ops per iteration); each inner transaction raises the
// required fee. The +2 covers the first obligatory inner transaction and
// the app call itself.
func AppCallFee(invariantIterations, extraMargin int) uint64 {
	innerTxCount := ceilDivInt64(int64(invariantIterations)*369, 700)
	return uint64(innerTxCount+2+int64(extraMargin)) * 1000
}
