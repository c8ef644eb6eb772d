package pool

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidSlippage is returned when a slippage percentage is outside [0, 100].
	ErrInvalidSlippage = errors.New("slippage must be between 0 and 100")

	// ErrEmptyPool is returned when an operation requires non-zero reserves.
	ErrEmptyPool = errors.New("pool is empty")

	// ErrAssetNotInPool is returned when an asset is not part of the pool's pair.
	ErrAssetNotInPool = errors.New("asset is not a pool asset")

	// ErrInsufficientInitialLiquidity is returned when the first deposit is too
	// small to cover the permanently locked liquidity tokens.
	ErrInsufficientInitialLiquidity = errors.New("provided amounts of tokens are too low")

	// ErrMintedTokensNonPositive is returned when a liquidity addition would
	// mint zero tokens.
	ErrMintedTokensNonPositive = errors.New("amount of minted liquidity tokens must be greater than zero")

	// ErrLiquidityTooLowForFee is returned when the pool's current liquidity
	// cannot cover the stableswap add-liquidity fee.
	ErrLiquidityTooLowForFee = errors.New("pool liquidity too low to cover add liquidity fee")

	// ErrUnsupportedPoolKind is returned when an operation is not valid for
	// the pool's curve, e.g. a zap on a stableswap pool.
	ErrUnsupportedPoolKind = errors.New("operation not supported for this pool kind")

	// ErrAmountExceedsReserve is returned when an exact-out swap asks to
	// receive at least the whole reserve of an asset.
	ErrAmountExceedsReserve = errors.New("amount to receive exceeds pool reserve")

	// ErrZapAmountTooSmall is returned when a zap cannot be split into a
	// non-empty swap and a non-empty deposit.
	ErrZapAmountTooSmall = errors.New("zap amount too small to split")
)

// ConvergenceError records a Newton-Raphson solve that did not converge
// within the iteration cap. The last two estimates are kept for diagnostics.
type ConvergenceError struct {
	Iterations int
	Prev       *big.Int
	Last       *big.Int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("invariant did not converge after %d iterations (prev=%s, last=%s)", e.Iterations, e.Prev, e.Last)
}
