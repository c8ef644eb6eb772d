package pool

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	bigOne     = big.NewInt(1)
	bigTwo     = big.NewInt(2)
	bigThree   = big.NewInt(3)
	bigFour    = big.NewInt(4)
	bigHundred = big.NewInt(100)
	bigBps     = big.NewInt(10_000)
)

func bigFromUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func decimalFromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(bigFromUint(v), 0)
}

// floorDiv divides rounding towards negative infinity, matching the
// contract's integer division for signed intermediates.
func floorDiv(x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 && (x.Sign() < 0) != (y.Sign() < 0) {
		q.Sub(q, bigOne)
	}
	return q
}

// ceilDiv divides rounding towards positive infinity.
func ceilDiv(x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 && (x.Sign() < 0) == (y.Sign() < 0) {
		q.Add(q, bigOne)
	}
	return q
}

// ceilDivInt64 is ceilDiv over native integers, used where the operands are
// known to fit, e.g. amplifier interpolation and fee sizing.
func ceilDivInt64(x, y int64) int64 {
	q := x / y
	if x%y != 0 && (x < 0) == (y < 0) {
		q++
	}
	return q
}
