// Package farm implements the reward accounting of staking farms: reward
// cycle state, the reward-per-token accumulator and accrual estimation for
// current and prospective stakers.
package farm

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

func decimalFromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// Rewards maps a reward asset index to an amount of that asset.
type Rewards map[uint64]uint64

// Sum returns a new map holding the per-asset sum of both arguments.
func (r Rewards) Sum(other Rewards) Rewards {
	out := make(Rewards, len(r))
	for asset, amount := range r {
		out[asset] = amount + other[asset]
	}
	return out
}

// RPT is the reward-per-token accumulator in the contract's fixed-point
// encoding: the represented value is Whole + Frac/2^64.
type RPT struct {
	Whole uint64
	Frac  uint64
}

// Float returns the approximate accumulator value for display. Accrual
// computations use the exact fixed-point form instead.
func (r RPT) Float() float64 {
	return float64(r.Whole) + float64(r.Frac)/(1<<64)
}

// State is a point-in-time copy of a farm's global state. PendingRewards
// deplete linearly over Duration seconds starting at UpdatedAt; when the
// cycle ends the farm picks up NextRewards over NextDuration.
type State struct {
	StakedAssetID  uint64
	RewardAssetIDs []uint64

	// DistributedRewards counts everything handed out so far, including
	// accrued amounts awaiting claim. ClaimedRewards counts only claims.
	DistributedRewards Rewards
	ClaimedRewards     Rewards

	PendingRewards Rewards
	Duration       int64

	NextRewards  Rewards
	NextDuration int64

	RPT map[uint64]RPT

	NumStakers  uint64
	TotalStaked uint64
	UpdatedAt   time.Time
}

// RewardsPerSecond returns the current cycle's distribution rate for each
// reward asset. Zero rates when no cycle is running.
func (s State) RewardsPerSecond() map[uint64]decimal.Decimal {
	out := make(map[uint64]decimal.Decimal, len(s.RewardAssetIDs))
	for _, asset := range s.RewardAssetIDs {
		if s.Duration == 0 {
			out[asset] = decimal.Zero
			continue
		}
		out[asset] = decimalFromUint(s.PendingRewards[asset]).Div(decimal.NewFromInt(s.Duration))
	}
	return out
}

// HaveRewards reports whether the farm still distributes rewards at the
// given time.
func (s State) HaveRewards(at time.Time) bool {
	if s.Duration == 0 {
		// Finished distributing or there never were any rewards.
		return false
	}
	if s.TotalStaked == 0 {
		// The farm is paused and still has rewards.
		return true
	}
	depleted := s.UpdatedAt.Add(time.Duration(s.Duration+s.NextDuration) * time.Second)
	return at.Before(depleted)
}

// UserState is a point-in-time copy of a single staker's local state.
type UserState struct {
	EscrowID uint64
	Staked   uint64

	AccruedRewards Rewards
	ClaimedRewards Rewards

	// RPT is the accumulator snapshot from the user's last interaction
	// with the farm. Rewards earned since then are the accumulator delta
	// times the staked amount.
	RPT map[uint64]RPT
}
