package farm

import (
	"math/big"
	"time"

	"go.uber.org/zap"
)

// Simulator estimates reward accrual against a farm state snapshot. All
// amounts are computed with exact integer arithmetic rounded down, matching
// what the contract pays out.
type Simulator struct {
	state  State
	logger *zap.Logger
}

// NewSimulator creates a simulator for the farm state. The logger may be
// nil.
func NewSimulator(state State, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{state: state, logger: logger}
}

// EstimateAccruedRewards estimates the total claimable rewards of an
// existing staker at the given time: rewards already accrued, rewards
// earned since the user's last accumulator snapshot, and rewards the
// ongoing cycles will distribute until the given time.
func (s *Simulator) EstimateAccruedRewards(at time.Time, user UserState) Rewards {
	past := s.pastAccruedRewards(user.Staked, user.RPT)
	estimated := s.SimulateAccruedRewards(at, user.Staked, s.state.TotalStaked, false)
	return estimated.Sum(user.AccruedRewards).Sum(past)
}

// SimulateNewStaker estimates what a prospective staker would earn by the
// given time, assuming the stake joins the farm now. Future cycles are
// extrapolated from the current rates.
func (s *Simulator) SimulateNewStaker(at time.Time, stakedAmount uint64) Rewards {
	return s.SimulateAccruedRewards(at, stakedAmount, s.state.TotalStaked+stakedAmount, true)
}

// SimulateAccruedRewards walks the farm's reward cycles and accumulates
// the stake's share of each until the given time. With
// extrapolateFutureRewards the last known cycle's rate is projected past
// the deposited cycles.
func (s *Simulator) SimulateAccruedRewards(at time.Time, stakedAmount, totalStaked uint64, extrapolateFutureRewards bool) Rewards {
	elapsed := int64(at.Sub(s.state.UpdatedAt) / time.Second)

	if totalStaked == 0 {
		return s.zeroRewards()
	}

	rewards := s.cycleRewards(stakedAmount, totalStaked, s.state.PendingRewards, elapsed, s.state.Duration)

	elapsed -= s.state.Duration
	if elapsed <= 0 {
		return rewards
	}

	if s.state.NextDuration != 0 {
		next := s.cycleRewards(stakedAmount, totalStaked, s.state.NextRewards, elapsed, s.state.NextDuration)
		rewards = rewards.Sum(next)

		elapsed -= s.state.NextDuration
		if elapsed <= 0 {
			return rewards
		}
	}

	if !extrapolateFutureRewards {
		return rewards
	}

	futureDuration := s.state.NextDuration
	futureRewards := s.state.NextRewards
	if futureDuration == 0 {
		futureDuration = s.state.Duration
		futureRewards = s.state.PendingRewards
	}
	if futureDuration == 0 {
		return rewards
	}

	s.logger.Debug("extrapolating farm rewards past deposited cycles",
		zap.Int64("remaining_seconds", elapsed),
		zap.Int64("cycle_seconds", futureDuration),
	)

	// Scale the last known cycle to the remaining time and take the
	// stake's share of the whole projected cycle.
	projected := make(Rewards, len(futureRewards))
	for asset, amount := range futureRewards {
		scaled := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(elapsed))
		scaled.Div(scaled, big.NewInt(futureDuration))
		projected[asset] = scaled.Uint64()
	}
	future := s.cycleRewards(stakedAmount, totalStaked, projected, elapsed, elapsed)
	return rewards.Sum(future)
}

// cycleRewards is the stake's share of one reward cycle:
// staked * rewards * min(elapsed, cycleDuration) / (totalStaked * cycleDuration),
// rounded down per asset.
func (s *Simulator) cycleRewards(stakedAmount, totalStaked uint64, rewards Rewards, elapsed, cycleDuration int64) Rewards {
	out := make(Rewards, len(s.state.RewardAssetIDs))
	if cycleDuration <= 0 {
		for _, asset := range s.state.RewardAssetIDs {
			out[asset] = 0
		}
		return out
	}

	if elapsed > cycleDuration {
		elapsed = cycleDuration
	}
	if elapsed < 0 {
		elapsed = 0
	}

	den := new(big.Int).Mul(new(big.Int).SetUint64(totalStaked), big.NewInt(cycleDuration))
	for _, asset := range s.state.RewardAssetIDs {
		num := new(big.Int).SetUint64(stakedAmount)
		num.Mul(num, new(big.Int).SetUint64(rewards[asset]))
		num.Mul(num, big.NewInt(elapsed))
		out[asset] = num.Div(num, den).Uint64()
	}
	return out
}

// pastAccruedRewards converts the accumulator delta since the user's last
// snapshot into reward amounts. The delta is clamped at zero per asset; a
// stale user snapshot ahead of the farm snapshot earns nothing rather than
// a negative amount.
func (s *Simulator) pastAccruedRewards(stakedAmount uint64, userRPT map[uint64]RPT) Rewards {
	out := make(Rewards, len(s.state.RewardAssetIDs))
	for _, asset := range s.state.RewardAssetIDs {
		farmAcc := rptToFixed(s.state.RPT[asset])
		userAcc := rptToFixed(userRPT[asset])

		diff := new(big.Int).Sub(farmAcc, userAcc)
		if diff.Sign() <= 0 {
			out[asset] = 0
			continue
		}
		diff.Mul(diff, new(big.Int).SetUint64(stakedAmount))
		diff.Rsh(diff, 64)
		out[asset] = diff.Uint64()
	}
	return out
}

func (s *Simulator) zeroRewards() Rewards {
	out := make(Rewards, len(s.state.RewardAssetIDs))
	for _, asset := range s.state.RewardAssetIDs {
		out[asset] = 0
	}
	return out
}

// rptToFixed widens an accumulator to a single 128-bit fixed-point integer
// scaled by 2^64.
func rptToFixed(r RPT) *big.Int {
	acc := new(big.Int).SetUint64(r.Whole)
	acc.Lsh(acc, 64)
	return acc.Add(acc, new(big.Int).SetUint64(r.Frac))
}
