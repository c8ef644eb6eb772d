package farm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

const rewardAsset = uint64(7)

func testFarmState() State {
	return State{
		StakedAssetID:  3,
		RewardAssetIDs: []uint64{rewardAsset},
		PendingRewards: Rewards{rewardAsset: 1_000},
		Duration:       10,
		TotalStaked:    100,
		UpdatedAt:      time.Unix(1_000, 0),
	}
}

func at(offsetSeconds int64) time.Time {
	return time.Unix(1_000+offsetSeconds, 0)
}

func TestSimulateAccruedRewardsSingleCycle(t *testing.T) {
	s := NewSimulator(testFarmState(), zaptest.NewLogger(t))

	cases := []struct {
		offset int64
		want   uint64
	}{
		{0, 0},
		{1, 100},
		{5, 500},
		{10, 1_000},
		// The cycle is depleted; without extrapolation nothing accrues past it.
		{55, 1_000},
	}
	for _, c := range cases {
		got := s.SimulateAccruedRewards(at(c.offset), 100, 100, false)
		assert.Equal(t, c.want, got[rewardAsset], "offset %d", c.offset)
	}
}

func TestSimulateAccruedRewardsBeforeUpdate(t *testing.T) {
	s := NewSimulator(testFarmState(), nil)
	got := s.SimulateAccruedRewards(at(-5), 100, 100, false)
	assert.Zero(t, got[rewardAsset])
}

func TestSimulateAccruedRewardsNoStake(t *testing.T) {
	s := NewSimulator(testFarmState(), nil)
	got := s.SimulateAccruedRewards(at(5), 0, 0, false)
	assert.Zero(t, got[rewardAsset])
}

func TestSimulateAccruedRewardsNextCycle(t *testing.T) {
	state := testFarmState()
	state.NextRewards = Rewards{rewardAsset: 500}
	state.NextDuration = 20
	s := NewSimulator(state, zaptest.NewLogger(t))

	cases := []struct {
		offset int64
		want   uint64
	}{
		{5, 500},
		{10, 1_000},
		{15, 1_125},
		{30, 1_500},
		{40, 1_500},
	}
	for _, c := range cases {
		got := s.SimulateAccruedRewards(at(c.offset), 100, 100, false)
		assert.Equal(t, c.want, got[rewardAsset], "offset %d", c.offset)
	}
}

func TestSimulateNewStaker(t *testing.T) {
	s := NewSimulator(testFarmState(), zaptest.NewLogger(t))

	cases := []struct {
		offset int64
		staked uint64
		want   uint64
	}{
		{1, 10, 9},
		{1, 100, 50},
		{1, 2_000, 95},
		{5, 100, 250},
		{5, 200, 333},
		{10, 100, 500},
		{10, 2_000, 952},
		// Past the deposited cycle the current rate is extrapolated.
		{55, 10, 499},
		{55, 100, 2_750},
		{55, 200, 3_666},
		{55, 2_000, 5_237},
	}
	for _, c := range cases {
		got := s.SimulateNewStaker(at(c.offset), c.staked)
		assert.Equal(t, c.want, got[rewardAsset], "offset %d staked %d", c.offset, c.staked)
	}
}

func TestSimulateNewStakerExtrapolatesNextCycle(t *testing.T) {
	state := testFarmState()
	state.NextRewards = Rewards{rewardAsset: 500}
	state.NextDuration = 20
	s := NewSimulator(state, zaptest.NewLogger(t))

	got := s.SimulateNewStaker(at(40), 100)
	assert.Equal(t, uint64(875), got[rewardAsset])
}

func TestPastAccruedRewards(t *testing.T) {
	state := testFarmState()
	state.RPT = map[uint64]RPT{rewardAsset: {Whole: 3, Frac: 1 << 63}}
	s := NewSimulator(state, nil)

	// Accumulator delta of 2.25 over a stake of 100.
	got := s.pastAccruedRewards(100, map[uint64]RPT{rewardAsset: {Whole: 1, Frac: 1 << 62}})
	assert.Equal(t, uint64(225), got[rewardAsset])

	// A user snapshot ahead of the farm snapshot accrues nothing.
	got = s.pastAccruedRewards(100, map[uint64]RPT{rewardAsset: {Whole: 9, Frac: 0}})
	assert.Zero(t, got[rewardAsset])
}

func TestEstimateAccruedRewards(t *testing.T) {
	state := testFarmState()
	state.RPT = map[uint64]RPT{rewardAsset: {Whole: 3, Frac: 1 << 63}}
	s := NewSimulator(state, zaptest.NewLogger(t))

	user := UserState{
		EscrowID:       42,
		Staked:         100,
		AccruedRewards: Rewards{rewardAsset: 11},
		RPT:            map[uint64]RPT{rewardAsset: {Whole: 1, Frac: 1 << 62}},
	}

	// 500 simulated for 5 seconds of the cycle, 11 already accrued and 225
	// from the accumulator delta.
	got := s.EstimateAccruedRewards(at(5), user)
	assert.Equal(t, uint64(736), got[rewardAsset])
}
