package pool

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind discriminates the two supported swap curves.
type Kind string

const (
	ConstantProduct Kind = "CONSTANT_PRODUCT"
	Stableswap      Kind = "STABLESWAP"
)

// Asset identifies a pool asset and its display scale.
type Asset struct {
	Index    uint64
	Decimals uint8
}

// Ratio returns 10^Decimals, the number of base units in one display unit.
func (a Asset) Ratio() decimal.Decimal {
	return decimal.New(1, int32(a.Decimals))
}

// StableswapParams holds the on-chain configuration of a stableswap pool.
// The amplifier changes linearly from InitialA at InitialATime to FutureA
// at FutureATime. Both values are scaled by Precision.
type StableswapParams struct {
	InitialA     uint64
	InitialATime int64
	FutureA      uint64
	FutureATime  int64
	Precision    uint64
}

// Snapshot is a point-in-time copy of a pool's on-chain state. All
// computations in this package read snapshots and never mutate them; a
// caller that refreshes pool state must recompute any derived results.
type Snapshot struct {
	PrimaryAsset   Asset
	SecondaryAsset Asset

	ReserveA       uint64
	ReserveB       uint64
	TotalLiquidity uint64

	FeeBps     uint64
	PactFeeBps uint64

	Kind       Kind
	Stableswap *StableswapParams
}

// IsEmpty reports whether either reserve is zero. Swaps and prices are
// undefined on empty pools.
func (s Snapshot) IsEmpty() bool {
	return s.ReserveA == 0 || s.ReserveB == 0
}

// IsAssetInPool reports whether the asset is one of the pool's two assets.
func (s Snapshot) IsAssetInPool(asset Asset) bool {
	return asset.Index == s.PrimaryAsset.Index || asset.Index == s.SecondaryAsset.Index
}

// OtherAsset returns the opposite side of the pair.
func (s Snapshot) OtherAsset(asset Asset) (Asset, error) {
	switch asset.Index {
	case s.PrimaryAsset.Index:
		return s.SecondaryAsset, nil
	case s.SecondaryAsset.Index:
		return s.PrimaryAsset, nil
	}
	return Asset{}, fmt.Errorf("asset %d: %w", asset.Index, ErrAssetNotInPool)
}

// Liquidities returns the reserves ordered so that the first value is the
// reserve of the deposited asset.
func (s Snapshot) Liquidities(deposited Asset) (liqA, liqB uint64) {
	if deposited.Index == s.PrimaryAsset.Index {
		return s.ReserveA, s.ReserveB
	}
	return s.ReserveB, s.ReserveA
}
