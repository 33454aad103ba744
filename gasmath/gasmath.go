// Package gasmath implements the epoch-boundary shard gas-price controller:
// an EIP-1559-style fold over the confirmed commitment lengths of a
// completed epoch.
package gasmath

import "github.com/eth2030/shardsim/types"

// ComputeUpdatedGasprice adjusts prev according to how far blockLength (the
// number of confirmed points included, for one shard/slot) deviated from
// TargetSamplesPerBlock.
func ComputeUpdatedGasprice(prev types.Gwei, blockLength uint64) types.Gwei {
	const target = types.TargetSamplesPerBlock
	const quotient = types.GaspriceAdjustmentQuotient

	if blockLength > target {
		delta := gaspriceDelta(prev, blockLength-target, target, quotient)
		updated := prev + delta
		if updated > types.MaxGasprice {
			return types.MaxGasprice
		}
		return updated
	}

	delta := gaspriceDelta(prev, target-blockLength, target, quotient)
	floor := types.MinGasprice + delta
	base := prev
	if base < floor {
		base = floor
	}
	if base < delta {
		return 0
	}
	return base - delta
}

// gaspriceDelta computes max(1, prev*diff/target/quotient).
func gaspriceDelta(prev types.Gwei, diff, target, quotient uint64) types.Gwei {
	delta := types.Gwei(uint64(prev) * diff / target / quotient)
	if delta < 1 {
		delta = 1
	}
	return delta
}
