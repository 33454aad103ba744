// Package params defines the simulation parameter matrix: per-slot fault
// injection templates for the shard markets and the beacon chain engine.
package params

import (
	"math/rand"

	"github.com/eth2030/shardsim/types"
)

// ShardSimulationParams controls one shard's behavior for a single slot.
type ShardSimulationParams struct {
	BlobProposed bool
	DataIncluded bool
}

// BeaconSimulationParams controls the beacon chain engine's behavior for a
// single slot.
type BeaconSimulationParams struct {
	BeaconBlockProposed   bool
	BeaconChainFinalized  bool
	ShardHeadersIncluded  bool
	ShardHeadersConfirmed bool
}

// SimulationParams bundles one slot's beacon and per-shard fault
// configuration.
type SimulationParams struct {
	Beacon BeaconSimulationParams
	Shards [types.ShardNum]ShardSimulationParams
}

// Variant names the eight named fault templates, plus Random.
type Variant int

const (
	Happy Variant = iota
	AllFailure
	NoShardDataInclusion
	NoShardBlobProposal
	NoShardHeaderInclusion
	NoShardHeaderConfirmation
	NoBeaconChainFinality
	NoBeaconBlockProposal
	Random
)

// namedVariants lists every concrete (non-Random) fault template, used when
// Random needs to sample uniformly over them.
var namedVariants = [...]Variant{
	Happy,
	AllFailure,
	NoShardDataInclusion,
	NoShardBlobProposal,
	NoShardHeaderInclusion,
	NoShardHeaderConfirmation,
	NoBeaconChainFinality,
	NoBeaconBlockProposal,
}

// Build materializes a Variant into concrete SimulationParams. rng is
// consulted only for Variant == Random; pass nil otherwise.
func Build(v Variant, rng *rand.Rand) SimulationParams {
	if v == Random {
		v = namedVariants[rng.Intn(len(namedVariants))]
	}

	var shard ShardSimulationParams
	beacon := BeaconSimulationParams{
		BeaconBlockProposed:   true,
		BeaconChainFinalized:  true,
		ShardHeadersIncluded:  true,
		ShardHeadersConfirmed: true,
	}

	switch v {
	case Happy:
		shard = ShardSimulationParams{BlobProposed: true, DataIncluded: true}

	case AllFailure:
		shard = ShardSimulationParams{BlobProposed: false, DataIncluded: false}
		beacon = BeaconSimulationParams{}

	case NoShardDataInclusion:
		shard = ShardSimulationParams{BlobProposed: true, DataIncluded: false}

	case NoShardBlobProposal:
		shard = ShardSimulationParams{BlobProposed: false, DataIncluded: false}

	case NoShardHeaderInclusion:
		shard = ShardSimulationParams{BlobProposed: true, DataIncluded: true}
		beacon.ShardHeadersIncluded = false

	case NoShardHeaderConfirmation:
		shard = ShardSimulationParams{BlobProposed: true, DataIncluded: true}
		beacon.ShardHeadersConfirmed = false

	case NoBeaconChainFinality:
		shard = ShardSimulationParams{BlobProposed: true, DataIncluded: true}
		beacon.BeaconChainFinalized = false

	case NoBeaconBlockProposal:
		shard = ShardSimulationParams{BlobProposed: true, DataIncluded: true}
		beacon = BeaconSimulationParams{
			BeaconBlockProposed:   false,
			BeaconChainFinalized:  false,
			ShardHeadersIncluded:  false,
			ShardHeadersConfirmed: false,
		}

	default:
		shard = ShardSimulationParams{BlobProposed: true, DataIncluded: true}
	}

	sp := SimulationParams{Beacon: beacon}
	for i := range sp.Shards {
		sp.Shards[i] = shard
	}
	return sp
}
