// Package simulator owns the beacon chain and every shard market, and
// drives them one slot at a time. It is the only component external callers
// interact with directly.
package simulator

import (
	"math/rand"

	"github.com/eth2030/shardsim/beacon"
	"github.com/eth2030/shardsim/log"
	"github.com/eth2030/shardsim/market"
	"github.com/eth2030/shardsim/params"
	"github.com/eth2030/shardsim/simerr"
	"github.com/eth2030/shardsim/types"
)

var logger = log.Default().Module("simulator")

// Simulator is the core deterministic state machine: it owns the beacon
// chain and every shard's data market and advances them together, slot by
// slot.
type Simulator struct {
	slot   types.Slot
	chain  *beacon.Chain
	shards [types.ShardNum]*market.ShardDataMarket

	// paramsHistory[s] is the fault template selected for slot s, grown
	// lazily as process_slots is asked to process further.
	paramsHistory []params.SimulationParams

	rng *rand.Rand
}

// New creates a fresh simulator at genesis: slot 0, empty beacon chain and
// shard markets. Callers typically follow construction with
// ProcessSlotsHappy(0) to process the genesis slot.
func New(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	s := &Simulator{
		chain: beacon.New(),
		rng:   rng,
	}
	for i := range s.shards {
		s.shards[i] = market.New(types.Shard(i))
	}
	return s
}

// Slot returns the next slot to be processed.
func (s *Simulator) Slot() types.Slot { return s.slot }

// Chain exposes the underlying beacon chain for read access.
func (s *Simulator) Chain() *beacon.Chain { return s.chain }

// ProcessSlotsHappy processes through target (inclusive) under the Happy
// fault template.
func (s *Simulator) ProcessSlotsHappy(target types.Slot) error {
	return s.processSlots(target, params.Happy)
}

// ProcessSlotsWithoutShardDataInclusion processes through target under
// NoShardDataInclusion.
func (s *Simulator) ProcessSlotsWithoutShardDataInclusion(target types.Slot) error {
	return s.processSlots(target, params.NoShardDataInclusion)
}

// ProcessSlotsWithoutShardBlobProposal processes through target under
// NoShardBlobProposal.
func (s *Simulator) ProcessSlotsWithoutShardBlobProposal(target types.Slot) error {
	return s.processSlots(target, params.NoShardBlobProposal)
}

// ProcessSlotsWithoutShardHeaderInclusion processes through target under
// NoShardHeaderInclusion.
func (s *Simulator) ProcessSlotsWithoutShardHeaderInclusion(target types.Slot) error {
	return s.processSlots(target, params.NoShardHeaderInclusion)
}

// ProcessSlotsWithoutShardHeaderConfirmation processes through target under
// NoShardHeaderConfirmation.
func (s *Simulator) ProcessSlotsWithoutShardHeaderConfirmation(target types.Slot) error {
	return s.processSlots(target, params.NoShardHeaderConfirmation)
}

// ProcessSlotsWithoutBeaconChainFinality processes through target under
// NoBeaconChainFinality.
func (s *Simulator) ProcessSlotsWithoutBeaconChainFinality(target types.Slot) error {
	return s.processSlots(target, params.NoBeaconChainFinality)
}

// ProcessSlotsWithoutBeaconBlockProposal processes through target under
// NoBeaconBlockProposal.
func (s *Simulator) ProcessSlotsWithoutBeaconBlockProposal(target types.Slot) error {
	return s.processSlots(target, params.NoBeaconBlockProposal)
}

// ProcessSlotsAllFailure processes through target under AllFailure.
func (s *Simulator) ProcessSlotsAllFailure(target types.Slot) error {
	return s.processSlots(target, params.AllFailure)
}

// ProcessSlotsRandom processes through target, sampling independently among
// the eight named fault templates for every slot.
func (s *Simulator) ProcessSlotsRandom(target types.Slot) error {
	return s.processSlots(target, params.Random)
}

// processSlots grows the parameter history with the given variant until it
// covers target, then advances the simulator through target inclusive.
func (s *Simulator) processSlots(target types.Slot, variant params.Variant) error {
	if s.slot > target {
		return &simerr.SlotPastSlot{Next: s.slot, Found: target}
	}

	for types.Slot(len(s.paramsHistory)) <= target {
		s.paramsHistory = append(s.paramsHistory, params.Build(variant, s.rng))
	}

	for s.slot <= target {
		s.processSlot()
	}

	if types.Slot(len(s.paramsHistory)) != s.slot {
		panic("simulator: params history length diverged from slot counter")
	}
	return nil
}

// processSlot advances every shard market and the beacon chain by one slot,
// routing any freshly proposed shard header into the beacon chain's pools.
func (s *Simulator) processSlot() {
	p := s.paramsHistory[s.slot]

	for i := types.Shard(0); i < types.ShardNum; i++ {
		header := s.shards[i].ProcessSlot(p.Shards[i])
		if header != nil {
			s.chain.PublishShardHeader(*header)
		}
	}

	s.chain.ProcessSlot(p.Beacon)
	logger.Debug("processed slot", "slot", s.slot)

	s.slot++
}

// PublishBid validates and routes a bid to its target shard's market.
func (s *Simulator) PublishBid(bid types.Bid) error {
	if bid.Commitment.Length > types.MaxPointsPerBlock {
		return &simerr.BidTooLargeData{Found: bid.Commitment.Length}
	}
	if bid.Slot < s.slot {
		return &simerr.BidPastSlot{Next: s.slot, Found: bid.Slot}
	}
	s.shards[bid.Shard].PublishBid(bid)
	return nil
}
