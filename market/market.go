// Package market implements the per-shard data-availability market: a bid
// pool indexed by target slot, resolved into at most one signed shard
// header per slot by taking the highest-fee bid.
package market

import (
	"github.com/eth2030/shardsim/log"
	"github.com/eth2030/shardsim/params"
	"github.com/eth2030/shardsim/types"
	"github.com/eth2030/shardsim/xhash"
)

var logger = log.Default().Module("market")

// ShardDataMarket is the bid pool and per-slot blob-proposal decision for a
// single shard.
type ShardDataMarket struct {
	shard types.Shard

	// slot is the next slot this market has not yet processed.
	slot types.Slot

	// bidPool[s] holds every bid targeting slot s. Grown lazily to
	// accommodate sparse slot indices, mirroring the vector-of-vectors
	// layout of the reference market.
	bidPool [][]types.Bid

	// proposedHeaders[s] is the signed header emitted for slot s, or nil if
	// no blob was proposed that slot.
	proposedHeaders []*types.SignedShardHeader
}

// New creates an empty market for the given shard.
func New(shard types.Shard) *ShardDataMarket {
	return &ShardDataMarket{shard: shard}
}

// Slot returns the next slot this market has not yet processed.
func (m *ShardDataMarket) Slot() types.Slot { return m.slot }

// PublishBid appends bid into the pool for its target slot, growing the
// pool as needed. Callers are responsible for prior validation (§ orchestrator).
func (m *ShardDataMarket) PublishBid(bid types.Bid) {
	idx := int(bid.Slot)
	for len(m.bidPool) <= idx {
		m.bidPool = append(m.bidPool, nil)
	}
	m.bidPool[idx] = append(m.bidPool[idx], bid)
}

// ProcessSlot resolves the current slot's blob proposal, appends the result
// (possibly nil) to proposedHeaders, and advances the market's slot.
func (m *ShardDataMarket) ProcessSlot(p params.ShardSimulationParams) *types.SignedShardHeader {
	slot := m.slot

	if !p.BlobProposed {
		m.proposedHeaders = append(m.proposedHeaders, nil)
		m.slot++
		return nil
	}

	commitment := types.DataCommitment{}
	if p.DataIncluded {
		if winner, ok := m.takeWinningBid(slot); ok {
			commitment = winner.Commitment
		}
	} else {
		// Still resolves the winning bid (it is consumed either way) but the
		// commitment published is the default, empty one.
		m.takeWinningBid(slot)
	}

	header := types.ShardHeader{Slot: slot, Shard: m.shard, Commitment: commitment}
	signed := xhash.DummyFromHeader(header)
	m.proposedHeaders = append(m.proposedHeaders, &signed)
	m.slot++

	logger.Debug("proposed blob", "shard", m.shard, "slot", slot, "length", commitment.Length)
	return &signed
}

// takeWinningBid removes and returns the highest-fee bid at the given slot,
// ties broken in favor of the latest-added bid. Losing bids at this slot are
// discarded: they targeted this slot only.
func (m *ShardDataMarket) takeWinningBid(slot types.Slot) (types.Bid, bool) {
	idx := int(slot)
	if idx >= len(m.bidPool) || len(m.bidPool[idx]) == 0 {
		return types.Bid{}, false
	}

	bids := m.bidPool[idx]
	best := 0
	for i := 1; i < len(bids); i++ {
		// >= keeps the later-added bid on ties, matching a stable ascending
		// sort followed by popping the last element.
		if bids[i].Fee >= bids[best].Fee {
			best = i
		}
	}
	winner := bids[best]
	m.bidPool[idx] = nil
	return winner, true
}
