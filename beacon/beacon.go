// Package beacon implements the beacon chain engine: the canonical block and
// state history, the two-epoch shard-header pools and inclusion scheduler,
// the off-chain finality tracker, and the epoch-boundary gas-price
// controller.
package beacon

import (
	"github.com/eth2030/shardsim/gasmath"
	"github.com/eth2030/shardsim/log"
	"github.com/eth2030/shardsim/params"
	"github.com/eth2030/shardsim/types"
	"github.com/eth2030/shardsim/xhash"
)

var logger = log.Default().Module("beacon")

// Chain is the beacon chain engine.
type Chain struct {
	// slot is the next slot to be processed; the last processed slot is
	// slot-1.
	slot types.Slot

	// state is the latest beacon state, defined even for a slot without a
	// beacon block.
	state types.BeaconState

	// finalizedCheckpoint is the latest off-chain-finalized checkpoint.
	finalizedCheckpoint types.Checkpoint

	blocks      []types.BeaconBlock
	states      []types.BeaconState
	checkpoints []types.Checkpoint

	// previousPool and currentPool are FIFO queues of published but
	// not-yet-included shard headers. The tail is the freshest.
	previousPool []types.SignedShardHeader
	currentPool  []types.SignedShardHeader
}

// New creates a beacon chain at genesis.
func New() *Chain {
	return &Chain{
		slot:                types.GenesisSlot,
		finalizedCheckpoint: types.GenesisCheckpoint,
		state: types.BeaconState{
			Slot:                 types.GenesisSlot,
			FinalizedCheckpoint:  types.GenesisCheckpoint,
			ShardGasprice:        types.InitShardGasprice,
		},
	}
}

// Slot returns the next slot to be processed.
func (c *Chain) Slot() types.Slot { return c.slot }

// State returns a copy of the live state.
func (c *Chain) State() types.BeaconState { return c.state }

// FinalizedCheckpoint returns the latest off-chain-finalized checkpoint.
func (c *Chain) FinalizedCheckpoint() types.Checkpoint { return c.finalizedCheckpoint }

// Blocks returns the canonical block history.
func (c *Chain) Blocks() []types.BeaconBlock { return c.blocks }

// States returns the state snapshot history, aligned index-for-index with
// Blocks.
func (c *Chain) States() []types.BeaconState { return c.states }

// Checkpoints returns the checkpoint history, one per epoch.
func (c *Chain) Checkpoints() []types.Checkpoint { return c.checkpoints }

// GetFinalizedBlocks returns the prefix of Blocks at or before the finalized
// checkpoint's epoch start slot, or an empty slice if nothing is finalized
// yet.
func (c *Chain) GetFinalizedBlocks() []types.BeaconBlock {
	if c.finalizedCheckpoint == types.GenesisCheckpoint {
		return nil
	}
	finalizedSlot := types.ComputeStartSlotAtEpoch(c.finalizedCheckpoint.Epoch)
	out := make([]types.BeaconBlock, 0, len(c.blocks))
	for _, b := range c.blocks {
		if b.Slot > finalizedSlot {
			break
		}
		out = append(out, b)
	}
	return out
}

// PublishShardHeader routes a signed shard header into whichever pool
// matches its epoch relative to the chain's current epoch: same epoch goes
// to the current pool, exactly one epoch behind goes to the previous pool,
// anything else (too old or too new) is dropped.
func (c *Chain) PublishShardHeader(h types.SignedShardHeader) {
	headerEpoch := types.ComputeEpochAtSlot(h.Message.Slot)
	currentEpoch := types.ComputeEpochAtSlot(c.slot)

	switch {
	case headerEpoch == currentEpoch:
		c.currentPool = append(c.currentPool, h)
	case headerEpoch+1 == currentEpoch:
		c.previousPool = append(c.previousPool, h)
	default:
		logger.Debug("dropped stale or premature shard header", "slot", h.Message.Slot, "shard", h.Message.Shard)
	}
}

// ProcessSlot advances the chain by exactly one slot under the given fault
// configuration.
func (c *Chain) ProcessSlot(p params.BeaconSimulationParams) {
	if p.BeaconBlockProposed {
		includedPrev, includedCur := c.selectIncludedShardHeaders(p.ShardHeadersIncluded)
		c.updateStateForNewBlock(includedPrev, includedCur, p.ShardHeadersConfirmed)

		included := make([]types.SignedShardHeader, 0, len(includedPrev)+len(includedCur))
		included = append(included, includedPrev...)
		included = append(included, includedCur...)
		c.appendNewBlockToChain(included)
	}

	if p.BeaconChainFinalized {
		c.progressConsensus()
	}

	if (uint64(c.slot)+1)%types.SlotsPerEpoch == 0 {
		c.processEpoch()
	}

	c.slot++
	c.state.Slot = c.slot
}

// selectIncludedShardHeaders drains at most MaxShardHeaders total from the
// two pools, previous-epoch pool first, FIFO within each pool.
func (c *Chain) selectIncludedShardHeaders(shardHeadersIncluded bool) (prev, cur []types.SignedShardHeader) {
	if !shardHeadersIncluded {
		return nil, nil
	}

	if len(c.previousPool) > types.MaxShardHeaders {
		prev = append([]types.SignedShardHeader(nil), c.previousPool[:types.MaxShardHeaders]...)
		c.previousPool = c.previousPool[types.MaxShardHeaders:]
		return prev, nil
	}

	prev = c.previousPool
	c.previousPool = nil

	remaining := types.MaxShardHeaders - len(prev)
	if remaining <= 0 {
		return prev, nil
	}

	if len(c.currentPool) > remaining {
		cur = append([]types.SignedShardHeader(nil), c.currentPool[:remaining]...)
		c.currentPool = c.currentPool[remaining:]
		return prev, cur
	}

	cur = c.currentPool
	c.currentPool = nil
	return prev, cur
}

// updateStateForNewBlock records the included headers as pending headers in
// the live state and, if confirmed, marks every pending header entry
// (old and new) as confirmed.
func (c *Chain) updateStateForNewBlock(includedPrev, includedCur []types.SignedShardHeader, confirmed bool) {
	for _, h := range includedPrev {
		c.state.PreviousEpochPendingShardHeaders = appendPending(c.state.PreviousEpochPendingShardHeaders, h)
	}
	for _, h := range includedCur {
		c.state.CurrentEpochPendingShardHeaders = appendPending(c.state.CurrentEpochPendingShardHeaders, h)
	}

	if confirmed {
		for i := range c.state.PreviousEpochPendingShardHeaders {
			c.state.PreviousEpochPendingShardHeaders[i].Confirmed = true
		}
		for i := range c.state.CurrentEpochPendingShardHeaders {
			c.state.CurrentEpochPendingShardHeaders[i].Confirmed = true
		}
	}

	// A new beacon block always carries the attestations of the latest
	// finalized checkpoint.
	c.state.FinalizedCheckpoint = c.finalizedCheckpoint
}

func appendPending(list []types.PendingShardHeader, h types.SignedShardHeader) []types.PendingShardHeader {
	// The root field of a pending header is not independently meaningful to
	// the protocol (it is never read back out by any invariant); it is set
	// from the header's own canonical hash so equal headers produce equal
	// pending entries.
	pending := types.FromSignedShardHeader(h, xhash.Root(h.Message.CanonicalBytes()))
	if len(list) >= types.MaxPendingShardHeaders {
		panic("beacon: pending shard header list exceeded capacity")
	}
	return append(list, pending)
}

// appendNewBlockToChain builds the new block, back-fills any skipped
// checkpoints, and appends the block and a state snapshot to the chain.
func (c *Chain) appendNewBlockToChain(included []types.SignedShardHeader) {
	headers := make([]types.ShardHeader, len(included))
	for i, h := range included {
		headers[i] = h.Message
	}

	parentRoot := types.GenesisParentRoot
	if len(c.blocks) > 0 {
		parentRoot = xhash.BlockRoot(c.blocks[len(c.blocks)-1])
	}

	block := types.BeaconBlock{
		Slot:         c.slot,
		ParentRoot:   parentRoot,
		StateRoot:    xhash.StateRoot(c.state),
		ShardHeaders: headers,
	}
	blockRoot := xhash.BlockRoot(block)

	// Back-fill every epoch since the last recorded checkpoint with this
	// block's root: a single block can serve as the checkpoint for multiple
	// consecutive skipped epochs.
	targetEpoch := types.ComputeEpochAtSlot(c.slot)
	for types.Epoch(len(c.checkpoints)) <= targetEpoch {
		c.checkpoints = append(c.checkpoints, types.Checkpoint{
			Epoch: types.Epoch(len(c.checkpoints)),
			Root:  blockRoot,
		})
	}
	if types.Epoch(len(c.checkpoints)) != targetEpoch+1 {
		panic("beacon: checkpoint backfill invariant violated")
	}

	c.blocks = append(c.blocks, block)
	c.states = append(c.states, c.state)
}

func (c *Chain) processEpoch() {
	c.updateShardGasprice()

	c.state.PreviousEpochPendingShardHeaders = c.state.CurrentEpochPendingShardHeaders
	c.state.CurrentEpochPendingShardHeaders = nil

	c.previousPool = c.currentPool
	c.currentPool = nil
}

// updateShardGasprice folds compute_updated_gasprice over the first confirmed
// previous-epoch pending header of each (slot, shard) in the epoch before the
// one now ending.
func (c *Chain) updateShardGasprice() {
	currentEpoch := types.ComputeEpochAtSlot(c.slot)
	if currentEpoch == types.GenesisEpoch {
		return
	}

	newGasprice := c.state.ShardGasprice
	previousEpochStart := types.ComputeStartSlotAtEpoch(currentEpoch - 1)

	for s := uint64(previousEpochStart); s < uint64(previousEpochStart)+types.SlotsPerEpoch; s++ {
		for shard := types.Shard(0); shard < types.ShardNum; shard++ {
			length, ok := firstConfirmedLength(c.state.PreviousEpochPendingShardHeaders, types.Slot(s), shard)
			if !ok {
				continue
			}
			newGasprice = gasmath.ComputeUpdatedGasprice(newGasprice, length)
		}
	}

	c.state.ShardGasprice = newGasprice
}

func firstConfirmedLength(list []types.PendingShardHeader, slot types.Slot, shard types.Shard) (uint64, bool) {
	for _, h := range list {
		if h.Slot == slot && h.Shard == shard && h.Confirmed {
			return h.Commitment.Length, true
		}
	}
	return 0, false
}

// progressConsensus moves off-chain finality to the checkpoint two epochs
// behind the current epoch, once that checkpoint exists.
func (c *Chain) progressConsensus() {
	epoch := types.ComputeEpochAtSlot(c.slot)
	if epoch < 2 {
		return
	}
	targetEpoch := epoch - 2
	behindTarget := c.finalizedCheckpoint == types.GenesisCheckpoint || c.finalizedCheckpoint.Epoch < targetEpoch
	if behindTarget && uint64(len(c.checkpoints)) > uint64(targetEpoch) {
		c.finalizedCheckpoint = c.checkpoints[targetEpoch]
	}
}
