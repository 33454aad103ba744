package httpapi

import (
	"testing"

	"github.com/eth2030/shardsim/types"
)

func blocksAtSlots(slots ...types.Slot) []types.BeaconBlock {
	blocks := make([]types.BeaconBlock, len(slots))
	for i, s := range slots {
		blocks[i] = types.BeaconBlock{Slot: s}
	}
	return blocks
}

func TestPaginateReturnsAllWhenUnderCount(t *testing.T) {
	blocks := blocksAtSlots(0, 1, 2)
	got := paginate(blocks, blockSlot, 100, 0)
	if len(got) != 3 {
		t.Fatalf("expected all 3 blocks, got %d", len(got))
	}
}

func TestPaginateDenseSlotsMatchesIndexWindow(t *testing.T) {
	slots := make([]types.Slot, 250)
	for i := range slots {
		slots[i] = types.Slot(i)
	}
	blocks := blocksAtSlots(slots...)

	page0 := paginate(blocks, blockSlot, 100, 0)
	if len(page0) != 100 {
		t.Fatalf("page 0: expected 100 blocks, got %d", len(page0))
	}
	if page0[0].Slot != 150 || page0[len(page0)-1].Slot != 249 {
		t.Fatalf("page 0: expected slots [150,249], got [%d,%d]", page0[0].Slot, page0[len(page0)-1].Slot)
	}

	page1 := paginate(blocks, blockSlot, 100, 1)
	if len(page1) != 100 {
		t.Fatalf("page 1: expected 100 blocks, got %d", len(page1))
	}
	if page1[0].Slot != 50 || page1[len(page1)-1].Slot != 149 {
		t.Fatalf("page 1: expected slots [50,149], got [%d,%d]", page1[0].Slot, page1[len(page1)-1].Slot)
	}

	page2 := paginate(blocks, blockSlot, 100, 2)
	if len(page2) != 50 {
		t.Fatalf("page 2: expected 50 blocks, got %d", len(page2))
	}
	if page2[0].Slot != 0 || page2[len(page2)-1].Slot != 49 {
		t.Fatalf("page 2: expected slots [0,49], got [%d,%d]", page2[0].Slot, page2[len(page2)-1].Slot)
	}
}

// TestPaginateFollowsSlotNotIndexAcrossSkips is the regression case: with
// skipped slots (e.g. under no_beacon_block_proposal), index-windowing and
// slot-windowing diverge. A window must be chosen by how far back in slots
// it reaches, not by how many blocks happen to exist.
func TestPaginateFollowsSlotNotIndexAcrossSkips(t *testing.T) {
	// 150 blocks present at slots 0..49 and 100..199 (slots 50..99 skipped
	// entirely, e.g. a beacon-block-proposal outage).
	var slots []types.Slot
	for s := types.Slot(0); s < 50; s++ {
		slots = append(slots, s)
	}
	for s := types.Slot(100); s < 200; s++ {
		slots = append(slots, s)
	}
	blocks := blocksAtSlots(slots...)

	// lastSlot = 199. page 0 window is (199-50, 199] = (149, 199].
	got := paginate(blocks, blockSlot, 50, 0)
	for _, b := range got {
		if b.Slot <= 149 || b.Slot > 199 {
			t.Fatalf("page 0 block at slot %d falls outside the (149,199] slot window", b.Slot)
		}
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 blocks in slots [150,199], got %d", len(got))
	}

	// page 1 window is (199-100, 199-50] = (99, 149]: slots 100..149 are
	// all present, so this page is full.
	got1 := paginate(blocks, blockSlot, 50, 1)
	for _, b := range got1 {
		if b.Slot <= 99 || b.Slot > 149 {
			t.Fatalf("page 1 block at slot %d falls outside the (99,149] slot window", b.Slot)
		}
	}
	if len(got1) != 50 {
		t.Fatalf("expected 50 blocks in slots [100,149], got %d", len(got1))
	}

	// page 2 window is (199-150, 199-100] = (49, 99] — only slots 50..99
	// would qualify, and every one of them was skipped, so this page is
	// empty even though plenty of older blocks remain.
	got2 := paginate(blocks, blockSlot, 50, 2)
	if len(got2) != 0 {
		t.Fatalf("expected an empty page across the skipped slot range, got %d blocks", len(got2))
	}
}

func TestPaginateEmptyInput(t *testing.T) {
	var blocks []types.BeaconBlock
	got := paginate(blocks, blockSlot, 100, 0)
	if got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
