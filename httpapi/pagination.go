package httpapi

import "github.com/eth2030/shardsim/types"

// paginate returns the page-th window of width count, counted backward from
// the tail item's slot: page 0 is every item whose slot falls in
// (lastSlot-count, lastSlot], page 1 is the count-wide window before that,
// and so on. If the total item count is smaller than count, every item is
// returned regardless of page. This filters by slot rather than by array
// index, so it stays correct when slots are skipped (e.g. under
// no_beacon_block_proposal) and the underlying slice is not dense.
func paginate[T any](items []T, slotOf func(T) types.Slot, count, page int) []T {
	n := len(items)
	if count <= 0 || n == 0 {
		return nil
	}
	if n < count {
		return items
	}

	lastSlot := slotOf(items[n-1])
	c := types.Slot(count)
	p := types.Slot(page)

	out := make([]T, 0, count)
	for _, item := range items {
		slot := slotOf(item)
		// last_slot < slot + count*(page+1) && slot + count*page <= last_slot
		if lastSlot < slot+c*(p+1) && slot+c*p <= lastSlot {
			out = append(out, item)
		}
	}
	return out
}

func blockSlot(b types.BeaconBlock) types.Slot { return b.Slot }

func stateSlot(s types.BeaconState) types.Slot { return s.Slot }
