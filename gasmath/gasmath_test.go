package gasmath

import (
	"testing"

	"github.com/eth2030/shardsim/types"
)

func TestComputeUpdatedGasprice(t *testing.T) {
	cases := []struct {
		name        string
		prev        types.Gwei
		blockLength uint64
		wantIncrease bool
		wantDecrease bool
	}{
		{name: "at target is stable-ish", prev: 1000, blockLength: types.TargetSamplesPerBlock, wantDecrease: true},
		{name: "above target increases", prev: 1000, blockLength: types.TargetSamplesPerBlock * 2, wantIncrease: true},
		{name: "empty block decreases", prev: 1000, blockLength: 0, wantDecrease: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ComputeUpdatedGasprice(c.prev, c.blockLength)
			if c.wantIncrease && got <= c.prev {
				t.Fatalf("expected increase from %d, got %d", c.prev, got)
			}
			if c.wantDecrease && got >= c.prev {
				t.Fatalf("expected decrease from %d, got %d", c.prev, got)
			}
			if got > types.MaxGasprice {
				t.Fatalf("gasprice %d exceeds MaxGasprice", got)
			}
		})
	}
}

func TestComputeUpdatedGaspriceBounded(t *testing.T) {
	got := ComputeUpdatedGasprice(types.MaxGasprice, types.MaxSamplesPerBlock*types.PointsPerSample)
	if got > types.MaxGasprice {
		t.Fatalf("gasprice must stay bounded at MaxGasprice, got %d", got)
	}
}

func TestComputeUpdatedGaspriceAtMinimum(t *testing.T) {
	got := ComputeUpdatedGasprice(types.MinGasprice, 0)
	if got < types.MinGasprice-1 {
		t.Fatalf("gasprice should stay near MinGasprice, got %d", got)
	}
}
