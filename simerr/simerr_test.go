package simerr

import (
	"errors"
	"testing"

	"github.com/eth2030/shardsim/types"
)

func TestSlotPastSlotIsErrPastSlot(t *testing.T) {
	err := &SlotPastSlot{Next: 10, Found: 5}
	if !errors.Is(err, ErrPastSlot) {
		t.Fatalf("SlotPastSlot must unwrap to ErrPastSlot")
	}
	var target *SlotPastSlot
	if !errors.As(err, &target) || target.Next != 10 || target.Found != 5 {
		t.Fatalf("errors.As must recover fields, got %+v", target)
	}
}

func TestBidPastSlotIsErrPastSlot(t *testing.T) {
	err := &BidPastSlot{Next: 51, Found: 0}
	if !errors.Is(err, ErrPastSlot) {
		t.Fatalf("BidPastSlot must unwrap to ErrPastSlot")
	}
}

func TestBidTooLargeDataIsErrTooLargeData(t *testing.T) {
	err := &BidTooLargeData{Found: 16385}
	if !errors.Is(err, ErrTooLargeData) {
		t.Fatalf("BidTooLargeData must unwrap to ErrTooLargeData")
	}
}

func TestBidInvalidCommitmentIsErrInvalidCommitment(t *testing.T) {
	err := &BidInvalidCommitment{
		Expect: types.DataCommitment{Length: 1},
		Found:  types.DataCommitment{Length: 2},
	}
	if !errors.Is(err, ErrInvalidCommitment) {
		t.Fatalf("BidInvalidCommitment must unwrap to ErrInvalidCommitment")
	}
}

func TestBidInvalidShardIsErrInvalidShard(t *testing.T) {
	err := &BidInvalidShard{Expect: 3, Found: 5}
	if !errors.Is(err, ErrInvalidShard) {
		t.Fatalf("BidInvalidShard must unwrap to ErrInvalidShard")
	}
}

func TestConfigInvalidFailureRateIsErrInvalidFailureRate(t *testing.T) {
	err := &ConfigInvalidFailureRate{Found: 1.5}
	if !errors.Is(err, ErrInvalidFailureRate) {
		t.Fatalf("ConfigInvalidFailureRate must unwrap to ErrInvalidFailureRate")
	}
}

func TestDistinctTaxonomyMembersAreNotConfused(t *testing.T) {
	err := &BidTooLargeData{Found: 1}
	if errors.Is(err, ErrPastSlot) {
		t.Fatalf("BidTooLargeData must not match ErrPastSlot")
	}
	if errors.Is(err, ErrInvalidShard) {
		t.Fatalf("BidTooLargeData must not match ErrInvalidShard")
	}
}
