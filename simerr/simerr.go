// Package simerr carries the strongly-typed slot-processing and
// bid-publication failures the core state machine can return. Each is a
// concrete struct implementing error so callers can compare kind via
// errors.Is and recover fields via errors.As.
package simerr

import (
	"errors"
	"fmt"

	"github.com/eth2030/shardsim/types"
)

// Sentinel base errors, one per taxonomy member, usable with errors.Is.
var (
	ErrPastSlot           = errors.New("simerr: past slot")
	ErrTooLargeData        = errors.New("simerr: commitment too large")
	ErrInvalidCommitment   = errors.New("simerr: commitment mismatch")
	ErrInvalidShard        = errors.New("simerr: shard mismatch")
	ErrInvalidFailureRate  = errors.New("simerr: invalid failure rate")
)

// SlotPastSlot is returned when process_slots is asked to process through a
// slot before the simulator's next-to-process slot, i.e. one already
// processed.
type SlotPastSlot struct {
	Next  types.Slot
	Found types.Slot
}

func (e *SlotPastSlot) Error() string {
	return fmt.Sprintf("slot processing: next=%d found=%d", e.Next, e.Found)
}

func (e *SlotPastSlot) Unwrap() error { return ErrPastSlot }

// BidPastSlot is returned when a bid targets an already-processed slot.
type BidPastSlot struct {
	Next  types.Slot
	Found types.Slot
}

func (e *BidPastSlot) Error() string {
	return fmt.Sprintf("bid publication: past slot next=%d found=%d", e.Next, e.Found)
}

func (e *BidPastSlot) Unwrap() error { return ErrPastSlot }

// BidTooLargeData is returned when a commitment's length exceeds
// MaxPointsPerBlock.
type BidTooLargeData struct {
	Found uint64
}

func (e *BidTooLargeData) Error() string {
	return fmt.Sprintf("bid publication: commitment too large found=%d", e.Found)
}

func (e *BidTooLargeData) Unwrap() error { return ErrTooLargeData }

// BidInvalidCommitment is returned when a bid's declared commitment does not
// match the commitment derived from submitted data.
type BidInvalidCommitment struct {
	Expect types.DataCommitment
	Found  types.DataCommitment
}

func (e *BidInvalidCommitment) Error() string {
	return fmt.Sprintf("bid publication: commitment mismatch expect=%+v found=%+v", e.Expect, e.Found)
}

func (e *BidInvalidCommitment) Unwrap() error { return ErrInvalidCommitment }

// BidInvalidShard is returned when the URL shard parameter does not match
// bid.Shard.
type BidInvalidShard struct {
	Expect types.Shard
	Found  types.Shard
}

func (e *BidInvalidShard) Error() string {
	return fmt.Sprintf("bid publication: shard mismatch expect=%d found=%d", e.Expect, e.Found)
}

func (e *BidInvalidShard) Unwrap() error { return ErrInvalidShard }

// ConfigInvalidFailureRate is returned when a /config update's failure_rate
// falls outside [0, 1].
type ConfigInvalidFailureRate struct {
	Found float32
}

func (e *ConfigInvalidFailureRate) Error() string {
	return fmt.Sprintf("config: invalid failure rate found=%v", e.Found)
}

func (e *ConfigInvalidFailureRate) Unwrap() error { return ErrInvalidFailureRate }
