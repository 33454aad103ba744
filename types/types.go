// Package types defines the scalar aliases, protocol constants, and record
// types shared by the shard data market and beacon chain engine.
package types

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Slot, Epoch, Shard and Gwei are plain non-negative 64-bit counters; kept
// distinct so call sites read as self-documenting.
type (
	Slot  uint64
	Epoch uint64
	Shard uint64
	Gwei  uint64
)

// FieldElement is a 256-bit unsigned integer, used when chunking blob bytes
// into BytesPerPoint-sized points for dummy_from_bytes.
type FieldElement = uint256.Int

// FieldElementFromBytes decodes a big-endian chunk (at most BytesPerPoint
// bytes) into a FieldElement.
func FieldElementFromBytes(chunk []byte) *FieldElement {
	return new(FieldElement).SetBytes(chunk)
}

// Root is a 32-byte canonical digest. Reusing go-ethereum's common.Hash gives
// free 0x-prefixed hex JSON (de)serialization consistent with the rest of
// the Ethereum tooling this module is built alongside.
type Root = common.Hash

// Protocol constants, as fixed by the data model.
const (
	SlotsPerEpoch = 32
	ShardNum      = 64

	MaxShardHeadersPerShard = 4
	MaxShardHeaders         = ShardNum * MaxShardHeadersPerShard // 256

	BytesPerPoint        = 31
	PointsPerSample      = 8
	MaxSamplesPerBlock   = 2048
	MaxPointsPerBlock    = MaxSamplesPerBlock * PointsPerSample // 16384
	TargetSamplesPerBlock = 1024

	MinGasprice                  Gwei = 8
	MaxGasprice                  Gwei = 1 << 33
	GaspriceAdjustmentCoefficient      = 8
	GaspriceAdjustmentQuotient         = ShardNum * SlotsPerEpoch * GaspriceAdjustmentCoefficient // 16384
	InitShardGasprice            Gwei = 0

	GenesisSlot  Slot  = 0
	GenesisEpoch Epoch = 0

	// MaxPendingShardHeaders bounds each of a BeaconState's two pending
	// header lists (spec §9: "length-bounded list type with capacity 8192").
	MaxPendingShardHeaders = 8192
)

// GenesisParentRoot is the zero root used as the parent of the first block.
var GenesisParentRoot = Root{}

// GenesisCheckpoint is the checkpoint a fresh BeaconChain starts with.
var GenesisCheckpoint = Checkpoint{Epoch: GenesisEpoch, Root: GenesisParentRoot}

// BLSSignature is a deterministic 96-byte signature stub.
type BLSSignature [96]byte

// MarshalJSON encodes the signature as a 0x-prefixed hex string, consistent
// with the rest of the Ethereum tooling this module is built alongside.
func (s BLSSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.Bytes(s[:]))
}

// UnmarshalJSON decodes a 0x-prefixed hex string into the signature.
func (s *BLSSignature) UnmarshalJSON(data []byte) error {
	var b hexutil.Bytes
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) != len(s) {
		return fmt.Errorf("types: BLSSignature must be %d bytes, got %d", len(s), len(b))
	}
	copy(s[:], b)
	return nil
}

// BLSCommitmentPoint is a deterministic 48-byte KZG-commitment stub.
type BLSCommitmentPoint [48]byte

// MarshalJSON encodes the point as a 0x-prefixed hex string.
func (p BLSCommitmentPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.Bytes(p[:]))
}

// UnmarshalJSON decodes a 0x-prefixed hex string into the point.
func (p *BLSCommitmentPoint) UnmarshalJSON(data []byte) error {
	var b hexutil.Bytes
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) != len(p) {
		return fmt.Errorf("types: BLSCommitmentPoint must be %d bytes, got %d", len(p), len(b))
	}
	copy(p[:], b)
	return nil
}

// DataCommitment is a stubbed KZG commitment to a blob of data.
type DataCommitment struct {
	Point  BLSCommitmentPoint `json:"point"`
	Length uint64             `json:"length"`
}

// Equal reports whether two commitments carry the same point and length.
func (c DataCommitment) Equal(o DataCommitment) bool {
	return c.Point == o.Point && c.Length == o.Length
}

// CanonicalBytes returns the canonical byte encoding used for hashing.
func (c DataCommitment) CanonicalBytes() []byte {
	b := make([]byte, 48+8)
	copy(b, c.Point[:])
	binary.BigEndian.PutUint64(b[48:], c.Length)
	return b
}

// Bid is an external offer to place a data commitment on a (shard, slot) for
// a fee.
type Bid struct {
	Shard      Shard          `json:"shard"`
	Slot       Slot           `json:"slot"`
	Commitment DataCommitment `json:"commitment"`
	Fee        Gwei           `json:"fee"`
}

// ShardHeader references a commitment proposed for a specific shard/slot.
type ShardHeader struct {
	Slot       Slot           `json:"slot"`
	Shard      Shard          `json:"shard"`
	Commitment DataCommitment `json:"commitment"`
}

// CanonicalBytes returns the canonical byte encoding used for hashing.
func (h ShardHeader) CanonicalBytes() []byte {
	b := make([]byte, 8+8)
	binary.BigEndian.PutUint64(b[0:8], uint64(h.Slot))
	binary.BigEndian.PutUint64(b[8:16], uint64(h.Shard))
	return append(b, h.Commitment.CanonicalBytes()...)
}

// SignedShardHeader is a ShardHeader with its (stubbed) BLS signature.
type SignedShardHeader struct {
	Message   ShardHeader  `json:"message"`
	Signature BLSSignature `json:"signature"`
}

// PendingShardHeader is a shard header recorded in a beacon state while it
// awaits confirmation.
type PendingShardHeader struct {
	Slot       Slot           `json:"slot"`
	Shard      Shard          `json:"shard"`
	Commitment DataCommitment `json:"commitment"`
	Root       Root           `json:"root"`
	Confirmed  bool           `json:"confirmed"`
}

// FromSignedShardHeader builds the pending-header projection of a signed
// shard header once it has been included in a beacon block.
func FromSignedShardHeader(h SignedShardHeader, root Root) PendingShardHeader {
	return PendingShardHeader{
		Slot:       h.Message.Slot,
		Shard:      h.Message.Shard,
		Commitment: h.Message.Commitment,
		Root:       root,
		Confirmed:  false,
	}
}

// Checkpoint identifies the first block of an epoch.
type Checkpoint struct {
	Epoch Epoch `json:"epoch"`
	Root  Root  `json:"root"`
}

// BeaconBlock is a canonical chain entry.
type BeaconBlock struct {
	Slot         Slot          `json:"slot"`
	ParentRoot   Root          `json:"parent_root"`
	StateRoot    Root          `json:"state_root"`
	ShardHeaders []ShardHeader `json:"shard_headers"`
}

// CanonicalBytes returns the canonical byte encoding used for hashing: the
// header form {slot, parent_root, state_root, body_root}.
func (b BeaconBlock) CanonicalBytes(bodyRoot Root) []byte {
	buf := make([]byte, 8, 8+32+32+32)
	binary.BigEndian.PutUint64(buf, uint64(b.Slot))
	buf = append(buf, b.ParentRoot[:]...)
	buf = append(buf, b.StateRoot[:]...)
	buf = append(buf, bodyRoot[:]...)
	return buf
}

// BeaconState is the state snapshot accompanying a beacon block.
type BeaconState struct {
	Slot                             Slot                 `json:"slot"`
	FinalizedCheckpoint              Checkpoint           `json:"finalized_checkpoint"`
	PreviousEpochPendingShardHeaders []PendingShardHeader `json:"previous_epoch_pending_shard_headers"`
	CurrentEpochPendingShardHeaders  []PendingShardHeader `json:"current_epoch_pending_shard_headers"`
	ShardGasprice                    Gwei                 `json:"shard_gasprice"`
}

// CanonicalBytes returns a canonical byte encoding of the state used for
// computing its root.
func (s BeaconState) CanonicalBytes() []byte {
	buf := make([]byte, 0, 64)
	tmp := make([]byte, 8)
	binary.BigEndian.PutUint64(tmp, uint64(s.Slot))
	buf = append(buf, tmp...)
	buf = append(buf, s.FinalizedCheckpoint.Root[:]...)
	binary.BigEndian.PutUint64(tmp, uint64(s.FinalizedCheckpoint.Epoch))
	buf = append(buf, tmp...)
	for _, h := range s.PreviousEpochPendingShardHeaders {
		buf = append(buf, pendingHeaderBytes(h)...)
	}
	for _, h := range s.CurrentEpochPendingShardHeaders {
		buf = append(buf, pendingHeaderBytes(h)...)
	}
	binary.BigEndian.PutUint64(tmp, uint64(s.ShardGasprice))
	buf = append(buf, tmp...)
	return buf
}

func pendingHeaderBytes(h PendingShardHeader) []byte {
	buf := make([]byte, 16, 16+48+8+32+1)
	binary.BigEndian.PutUint64(buf[0:8], uint64(h.Slot))
	binary.BigEndian.PutUint64(buf[8:16], uint64(h.Shard))
	buf = append(buf, h.Commitment.CanonicalBytes()...)
	buf = append(buf, h.Root[:]...)
	if h.Confirmed {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// ComputeEpochAtSlot returns the epoch containing s.
func ComputeEpochAtSlot(s Slot) Epoch {
	return Epoch(uint64(s) / SlotsPerEpoch)
}

// ComputeStartSlotAtEpoch returns the first slot of epoch e.
func ComputeStartSlotAtEpoch(e Epoch) Slot {
	return Slot(uint64(e) * SlotsPerEpoch)
}
