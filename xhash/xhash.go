// Package xhash provides the deterministic hashing primitives the core state
// machine relies on: block/state roots and the stubbed BLS/KZG placeholders.
// None of this is real cryptography; it exists to give every distinct value
// a distinct, reproducible digest, per the documented stub contract.
package xhash

import (
	"golang.org/x/crypto/sha3"

	"github.com/eth2030/shardsim/types"
)

// Sum256 returns the Keccak256 digest of the concatenation of data, mirroring
// the hashing technique used elsewhere in this codebase for content
// addressing.
func Sum256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Root hashes a canonical byte encoding into a types.Root.
func Root(data []byte) types.Root {
	return types.Root(Sum256(data))
}

// BodyRoot hashes the list of included shard headers that make up a block's
// body.
func BodyRoot(headers []types.ShardHeader) types.Root {
	buf := make([]byte, 0, len(headers)*64)
	for _, h := range headers {
		buf = append(buf, h.CanonicalBytes()...)
	}
	return Root(buf)
}

// BlockRoot computes a beacon block's root: hash of the header form
// {slot, parent_root, state_root, body_root}.
func BlockRoot(b types.BeaconBlock) types.Root {
	body := BodyRoot(b.ShardHeaders)
	return Root(b.CanonicalBytes(body))
}

// StateRoot computes a beacon state's root.
func StateRoot(s types.BeaconState) types.Root {
	return Root(s.CanonicalBytes())
}

// CommitmentFromBytes derives a deterministic 48-byte commitment from
// arbitrary input bytes, with length = ceil(len(bytes)/BytesPerPoint). It
// folds fixed-size chunks of the input through Keccak256 so equal inputs
// always yield equal commitments and differing inputs yield (with
// overwhelming probability) differing ones.
func CommitmentFromBytes(data []byte) types.DataCommitment {
	length := (len(data) + types.BytesPerPoint - 1) / types.BytesPerPoint
	if len(data) == 0 {
		length = 0
	}

	digest := foldPoints(data)

	var point types.BLSCommitmentPoint
	// digest is 32 bytes; the point is 48 bytes, left-padded with zero.
	copy(point[16:], digest[:])

	return types.DataCommitment{Point: point, Length: uint64(length)}
}

// foldPoints chunks data into BytesPerPoint-sized field elements and folds
// them together with Keccak256, one point at a time. Each chunk is decoded
// into a FieldElement and re-serialized to its canonical 32-byte form before
// hashing, so the digest is a function of the input length and the field
// elements dummy_from_bytes is specified to operate over. The length seed
// keeps inputs that differ only by leading zero bytes within a chunk (which
// decode to the same field element) apart.
func foldPoints(data []byte) [32]byte {
	lengthBytes := new(types.FieldElement).SetUint64(uint64(len(data))).Bytes32()
	acc := Sum256(lengthBytes[:])
	for off := 0; off < len(data); off += types.BytesPerPoint {
		end := off + types.BytesPerPoint
		if end > len(data) {
			end = len(data)
		}
		point := types.FieldElementFromBytes(data[off:end])
		pointBytes := point.Bytes32()
		acc = Sum256(acc[:], pointBytes[:])
	}
	if len(data) == 0 {
		acc = Sum256([]byte{})
	}
	return acc
}

// SignHeader derives a deterministic 96-byte signature stub over a shard
// header's canonical bytes.
func SignHeader(h types.ShardHeader) types.BLSSignature {
	a := Sum256(h.CanonicalBytes())
	b := Sum256(a[:], []byte("shardsim-sig"))

	var sig types.BLSSignature
	copy(sig[:32], a[:])
	copy(sig[32:64], b[:])
	// Remaining 32 bytes: a cheap additional fold so the full 96 bytes are
	// a function of the header rather than padding.
	c := Sum256(b[:], a[:])
	copy(sig[64:], c[:])
	return sig
}

// DummyFromHeader builds a SignedShardHeader with a deterministic stub
// signature over the given header.
func DummyFromHeader(h types.ShardHeader) types.SignedShardHeader {
	return types.SignedShardHeader{Message: h, Signature: SignHeader(h)}
}
