package bplustree

import (
	"bytes"
	"encoding/binary"
)

// Codec knows how to compare and (de)serialize a fixed-width key type K.
// Generalizes a single bytes.Compare comparator over raw []byte keys to any
// fixed-width key type, chosen at compile time via Go generics instead of
// per-key-width code generation.
type Codec[K any] interface {
	// Size is the fixed number of bytes Encode writes and Decode reads.
	Size() int
	Compare(a, b K) int
	Encode(k K, buf []byte)
	Decode(buf []byte) K
}

// Int32Codec orders keys by signed 32-bit integer value.
type Int32Codec struct{}

func (Int32Codec) Size() int { return 4 }
func (Int32Codec) Compare(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func (Int32Codec) Encode(k int32, buf []byte) { binary.BigEndian.PutUint32(buf, uint32(k)) }
func (Int32Codec) Decode(buf []byte) int32    { return int32(binary.BigEndian.Uint32(buf)) }

// Int64Codec orders keys by signed 64-bit integer value.
type Int64Codec struct{}

func (Int64Codec) Size() int { return 8 }
func (Int64Codec) Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func (Int64Codec) Encode(k int64, buf []byte) { binary.BigEndian.PutUint64(buf, uint64(k)) }
func (Int64Codec) Decode(buf []byte) int64    { return int64(binary.BigEndian.Uint64(buf)) }

// Key4, Key8, Key16, Key32, and Key64 are opaque fixed-width byte keys —
// the generalization of the original's []byte key with MaxKeyLen=256, but
// sized to avoid a variable-length record layout. Ordering is
// lexicographic over the raw bytes, matching bytes.Compare semantics for
// ordinary ASCII/UTF-8 text keys.
type (
	Key4  [4]byte
	Key8  [8]byte
	Key16 [16]byte
	Key32 [32]byte
	Key64 [64]byte
)

type Key4Codec struct{}

func (Key4Codec) Size() int                  { return 4 }
func (Key4Codec) Compare(a, b Key4) int      { return bytes.Compare(a[:], b[:]) }
func (Key4Codec) Encode(k Key4, buf []byte)  { copy(buf, k[:]) }
func (Key4Codec) Decode(buf []byte) (k Key4) { copy(k[:], buf); return }

type Key8Codec struct{}

func (Key8Codec) Size() int                  { return 8 }
func (Key8Codec) Compare(a, b Key8) int      { return bytes.Compare(a[:], b[:]) }
func (Key8Codec) Encode(k Key8, buf []byte)  { copy(buf, k[:]) }
func (Key8Codec) Decode(buf []byte) (k Key8) { copy(k[:], buf); return }

type Key16Codec struct{}

func (Key16Codec) Size() int                   { return 16 }
func (Key16Codec) Compare(a, b Key16) int      { return bytes.Compare(a[:], b[:]) }
func (Key16Codec) Encode(k Key16, buf []byte)  { copy(buf, k[:]) }
func (Key16Codec) Decode(buf []byte) (k Key16) { copy(k[:], buf); return }

type Key32Codec struct{}

func (Key32Codec) Size() int                   { return 32 }
func (Key32Codec) Compare(a, b Key32) int      { return bytes.Compare(a[:], b[:]) }
func (Key32Codec) Encode(k Key32, buf []byte)  { copy(buf, k[:]) }
func (Key32Codec) Decode(buf []byte) (k Key32) { copy(k[:], buf); return }

type Key64Codec struct{}

func (Key64Codec) Size() int                   { return 64 }
func (Key64Codec) Compare(a, b Key64) int      { return bytes.Compare(a[:], b[:]) }
func (Key64Codec) Encode(k Key64, buf []byte)  { copy(buf, k[:]) }
func (Key64Codec) Decode(buf []byte) (k Key64) { copy(k[:], buf); return }
