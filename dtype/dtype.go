// Package dtype describes the element type of on-disk vectors and converts
// between raw bytes and in-memory vectors.
//
// A DType combines a float width (2, 4 or 8 bytes) with a byte order. Types
// are written with the numpy-style tag notation common in the embedding
// ecosystem ("<f4" is a little-endian 4-byte float); VVM metadata stores
// these tags.
//
// In-memory vectors are []float64 so that every supported on-disk type
// round-trips without precision loss.
package dtype

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/janluke/embfile/internal/f16"
)

// Kind is the element width class of a DType.
type Kind uint8

const (
	// Invalid is the zero Kind; a zero DType means "unspecified".
	Invalid Kind = iota
	// Float16 is a 2-byte IEEE-754 binary16 float.
	Float16
	// Float32 is a 4-byte IEEE-754 binary32 float.
	Float32
	// Float64 is an 8-byte IEEE-754 binary64 float.
	Float64
)

// DType is an on-disk vector element type: a float kind plus a byte order.
//
// The zero value is not a valid type; it stands for "unspecified" in options
// and means "use the file's native type".
type DType struct {
	Kind      Kind
	BigEndian bool
}

// Common types. Embedding files are little-endian in the wild.
var (
	LittleEndianFloat16 = DType{Kind: Float16}
	LittleEndianFloat32 = DType{Kind: Float32}
	LittleEndianFloat64 = DType{Kind: Float64}
	BigEndianFloat16    = DType{Kind: Float16, BigEndian: true}
	BigEndianFloat32    = DType{Kind: Float32, BigEndian: true}
	BigEndianFloat64    = DType{Kind: Float64, BigEndian: true}
)

// IsValid reports whether dt denotes a concrete element type.
func (dt DType) IsValid() bool {
	switch dt.Kind {
	case Float16, Float32, Float64:
		return true
	}
	return false
}

// Size returns the element width in bytes.
func (dt DType) Size() int {
	switch dt.Kind {
	case Float16:
		return 2
	case Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// String returns the tag notation of dt, e.g. "<f4".
func (dt DType) String() string {
	if !dt.IsValid() {
		return "invalid"
	}
	order := byte('<')
	if dt.BigEndian {
		order = '>'
	}
	return fmt.Sprintf("%cf%d", order, dt.Size())
}

// byteOrder combines reading and appending: binary.LittleEndian and
// binary.BigEndian implement both.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (dt DType) byteOrder() byteOrder {
	if dt.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Parse parses a tag like "<f4", ">f8" or "f2". A missing order prefix means
// little-endian ("=" and "|" are accepted as native/irrelevant order markers
// and treated the same way).
func Parse(tag string) (DType, error) {
	s := tag
	bigEndian := false
	if len(s) > 0 {
		switch s[0] {
		case '<', '=', '|':
			s = s[1:]
		case '>':
			bigEndian = true
			s = s[1:]
		}
	}

	var kind Kind
	switch s {
	case "f2":
		kind = Float16
	case "f4":
		kind = Float32
	case "f8":
		kind = Float64
	default:
		return DType{}, fmt.Errorf("unknown dtype tag %q", tag)
	}
	return DType{Kind: kind, BigEndian: bigEndian}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (dt DType) MarshalText() ([]byte, error) {
	if !dt.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid dtype")
	}
	return []byte(dt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (dt *DType) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// MalformedVectorError indicates that a raw byte buffer cannot hold the
// declared number of elements of the declared type.
type MalformedVectorError struct {
	DType DType
	Count int
	Bytes int
}

func (e *MalformedVectorError) Error() string {
	return fmt.Sprintf("malformed vector: %d bytes cannot hold %d elements of type %s (%d bytes expected)",
		e.Bytes, e.Count, e.DType, e.Count*e.DType.Size())
}

// Decode converts raw into a vector of count elements of type dt.
//
// Decode is a pure transform: it never converts to another precision. Use
// Convert for an explicit output-type conversion after decoding.
func Decode(dt DType, raw []byte, count int) ([]float64, error) {
	if !dt.IsValid() {
		return nil, fmt.Errorf("decode: invalid dtype")
	}
	if len(raw) != count*dt.Size() {
		return nil, &MalformedVectorError{DType: dt, Count: count, Bytes: len(raw)}
	}

	order := dt.byteOrder()
	vec := make([]float64, count)
	switch dt.Kind {
	case Float16:
		for i := range vec {
			bits := order.Uint16(raw[i*2:])
			vec[i] = float64(f16.ToFloat32(f16.Bits(bits)))
		}
	case Float32:
		for i := range vec {
			bits := order.Uint32(raw[i*4:])
			vec[i] = float64(math.Float32frombits(bits))
		}
	case Float64:
		for i := range vec {
			vec[i] = math.Float64frombits(order.Uint64(raw[i*8:]))
		}
	}
	return vec, nil
}

// Encode converts a vector to its raw byte layout for type dt.
func Encode(dt DType, vec []float64) []byte {
	return Append(dt, make([]byte, 0, len(vec)*dt.Size()), vec)
}

// Append appends the raw byte layout of vec for type dt to buf.
func Append(dt DType, buf []byte, vec []float64) []byte {
	order := dt.byteOrder()
	switch dt.Kind {
	case Float16:
		for _, v := range vec {
			bits := f16.FromFloat32(float32(v))
			buf = order.AppendUint16(buf, uint16(bits))
		}
	case Float32:
		for _, v := range vec {
			buf = order.AppendUint32(buf, math.Float32bits(float32(v)))
		}
	case Float64:
		for _, v := range vec {
			buf = order.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}

// Convert returns a copy of vec quantized to the precision of dt.
//
// Narrowing (e.g. an 8-byte source converted to a 2-byte output type) rounds
// to nearest, ties to even; values outside the target range become
// infinities. No error is reported for lost precision.
func Convert(vec []float64, dt DType) []float64 {
	out := make([]float64, len(vec))
	switch dt.Kind {
	case Float16:
		for i, v := range vec {
			out[i] = float64(f16.ToFloat32(f16.FromFloat32(float32(v))))
		}
	case Float32:
		for i, v := range vec {
			out[i] = float64(float32(v))
		}
	default:
		copy(out, vec)
	}
	return out
}
