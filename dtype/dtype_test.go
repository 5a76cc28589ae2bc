package dtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		tag  string
		want DType
	}{
		{"<f2", LittleEndianFloat16},
		{"<f4", LittleEndianFloat32},
		{"<f8", LittleEndianFloat64},
		{">f4", BigEndianFloat32},
		{"f4", LittleEndianFloat32},
		{"=f8", LittleEndianFloat64},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := Parse(tt.tag)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, tag := range []string{"", "<", "<f3", "i4", "f16"} {
		_, err := Parse(tag)
		require.Error(t, err, "tag %q", tag)
	}
}

func TestString_RoundTrip(t *testing.T) {
	for _, dt := range []DType{
		LittleEndianFloat16, LittleEndianFloat32, LittleEndianFloat64,
		BigEndianFloat16, BigEndianFloat32, BigEndianFloat64,
	} {
		parsed, err := Parse(dt.String())
		require.NoError(t, err)
		require.Equal(t, dt, parsed)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	vec := []float64{1, -2.5, 0, 0.25, 1024}

	for _, dt := range []DType{
		LittleEndianFloat16, LittleEndianFloat32, LittleEndianFloat64,
		BigEndianFloat16, BigEndianFloat32, BigEndianFloat64,
	} {
		t.Run(dt.String(), func(t *testing.T) {
			raw := Encode(dt, vec)
			require.Len(t, raw, len(vec)*dt.Size())

			got, err := Decode(dt, raw, len(vec))
			require.NoError(t, err)
			// All test values are exactly representable in binary16,
			// so every type must round-trip exactly.
			require.Equal(t, vec, got)
		})
	}
}

func TestEncode_ByteLayout(t *testing.T) {
	// 1.0 in the three widths, both byte orders.
	cases := []struct {
		dt   DType
		want []byte
	}{
		{LittleEndianFloat16, []byte{0x00, 0x3C}},
		{BigEndianFloat16, []byte{0x3C, 0x00}},
		{LittleEndianFloat32, []byte{0x00, 0x00, 0x80, 0x3F}},
		{BigEndianFloat32, []byte{0x3F, 0x80, 0x00, 0x00}},
		{LittleEndianFloat64, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F}},
		{BigEndianFloat64, []byte{0x3F, 0xF0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tc := range cases {
		t.Run(tc.dt.String(), func(t *testing.T) {
			require.Equal(t, tc.want, Encode(tc.dt, []float64{1}))
		})
	}
}

func TestAppend_ExtendsBuffer(t *testing.T) {
	buf := []byte{0xAA}
	buf = Append(LittleEndianFloat16, buf, []float64{1})
	require.Equal(t, []byte{0xAA, 0x00, 0x3C}, buf)
}

func TestDecode_LengthMismatch(t *testing.T) {
	raw := Encode(LittleEndianFloat32, []float64{1, 2, 3})

	_, err := Decode(LittleEndianFloat32, raw[:len(raw)-1], 3)
	var mve *MalformedVectorError
	require.ErrorAs(t, err, &mve)
	require.Equal(t, 3, mve.Count)
	require.Equal(t, 11, mve.Bytes)
}

func TestDecode_Float64Precision(t *testing.T) {
	// A value that is not representable in float32.
	vec := []float64{1.0000000000000002}
	raw := Encode(LittleEndianFloat64, vec)
	got, err := Decode(LittleEndianFloat64, raw, 1)
	require.NoError(t, err)
	require.Equal(t, vec, got)
}

func TestConvert_Narrowing(t *testing.T) {
	in := []float64{1.0000000000000002, 0.1}

	f32 := Convert(in, LittleEndianFloat32)
	require.Equal(t, float64(float32(0.1)), f32[1])
	require.Equal(t, 1.0, f32[0]) // rounds to nearest float32

	f16vals := Convert(in, LittleEndianFloat16)
	require.InDelta(t, 0.1, f16vals[1], 1e-3)
	require.NotEqual(t, in[1], f16vals[1])

	// Widening is the identity.
	require.Equal(t, in, Convert(in, LittleEndianFloat64))
}
