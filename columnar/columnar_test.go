package columnar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRLEUintRoundTrip(t *testing.T) {
	c := NewRLEUintColumn()
	in := []uint64{1, 1, 1, 2, 2, 3, 3, 3, 3}
	for _, v := range in {
		c.Append(v)
	}
	out, err := DecodeRLEUint(c.Bytes(), len(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestRLEBoolRoundTrip(t *testing.T) {
	c := NewRLEBoolColumn()
	in := []bool{false, false, true, true, true, false}
	for _, v := range in {
		c.Append(v)
	}
	out, err := DecodeRLEBool(c.Bytes(), len(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDeltaRoundTrip(t *testing.T) {
	c := NewDeltaColumn()
	in := []int64{5, 5, 6, 10, 3, 3}
	for _, v := range in {
		c.Append(v)
	}
	out, err := DecodeDelta(c.Bytes(), len(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestWriterCanonicalOrder(t *testing.T) {
	w := NewWriter()
	w.RawBytes(5, []byte("five"))
	w.RawBytes(1, []byte("one"))
	data := w.Finish()

	r, err := ParseStream(data)
	require.NoError(t, err)
	require.Equal(t, []ColumnID{1, 5}, r.Order)
	require.Equal(t, []byte("one"), r.Columns[1][1:])
	require.Equal(t, []byte("five"), r.Columns[5][1:])
}

func TestParseStreamMalformed(t *testing.T) {
	_, err := ParseStream([]byte{0xFF}) // truncated varint continuation
	require.ErrorIs(t, err, ErrMalformedColumn)
}

func TestDecodeRLEUintTruncated(t *testing.T) {
	_, err := DecodeRLEUint([]byte{}, 3)
	require.ErrorIs(t, err, ErrMalformedColumn)
}
