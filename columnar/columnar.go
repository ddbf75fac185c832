// Package columnar implements the self-delimiting column encodings used by
// both the change format and the document format (spec §4.1): RLE, Delta,
// Group, and Raw. A stream is a sequence of (column_id, length, bytes)
// chunks written in ascending column_id order so that equal logical content
// always produces identical bytes — required because changes are hashed.
package columnar

import (
	"bytes"
	"errors"
	"io"
	"sort"

	mvarint "github.com/multiformats/go-varint"
)

// ErrMalformedColumn is returned on truncated input, a negative run length,
// or an out-of-range varint while decoding a column (spec §4.1).
var ErrMalformedColumn = errors.New("columnar: malformed column")

// ColumnID names one column within a row block. Columns are written to the
// wire in ascending ColumnID order.
type ColumnID uint64

// putVarint appends v to buf as an unsigned LEB128 varint.
func putVarint(buf *bytes.Buffer, v uint64) {
	tmp := mvarint.ToUvarint(v)
	buf.Write(tmp)
}

// getVarint reads one LEB128 varint from r. Returns ErrMalformedColumn on
// truncation or an over-long encoding.
func getVarint(r io.ByteReader) (uint64, error) {
	v, err := mvarint.ReadUvarint(r)
	if err != nil {
		return 0, ErrMalformedColumn
	}
	return v, nil
}

// zigzag maps a signed integer to an unsigned one so that small-magnitude
// values (the common case for deltas) stay small after varint encoding.
func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// Writer accumulates named column buffers and serializes them in canonical
// (ascending ColumnID) order.
type Writer struct {
	cols map[ColumnID]*bytes.Buffer
}

// NewWriter creates an empty column writer.
func NewWriter() *Writer {
	return &Writer{cols: make(map[ColumnID]*bytes.Buffer)}
}

func (w *Writer) buf(id ColumnID) *bytes.Buffer {
	b, ok := w.cols[id]
	if !ok {
		b = &bytes.Buffer{}
		w.cols[id] = b
	}
	return b
}

// RawBytes appends a length-prefixed, uninterpreted byte string to column id
// (used for hashes, actor bytes, and scalar values, spec §4.1 "Raw").
func (w *Writer) RawBytes(id ColumnID, b []byte) {
	buf := w.buf(id)
	putVarint(buf, uint64(len(b)))
	buf.Write(b)
}

// RLEUintColumn builds an RLE<uint64> column one item at a time, coalescing
// a repeated value into the previous run (spec §4.1 "RLE<T>").
type RLEUintColumn struct {
	buf      bytes.Buffer
	haveRun  bool
	runVal   uint64
	runLen   uint64
}

// NewRLEUintColumn starts a fresh RLE<uint64> column builder.
func NewRLEUintColumn() *RLEUintColumn { return &RLEUintColumn{} }

// Append adds one logical value to the run-length stream.
func (c *RLEUintColumn) Append(v uint64) {
	if c.haveRun && v == c.runVal {
		c.runLen++
		return
	}
	c.flush()
	c.haveRun = true
	c.runVal = v
	c.runLen = 1
}

func (c *RLEUintColumn) flush() {
	if !c.haveRun {
		return
	}
	putVarint(&c.buf, c.runLen)
	putVarint(&c.buf, c.runVal)
	c.haveRun = false
}

// Bytes finalizes and returns the encoded column body.
func (c *RLEUintColumn) Bytes() []byte {
	c.flush()
	return c.buf.Bytes()
}

// DecodeRLEUint decodes an RLE<uint64> column body into n logical values.
func DecodeRLEUint(body []byte, n int) ([]uint64, error) {
	r := bytes.NewReader(body)
	out := make([]uint64, 0, n)
	for len(out) < n {
		runLen, err := getVarint(r)
		if err != nil {
			return nil, ErrMalformedColumn
		}
		if runLen == 0 {
			return nil, ErrMalformedColumn
		}
		val, err := getVarint(r)
		if err != nil {
			return nil, ErrMalformedColumn
		}
		for i := uint64(0); i < runLen; i++ {
			out = append(out, val)
		}
	}
	if len(out) != n {
		return nil, ErrMalformedColumn
	}
	return out, nil
}

// RLEBoolColumn run-length encodes a boolean column: alternating run lengths
// starting from an implicit "false" run (possibly zero-length).
type RLEBoolColumn struct {
	buf     bytes.Buffer
	cur     bool
	runLen  uint64
	started bool
}

// NewRLEBoolColumn starts a fresh boolean RLE column builder.
func NewRLEBoolColumn() *RLEBoolColumn { return &RLEBoolColumn{} }

// Append adds one boolean value.
func (c *RLEBoolColumn) Append(v bool) {
	if !c.started {
		c.started = true
		c.cur = false
		c.runLen = 0
	}
	if v == c.cur {
		c.runLen++
		return
	}
	putVarint(&c.buf, c.runLen)
	c.cur = v
	c.runLen = 1
}

// Bytes finalizes and returns the encoded column body.
func (c *RLEBoolColumn) Bytes() []byte {
	if c.started {
		putVarint(&c.buf, c.runLen)
	}
	return c.buf.Bytes()
}

// DecodeRLEBool decodes a boolean RLE column body into n logical values.
func DecodeRLEBool(body []byte, n int) ([]bool, error) {
	r := bytes.NewReader(body)
	out := make([]bool, 0, n)
	cur := false
	for len(out) < n {
		runLen, err := getVarint(r)
		if err != nil {
			return nil, ErrMalformedColumn
		}
		for i := uint64(0); i < runLen; i++ {
			out = append(out, cur)
		}
		cur = !cur
	}
	if len(out) != n {
		return nil, ErrMalformedColumn
	}
	return out, nil
}

// DeltaColumn encodes a monotone-ish integer stream as zigzag-varint deltas
// from the previous value (spec §4.1 "Delta"), used for sequence numbers and
// OpId counters.
type DeltaColumn struct {
	buf  bytes.Buffer
	prev int64
}

// NewDeltaColumn starts a fresh delta column builder.
func NewDeltaColumn() *DeltaColumn { return &DeltaColumn{} }

// Append adds the next absolute value to the stream.
func (c *DeltaColumn) Append(v int64) {
	d := v - c.prev
	putVarint(&c.buf, zigzagEncode(d))
	c.prev = v
}

// Bytes returns the encoded column body.
func (c *DeltaColumn) Bytes() []byte { return c.buf.Bytes() }

// DecodeDelta decodes a delta column body into n absolute values.
func DecodeDelta(body []byte, n int) ([]int64, error) {
	r := bytes.NewReader(body)
	out := make([]int64, 0, n)
	var prev int64
	for len(out) < n {
		zz, err := getVarint(r)
		if err != nil {
			return nil, ErrMalformedColumn
		}
		prev += zigzagDecode(zz)
		out = append(out, prev)
	}
	return out, nil
}

// WriteGroup encodes a variable-size group: a length-prefixed count of
// children followed by the caller-supplied nested column bytes for exactly
// that many children (spec §4.1 "Group"), used for an op's predecessor set.
func WriteGroup(buf *bytes.Buffer, childCount int, nested []byte) {
	putVarint(buf, uint64(childCount))
	putVarint(buf, uint64(len(nested)))
	buf.Write(nested)
}

// ReadGroup reads one group's child count and nested bytes.
func ReadGroup(r *bytes.Reader) (count int, nested []byte, err error) {
	c, err := getVarint(r)
	if err != nil {
		return 0, nil, ErrMalformedColumn
	}
	length, err := getVarint(r)
	if err != nil {
		return 0, nil, ErrMalformedColumn
	}
	if int64(length) > int64(r.Len()) {
		return 0, nil, ErrMalformedColumn
	}
	nested = make([]byte, length)
	if _, err := io.ReadFull(r, nested); err != nil {
		return 0, nil, ErrMalformedColumn
	}
	return int(c), nested, nil
}

// DecodeRawSeq splits a Raw column's body (as written by repeated RawBytes
// calls) back into its n length-prefixed entries.
func DecodeRawSeq(body []byte, n int) ([][]byte, error) {
	r := bytes.NewReader(body)
	out := make([][]byte, 0, n)
	for len(out) < n {
		length, err := getVarint(r)
		if err != nil {
			return nil, ErrMalformedColumn
		}
		if int64(length) > int64(r.Len()) {
			return nil, ErrMalformedColumn
		}
		entry := make([]byte, length)
		if _, err := io.ReadFull(r, entry); err != nil {
			return nil, ErrMalformedColumn
		}
		out = append(out, entry)
	}
	if len(out) != n {
		return nil, ErrMalformedColumn
	}
	return out, nil
}

// Put finalizes column id's body into the writer under the given id. Callers
// build up body bytes with the helpers above, then hand them to Put.
func (w *Writer) Put(id ColumnID, body []byte) {
	buf := w.buf(id)
	buf.Reset()
	buf.Write(body)
}

// Finish serializes all columns as (column_id varint, length varint, bytes)
// chunks in ascending ColumnID order (spec §4.1: "fixed canonical order").
func (w *Writer) Finish() []byte {
	ids := make([]ColumnID, 0, len(w.cols))
	for id := range w.cols {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out bytes.Buffer
	for _, id := range ids {
		body := w.cols[id].Bytes()
		putVarint(&out, uint64(id))
		putVarint(&out, uint64(len(body)))
		out.Write(body)
	}
	return out.Bytes()
}

// Reader parses a canonical column stream into a map from ColumnID to body
// bytes, preserving unknown columns verbatim for forward compatibility
// (spec §4.1, §6.1).
type Reader struct {
	Columns map[ColumnID][]byte
	// Order records the ids in on-wire order, needed to re-emit unknown
	// trailing columns verbatim on re-save.
	Order []ColumnID
}

// ParseStream decodes a canonical column stream.
func ParseStream(data []byte) (*Reader, error) {
	r := bytes.NewReader(data)
	out := &Reader{Columns: make(map[ColumnID][]byte)}
	var lastID int64 = -1
	for r.Len() > 0 {
		idv, err := getVarint(r)
		if err != nil {
			return nil, ErrMalformedColumn
		}
		id := ColumnID(idv)
		if int64(id) < lastID {
			return nil, ErrMalformedColumn // not in canonical ascending order
		}
		lastID = int64(id)
		length, err := getVarint(r)
		if err != nil {
			return nil, ErrMalformedColumn
		}
		if int64(length) > int64(r.Len()) {
			return nil, ErrMalformedColumn
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, ErrMalformedColumn
		}
		out.Columns[id] = body
		out.Order = append(out.Order, id)
	}
	return out, nil
}
