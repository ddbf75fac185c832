package change

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"github.com/Polqt/crdtcore/columnar"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
)

// Magic identifies a change blob on the wire (spec §6.1).
var Magic = [4]byte{0x85, 0x6f, 0x4a, 0x83}

// Version is the current change format version byte.
const Version = 1

// ErrMalformedMessage covers header/magic/version problems that are not
// columnar decoding errors (spec §7).
var ErrMalformedMessage = errors.New("change: malformed change header")

// Column ids for the op block (spec §4.2 point 4). Order here is the
// canonical ascending order columnar.Writer will emit.
const (
	colObjIsRoot      columnar.ColumnID = 0
	colObjCounter     columnar.ColumnID = 1
	colObjActor       columnar.ColumnID = 2
	colKeyIsMap       columnar.ColumnID = 3
	colMapKey         columnar.ColumnID = 4
	colElemCounter    columnar.ColumnID = 5
	colElemActor      columnar.ColumnID = 6
	colInsert         columnar.ColumnID = 7
	colAction         columnar.ColumnID = 8
	colValType        columnar.ColumnID = 9
	colVal            columnar.ColumnID = 10
	colPred           columnar.ColumnID = 11
	colIncrement      columnar.ColumnID = 12
	colMarkName       columnar.ColumnID = 13
	colMarkValType    columnar.ColumnID = 14
	colMarkVal        columnar.ColumnID = 15
	colMarkExpand     columnar.ColumnID = 16
	colBlockProps     columnar.ColumnID = 17
	colMarkStartSide  columnar.ColumnID = 18
	colMarkEndCounter columnar.ColumnID = 19
	colMarkEndActor   columnar.ColumnID = 20
	colMarkEndSide    columnar.ColumnID = 21
)

// Encode serializes c into its canonical wire form and stamps c.Hash with
// the SHA-256 digest of everything after the hash field (spec §4.2).
func Encode(c *Change) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	header := encodeHeader(c)
	opBlock := encodeOpBlock(c.Ops, c.Extra)

	body := append(append([]byte{}, header...), opBlock...)
	sum := sha256.Sum256(body)
	c.Hash = sum

	var out bytes.Buffer
	out.Write(Magic[:])
	out.WriteByte(Version)
	out.Write(c.Hash[:])
	out.Write(body)
	return out.Bytes(), nil
}

func encodeHeader(c *Change) []byte {
	var buf bytes.Buffer
	writeVarint(&buf, uint64(len(c.Actor.Bytes())))
	buf.Write(c.Actor.Bytes())
	writeVarint(&buf, c.Seq)
	writeVarint(&buf, c.StartOp)
	writeVarintSigned(&buf, c.Time)
	msg := []byte(c.Message)
	writeVarint(&buf, uint64(len(msg)))
	buf.Write(msg)
	sorted := identity.SortHashes(c.Deps)
	writeVarint(&buf, uint64(len(sorted)))
	for _, h := range sorted {
		buf.Write(h[:])
	}
	return buf.Bytes()
}

func encodeOpBlock(ops []op.Op, extra map[uint64][]byte) []byte {
	w := columnar.NewWriter()

	objIsRoot := columnar.NewRLEBoolColumn()
	objCounter := columnar.NewDeltaColumn()
	keyIsMap := columnar.NewRLEBoolColumn()
	elemCounter := columnar.NewDeltaColumn()
	insertCol := columnar.NewRLEBoolColumn()
	action := columnar.NewRLEUintColumn()
	valType := columnar.NewRLEUintColumn()
	idCounterDelta := columnar.NewDeltaColumn()
	increment := columnar.NewDeltaColumn()
	markValType := columnar.NewRLEUintColumn()
	markExpand := columnar.NewRLEUintColumn()
	markStartSide := columnar.NewRLEUintColumn()
	markEndCounter := columnar.NewDeltaColumn()
	markEndSide := columnar.NewRLEUintColumn()

	for _, o := range ops {
		objIsRoot.Append(o.Obj.IsRoot())
		if o.Obj.IsRoot() {
			objCounter.Append(0)
			w.RawBytes(colObjActor, nil)
		} else {
			oid := o.Obj.OpId()
			objCounter.Append(int64(oid.Counter))
			w.RawBytes(colObjActor, oid.Actor.Bytes())
		}

		keyIsMap.Append(o.Locator.IsMapKey)
		if o.Locator.IsMapKey {
			w.RawBytes(colMapKey, []byte(o.Locator.Key))
			elemCounter.Append(0)
			w.RawBytes(colElemActor, nil)
		} else {
			w.RawBytes(colMapKey, nil)
			elemCounter.Append(int64(o.Locator.Elem.Counter))
			w.RawBytes(colElemActor, o.Locator.Elem.Actor.Bytes())
		}

		insertCol.Append(o.Insert)
		action.Append(uint64(o.Action))
		valType.Append(uint64(o.Value.Type))
		w.RawBytes(colVal, op.EncodeScalar(o.Value))

		idCounterDelta.Append(int64(o.ID.Counter))
		w.RawBytes(colMarkName, []byte(o.Mark.Name))

		w.RawBytes(colPred, encodePredList(o.Predecessors))

		increment.Append(o.Increment)

		markValType.Append(uint64(o.Mark.Value.Type))
		w.RawBytes(colMarkVal, op.EncodeScalar(o.Mark.Value))
		markExpand.Append(uint64(o.Mark.Expand))
		markStartSide.Append(uint64(o.Mark.StartSide))
		markEndCounter.Append(int64(o.Mark.End.Counter))
		w.RawBytes(colMarkEndActor, o.Mark.End.Actor.Bytes())
		markEndSide.Append(uint64(o.Mark.EndSide))

		w.RawBytes(colBlockProps, encodeBlockProps(o.BlockProps))
	}

	w.Put(colObjIsRoot, objIsRoot.Bytes())
	w.Put(colObjCounter, objCounter.Bytes())
	w.Put(colKeyIsMap, keyIsMap.Bytes())
	w.Put(colElemCounter, elemCounter.Bytes())
	w.Put(colInsert, insertCol.Bytes())
	w.Put(colAction, action.Bytes())
	w.Put(colValType, valType.Bytes())
	// Actor bytes for ops' own OpId are implicit (the change's Actor field);
	// only the counter varies row to row.
	w.Put(15000, idCounterDelta.Bytes()) // reserved: own-id counter deltas
	w.Put(colIncrement, increment.Bytes())
	w.Put(colMarkValType, markValType.Bytes())
	w.Put(colMarkExpand, markExpand.Bytes())
	w.Put(colMarkStartSide, markStartSide.Bytes())
	w.Put(colMarkEndCounter, markEndCounter.Bytes())
	w.Put(colMarkEndSide, markEndSide.Bytes())

	// Preserve any unknown columns verbatim (forward compatibility).
	for id, body := range extra {
		w.Put(columnar.ColumnID(id), body)
	}

	return w.Finish()
}

func encodePredList(preds []identity.OpId) []byte {
	var buf bytes.Buffer
	writeVarint(&buf, uint64(len(preds)))
	for _, p := range preds {
		writeVarint(&buf, p.Counter)
		ab := p.Actor.Bytes()
		writeVarint(&buf, uint64(len(ab)))
		buf.Write(ab)
	}
	return buf.Bytes()
}

func decodePredList(b []byte) ([]identity.OpId, error) {
	r := bytes.NewReader(b)
	n, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]identity.OpId, 0, n)
	for i := uint64(0); i < n; i++ {
		ctr, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		alen, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		ab := make([]byte, alen)
		if _, err := io.ReadFull(r, ab); err != nil {
			return nil, ErrMalformedMessage
		}
		actor, err := identity.NewActor(ab)
		if err != nil {
			return nil, err
		}
		out = append(out, identity.OpId{Counter: ctr, Actor: actor})
	}
	return out, nil
}

func encodeBlockProps(props map[string]op.Value) []byte {
	var buf bytes.Buffer
	writeVarint(&buf, uint64(len(props)))
	// deterministic order
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sortStrings(keys)
	for _, k := range keys {
		v := props[k]
		writeVarint(&buf, uint64(len(k)))
		buf.WriteString(k)
		writeVarint(&buf, uint64(v.Type))
		vb := op.EncodeScalar(v)
		writeVarint(&buf, uint64(len(vb)))
		buf.Write(vb)
	}
	return buf.Bytes()
}

func decodeBlockProps(b []byte) (map[string]op.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}
	r := bytes.NewReader(b)
	n, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]op.Value, n)
	for i := uint64(0); i < n; i++ {
		klen, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		kb := make([]byte, klen)
		if _, err := io.ReadFull(r, kb); err != nil {
			return nil, ErrMalformedMessage
		}
		vt, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		vlen, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		vb := make([]byte, vlen)
		if _, err := io.ReadFull(r, vb); err != nil {
			return nil, ErrMalformedMessage
		}
		val, err := op.DecodeScalar(op.ScalarType(vt), vb)
		if err != nil {
			return nil, err
		}
		out[string(kb)] = val
	}
	return out, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func writeVarint(buf *bytes.Buffer, v uint64) {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	buf.Write(tmp[:n])
}

func writeVarintSigned(buf *bytes.Buffer, v int64) {
	writeVarint(buf, uint64((v<<1)^(v>>63)))
}

func readVarintSigned(r *bytes.Reader) (int64, error) {
	zz, err := readVarint(r)
	if err != nil {
		return 0, err
	}
	return int64(zz>>1) ^ -int64(zz&1), nil
}

func readVarint(r *bytes.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, ErrMalformedMessage
	}
	return v, nil
}

// Decode parses a change blob, verifying the magic, version, and that the
// recomputed hash matches the embedded one (spec §4.2, §6.1).
func Decode(data []byte) (*Change, error) {
	if len(data) < 4+1+identity.HashSize {
		return nil, ErrMalformedMessage
	}
	if !bytes.Equal(data[0:4], Magic[:]) {
		return nil, ErrMalformedMessage
	}
	if data[4] != Version {
		return nil, ErrMalformedMessage
	}
	var wantHash identity.Hash
	copy(wantHash[:], data[5:5+identity.HashSize])
	body := data[5+identity.HashSize:]

	sum := sha256.Sum256(body)
	if sum != wantHash {
		return nil, ErrHashMismatch
	}

	r := bytes.NewReader(body)
	c := &Change{Hash: wantHash}

	actorLen, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	actorBytes := make([]byte, actorLen)
	if _, err := io.ReadFull(r, actorBytes); err != nil {
		return nil, ErrMalformedMessage
	}
	actor, err := identity.NewActor(actorBytes)
	if err != nil {
		return nil, err
	}
	c.Actor = actor

	if c.Seq, err = readVarint(r); err != nil {
		return nil, err
	}
	if c.StartOp, err = readVarint(r); err != nil {
		return nil, err
	}
	if c.Time, err = readVarintSigned(r); err != nil {
		return nil, err
	}
	msgLen, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	msgBytes := make([]byte, msgLen)
	if _, err := io.ReadFull(r, msgBytes); err != nil {
		return nil, ErrMalformedMessage
	}
	c.Message = string(msgBytes)

	depsCount, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	c.Deps = make([]identity.Hash, depsCount)
	for i := range c.Deps {
		if _, err := io.ReadFull(r, c.Deps[i][:]); err != nil {
			return nil, ErrMalformedMessage
		}
	}

	remaining := body[len(body)-r.Len():]
	ops, extra, err := decodeOpBlock(remaining, actor)
	if err != nil {
		return nil, err
	}
	c.Ops = ops
	c.Extra = extra

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var knownOpColumns = map[columnar.ColumnID]bool{
	colObjIsRoot: true, colObjCounter: true, colObjActor: true,
	colKeyIsMap: true, colMapKey: true, colElemCounter: true, colElemActor: true,
	colInsert: true, colAction: true, colValType: true, colVal: true,
	colPred: true, colIncrement: true, colMarkName: true, colMarkValType: true,
	colMarkVal: true, colMarkExpand: true, colBlockProps: true, 15000: true,
	colMarkStartSide: true, colMarkEndCounter: true, colMarkEndActor: true, colMarkEndSide: true,
}

func decodeOpBlock(data []byte, actor identity.Actor) ([]op.Op, map[uint64][]byte, error) {
	stream, err := columnar.ParseStream(data)
	if err != nil {
		return nil, nil, err
	}

	objIsRoot, err := columnar.DecodeRLEBool(stream.Columns[colObjIsRoot], countBool(stream.Columns[colObjIsRoot]))
	if err != nil {
		return nil, nil, err
	}
	n := len(objIsRoot)

	objCounter, err := columnar.DecodeDelta(stream.Columns[colObjCounter], n)
	if err != nil {
		return nil, nil, err
	}
	objActor, err := columnar.DecodeRawSeq(stream.Columns[colObjActor], n)
	if err != nil {
		return nil, nil, err
	}
	keyIsMap, err := columnar.DecodeRLEBool(stream.Columns[colKeyIsMap], n)
	if err != nil {
		return nil, nil, err
	}
	mapKey, err := columnar.DecodeRawSeq(stream.Columns[colMapKey], n)
	if err != nil {
		return nil, nil, err
	}
	elemCounter, err := columnar.DecodeDelta(stream.Columns[colElemCounter], n)
	if err != nil {
		return nil, nil, err
	}
	elemActor, err := columnar.DecodeRawSeq(stream.Columns[colElemActor], n)
	if err != nil {
		return nil, nil, err
	}
	insert, err := columnar.DecodeRLEBool(stream.Columns[colInsert], n)
	if err != nil {
		return nil, nil, err
	}
	action, err := columnar.DecodeRLEUint(stream.Columns[colAction], n)
	if err != nil {
		return nil, nil, err
	}
	valType, err := columnar.DecodeRLEUint(stream.Columns[colValType], n)
	if err != nil {
		return nil, nil, err
	}
	val, err := columnar.DecodeRawSeq(stream.Columns[colVal], n)
	if err != nil {
		return nil, nil, err
	}
	idCounterDelta, err := columnar.DecodeDelta(stream.Columns[15000], n)
	if err != nil {
		return nil, nil, err
	}
	markName, err := columnar.DecodeRawSeq(stream.Columns[colMarkName], n)
	if err != nil {
		return nil, nil, err
	}
	pred, err := columnar.DecodeRawSeq(stream.Columns[colPred], n)
	if err != nil {
		return nil, nil, err
	}
	increment, err := columnar.DecodeDelta(stream.Columns[colIncrement], n)
	if err != nil {
		return nil, nil, err
	}
	markValType, err := columnar.DecodeRLEUint(stream.Columns[colMarkValType], n)
	if err != nil {
		return nil, nil, err
	}
	markVal, err := columnar.DecodeRawSeq(stream.Columns[colMarkVal], n)
	if err != nil {
		return nil, nil, err
	}
	markExpand, err := columnar.DecodeRLEUint(stream.Columns[colMarkExpand], n)
	if err != nil {
		return nil, nil, err
	}
	blockProps, err := columnar.DecodeRawSeq(stream.Columns[colBlockProps], n)
	if err != nil {
		return nil, nil, err
	}
	markStartSide, err := columnar.DecodeRLEUint(stream.Columns[colMarkStartSide], n)
	if err != nil {
		return nil, nil, err
	}
	markEndCounter, err := columnar.DecodeDelta(stream.Columns[colMarkEndCounter], n)
	if err != nil {
		return nil, nil, err
	}
	markEndActor, err := columnar.DecodeRawSeq(stream.Columns[colMarkEndActor], n)
	if err != nil {
		return nil, nil, err
	}
	markEndSide, err := columnar.DecodeRLEUint(stream.Columns[colMarkEndSide], n)
	if err != nil {
		return nil, nil, err
	}

	ops := make([]op.Op, n)
	for i := 0; i < n; i++ {
		var o op.Op
		o.ID = identity.OpId{Counter: uint64(idCounterDelta[i]), Actor: actor}

		if objIsRoot[i] {
			o.Obj = identity.Root
		} else {
			oActor, err := identity.NewActor(objActor[i])
			if err != nil {
				return nil, nil, err
			}
			o.Obj = identity.NewObjId(identity.OpId{Counter: uint64(objCounter[i]), Actor: oActor})
		}

		if keyIsMap[i] {
			o.Locator = op.MapLocator(string(mapKey[i]))
		} else {
			eActor, err := identity.NewActor(elemActor[i])
			if err != nil && len(elemActor[i]) > 0 {
				return nil, nil, err
			}
			o.Locator = op.ElemLocator(identity.OpId{Counter: uint64(elemCounter[i]), Actor: eActor})
		}

		o.Insert = insert[i]
		o.Action = op.Action(action[i])
		v, err := op.DecodeScalar(op.ScalarType(valType[i]), val[i])
		if err != nil {
			return nil, nil, err
		}
		o.Value = v

		preds, err := decodePredList(pred[i])
		if err != nil {
			return nil, nil, err
		}
		o.Predecessors = preds

		o.Increment = increment[i]

		o.Mark.Name = string(markName[i])
		mv, err := op.DecodeScalar(op.ScalarType(markValType[i]), markVal[i])
		if err != nil {
			return nil, nil, err
		}
		o.Mark.Value = mv
		o.Mark.Expand = op.MarkExpand(markExpand[i])
		o.Mark.StartSide = op.CursorSide(markStartSide[i])
		o.Mark.EndSide = op.CursorSide(markEndSide[i])
		if len(markEndActor[i]) > 0 {
			endActor, err := identity.NewActor(markEndActor[i])
			if err != nil {
				return nil, nil, err
			}
			o.Mark.End = identity.OpId{Counter: uint64(markEndCounter[i]), Actor: endActor}
		}

		bp, err := decodeBlockProps(blockProps[i])
		if err != nil {
			return nil, nil, err
		}
		o.BlockProps = bp

		ops[i] = o
	}

	var extra map[uint64][]byte
	for _, id := range stream.Order {
		if !knownOpColumns[id] {
			if extra == nil {
				extra = make(map[uint64][]byte)
			}
			extra[uint64(id)] = stream.Columns[id]
		}
	}

	return ops, extra, nil
}

// countBool returns how many logical booleans an RLE-bool column body
// encodes, by summing its run lengths. Used only to discover n (the row
// count) from the first column decoded, since RLE bodies don't carry it.
func countBool(body []byte) int {
	r := bytes.NewReader(body)
	total := 0
	for r.Len() > 0 {
		runLen, err := binary.ReadUvarint(r)
		if err != nil {
			break
		}
		total += int(runLen)
	}
	return total
}
