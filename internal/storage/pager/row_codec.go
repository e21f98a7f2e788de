package pager

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ───────────────────────────────────────────────────────────────────────────
// Row codec — tagged binary encoding
// ───────────────────────────────────────────────────────────────────────────
//
// Records are schemaless: an ordered sequence of (field name, value) pairs.
// The wire format per record is:
//
//	for each field, in insertion order:
//	  [0]     name length  (uint8)
//	  [1..]   name bytes   (UTF-8)
//	  [N]     type tag     (uint8)
//	  [N+1..] type-specific payload
//
// Type tags:
//
//	0x00 null        (no payload)
//	0x01 bool         1 byte, 0/1
//	0x02 int64        8 bytes LE
//	0x03 float64      8 bytes LE (IEEE-754 bit pattern)
//	0x04 string       uint16 LE length + UTF-8 bytes
//	0x05 timestamp    uint16 LE length + ISO-8601 string bytes
//
// Fields are named rather than positional, so two records in the same
// table can carry different columns.

const (
	tagNull      byte = 0x00
	tagBool      byte = 0x01
	tagInt64     byte = 0x02
	tagFloat64   byte = 0x03
	tagString    byte = 0x04
	tagTimestamp byte = 0x05
)

// ValueKind identifies which alternative of Value is populated.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindTimestamp
)

// Value is the tagged-variant type every record field holds.
type Value struct {
	Kind ValueKind
	B    bool
	I    int64
	F    float64
	S    string // used for both KindString and KindTimestamp
}

func NullValue() Value             { return Value{Kind: KindNull} }
func BoolValue(b bool) Value       { return Value{Kind: KindBool, B: b} }
func IntValue(i int64) Value       { return Value{Kind: KindInt64, I: i} }
func FloatValue(f float64) Value   { return Value{Kind: KindFloat64, F: f} }
func StringValue(s string) Value   { return Value{Kind: KindString, S: s} }
func TimestampValue(s string) Value { return Value{Kind: KindTimestamp, S: s} }

// Equal reports whether two values are equal by kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.B == o.B
	case KindInt64:
		return v.I == o.I
	case KindFloat64:
		return v.F == o.F
	case KindString, KindTimestamp:
		return v.S == o.S
	}
	return false
}

// Field is one (name, value) pair within a Record, in the order the field
// was first set.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered sequence of named, dynamically-typed fields.
type Record struct {
	Fields []Field
}

// NewRecord builds a Record from field/value pairs, preserving call order.
func NewRecord(pairs ...Field) *Record {
	return &Record{Fields: append([]Field(nil), pairs...)}
}

// Get returns the value of the named field and whether it is present.
func (r *Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set assigns a field, appending it if new or overwriting its value (and
// keeping its original position) if it already exists.
func (r *Record) Set(name string, v Value) {
	for i, f := range r.Fields {
		if f.Name == name {
			r.Fields[i].Value = v
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: v})
}

// Clone returns a deep copy safe to mutate independently of r.
func (r *Record) Clone() *Record {
	out := &Record{Fields: make([]Field, len(r.Fields))}
	copy(out.Fields, r.Fields)
	return out
}

// EqualByValue reports key/value equality, ignoring field order — the
// round-trip invariant a marshal/unmarshal pair must preserve.
func (r *Record) EqualByValue(o *Record) bool {
	if len(r.Fields) != len(o.Fields) {
		return false
	}
	for _, f := range r.Fields {
		ov, ok := o.Get(f.Name)
		if !ok || !f.Value.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalRecord encodes a record into the tagged-binary wire format.
func MarshalRecord(r *Record) ([]byte, error) {
	buf := make([]byte, 0, 16*len(r.Fields))
	for _, f := range r.Fields {
		if len(f.Name) > 255 {
			return nil, fmt.Errorf("pager: field name %q exceeds 255 bytes", f.Name)
		}
		buf = append(buf, byte(len(f.Name)))
		buf = append(buf, f.Name...)

		switch f.Value.Kind {
		case KindNull:
			buf = append(buf, tagNull)
		case KindBool:
			buf = append(buf, tagBool)
			if f.Value.B {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case KindInt64:
			buf = append(buf, tagInt64)
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(f.Value.I))
			buf = append(buf, b[:]...)
		case KindFloat64:
			buf = append(buf, tagFloat64)
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(f.Value.F))
			buf = append(buf, b[:]...)
		case KindString:
			buf = append(buf, tagString)
			buf = appendLenPrefixed(buf, f.Value.S)
		case KindTimestamp:
			buf = append(buf, tagTimestamp)
			buf = appendLenPrefixed(buf, f.Value.S)
		default:
			return nil, fmt.Errorf("pager: unknown value kind %d for field %q", f.Value.Kind, f.Name)
		}
	}
	return buf, nil
}

func appendLenPrefixed(buf []byte, s string) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(s)))
	buf = append(buf, b[:]...)
	return append(buf, s...)
}

// UnmarshalRecord decodes a record previously produced by MarshalRecord.
func UnmarshalRecord(data []byte) (*Record, error) {
	r := &Record{}
	off := 0
	for off < len(data) {
		if off+1 > len(data) {
			return nil, fmt.Errorf("pager: truncated record at field name length")
		}
		nameLen := int(data[off])
		off++
		if off+nameLen > len(data) {
			return nil, fmt.Errorf("pager: truncated record name")
		}
		name := string(data[off : off+nameLen])
		off += nameLen

		if off+1 > len(data) {
			return nil, fmt.Errorf("pager: truncated record at type tag for field %q", name)
		}
		tag := data[off]
		off++

		var v Value
		switch tag {
		case tagNull:
			v = NullValue()
		case tagBool:
			if off+1 > len(data) {
				return nil, fmt.Errorf("pager: truncated bool for field %q", name)
			}
			v = BoolValue(data[off] != 0)
			off++
		case tagInt64:
			if off+8 > len(data) {
				return nil, fmt.Errorf("pager: truncated int64 for field %q", name)
			}
			v = IntValue(int64(binary.LittleEndian.Uint64(data[off : off+8])))
			off += 8
		case tagFloat64:
			if off+8 > len(data) {
				return nil, fmt.Errorf("pager: truncated float64 for field %q", name)
			}
			v = FloatValue(math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8])))
			off += 8
		case tagString:
			s, n, err := readLenPrefixed(data, off)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			v = StringValue(s)
			off = n
		case tagTimestamp:
			s, n, err := readLenPrefixed(data, off)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			v = TimestampValue(s)
			off = n
		default:
			return nil, fmt.Errorf("pager: unknown type tag 0x%02x for field %q", tag, name)
		}
		r.Fields = append(r.Fields, Field{Name: name, Value: v})
	}
	return r, nil
}

func readLenPrefixed(data []byte, off int) (string, int, error) {
	if off+2 > len(data) {
		return "", 0, fmt.Errorf("truncated length prefix")
	}
	l := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	if off+l > len(data) {
		return "", 0, fmt.Errorf("truncated string data")
	}
	return string(data[off : off+l]), off + l, nil
}
