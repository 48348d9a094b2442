/*
Package codec reads and writes the protobuf wire format used for every
message, transaction and model that is not stored with a fixed byte layout.

Fields are written in increasing field number order and zero values are
omitted, which keeps the encoding deterministic and compatible with any
protobuf decoder given the matching schema.
*/
package codec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/errors"
)

// Marshaller is implemented by anything that can be nested as a message
// field.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Encoder builds a protobuf encoded message field by field.
type Encoder struct {
	buf *proto.Buffer
}

// NewEncoder returns an encoder with an empty buffer.
func NewEncoder() *Encoder {
	return &Encoder{buf: proto.NewBuffer(nil)}
}

func (e *Encoder) key(field int, wire int) {
	// Buffer.EncodeVarint never fails.
	_ = e.buf.EncodeVarint(uint64(field)<<3 | uint64(wire))
}

// Uvarint writes an unsigned integer field. Zero is omitted.
func (e *Encoder) Uvarint(field int, v uint64) *Encoder {
	if v == 0 {
		return e
	}
	e.key(field, proto.WireVarint)
	_ = e.buf.EncodeVarint(v)
	return e
}

// Varint writes a signed integer field using the two's complement form of
// int64. Zero is omitted.
func (e *Encoder) Varint(field int, v int64) *Encoder {
	return e.Uvarint(field, uint64(v))
}

// Bool writes a boolean field. False is omitted.
func (e *Encoder) Bool(field int, v bool) *Encoder {
	if !v {
		return e
	}
	return e.Uvarint(field, 1)
}

// OptionalBool writes a boolean field when v is set, false included. A nil
// v is omitted, which lets a decoder tell an unset field from false.
func (e *Encoder) OptionalBool(field int, v *bool) *Encoder {
	if v == nil {
		return e
	}
	e.key(field, proto.WireVarint)
	if *v {
		_ = e.buf.EncodeVarint(1)
	} else {
		_ = e.buf.EncodeVarint(0)
	}
	return e
}

// Bytes writes a length delimited field. Empty values are omitted, so a
// decoder reads an empty value back as nil. Use RepeatedBytes when empty
// elements must survive.
func (e *Encoder) Bytes(field int, b []byte) *Encoder {
	if len(b) == 0 {
		return e
	}
	e.key(field, proto.WireBytes)
	_ = e.buf.EncodeRawBytes(b)
	return e
}

// RepeatedBytes writes every element as its own field. Unlike Bytes, empty
// elements are written too, so positions are preserved and an empty element
// decodes as an empty, non nil slice. A nil or empty list writes nothing.
func (e *Encoder) RepeatedBytes(field int, list [][]byte) *Encoder {
	for _, b := range list {
		e.key(field, proto.WireBytes)
		_ = e.buf.EncodeRawBytes(b)
	}
	return e
}

// String writes a string field. Empty values are omitted.
func (e *Encoder) String(field int, s string) *Encoder {
	return e.Bytes(field, []byte(s))
}

// Message writes a nested message. A nil marshaller is omitted.
func (e *Encoder) Message(field int, m Marshaller) error {
	if m == nil {
		return nil
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(err, "field %d", field)
	}
	e.key(field, proto.WireBytes)
	_ = e.buf.EncodeRawBytes(raw)
	return nil
}

// Result returns the encoded message.
func (e *Encoder) Result() []byte {
	return e.buf.Bytes()
}

// Decoder walks over the fields of a protobuf encoded message.
//
//	d := codec.NewDecoder(raw)
//	for d.More() {
//	    field, wire, err := d.Next()
//	    ...
//	    switch field {
//	    case 1:
//	        v, err := d.Uvarint()
//	    default:
//	        err = d.Skip(wire)
//	    }
//	}
type Decoder struct {
	buf []byte
	idx int
}

// NewDecoder returns a decoder reading given message.
func NewDecoder(raw []byte) *Decoder {
	return &Decoder{buf: raw}
}

// More returns true if there are unread fields.
func (d *Decoder) More() bool {
	return d.idx < len(d.buf)
}

// Next reads the key of the next field.
func (d *Decoder) Next() (field int, wire int, err error) {
	key, err := d.Uvarint()
	if err != nil {
		return 0, 0, errors.Wrap(err, "field key")
	}
	field = int(key >> 3)
	wire = int(key & 0x7)
	if field <= 0 {
		return 0, 0, errors.Wrapf(errors.ErrInput, "illegal field number %d", field)
	}
	return field, wire, nil
}

// Uvarint reads a varint value.
func (d *Decoder) Uvarint() (uint64, error) {
	v, n := proto.DecodeVarint(d.buf[d.idx:])
	if n == 0 {
		return 0, errors.Wrap(errors.ErrInput, "malformed varint")
	}
	d.idx += n
	return v, nil
}

// Varint reads a varint value as int64.
func (d *Decoder) Varint() (int64, error) {
	v, err := d.Uvarint()
	return int64(v), err
}

// Bool reads a varint value as boolean.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uvarint()
	return v != 0, err
}

// Bytes reads a length delimited value. Returned slice is a copy.
func (d *Decoder) Bytes() ([]byte, error) {
	size, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	if size > uint64(len(d.buf)-d.idx) {
		return nil, errors.Wrap(errors.ErrInput, "length exceeds message")
	}
	end := d.idx + int(size)
	b := make([]byte, int(size))
	copy(b, d.buf[d.idx:end])
	d.idx = end
	return b, nil
}

// String reads a length delimited value as string.
func (d *Decoder) String() (string, error) {
	b, err := d.Bytes()
	return string(b), err
}

// Skip jumps over a value of given wire type.
func (d *Decoder) Skip(wire int) error {
	switch wire {
	case proto.WireVarint:
		_, err := d.Uvarint()
		return err
	case proto.WireBytes:
		_, err := d.Bytes()
		return err
	case proto.WireFixed64:
		return d.advance(8)
	case proto.WireFixed32:
		return d.advance(4)
	default:
		return errors.Wrapf(errors.ErrInput, "unsupported wire type %d", wire)
	}
}

func (d *Decoder) advance(n int) error {
	if len(d.buf)-d.idx < n {
		return errors.Wrap(errors.ErrInput, "unexpected end of message")
	}
	d.idx += n
	return nil
}

// Expect returns an error if the wire type of a known field does not match.
func Expect(field, got, want int) error {
	if got != want {
		return errors.Wrapf(errors.ErrInput, "field %d: wire type %d, want %d", field, got, want)
	}
	return nil
}
