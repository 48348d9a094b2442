package codec

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	n uint64
}

func (n nested) Marshal() ([]byte, error) {
	return NewEncoder().Uvarint(1, n.n).Result(), nil
}

func TestEncodeDecode(t *testing.T) {
	e := NewEncoder().
		Uvarint(1, 300).
		String(2, "vault").
		Bool(3, true).
		RepeatedBytes(4, [][]byte{[]byte("a"), nil, []byte("c")})
	require.NoError(t, e.Message(5, nested{n: 7}))
	raw := e.Result()

	var (
		num     uint64
		name    string
		flag    bool
		list    [][]byte
		inner   []byte
		visited []int
	)
	d := NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Next()
		require.NoError(t, err)
		visited = append(visited, field)
		switch field {
		case 1:
			require.NoError(t, Expect(field, wire, proto.WireVarint))
			num, err = d.Uvarint()
		case 2:
			name, err = d.String()
		case 3:
			flag, err = d.Bool()
		case 4:
			var b []byte
			b, err = d.Bytes()
			list = append(list, b)
		case 5:
			inner, err = d.Bytes()
		}
		require.NoError(t, err)
	}

	assert.Equal(t, uint64(300), num)
	assert.Equal(t, "vault", name)
	assert.True(t, flag)
	assert.Equal(t, [][]byte{[]byte("a"), {}, []byte("c")}, list)
	assert.Equal(t, []int{1, 2, 3, 4, 4, 4, 5}, visited)

	want, _ := nested{n: 7}.Marshal()
	assert.Equal(t, want, inner)
}

func TestZeroValuesAreOmitted(t *testing.T) {
	raw := NewEncoder().Uvarint(1, 0).String(2, "").Bool(3, false).Bytes(4, nil).Result()
	assert.Empty(t, raw)
}

func TestOptionalBool(t *testing.T) {
	yes, no := true, false
	assert.Empty(t, NewEncoder().OptionalBool(1, nil).Result())
	assert.Equal(t, []byte{0x08, 0x00}, NewEncoder().OptionalBool(1, &no).Result())
	assert.Equal(t, []byte{0x08, 0x01}, NewEncoder().OptionalBool(1, &yes).Result())
}

func TestEmptyBytes(t *testing.T) {
	// A single empty value is dropped, empty list elements are kept.
	assert.Empty(t, NewEncoder().Bytes(1, []byte{}).Result())
	assert.Empty(t, NewEncoder().RepeatedBytes(1, nil).Result())
	assert.Equal(t, []byte{0x0a, 0x00}, NewEncoder().RepeatedBytes(1, [][]byte{{}}).Result())
}

func TestSkipUnknown(t *testing.T) {
	raw := NewEncoder().Uvarint(9, 1).Bytes(10, []byte("xyz")).Uvarint(1, 5).Result()
	d := NewDecoder(raw)
	var got uint64
	for d.More() {
		field, wire, err := d.Next()
		require.NoError(t, err)
		if field == 1 {
			got, err = d.Uvarint()
		} else {
			err = d.Skip(wire)
		}
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(5), got)
}

func TestMalformed(t *testing.T) {
	cases := map[string][]byte{
		"truncated varint":    {0x08, 0x80},
		"length past the end": {0x12, 0x05, 'a'},
		"field zero":          {0x00, 0x01},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			d := NewDecoder(raw)
			var err error
			for d.More() && err == nil {
				var wire int
				_, wire, err = d.Next()
				if err == nil {
					err = d.Skip(wire)
				}
			}
			if !errors.ErrInput.Is(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
