package bech32

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/iov-one/custody/errors"
)

func TestEncodeDecode(t *testing.T) {
	// bech32 -e -h tiov 746573742d7061796c6f6164
	const enc = `tiov1w3jhxapdwpshjmr0v9jqymqq4y`

	want, err := hex.DecodeString("746573742d7061796c6f6164")
	if err != nil {
		t.Fatal(err)
	}

	hrp, payload, err := Decode(enc)
	if err != nil {
		t.Fatal(err)
	}
	if hrp != "tiov" {
		t.Fatalf("unexpected hrp %q", hrp)
	}
	if !bytes.Equal(want, payload) {
		t.Fatalf("invalid decode: %X", payload)
	}

	raw, err := Encode(hrp, payload)
	if err != nil {
		t.Fatalf("cannot encode: %s", err)
	}
	if raw != enc {
		t.Fatalf("invalid encoding: %q", raw)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	addr := bytes.Repeat([]byte{0xAB}, 20)
	raw, err := Encode("vault", addr)
	if err != nil {
		t.Fatal(err)
	}
	_, got, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(addr, got) {
		t.Fatalf("want %X, got %X", addr, got)
	}
}

func TestDecodeInvalidChecksum(t *testing.T) {
	_, _, err := Decode("tiov1w3jhxapdwpshjmr0v9jqymqq4z")
	if !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %v", err)
	}
}
