/*
DESCRIPTION
  camconf_test.go tests encoding and decoding of camera configuration
  files.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package camconf

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// testFile holds a representative configuration; a single valued feature, a
// multi parameter feature, a feature repeated per physical line, and the
// volatile memory bank selector.
var testFile = &File{
	Records: []Record{
		{ID: 0x08, Flags: FlagPresence | FlagManual, Params: []float32{12.5}},
		{ID: 0x0e, Flags: FlagPresence | FlagAuto, Params: []float32{0, 128, 2048, 1536}},
		{ID: 0x20, Flags: FlagPresence, Params: []float32{1, 0}},
		{ID: 0x20, Flags: FlagPresence, Params: []float32{2, 1}},
		{ID: FeatureMemoryBank, Flags: FlagPresence | FlagManual, Params: []float32{1}},
	},
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, testFile)
	if err != nil {
		t.Fatalf("unexpected error from Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("unexpected error from Decode: %v", err)
	}

	if diff := cmp.Diff(testFile, got); diff != "" {
		t.Errorf("round trip did not reproduce file (-want +got):\n%s", diff)
	}
}

func TestStripVolatile(t *testing.T) {
	stripped := testFile.StripVolatile()
	if len(stripped.Records) != len(testFile.Records)-1 {
		t.Fatalf("expected %d records after strip, got %d", len(testFile.Records)-1, len(stripped.Records))
	}
	if got := stripped.Lookup(FeatureMemoryBank); got != nil {
		t.Errorf("memory bank record survived strip: %v", got)
	}

	// A stripped file must still round trip.
	var buf bytes.Buffer
	err := Encode(&buf, stripped)
	if err != nil {
		t.Fatalf("unexpected error from Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("unexpected error from Decode: %v", err)
	}
	if diff := cmp.Diff(stripped, got); diff != "" {
		t.Errorf("round trip did not reproduce stripped file (-want +got):\n%s", diff)
	}
}

func TestLookupMultiValued(t *testing.T) {
	got := testFile.Lookup(0x20)
	want := []Record{
		{ID: 0x20, Flags: FlagPresence, Params: []float32{1, 0}},
		{ID: 0x20, Flags: FlagPresence, Params: []float32{2, 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected multi-valued lookup (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "bad magic",
			data: []byte{
				0xde, 0xad, 0xbe, 0xef,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
			want: ErrBadMagic,
		},
		{
			name: "descriptors present",
			data: []byte{
				0x43, 0x41, 0x4d, 0x46,
				0x01, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
			want: ErrHasDescriptors,
		},
		{
			name: "zero params",
			data: []byte{
				0x43, 0x41, 0x4d, 0x46,
				0x00, 0x00, 0x00, 0x00,
				0x01, 0x00, 0x00, 0x00,
				0x08, 0x00, 0x00, 0x00,
				0x01, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
			want: ErrNoParams,
		},
	}

	for _, test := range tests {
		_, err := Decode(bytes.NewReader(test.data))
		if errors.Cause(err) != test.want {
			t.Errorf("%s: expected error %v, got %v", test.name, test.want, err)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, testFile)
	if err != nil {
		t.Fatalf("unexpected error from Encode: %v", err)
	}
	data := buf.Bytes()

	// Every shorter prefix of a valid file must fail, not hang or succeed.
	for n := 0; n < len(data); n++ {
		_, err := Decode(bytes.NewReader(data[:n]))
		if err == nil {
			t.Errorf("expected error decoding %d byte prefix", n)
		}
	}
}
