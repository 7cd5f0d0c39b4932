/*
NAME
  camconf.go

DESCRIPTION
  camconf.go contains functions for encoding and decoding camera
  configuration files; a flat binary record format holding the values of
  camera features so that a camera's state can be saved and restored.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package camconf provides encoding and decoding of binary camera
// configuration files.
//
// A configuration file is a header followed by a flat list of feature
// records, all little-endian:
//
//	magic            uint32
//	descriptor count uint32 (always 0 in this environment)
//	feature count    uint32
//
// followed by feature count records of:
//
//	feature id      uint32
//	flags           uint32
//	parameter count uint32
//	parameters      [parameter count]float32
//
// Multi-valued features, e.g. one value per physical I/O line, are
// represented as repeated records with the same feature id. Writing all
// supported features and reading them back reproduces equivalent camera
// configuration state, modulo features excluded from persistence such as the
// volatile memory bank selector.
package camconf

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Magic identifies a camera configuration file.
const Magic = 0x464d4143

// Feature ids that receive special treatment during persistence.
const (
	// FeatureMemoryBank selects the camera's active memory bank. It is
	// volatile and never persisted; restoring it would switch banks as a
	// side effect of a configuration load.
	FeatureMemoryBank = 0x2000
)

// Record flags.
const (
	FlagPresence = 1 << iota // Feature is enabled.
	FlagManual               // Feature is manually controlled.
	FlagAuto                 // Feature is continuously adjusted by the camera.
	FlagOnePush              // Feature adjusts once then reverts to manual.
)

// Decode limits, to reject corrupt headers before allocating.
const (
	maxFeatures = 4096
	maxParams   = 4096
)

var (
	ErrBadMagic       = errors.New("bad magic number")
	ErrHasDescriptors = errors.New("descriptor count not zero")
	ErrNoParams       = errors.New("feature record has no parameters")
)

// Record is a single feature record; one feature id, its flags, and one or
// more parameter values. A feature spanning several physical lines appears
// as several records with the same id.
type Record struct {
	ID     uint32
	Flags  uint32
	Params []float32
}

// File is the decoded content of a camera configuration file.
type File struct {
	Records []Record
}

// Lookup returns all records carrying the given feature id, in file order.
func (f *File) Lookup(id uint32) []Record {
	var rs []Record
	for _, r := range f.Records {
		if r.ID == id {
			rs = append(rs, r)
		}
	}
	return rs
}

// StripVolatile returns a copy of the file with records excluded from
// persistence removed.
func (f *File) StripVolatile() *File {
	out := &File{}
	for _, r := range f.Records {
		if r.ID == FeatureMemoryBank {
			continue
		}
		out.Records = append(out.Records, r)
	}
	return out
}

// Encode writes the file to w. Records with no parameters are invalid; the
// format stores the first parameter inside the fixed record header.
func Encode(w io.Writer, f *File) error {
	for _, r := range f.Records {
		if len(r.Params) == 0 {
			return errors.Wrapf(ErrNoParams, "feature 0x%x", r.ID)
		}
	}

	hdr := [3]uint32{Magic, 0, uint32(len(f.Records))}
	err := binary.Write(w, binary.LittleEndian, hdr[:])
	if err != nil {
		return errors.Wrap(err, "could not write header")
	}

	for _, r := range f.Records {
		rec := [3]uint32{r.ID, r.Flags, uint32(len(r.Params))}
		err = binary.Write(w, binary.LittleEndian, rec[:])
		if err != nil {
			return errors.Wrapf(err, "could not write record for feature 0x%x", r.ID)
		}
		err = binary.Write(w, binary.LittleEndian, r.Params)
		if err != nil {
			return errors.Wrapf(err, "could not write params for feature 0x%x", r.ID)
		}
	}
	return nil
}

// Decode reads a configuration file from r. A file with a bad magic number,
// a nonzero descriptor count or an implausible record count is rejected.
func Decode(r io.Reader) (*File, error) {
	var hdr [3]uint32
	err := binary.Read(r, binary.LittleEndian, hdr[:])
	if err != nil {
		return nil, errors.Wrap(err, "could not read header")
	}

	if hdr[0] != Magic {
		return nil, ErrBadMagic
	}
	if hdr[1] != 0 {
		return nil, ErrHasDescriptors
	}
	n := hdr[2]
	if n > maxFeatures {
		return nil, errors.Errorf("implausible feature count: %d", n)
	}

	f := &File{}
	for i := uint32(0); i < n; i++ {
		var rec [3]uint32
		err = binary.Read(r, binary.LittleEndian, rec[:])
		if err != nil {
			return nil, errors.Wrapf(err, "could not read record %d", i)
		}
		np := rec[2]
		if np == 0 {
			return nil, errors.Wrapf(ErrNoParams, "record %d, feature 0x%x", i, rec[0])
		}
		if np > maxParams {
			return nil, errors.Errorf("implausible parameter count in record %d: %d", i, np)
		}
		params := make([]float32, np)
		err = binary.Read(r, binary.LittleEndian, params)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read params of record %d", i)
		}
		f.Records = append(f.Records, Record{ID: rec[0], Flags: rec[1], Params: params})
	}
	return f, nil
}
