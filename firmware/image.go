// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package firmware handles the firmware images that are copied into flash.
//
// An Image is a contiguous blob of bytes with the address it was linked for.
// Its first two words are the initial main stack pointer and the reset entry
// point (the Cortex-M vector table layout). Images can be read from raw
// binaries, Intel HEX files and ELF executables.
package firmware

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
	pkgerrors "github.com/pkg/errors"
)

// ErrNoVectors is returned by Vectors for images shorter than two words.
var ErrNoVectors = errors.New("image too short to hold the vector table")

// Image is a firmware image.
type Image struct {
	Base uint32 // address the image is linked for
	Data []byte
}

// New returns an image made of the given little-endian words.
func New(base uint32, words ...uint32) *Image {
	data := make([]byte, 0, 4*len(words))
	for _, w := range words {
		data = binary.LittleEndian.AppendUint32(data, w)
	}
	return &Image{Base: base, Data: data}
}

func (img *Image) Size() uint32 {
	return uint32(len(img.Data))
}

// Word returns the little-endian word at the byte offset off. Bytes past the
// end of the image read as 0xff, the value of erased flash.
func (img *Image) Word(off uint32) uint32 {
	var b [4]byte
	for i := range b {
		b[i] = 0xff
		if k := uint64(off) + uint64(i); k < uint64(len(img.Data)) {
			b[i] = img.Data[k]
		}
	}
	return binary.LittleEndian.Uint32(b[:])
}

// Vectors returns the initial stack pointer and the entry point.
func (img *Image) Vectors() (sp, entry uint32, err error) {
	if len(img.Data) < 8 {
		return 0, 0, ErrNoVectors
	}
	return img.Word(0), img.Word(4), nil
}

// ReadBin reads a raw binary image linked for the base address.
func ReadBin(r io.Reader, base uint32) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Image{Base: base, Data: data}, nil
}

// ReadHex reads an Intel HEX file. The gaps between the data segments are
// filled with 0xff.
func ReadHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, pkgerrors.Wrap(err, "intel hex")
	}
	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, errors.New("intel hex: no data")
	}
	ss := make(Sections, len(segs))
	for i, s := range segs {
		ss[i] = &Section{Paddr: uint64(s.Address), Data: s.Data}
	}
	return fromSections(ss)
}

// ReadELFImage reads the loadable sections of an ELF executable and flattens them
// into an image at the lowest physical address.
func ReadELFImage(name string) (*Image, error) {
	ss, err := ReadELF(name)
	if err != nil {
		return nil, err
	}
	if len(ss) == 0 {
		return nil, errors.New(name + ": no loadable sections")
	}
	return fromSections(ss)
}

func fromSections(ss Sections) (*Image, error) {
	ss.SortByPaddr()
	if ss[0].Paddr > 0xffffffff || ss[0].Paddr+uint64(ss.Size()) > 1<<32 {
		return nil, pkgerrors.Errorf("image address %#x out of range", ss[0].Paddr)
	}
	buf := bytes.NewBuffer(make([]byte, 0, ss.Size()))
	if _, err := ss.Flatten(buf, 0xff); err != nil {
		return nil, err
	}
	return &Image{Base: uint32(ss[0].Paddr), Data: buf.Bytes()}, nil
}

// Load reads the image file name. The format is chosen by the file extension:
// .hex (Intel HEX), .elf (ELF) or anything else (raw binary linked for base).
func Load(name string, base uint32) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".elf" {
		return ReadELFImage(name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if ext == ".hex" {
		img, err := ReadHex(f)
		return img, pkgerrors.WithMessage(err, name)
	}
	return ReadBin(f, base)
}

// WriteBin writes the raw image bytes.
func (img *Image) WriteBin(w io.Writer) error {
	_, err := w.Write(img.Data)
	return err
}

// WriteHex writes the image in the Intel HEX format, 16 bytes per record.
func (img *Image) WriteHex(w io.Writer) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(img.Base, img.Data); err != nil {
		return pkgerrors.Wrap(err, "intel hex")
	}
	return mem.DumpIntelHex(w, 16)
}
