// Package tape implements the Spectrum cassette: TAP images, the EAR signal
// they produce when played, and the ROM load/save traps.
package tape

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrFormat is returned for malformed TAP images.
var ErrFormat = errors.New("invalid TAP image")

// Block is one TAP block: the flag byte, the payload and the checksum.
type Block []byte

// Flag returns the flag byte, below 0x80 for headers.
func (b Block) Flag() uint8 { return b[0] }

// Payload returns the data between the flag and the checksum.
func (b Block) Payload() []byte { return b[1 : len(b)-1] }

// Valid reports whether the checksum matches.
func (b Block) Valid() bool { return checksum(b) == 0 }

func checksum(p []byte) uint8 {
	var x uint8
	for _, v := range p {
		x ^= v
	}
	return x
}

// NewBlock builds a block from flag and data, appending the checksum.
func NewBlock(flag uint8, data []byte) Block {
	b := make(Block, 0, len(data)+2)
	b = append(b, flag)
	b = append(b, data...)
	return append(b, checksum(b))
}

// Header is the decoded content of a standard ROM header block.
type Header struct {
	Type   uint8 // 0 program, 1 number array, 2 character array, 3 bytes
	Name   string
	Length uint16
	Param1 uint16 // autostart line or start address
	Param2 uint16
}

var headerTypes = [...]string{"Program", "Number array", "Character array", "Bytes"}

func (h Header) String() string {
	typ := "Unknown"
	if int(h.Type) < len(headerTypes) {
		typ = headerTypes[h.Type]
	}
	return fmt.Sprintf("%s: %q len=%d p1=%d p2=%d", typ, h.Name, h.Length, h.Param1, h.Param2)
}

// Header decodes b as a standard header block.
func (b Block) Header() (Header, bool) {
	if len(b) != 19 || b.Flag() != 0x00 {
		return Header{}, false
	}
	p := b.Payload()
	le := func(off int) uint16 { return uint16(p[off]) | uint16(p[off+1])<<8 }
	return Header{
		Type:   p[0],
		Name:   strings.TrimRight(string(p[1:11]), " "),
		Length: le(11),
		Param1: le(13),
		Param2: le(15),
	}, true
}

// Image is a sequence of tape blocks.
type Image struct {
	Blocks []Block
}

// ReadFrom implements io.ReaderFrom interface
func (img *Image) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	blocks, err := Parse(buf)
	if err != nil {
		return 0, err
	}
	img.Blocks = blocks
	return int64(len(buf)), nil
}

// Parse splits a TAP image into blocks.
func Parse(buf []byte) ([]Block, error) {
	var blocks []Block
	for off := 0; off < len(buf); {
		if len(buf) < off+2 {
			return nil, fmt.Errorf("%w: incomplete length at offset %d", ErrFormat, off)
		}
		n := int(buf[off]) | int(buf[off+1])<<8
		off += 2
		if n < 2 {
			return nil, fmt.Errorf("%w: block %d is %d bytes long", ErrFormat, len(blocks), n)
		}
		if len(buf) < off+n {
			return nil, fmt.Errorf("%w: incomplete block %d", ErrFormat, len(blocks))
		}
		blocks = append(blocks, Block(buf[off:off+n]))
		off += n
	}
	return blocks, nil
}

// Encode serializes blocks as a TAP image.
func Encode(blocks []Block) []byte {
	var out []byte
	for _, b := range blocks {
		out = append(out, uint8(len(b)), uint8(len(b)>>8))
		out = append(out, b...)
	}
	return out
}

// PrintInfos writes a listing of the image blocks.
func (img *Image) PrintInfos(w io.Writer) {
	for i, b := range img.Blocks {
		status := "ok"
		if !b.Valid() {
			status = "bad checksum"
		}
		if hdr, ok := b.Header(); ok {
			fmt.Fprintf(w, "%3d  header  %s (%s)\n", i, hdr, status)
			continue
		}
		fmt.Fprintf(w, "%3d  data    flag=%02X len=%d (%s)\n", i, b.Flag(), len(b.Payload()), status)
	}
}
