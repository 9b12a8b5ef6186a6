package ula

// RGBA is a pixel as stored in the screen buffer.
type RGBA [4]byte

var normalColours = [8]RGBA{
	{0, 0, 0, 255},
	{0, 0, 205, 255},
	{205, 0, 0, 255},
	{205, 0, 205, 255},
	{0, 205, 0, 255},
	{0, 205, 205, 255},
	{205, 205, 0, 255},
	{205, 205, 205, 255},
}

var brightColours = [8]RGBA{
	{0, 0, 0, 255},
	{0, 0, 255, 255},
	{255, 0, 0, 255},
	{255, 0, 255, 255},
	{0, 255, 0, 255},
	{0, 255, 255, 255},
	{255, 255, 0, 255},
	{255, 255, 255, 255},
}

// BorderColour returns the colour of border index c (0-7).
func BorderColour(c uint8) RGBA { return normalColours[c&7] }

type inkPaper struct{ ink, paper RGBA }

// clut maps an attribute byte to its ink and paper colours, for both flash
// phases.
type clut [2][256]inkPaper

func newCLUT() *clut {
	var c clut
	for attr := range 256 {
		cols := normalColours
		if attr&0x40 != 0 {
			cols = brightColours
		}
		ink, paper := cols[attr&7], cols[attr>>3&7]
		c[0][attr] = inkPaper{ink, paper}
		if attr&0x80 != 0 {
			ink, paper = paper, ink
		}
		c[1][attr] = inkPaper{ink, paper}
	}
	return &c
}
