package hwio

import "fmt"

const (
	NumBits  = 0x10000            // Z80 address space is 64K
	wordSize = 64                 // using 64-bit words
	numWords = NumBits / wordSize // 1024 words exactly
)

// Bitset is a 64Kbit set, one bit per Z80 address or port. Zero value is an
// empty set.
type Bitset struct {
	words [numWords]uint64
	count int
}

func (b *Bitset) Set(i uint16) {
	w, m := &b.words[i/wordSize], uint64(1)<<(i%wordSize)
	if *w&m == 0 {
		*w |= m
		b.count++
	}
}

func (b *Bitset) Clear(i uint16) {
	w, m := &b.words[i/wordSize], uint64(1)<<(i%wordSize)
	if *w&m != 0 {
		*w &^= m
		b.count--
	}
}

// Test returns true if the bit at index i is set.
func (b *Bitset) Test(i uint16) bool {
	return b.words[i/wordSize]&(1<<(i%wordSize)) != 0
}

// Len returns the number of set bits.
func (b *Bitset) Len() int { return b.count }

// SetRange sets all bits in the half-open interval [start, end).
// It panics if start >= end or end > NumBits.
func (b *Bitset) SetRange(start, end uint) {
	b.eachWord(start, end, func(w *uint64, mask uint64) { *w |= mask })
}

// ClearRange clears all bits in the half-open interval [start, end).
// It panics if start >= end or end > NumBits.
func (b *Bitset) ClearRange(start, end uint) {
	b.eachWord(start, end, func(w *uint64, mask uint64) { *w &^= mask })
}

// eachWord calls fn for every word overlapping [start, end), with the mask of
// the bits of that word inside the interval, then recounts.
func (b *Bitset) eachWord(start, end uint, fn func(w *uint64, mask uint64)) {
	if start >= end || end > NumBits {
		panic(fmt.Sprintf("invalid range [%d, %d)", start, end))
	}
	for i := start / wordSize; i <= (end-1)/wordSize; i++ {
		lo, hi := i*wordSize, (i+1)*wordSize
		mask := ^uint64(0)
		if start > lo {
			mask &= ^uint64(0) << (start - lo)
		}
		if end < hi {
			mask &= ^uint64(0) >> (hi - end)
		}
		fn(&b.words[i], mask)
	}
	b.recount()
}

func (b *Bitset) recount() {
	b.count = 0
	for _, w := range b.words {
		for ; w != 0; w &= w - 1 {
			b.count++
		}
	}
}

// Reset clears all bits.
func (b *Bitset) Reset() {
	clear(b.words[:])
	b.count = 0
}

// SetAll sets all bits.
func (b *Bitset) SetAll() {
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
	b.count = NumBits
}
