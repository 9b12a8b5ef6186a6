package snapshot

import "fmt"

// Z80 run-length encoding: ED ED n b stands for n copies of b. Runs of 5
// or more bytes and runs of 2 or more ED are encoded. The byte following a
// lone ED is always stored literally.

func compress(src []byte) []byte {
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		b := src[i]
		run := 1
		for i+run < len(src) && src[i+run] == b && run < 255 {
			run++
		}
		if run >= 5 || (b == 0xED && run >= 2) {
			dst = append(dst, 0xED, 0xED, uint8(run), b)
			i += run
			continue
		}
		dst = append(dst, b)
		i++
		if b == 0xED && i < len(src) {
			dst = append(dst, src[i])
			i++
		}
	}
	return dst
}

// decompress expands src, which must expand to exactly size bytes.
func decompress(src []byte, size int) ([]byte, error) {
	dst := make([]byte, 0, size)
	for i := 0; i < len(src); {
		if i+3 < len(src) && src[i] == 0xED && src[i+1] == 0xED {
			n, b := int(src[i+2]), src[i+3]
			if len(dst)+n > size {
				return nil, fmt.Errorf("%w: block expands past %d bytes", ErrDecompressedLength, size)
			}
			for range n {
				dst = append(dst, b)
			}
			i += 4
			continue
		}
		if len(dst) == size {
			return nil, fmt.Errorf("%w: block expands past %d bytes", ErrDecompressedLength, size)
		}
		dst = append(dst, src[i])
		i++
	}
	if len(dst) != size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDecompressedLength, len(dst), size)
	}
	return dst, nil
}
