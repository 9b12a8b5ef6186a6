package hw

import (
	"fmt"
	"io"

	"zxcore/hw/z80"
)

type tracer struct {
	w   io.Writer
	buf []byte
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

func appendHex16(buf []byte, v uint16) []byte {
	var tmp [4]byte
	hexEncode(tmp[0:], byte(v>>8))
	hexEncode(tmp[2:], byte(v))
	return append(buf, tmp[:]...)
}

func appendHex8(buf []byte, v uint8) []byte {
	var tmp [2]byte
	hexEncode(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendReg16(buf []byte, name string, v uint16) []byte {
	buf = append(buf, name...)
	buf = append(buf, ':')
	buf = appendHex16(buf, v)
	return append(buf, ' ')
}

// traceOpLen is the number of bytes dumped at PC, enough for the longest
// Z80 instruction.
const traceOpLen = 4

// write the execution trace line of the instruction about to execute.
func (t *tracer) write(s *Spectrum, regs *z80.Registers) {
	buf := t.buf[:0]

	buf = appendHex16(buf, regs.PC)
	buf = append(buf, ' ', ' ')
	for i := range uint16(traceOpLen) {
		buf = appendHex8(buf, s.bus.Peek(regs.PC+i))
		buf = append(buf, ' ')
	}
	buf = append(buf, ' ')

	buf = appendReg16(buf, "AF", regs.AF)
	buf = appendReg16(buf, "BC", regs.BC)
	buf = appendReg16(buf, "DE", regs.DE)
	buf = appendReg16(buf, "HL", regs.HL)
	buf = appendReg16(buf, "IX", regs.IX)
	buf = appendReg16(buf, "IY", regs.IY)
	buf = appendReg16(buf, "SP", regs.SP)
	buf = append(buf, "IR:"...)
	buf = appendHex8(buf, regs.I)
	buf = appendHex8(buf, regs.R)
	buf = append(buf, ' ')

	ts := s.cpu.TStates()
	buf = fmt.Appendf(buf, "T:%-5d L:%d\n", ts, ts/s.info.TsPerLine)
	t.w.Write(buf)
	t.buf = buf
}
