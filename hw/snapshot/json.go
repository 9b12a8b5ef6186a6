package snapshot

import (
	"github.com/go-faster/jx"
)

// EncodeJSON writes a summary of s, registers and machine configuration
// without memory, as a JSON object.
func (s *State) EncodeJSON(e *jx.Encoder) {
	r := s.Regs
	e.ObjStart()
	e.FieldStart("model")
	e.Str(s.Model.String())

	e.FieldStart("registers")
	e.ObjStart()
	for _, reg := range []struct {
		name string
		val  uint16
	}{
		{"af", r.AF}, {"bc", r.BC}, {"de", r.DE}, {"hl", r.HL},
		{"af2", r.AF2}, {"bc2", r.BC2}, {"de2", r.DE2}, {"hl2", r.HL2},
		{"ix", r.IX}, {"iy", r.IY}, {"sp", r.SP}, {"pc", r.PC},
		{"i", uint16(r.I)}, {"r", uint16(r.R)},
	} {
		e.FieldStart(reg.name)
		e.Int(int(reg.val))
	}
	e.FieldStart("iff1")
	e.Bool(r.IFF1)
	e.FieldStart("iff2")
	e.Bool(r.IFF2)
	e.FieldStart("im")
	e.Int(int(r.IM))
	e.ObjEnd()

	e.FieldStart("border")
	e.Int(int(s.Border))
	e.FieldStart("paging")
	e.Int(int(s.Paging))
	e.FieldStart("tstates")
	e.Int(int(s.TStates))

	e.FieldStart("ay")
	e.ObjStart()
	e.FieldStart("selected")
	e.Int(int(s.AYSelected))
	e.FieldStart("registers")
	e.ArrStart()
	for _, v := range s.AY {
		e.Int(int(v))
	}
	e.ArrEnd()
	e.ObjEnd()

	e.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (s *State) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.EncodeJSON(&e)
	return e.Bytes(), nil
}
