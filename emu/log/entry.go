package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

// Entry is the printf-style counterpart of EntryZ, for rare messages where
// allocations don't matter.
type Entry struct {
	mod Module
}

func (entry Entry) log() *logrus.Entry {
	var z EntryZ
	ctxmu.RLock()
	for _, c := range contexts {
		c.AddLogContext(&z)
	}
	ctxmu.RUnlock()

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = modNames[entry.mod]
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	return logrus.StandardLogger().WithFields(fields)
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}

func (entry Entry) Fatalf(format string, args ...any) {
	if entry.mod.Enabled(FatalLevel) {
		entry.log().Fatalf(format, args...)
	}
}
