package expr

import (
	"strings"
	"unicode/utf8"
)

// cappedBuilder accumulates output until it would pass MaxStringLength.
// Once over, further writes are dropped and Over reports true, so callers
// never hold more than the cap in memory.
type cappedBuilder struct {
	sb   strings.Builder
	over bool
}

func (b *cappedBuilder) fits(n int) bool {
	if b.over || b.sb.Len()+n > MaxStringLength {
		b.over = true
		return false
	}
	return true
}

func (b *cappedBuilder) WriteString(s string) {
	if b.fits(len(s)) {
		b.sb.WriteString(s)
	}
}

func (b *cappedBuilder) WriteByte(c byte) error {
	if b.fits(1) {
		b.sb.WriteByte(c)
	}
	return nil
}

func (b *cappedBuilder) WriteRune(r rune) {
	if b.fits(utf8.RuneLen(r)) {
		b.sb.WriteRune(r)
	}
}

func (b *cappedBuilder) Over() bool { return b.over }

func (b *cappedBuilder) String() string { return b.sb.String() }

func tooLong(pos int) *Error {
	return runtimeErrorf(pos, "string result exceeds %d bytes", MaxStringLength)
}
