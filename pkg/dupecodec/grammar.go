package dupecodec

import (
	"errors"
	"fmt"
)

// Tag bytes shared by every revision.
const (
	TagTable     byte = 255
	TagList      byte = 254
	TagTrue      byte = 253
	TagFalse     byte = 252
	TagDouble    byte = 251
	TagVector    byte = 250
	TagAngle     byte = 249
	TagString    byte = 248
	TagReference byte = 247
	TagNil       byte = 246
)

// Highest tag read as an inline fixed-length string.
const (
	ShortStringMaxV4 byte = 246
	ShortStringMaxV5 byte = 245
)

// ErrUnsupportedRevision means no payload grammar is known for the revision.
var ErrUnsupportedRevision = errors.New("dupecodec: no grammar for revision")

// LongStringMode selects how tag 248 is read.
type LongStringMode uint8

const (
	// ZeroTerminated reads bytes up to (and consuming) a single 0x00.
	ZeroTerminated LongStringMode = iota
	// LengthPrefixed reads a little-endian uint32 length followed by that many bytes.
	LengthPrefixed
)

// Grammar is the per-revision decoding policy. The bulk of the tag table is
// shared; a Grammar holds only the points where revisions diverge.
type Grammar struct {
	Revision       int
	ShortStringMax byte
	LongString     LongStringMode
	// HasNil enables TagNil. It also makes Nil a container terminator.
	HasNil bool
}

var (
	// GrammarV4 decodes revision 4 payloads.
	GrammarV4 = Grammar{
		Revision:       4,
		ShortStringMax: ShortStringMaxV4,
		LongString:     ZeroTerminated,
	}

	// GrammarV5 decodes revision 5 payloads.
	GrammarV5 = Grammar{
		Revision:       5,
		ShortStringMax: ShortStringMaxV5,
		LongString:     LengthPrefixed,
		HasNil:         true,
	}
)

// GrammarFor returns the grammar for a wire revision.
func GrammarFor(revision int) (Grammar, error) {
	switch revision {
	case 4:
		return GrammarV4, nil
	case 5:
		return GrammarV5, nil
	default:
		return Grammar{}, fmt.Errorf("%w: %d", ErrUnsupportedRevision, revision)
	}
}

// terminates reports whether v ends the table or list being read.
func (g Grammar) terminates(v Value) bool {
	switch x := v.(type) {
	case String:
		return x == ""
	case Nil:
		return g.HasNil
	default:
		return false
	}
}
