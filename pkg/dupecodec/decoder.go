package dupecodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrTruncatedInput    = errors.New("dupecodec: truncated input")
	ErrUnknownTag        = errors.New("dupecodec: unknown tag")
	ErrDanglingReference = errors.New("dupecodec: dangling reference")
	ErrMaxDepth          = errors.New("dupecodec: maximum nesting depth exceeded")
)

// DefaultMaxDepth bounds container nesting.
const DefaultMaxDepth = 10000

// Stats describes a finished decode.
type Stats struct {
	BytesRead  int `json:"bytes_read"`
	Tables     int `json:"tables"`
	Lists      int `json:"lists"`
	References int `json:"references"`
	Strings    int `json:"strings"`
	MaxDepth   int `json:"max_depth"`
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(d *Decoder) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

// Decoder is a cursor over one payload. It borrows buf and must not be
// shared between goroutines.
type Decoder struct {
	buf      []byte
	pos      int
	grammar  Grammar
	maxDepth int
	depth    int

	// slots[i] holds the container allocated with reference number i+1.
	slots []Value
	stats Stats
}

// NewDecoder returns a decoder reading buf with grammar g.
func NewDecoder(buf []byte, g Grammar, opts ...Option) *Decoder {
	d := &Decoder{
		buf:      buf,
		grammar:  g,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads the root value of buf.
func Decode(buf []byte, g Grammar, opts ...Option) (Value, error) {
	return NewDecoder(buf, g, opts...).Read()
}

// Read decodes the next value. On error no partial value is returned.
func (d *Decoder) Read() (Value, error) {
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	return d.decode(tag)
}

// Offset is the current cursor position.
func (d *Decoder) Offset() int {
	return d.pos
}

// Stats returns counters for everything read so far.
func (d *Decoder) Stats() Stats {
	s := d.stats
	s.BytesRead = d.pos
	return s
}

func (d *Decoder) decode(tag byte) (Value, error) {
	switch tag {
	case TagTable:
		return d.readTable()
	case TagList:
		return d.readList()
	case TagTrue:
		return Bool(true), nil
	case TagFalse:
		return Bool(false), nil
	case TagDouble:
		f, err := d.readFloat64()
		if err != nil {
			return nil, err
		}
		return Double(f), nil
	case TagVector:
		x, y, z, err := d.readTriple()
		if err != nil {
			return nil, err
		}
		return Vector{X: x, Y: y, Z: z}, nil
	case TagAngle:
		p, y, r, err := d.readTriple()
		if err != nil {
			return nil, err
		}
		return Angle{P: p, Y: y, R: r}, nil
	case TagString:
		return d.readLongString()
	case TagReference:
		return d.readReference()
	}

	if tag == TagNil && d.grammar.HasNil {
		return Nil{}, nil
	}
	if tag <= d.grammar.ShortStringMax {
		b, err := d.take(int(tag))
		if err != nil {
			return nil, err
		}
		d.stats.Strings++
		return String(b), nil
	}
	return nil, fmt.Errorf("%w: %d at offset %d (revision %d)", ErrUnknownTag, tag, d.pos-1, d.grammar.Revision)
}

// reserve allocates the next reference slot for c before its contents are
// read, so nested references to c resolve while it is still being filled.
func (d *Decoder) reserve(c Value) error {
	d.depth++
	if d.depth > d.maxDepth {
		return fmt.Errorf("%w: %d at offset %d", ErrMaxDepth, d.maxDepth, d.pos)
	}
	if d.depth > d.stats.MaxDepth {
		d.stats.MaxDepth = d.depth
	}
	d.slots = append(d.slots, c)
	return nil
}

func (d *Decoder) readTable() (Value, error) {
	t := NewTable()
	if err := d.reserve(t); err != nil {
		return nil, err
	}
	d.stats.Tables++

	for {
		k, err := d.Read()
		if err != nil {
			return nil, err
		}
		if d.grammar.terminates(k) {
			break
		}
		v, err := d.Read()
		if err != nil {
			return nil, err
		}
		t.Set(k, v)
	}
	d.depth--
	return t, nil
}

func (d *Decoder) readList() (Value, error) {
	l := &List{}
	if err := d.reserve(l); err != nil {
		return nil, err
	}
	d.stats.Lists++

	for {
		v, err := d.Read()
		if err != nil {
			return nil, err
		}
		if d.grammar.terminates(v) {
			break
		}
		l.Append(v)
	}
	d.depth--
	return l, nil
}

func (d *Decoder) readReference() (Value, error) {
	b, err := d.take(2)
	if err != nil {
		return nil, err
	}
	ref := int(int16(binary.LittleEndian.Uint16(b)))
	if ref < 1 || ref > len(d.slots) {
		return nil, fmt.Errorf("%w: slot %d at offset %d (%d allocated)", ErrDanglingReference, ref, d.pos-2, len(d.slots))
	}
	d.stats.References++
	return d.slots[ref-1], nil
}

func (d *Decoder) readLongString() (Value, error) {
	var b []byte
	switch d.grammar.LongString {
	case LengthPrefixed:
		lb, err := d.take(4)
		if err != nil {
			return nil, err
		}
		n := binary.LittleEndian.Uint32(lb)
		if uint64(n) > uint64(len(d.buf)-d.pos) {
			return nil, d.truncated(n)
		}
		b, _ = d.take(int(n))
	default:
		end := bytes.IndexByte(d.buf[d.pos:], 0)
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated string at offset %d", ErrTruncatedInput, d.pos)
		}
		b, _ = d.take(end)
		d.pos++
	}
	d.stats.Strings++
	return String(b), nil
}

func (d *Decoder) readFloat64() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (d *Decoder) readTriple() (float64, float64, float64, error) {
	b, err := d.take(24)
	if err != nil {
		return 0, 0, 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
		math.Float64frombits(binary.LittleEndian.Uint64(b[16:24])),
		nil
}

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, fmt.Errorf("%w: expected tag at offset %d", ErrTruncatedInput, d.pos)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// take returns the next n bytes of the borrowed buffer and advances the cursor.
func (d *Decoder) take(n int) ([]byte, error) {
	if n > len(d.buf)-d.pos {
		return nil, d.truncated(uint32(n))
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) truncated(need uint32) error {
	return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, need, d.pos, len(d.buf)-d.pos)
}
