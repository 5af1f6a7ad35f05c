// Package dupetest builds dupe payloads and files for tests.
package dupetest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Wire hand-assembles payload bytes.
type Wire struct {
	bytes.Buffer
}

func (w *Wire) Tag(b byte) *Wire {
	w.WriteByte(b)
	return w
}

// Str writes an inline string. len(s) must not exceed the grammar's short
// string bound.
func (w *Wire) Str(s string) *Wire {
	w.WriteByte(byte(len(s)))
	w.WriteString(s)
	return w
}

// LStr writes a revision 5 length-prefixed string.
func (w *Wire) LStr(s string) *Wire {
	w.WriteByte(dupecodec.TagString)
	_ = binary.Write(&w.Buffer, binary.LittleEndian, uint32(len(s)))
	w.WriteString(s)
	return w
}

// CStr writes a revision 4 zero-terminated string.
func (w *Wire) CStr(s string) *Wire {
	w.WriteByte(dupecodec.TagString)
	w.WriteString(s)
	w.WriteByte(0)
	return w
}

func (w *Wire) Double(f float64) *Wire {
	w.WriteByte(dupecodec.TagDouble)
	_ = binary.Write(&w.Buffer, binary.LittleEndian, math.Float64bits(f))
	return w
}

func (w *Wire) Vector(x, y, z float64) *Wire {
	return w.triple(dupecodec.TagVector, x, y, z)
}

func (w *Wire) Angle(p, y, r float64) *Wire {
	return w.triple(dupecodec.TagAngle, p, y, r)
}

func (w *Wire) triple(tag byte, a, b, c float64) *Wire {
	w.WriteByte(tag)
	for _, f := range []float64{a, b, c} {
		_ = binary.Write(&w.Buffer, binary.LittleEndian, math.Float64bits(f))
	}
	return w
}

func (w *Wire) Bool(b bool) *Wire {
	if b {
		return w.Tag(dupecodec.TagTrue)
	}
	return w.Tag(dupecodec.TagFalse)
}

func (w *Wire) Table() *Wire { return w.Tag(dupecodec.TagTable) }
func (w *Wire) List() *Wire  { return w.Tag(dupecodec.TagList) }

// End writes the empty string, which closes a table or list in both grammars.
func (w *Wire) End() *Wire { return w.Tag(0) }

func (w *Wire) Ref(slot int16) *Wire {
	w.WriteByte(dupecodec.TagReference)
	_ = binary.Write(&w.Buffer, binary.LittleEndian, slot)
	return w
}

// SceneOptions drops parts of the sample scene.
type SceneOptions struct {
	NoEntities    bool
	NoConstraints bool
	NoHeadIndex   bool
	NoPhysics     bool
}

// Scene returns a payload valid under both grammars describing one entity
// and one constraint that refers back to it.
//
// Reference slots: 1 root, 2 HeadEnt, 3 Entities, 4 entity 1,
// 5 PhysicsObjects, 6 physics object 0, then Constraints.
func Scene(opts SceneOptions) []byte {
	var w Wire
	w.Table()

	w.Str("HeadEnt").Table()
	if !opts.NoHeadIndex {
		w.Str("Index").Double(1)
	}
	w.Str("Pos").Vector(10, 20, 30)
	w.Str("Z").Double(12.5)
	w.End()

	entitySlot := int16(0)
	if !opts.NoEntities {
		w.Str("Entities").Table()
		w.Double(1).Table()
		w.Str("Class").Str("prop_physics")
		w.Str("Model").Str("models/props_c17/oildrum001.mdl")
		if !opts.NoPhysics {
			w.Str("PhysicsObjects").Table()
			w.Double(0).Table()
			w.Str("Pos").Vector(0, 0, 5)
			w.Str("Angle").Angle(0, 90, 0)
			w.Str("Frozen").Bool(true)
			w.End()
			w.End()
		}
		w.End()
		w.End()
		entitySlot = 4
	}

	if !opts.NoConstraints {
		w.Str("Constraints").List()
		w.Table()
		w.Str("Type").Str("Weld")
		if entitySlot > 0 {
			w.Str("Ent1").Ref(entitySlot)
		}
		w.Str("forcelimit").Double(0)
		w.End()
		w.End()
	}

	w.Str("Description").Str("sample")
	w.End()
	return w.Bytes()
}

// LZMA compresses data in the classic LZMA format.
func LZMA(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// XZ compresses data as an .xz stream.
func XZ(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// DefaultInfo is an intact info block as key/value pairs.
func DefaultInfo() []string {
	return []string{
		"check", "\r\n\t\n",
		"name", "sample",
		"date", "10/18/26",
		"time", "12:00 PM",
	}
}

// File assembles an envelope around an already compressed payload. pairs
// alternate key and value.
func File(magic string, rev byte, pairs []string, compressed []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(rev)
	buf.WriteByte('\n')
	for _, p := range pairs {
		buf.WriteString(p)
		buf.WriteByte(0x01)
	}
	buf.WriteByte(0x02)
	buf.WriteByte('\n')
	buf.Write(compressed)
	return buf.Bytes()
}

// SceneFile is a complete, valid dupe file of the given revision.
func SceneFile(t testing.TB, rev byte, opts SceneOptions) []byte {
	t.Helper()
	return File("AD2F", rev, DefaultInfo(), LZMA(t, Scene(opts)))
}

// WriteFile writes data under dir and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
