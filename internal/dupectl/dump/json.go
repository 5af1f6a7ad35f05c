package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
)

// JSON writes root as indented JSON. Tables become objects in insertion
// order with a leading "$id"; lists become {"$id": n, "$items": [...]};
// repeated containers become {"$ref": n}. Vectors and angles are
// {"$vector": [x, y, z]} and {"$angle": [p, y, r]}.
//
// Member names carry the key's kind so distinct keys never collide: string
// keys are used as is ("$str:" is prepended when they start with "$"),
// numbers become "$num:1", booleans "$bool:true", and container keys
// "$ref:n". A container first reached as a key is expanded in the owning
// table's "$keys" list.
func JSON(w io.Writer, root dupecodec.Value, opts Options) error {
	b := &jsonBuilder{
		opts: opts,
		ids:  numberContainers(root),
		seen: make(map[dupecodec.Value]bool),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b.value(root, 0))
}

type member struct {
	key   string
	value any
}

// object is a JSON object that keeps member order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.value)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m.key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type jsonBuilder struct {
	opts Options
	ids  map[dupecodec.Value]int
	seen map[dupecodec.Value]bool
}

func (b *jsonBuilder) value(v dupecodec.Value, depth int) any {
	switch x := v.(type) {
	case nil, dupecodec.Nil:
		return nil
	case dupecodec.Bool:
		return bool(x)
	case dupecodec.Double:
		return number(float64(x))
	case dupecodec.String:
		return string(x)
	case dupecodec.Vector:
		return object{{"$vector", []any{number(x.X), number(x.Y), number(x.Z)}}}
	case dupecodec.Angle:
		return object{{"$angle", []any{number(x.P), number(x.Y), number(x.R)}}}
	case *dupecodec.Table:
		if ref, ok := b.ref(x); ok {
			return ref
		}
		out := object{{"$id", b.ids[x]}}
		if !b.opts.expands(depth) && x.Len() > 0 {
			return append(out, member{"$truncated", x.Len()})
		}
		b.seen[x] = true
		var keys []any
		for k, val := range x.All() {
			if isContainer(k) && !b.seen[k] {
				keys = append(keys, b.value(k, depth+1))
			}
			out = append(out, member{b.key(k), b.value(val, depth+1)})
		}
		if len(keys) > 0 {
			out = append(out, member{"$keys", keys})
		}
		return out
	case *dupecodec.List:
		if ref, ok := b.ref(x); ok {
			return ref
		}
		out := object{{"$id", b.ids[x]}}
		if !b.opts.expands(depth) && x.Len() > 0 {
			return append(out, member{"$truncated", x.Len()})
		}
		b.seen[x] = true
		items := make([]any, 0, x.Len())
		for _, val := range x.All() {
			items = append(items, b.value(val, depth+1))
		}
		return append(out, member{"$items", items})
	default:
		return v.Kind().String()
	}
}

func (b *jsonBuilder) ref(c dupecodec.Value) (object, bool) {
	if !b.seen[c] {
		return nil, false
	}
	return object{{"$ref", b.ids[c]}}, true
}

func (b *jsonBuilder) key(k dupecodec.Value) string {
	switch x := k.(type) {
	case dupecodec.String:
		if strings.HasPrefix(string(x), "$") {
			return "$str:" + string(x)
		}
		return string(x)
	case dupecodec.Double:
		return "$num:" + x.String()
	case dupecodec.Bool:
		return "$bool:" + strconv.FormatBool(bool(x))
	case dupecodec.Vector:
		return "$vector:" + floats(x.X, x.Y, x.Z)
	case dupecodec.Angle:
		return "$angle:" + floats(x.P, x.Y, x.R)
	case *dupecodec.Table, *dupecodec.List:
		return "$ref:" + strconv.Itoa(b.ids[k])
	default:
		return "$nil"
	}
}

func floats(fs ...float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func isContainer(v dupecodec.Value) bool {
	switch v.(type) {
	case *dupecodec.Table, *dupecodec.List:
		return true
	}
	return false
}

// number keeps non-finite values representable.
func number(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	default:
		return f
	}
}
