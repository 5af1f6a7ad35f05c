package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
)

// Tree writes root as an indented tree, one table entry or list element per
// line. A container used as a table key prints in reference form; the first
// time it is reached it is expanded on a "key = " line just above the entry.
func Tree(w io.Writer, root dupecodec.Value, opts Options) error {
	p := &treePrinter{
		w:    bufio.NewWriter(w),
		opts: opts,
		ids:  numberContainers(root),
		seen: make(map[dupecodec.Value]bool),
	}
	p.value(root, 0)
	p.w.WriteByte('\n')
	return p.w.Flush()
}

type treePrinter struct {
	w    *bufio.Writer
	opts Options
	ids  map[dupecodec.Value]int
	seen map[dupecodec.Value]bool
}

func (p *treePrinter) line(depth int, prefix string) {
	p.w.WriteByte('\n')
	p.w.WriteString(strings.Repeat("  ", depth))
	p.w.WriteString(prefix)
}

func (p *treePrinter) value(v dupecodec.Value, depth int) {
	switch x := v.(type) {
	case *dupecodec.Table:
		if p.seen[x] {
			fmt.Fprintf(p.w, "<ref #%d>", p.ids[x])
			return
		}
		fmt.Fprintf(p.w, "table #%d (%d entries)", p.ids[x], x.Len())
		if x.Len() == 0 {
			return
		}
		if !p.opts.expands(depth) {
			p.w.WriteString(" ...")
			return
		}
		p.seen[x] = true
		for k, val := range x.All() {
			if isContainer(k) && !p.seen[k] {
				p.line(depth+1, "key = ")
				p.value(k, depth+1)
			}
			p.line(depth+1, p.key(k)+" = ")
			p.value(val, depth+1)
		}
	case *dupecodec.List:
		if p.seen[x] {
			fmt.Fprintf(p.w, "<ref #%d>", p.ids[x])
			return
		}
		fmt.Fprintf(p.w, "list #%d (%d items)", p.ids[x], x.Len())
		if x.Len() == 0 {
			return
		}
		if !p.opts.expands(depth) {
			p.w.WriteString(" ...")
			return
		}
		p.seen[x] = true
		for i, val := range x.All() {
			p.line(depth+1, "["+strconv.Itoa(i)+"] = ")
			p.value(val, depth+1)
		}
	default:
		p.w.WriteString(scalar(v))
	}
}

func (p *treePrinter) key(k dupecodec.Value) string {
	switch k.(type) {
	case *dupecodec.Table, *dupecodec.List:
		return fmt.Sprintf("<ref #%d>", p.ids[k])
	default:
		return scalar(k)
	}
}

func scalar(v dupecodec.Value) string {
	switch x := v.(type) {
	case nil:
		return "<none>"
	case dupecodec.String:
		return strconv.Quote(string(x))
	case dupecodec.Bool:
		return strconv.FormatBool(bool(x))
	case dupecodec.Double:
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return v.Kind().String()
	}
}
