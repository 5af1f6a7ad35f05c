// Package dump renders decoded value graphs for humans and for tools.
//
// Containers are numbered in the order the decoder allocated their reference
// slots, so "#4" in a dump is slot 4 on the wire. A container is expanded the
// first time it is reached; every later occurrence, including cycles, prints
// as a reference to that number.
package dump

import (
	"github.com/ankur-anand/dupekit/pkg/dupecodec"
)

// Options controls rendering.
type Options struct {
	// MaxDepth stops expanding containers nested deeper than this. 0 means
	// no limit.
	MaxDepth int
}

func (o Options) expands(depth int) bool {
	return o.MaxDepth <= 0 || depth < o.MaxDepth
}

// numberContainers assigns ids to every reachable container in pre-order,
// keys before values.
func numberContainers(root dupecodec.Value) map[dupecodec.Value]int {
	ids := make(map[dupecodec.Value]int)
	var walk func(v dupecodec.Value)
	walk = func(v dupecodec.Value) {
		switch x := v.(type) {
		case *dupecodec.Table:
			if _, ok := ids[x]; ok {
				return
			}
			ids[x] = len(ids) + 1
			for k, val := range x.All() {
				walk(k)
				walk(val)
			}
		case *dupecodec.List:
			if _, ok := ids[x]; ok {
				return
			}
			ids[x] = len(ids) + 1
			for _, val := range x.All() {
				walk(val)
			}
		}
	}
	walk(root)
	return ids
}
