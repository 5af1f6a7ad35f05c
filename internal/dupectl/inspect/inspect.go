package inspect

import (
	"fmt"

	"github.com/ankur-anand/dupekit/internal/dupectl/output"
	"github.com/ankur-anand/dupekit/pkg/dupecodec"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"github.com/ankur-anand/dupekit/pkg/validator"
	"github.com/dustin/go-humanize"
)

// Inspect loads path and summarises its header and graph.
func Inspect(path string, opts ...dupefile.LoadOption) (*output.DupeDetail, error) {
	d, err := dupefile.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return Describe(d), nil
}

// Describe builds the detail view of an already loaded dupe.
func Describe(d *dupefile.Dupe) *output.DupeDetail {
	detail := &output.DupeDetail{
		Path:             d.Path,
		Revision:         d.Revision,
		Size:             d.Size,
		SizeHuman:        humanize.Bytes(uint64(d.Size)),
		PayloadSize:      d.PayloadSize,
		PayloadSizeHuman: humanize.Bytes(uint64(d.PayloadSize)),
		TrailingBytes:    d.TrailingBytes,
		Info:             map[string]string(d.Info),
		Legacy:           d.Info.IsLegacy(),
		RootKind:         kindName(d.Root),
		TopLevelKeys:     []string{},
		Stats:            d.Stats,
	}

	root, ok := d.Root.(*dupecodec.Table)
	if !ok {
		return detail
	}
	for _, k := range root.Keys() {
		detail.TopLevelKeys = append(detail.TopLevelKeys, keyName(k))
	}
	if v, ok := root.GetString(validator.KeyEntities); ok {
		detail.EntityCount = containerLen(v)
	}
	if v, ok := root.GetString(validator.KeyConstraints); ok {
		detail.ConstraintCount = containerLen(v)
	}
	if head, ok := root.GetString(validator.KeyHeadEnt); ok {
		if ht, ok := head.(*dupecodec.Table); ok {
			if idx, ok := ht.GetString(validator.KeyIndex); ok {
				detail.HeadEntity = keyName(idx)
			}
		}
	}
	return detail
}

// Check loads and validates path. Defects are reported, not returned as an
// error.
func Check(path string, opts ...dupefile.LoadOption) (*output.ValidationReport, error) {
	d, err := dupefile.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	defects, err := d.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return &output.ValidationReport{
		Path:     path,
		Revision: d.Revision,
		Valid:    len(defects) == 0,
		Defects:  defects,
	}, nil
}

func containerLen(v dupecodec.Value) int {
	switch x := v.(type) {
	case *dupecodec.Table:
		return x.Len()
	case *dupecodec.List:
		return x.Len()
	default:
		return 0
	}
}

func kindName(v dupecodec.Value) string {
	if v == nil {
		return "none"
	}
	return v.Kind().String()
}

func keyName(k dupecodec.Value) string {
	switch x := k.(type) {
	case dupecodec.String:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return kindName(k)
	}
}
