// Package validator checks a decoded dupe graph for the fields a paste needs:
// a head entity, the entity table and the constraint table.
package validator

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ankur-anand/dupekit/pkg/dupecodec"
	"github.com/ankur-anand/dupekit/pkg/envelope"
)

// ErrLegacyFormat is returned when the info header marks a legacy-format origin.
var ErrLegacyFormat = errors.New("validator: legacy dupe format is not supported")

// Field names of the scene graph.
const (
	KeyHeadEnt        = "HeadEnt"
	KeyEntities       = "Entities"
	KeyConstraints    = "Constraints"
	KeyIndex          = "Index"
	KeyPos            = "Pos"
	KeyZ              = "Z"
	KeyAngle          = "Angle"
	KeyClass          = "Class"
	KeyModel          = "Model"
	KeyPhysicsObjects = "PhysicsObjects"
)

// Validate returns every defect found in root. Missing fields are reported,
// not returned as errors; checks that depend on a missing field are skipped.
// The only error is ErrLegacyFormat, which aborts before any check runs.
// info may be nil.
func Validate(root dupecodec.Value, info envelope.Info) ([]string, error) {
	if info.IsLegacy() {
		return nil, ErrLegacyFormat
	}

	var c checker
	c.run(root)
	return c.defects, nil
}

type checker struct {
	defects []string
}

func (c *checker) add(format string, args ...any) {
	c.defects = append(c.defects, fmt.Sprintf(format, args...))
}

func (c *checker) run(root dupecodec.Value) {
	tbl, ok := root.(*dupecodec.Table)
	if !ok {
		c.add("Root is not a table (got %s)", kindOf(root))
		return
	}

	head := c.require(tbl, KeyHeadEnt, "Missing HeadEnt table")
	entities := c.require(tbl, KeyEntities, "Missing Entities table")
	c.require(tbl, KeyConstraints, "Missing Constraints table")

	var index dupecodec.Value
	if head != nil {
		headTbl, ok := head.(*dupecodec.Table)
		if !ok {
			c.add("HeadEnt is not a table (got %s)", kindOf(head))
		} else {
			c.require(headTbl, KeyZ, "Missing HeadEnt.Z table")
			c.require(headTbl, KeyPos, "Missing HeadEnt.Pos")
			index = c.require(headTbl, KeyIndex, "Missing HeadEnt.Index")
		}
	}

	if entities == nil {
		return
	}
	if index != nil {
		if v, ok := entry(entities, index); !ok || !dupecodec.Truthy(v) {
			c.add("Missing HeadEnt index %s from Entities table", describe(index))
		}
	}
	c.checkEntities(entities)
}

// require returns t[key] when it is present and non-empty, otherwise records
// msg and returns nil.
func (c *checker) require(t *dupecodec.Table, key, msg string) dupecodec.Value {
	v, ok := t.GetString(key)
	if !ok || !dupecodec.Truthy(v) {
		c.add("%s", msg)
		return nil
	}
	return v
}

func (c *checker) checkEntities(entities dupecodec.Value) {
	switch x := entities.(type) {
	case *dupecodec.Table:
		for k, v := range x.All() {
			c.checkEntity(describe(k), v)
		}
	case *dupecodec.List:
		for i, v := range x.All() {
			c.checkEntity(strconv.Itoa(i+1), v)
		}
	default:
		c.add("Entities is not a table (got %s)", kindOf(entities))
	}
}

func (c *checker) checkEntity(key string, v dupecodec.Value) {
	ent, ok := v.(*dupecodec.Table)
	if !ok {
		c.add("Entity[%s] is not a table (got %s)", key, kindOf(v))
		return
	}
	class, _ := ent.GetString(KeyClass)
	model, _ := ent.GetString(KeyModel)
	label := fmt.Sprintf("Entity[%s][%s][%s]", key, describe(class), describe(model))

	phys, ok := ent.GetString(KeyPhysicsObjects)
	if !ok {
		c.add("Missing PhysicsObject table from %s", label)
		return
	}
	first, ok := firstPhysicsObject(phys)
	if !ok {
		c.add("Missing PhysicsObject[0] table from %s", label)
		return
	}
	if v, ok := first.GetString(KeyPos); !ok || !dupecodec.Truthy(v) {
		c.add("Missing PhysicsObject[0]['Pos'] table from %s", label)
	}
	if v, ok := first.GetString(KeyAngle); !ok || !dupecodec.Truthy(v) {
		c.add("Missing PhysicsObject[0]['Angle'] table from %s", label)
	}
}

// firstPhysicsObject returns physics object 0. Tables are keyed from 0.
func firstPhysicsObject(phys dupecodec.Value) (*dupecodec.Table, bool) {
	if !dupecodec.Truthy(phys) {
		return nil, false
	}
	var v dupecodec.Value
	switch x := phys.(type) {
	case *dupecodec.Table:
		v, _ = x.Get(dupecodec.Double(0))
	case *dupecodec.List:
		v, _ = x.At(0)
	}
	t, ok := v.(*dupecodec.Table)
	if !ok || t.Len() == 0 {
		return nil, false
	}
	return t, true
}

// entry looks index up in a table by value, or in a list as a 1-based position.
func entry(container, index dupecodec.Value) (dupecodec.Value, bool) {
	switch x := container.(type) {
	case *dupecodec.Table:
		return x.Get(index)
	case *dupecodec.List:
		d, ok := index.(dupecodec.Double)
		if !ok || d != dupecodec.Double(math.Trunc(float64(d))) {
			return nil, false
		}
		return x.At(int(d) - 1)
	default:
		return nil, false
	}
}

func kindOf(v dupecodec.Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}

func describe(v dupecodec.Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case dupecodec.String:
		return string(x)
	case dupecodec.Bool:
		return strconv.FormatBool(bool(x))
	case fmt.Stringer:
		return x.String()
	default:
		return v.Kind().String()
	}
}
