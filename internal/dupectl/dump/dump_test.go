package dump

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/ankur-anand/dupekit/internal/dupetest"
	"github.com/ankur-anand/dupekit/pkg/dupecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type S = dupecodec.String

// cyclic is {name: "x", items: [1, <root>], again: <items>}.
func cyclic() *dupecodec.Table {
	root := dupecodec.NewTable()
	root.Set(S("name"), S("x"))
	items := dupecodec.NewList(dupecodec.Double(1))
	root.Set(S("items"), items)
	items.Append(root)
	root.Set(S("again"), items)
	return root
}

func compact(t *testing.T, b []byte) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, b))
	return buf.String()
}

func TestTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, cyclic(), Options{}))

	want := strings.Join([]string{
		`table #1 (3 entries)`,
		`  "name" = "x"`,
		`  "items" = list #2 (2 items)`,
		`    [0] = 1`,
		`    [1] = <ref #1>`,
		`  "again" = <ref #2>`,
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestTreeMaxDepth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, cyclic(), Options{MaxDepth: 1}))

	assert.Contains(t, buf.String(), `"items" = list #2 (2 items) ...`)
	assert.Contains(t, buf.String(), `"again" = list #2 (2 items) ...`)
	assert.NotContains(t, buf.String(), "[0]")
}

func TestTreeScalars(t *testing.T) {
	root := dupecodec.NewList(
		dupecodec.Nil{},
		dupecodec.Bool(false),
		dupecodec.Double(-0.5),
		dupecodec.Vector{X: 1, Y: 2, Z: 3},
		dupecodec.Angle{P: 0, Y: 90, R: 0},
		S("tab\there"),
		dupecodec.NewTable(),
	)
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, root, Options{}))

	out := buf.String()
	assert.Contains(t, out, "[0] = nil")
	assert.Contains(t, out, "[1] = false")
	assert.Contains(t, out, "[2] = -0.5")
	assert.Contains(t, out, "[3] = Vector(1, 2, 3)")
	assert.Contains(t, out, `[5] = "tab\there"`)
	assert.Contains(t, out, "[6] = table #2 (0 entries)")
}

func TestTreeDecodedScene(t *testing.T) {
	root, err := dupecodec.Decode(dupetest.Scene(dupetest.SceneOptions{}), dupecodec.GrammarV5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, root, Options{}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "table #1 (4 entries)\n"))
	// ids follow the wire slot numbers
	assert.Contains(t, out, "1 = table #4 (3 entries)")
	assert.Contains(t, out, `"Constraints" = list #7 (1 items)`)
	assert.Contains(t, out, `"Ent1" = <ref #4>`)
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, cyclic(), Options{}))

	assert.Equal(t,
		`{"$id":1,"name":"x","items":{"$id":2,"$items":[1,{"$ref":1}]},"again":{"$ref":2}}`,
		compact(t, buf.Bytes()))
}

func TestJSONMaxDepth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, cyclic(), Options{MaxDepth: 1}))

	assert.Equal(t,
		`{"$id":1,"name":"x","items":{"$id":2,"$truncated":2},"again":{"$id":2,"$truncated":2}}`,
		compact(t, buf.Bytes()))
}

func TestJSONScalarsAndKeys(t *testing.T) {
	inner := dupecodec.NewTable()
	root := dupecodec.NewTable()
	root.Set(dupecodec.Double(0), dupecodec.Vector{X: 1, Y: 2, Z: 3})
	root.Set(dupecodec.Bool(true), dupecodec.Angle{Y: 90})
	root.Set(S("nan"), dupecodec.Double(math.NaN()))
	root.Set(S("inf"), dupecodec.Double(math.Inf(-1)))
	root.Set(S("nil"), dupecodec.Nil{})
	root.Set(S("inner"), inner)
	root.Set(inner, S("container key"))

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, root, Options{}))

	assert.Equal(t,
		`{"$id":1,"$num:0":{"$vector":[1,2,3]},"$bool:true":{"$angle":[0,90,0]},"nan":"NaN","inf":"-Inf","nil":null,"inner":{"$id":2},"$ref:2":"container key"}`,
		compact(t, buf.Bytes()))
}

// keyed is {<inner>: true, 1: "num", "1": "str", "$id": "dollar"} where
// inner = {"secret": 42} is reachable only as a key.
func keyed() *dupecodec.Table {
	inner := dupecodec.NewTable()
	inner.Set(S("secret"), dupecodec.Double(42))
	root := dupecodec.NewTable()
	root.Set(inner, dupecodec.Bool(true))
	root.Set(dupecodec.Double(1), S("num"))
	root.Set(S("1"), S("str"))
	root.Set(S("$id"), S("dollar"))
	return root
}

func TestJSONContainerKeyIsExpanded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, keyed(), Options{}))

	assert.Equal(t,
		`{"$id":1,"$ref:2":true,"$num:1":"num","1":"str","$str:$id":"dollar","$keys":[{"$id":2,"secret":42}]}`,
		compact(t, buf.Bytes()))
}

func TestJSONKeysOfDifferentKindsDoNotCollide(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, keyed(), Options{}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	// $id, four entries, $keys
	assert.Len(t, got, 6)
	assert.Equal(t, "num", got["$num:1"])
	assert.Equal(t, "str", got["1"])
	assert.Equal(t, float64(1), got["$id"])
	assert.Equal(t, "dollar", got["$str:$id"])
}

func TestJSONContainerKeySeenBeforeIsNotRepeated(t *testing.T) {
	inner := dupecodec.NewTable()
	inner.Set(S("secret"), dupecodec.Double(42))
	root := dupecodec.NewTable()
	root.Set(S("first"), inner)
	root.Set(inner, dupecodec.Bool(true))

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, root, Options{}))

	assert.Equal(t,
		`{"$id":1,"first":{"$id":2,"secret":42},"$ref:2":true}`,
		compact(t, buf.Bytes()))
}

func TestTreeContainerKeyIsExpanded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, keyed(), Options{}))

	want := strings.Join([]string{
		`table #1 (4 entries)`,
		`  key = table #2 (1 entries)`,
		`    "secret" = 42`,
		`  <ref #2> = true`,
		`  1 = "num"`,
		`  "1" = "str"`,
		`  "$id" = "dollar"`,
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestJSONDecodedSceneIsValidJSON(t *testing.T) {
	for _, g := range []dupecodec.Grammar{dupecodec.GrammarV4, dupecodec.GrammarV5} {
		root, err := dupecodec.Decode(dupetest.Scene(dupetest.SceneOptions{}), g)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, JSON(&buf, root, Options{}))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "sample", got["Description"])

		cons := got["Constraints"].(map[string]any)
		weld := cons["$items"].([]any)[0].(map[string]any)
		assert.Equal(t, map[string]any{"$ref": float64(4)}, weld["Ent1"])
	}
}
