package inspect

import (
	"testing"

	"github.com/ankur-anand/dupekit/internal/dupetest"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"github.com/ankur-anand/dupekit/pkg/envelope"
	"github.com/ankur-anand/dupekit/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := dupetest.WriteFile(t, dir, "scene.txt", dupetest.SceneFile(t, 5, dupetest.SceneOptions{}))

	detail, err := Inspect(path)
	require.NoError(t, err)

	assert.Equal(t, path, detail.Path)
	assert.Equal(t, 5, detail.Revision)
	assert.Equal(t, "table", detail.RootKind)
	assert.Equal(t, []string{"HeadEnt", "Entities", "Constraints", "Description"}, detail.TopLevelKeys)
	assert.Equal(t, 1, detail.EntityCount)
	assert.Equal(t, 1, detail.ConstraintCount)
	assert.Equal(t, "1", detail.HeadEntity)
	assert.Equal(t, "sample", detail.Info["name"])
	assert.False(t, detail.Legacy)
	assert.NotEmpty(t, detail.SizeHuman)
	assert.Equal(t, 7, detail.Stats.Tables)
}

func TestInspectErrors(t *testing.T) {
	dir := t.TempDir()
	path := dupetest.WriteFile(t, dir, "junk.txt", []byte("hello world"))

	_, err := Inspect(path)
	require.ErrorIs(t, err, envelope.ErrBadMagic)

	_, err = Check(path)
	require.ErrorIs(t, err, envelope.ErrBadMagic)
}

func TestDescribeNonTableRoot(t *testing.T) {
	var w dupetest.Wire
	w.List().Str("a").End()
	raw := dupetest.File(envelope.Magic, 5, dupetest.DefaultInfo(), dupetest.LZMA(t, w.Bytes()))

	d, err := dupefile.LoadBytes(raw)
	require.NoError(t, err)

	detail := Describe(d)
	assert.Equal(t, "list", detail.RootKind)
	assert.Empty(t, detail.TopLevelKeys)
	assert.Zero(t, detail.EntityCount)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := dupetest.WriteFile(t, dir, "ok.txt", dupetest.SceneFile(t, 4, dupetest.SceneOptions{}))
		report, err := Check(path)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.Empty(t, report.Defects)
		assert.Equal(t, 4, report.Revision)
	})

	t.Run("defects", func(t *testing.T) {
		path := dupetest.WriteFile(t, dir, "bad.txt", dupetest.SceneFile(t, 5, dupetest.SceneOptions{NoPhysics: true, NoConstraints: true}))
		report, err := Check(path)
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.Equal(t, []string{
			"Missing Constraints table",
			"Missing PhysicsObject table from Entity[1][prop_physics][models/props_c17/oildrum001.mdl]",
		}, report.Defects)
	})

	t.Run("legacy", func(t *testing.T) {
		pairs := append(dupetest.DefaultInfo(), envelope.LegacyKey, "")
		raw := dupetest.File(envelope.Magic, 5, pairs, dupetest.LZMA(t, dupetest.Scene(dupetest.SceneOptions{})))
		path := dupetest.WriteFile(t, dir, "legacy.txt", raw)

		_, err := Check(path)
		require.ErrorIs(t, err, validator.ErrLegacyFormat)
	})
}
