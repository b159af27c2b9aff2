package scene

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studioYAML = `
ambient: [0.1, 0.1, 0.1]
primary_camera: Main
objects:
  - name: Stage
    position: [0, 0, 0]
  - name: Pedestal
    position: [0, 1, 5]
    parent: Stage
templates:
  - name: Crate
    size: 2
    tint: [1, 0.5, 0.2]
lights:
  - name: Key
    position: [2, 3, 3]
    intensity: 1.5
    range: 10
cameras:
  - name: Main
    position: [0, 1, 0]
    look_at: [0, 1, 5]
  - name: Side
    position: [5, 1, 5]
    depth: 1
    inactive: true
`

func writeScene(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	s, err := Load(writeScene(t, studioYAML))
	require.NoError(t, err)

	assert.Equal(t, RGB{0.1, 0.1, 0.1}, s.Ambient)

	ped, err := s.Object("Pedestal")
	require.NoError(t, err)
	assert.Equal(t, "Stage", ped.Parent().Name())

	crate, err := s.Template("Crate")
	require.NoError(t, err)
	assert.Equal(t, 2.0, crate.Size)
	assert.Equal(t, solidSpriteSize, crate.Sprite.Bounds().Dx())

	main, err := s.PrimaryCamera()
	require.NoError(t, err)
	assert.Equal(t, "Main", main.Name())
	assert.InDelta(t, 1.0, main.Forward.Z, 1e-9)

	side, err := s.Camera("Side")
	require.NoError(t, err)
	assert.False(t, side.ActiveSelf())

	// Side has the higher depth but is off
	assert.Same(t, main, s.ActiveCamera())
	side.SetActive(true)
	assert.Same(t, side, s.ActiveCamera())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown parent", "objects:\n  - name: A\n    parent: Nope\n"},
		{"bad vector", "objects:\n  - name: A\n    position: [1, 2]\n"},
		{"duplicate camera", "cameras:\n  - name: C\n  - name: C\n"},
		{"missing sprite", "templates:\n  - name: T\n    sprite: nope.png\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeScene(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPrimaryCamera_Fallbacks(t *testing.T) {
	s := New()
	_, err := s.PrimaryCamera()
	assert.ErrorIs(t, err, ErrNotFound)

	only := &Camera{Node: *NewNode("Only", Origin, nil)}
	require.NoError(t, s.AddCamera(only))
	c, err := s.PrimaryCamera()
	require.NoError(t, err)
	assert.Same(t, only, c)
}

func TestNode_ActiveInHierarchy(t *testing.T) {
	root := NewNode("root", Origin, nil)
	child := NewNode("child", Origin, root)

	assert.True(t, child.ActiveInHierarchy())
	root.SetActive(false)
	assert.True(t, child.ActiveSelf())
	assert.False(t, child.ActiveInHierarchy())
}

func TestCamera_LookAt(t *testing.T) {
	c := &Camera{Node: *NewNode("c", Vec3{X: 1}, nil), Forward: DefaultForward}

	c.LookAt(Vec3{X: 1, Y: 3})
	assert.InDelta(t, 1.0, c.Forward.Y, 1e-9)

	// looking at its own position keeps the old direction
	c.LookAt(Vec3{X: 1})
	assert.InDelta(t, 1.0, c.Forward.Y, 1e-9)
}

func TestLight_Contribution(t *testing.T) {
	l := &Light{Node: *NewNode("l", Origin, nil), Color: White, Intensity: 2, Range: 10}

	near := l.Contribution(Origin)
	assert.InDelta(t, 2.0, near[0], 1e-9)

	edge := l.Contribution(Vec3{X: 10})
	assert.InDelta(t, 0.4, edge[0], 1e-9)

	assert.Equal(t, RGB{}, l.Contribution(Vec3{X: 11}))

	l.SetActive(false)
	assert.Equal(t, RGB{}, l.Contribution(Origin))
}

func TestPlaceholderLight(t *testing.T) {
	s := New()
	l := s.AddPlaceholderLight()

	assert.Equal(t, "", l.Name())
	assert.Equal(t, RGB{}, l.Contribution(Origin))
}

func TestInstantiate(t *testing.T) {
	s := New()
	tpl := &Template{Name: "Barrel", Size: 1}
	parent := NewNode("Stage", Origin, nil)

	inst := s.Instantiate(tpl, Vec3{Z: 4}, parent)
	assert.Equal(t, "Barrel", inst.Name())
	assert.Same(t, parent, inst.Parent())
	assert.Len(t, s.Instances(), 1)
}

func TestVec3(t *testing.T) {
	v := Vec3{3, 4, 0}
	assert.Equal(t, 5.0, v.Len())
	assert.InDelta(t, 1.0, v.Normalize().Len(), 1e-12)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	assert.Equal(t, Vec3{Z: 1}, Vec3{X: 1}.Cross(Vec3{Y: 1}))
	assert.False(t, math.IsNaN(Vec3{}.Normalize().X))
}
