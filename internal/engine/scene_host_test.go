package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/shotmaker/internal/capture"
	"github.com/ivlev/shotmaker/internal/config"
	"github.com/ivlev/shotmaker/internal/logging"
	"github.com/ivlev/shotmaker/internal/renderer"
	"github.com/ivlev/shotmaker/internal/scene"
)

func studio(t *testing.T) *scene.Scene {
	t.Helper()
	f := &scene.File{
		Ambient: &scene.RGB{0.2, 0.2, 0.2},
		Objects: []scene.ObjectFile{
			{Name: "Stage"},
			{Name: "Pedestal", Position: scene.Vec3{Z: 5}, Parent: "Stage"},
		},
		Templates: []scene.TemplateFile{{Name: "A"}, {Name: "B", Size: 2}},
		Lights: []scene.LightFile{
			{Name: "Key", Position: scene.Vec3{X: 1, Y: 2, Z: 3}, Intensity: 1, Range: 10},
		},
		Cameras: []scene.CameraFile{
			// not listed by the runs below; its depth wins while it is on
			{Name: "Main", Position: scene.Vec3{Z: -3}, Depth: 1},
			{Name: "Front", Position: scene.Vec3{Y: 1}},
			{Name: "Side", Position: scene.Vec3{X: 5, Z: 5}},
		},
	}
	sc, err := scene.Build(f, t.TempDir())
	require.NoError(t, err)
	return sc
}

func TestOptionsFromConfig(t *testing.T) {
	sc := studio(t)
	cfg := config.Default()
	cfg.Templates = []string{"A", "B"}
	cfg.Lights = []string{"Key"}
	cfg.Cameras = []config.CameraConfig{{Name: "Front", LookAtTarget: true}, {Name: "Side"}}
	cfg.Target = "Pedestal"
	cfg.TargetOffset = scene.Vec3{Y: 0.5}

	opts, host, err := OptionsFromConfig(cfg, sc)
	require.NoError(t, err)

	assert.Equal(t, scene.Vec3{Z: 5}, opts.Target.Position)
	assert.Equal(t, scene.Vec3{Y: 0.5, Z: 5}, opts.Target.LookPoint())
	assert.Equal(t, "Stage", host.Parent.Name())
	require.Len(t, opts.Cameras, 2)
	assert.True(t, opts.Cameras[0].LookAtTarget)
	assert.Equal(t, cfg.Settle, opts.Settle)

	inst, err := host.Instantiate("B", opts.Target.Position)
	require.NoError(t, err)
	assert.Same(t, host.Parent, inst.(*scene.Instance).Parent())
}

func TestOptionsFromConfig_UnknownNames(t *testing.T) {
	sc := studio(t)
	cfg := config.Default()
	cfg.Templates = []string{"A"}
	cfg.LightGroups = [][]string{{"Key", "Moon"}}
	cfg.Cameras = []config.CameraConfig{{Name: "Drone"}}
	cfg.Target = "Nowhere"

	_, _, err := OptionsFromConfig(cfg, sc)
	require.Error(t, err)
	assert.ErrorIs(t, err, scene.ErrNotFound)
	for _, name := range []string{"Moon", "Drone", "Nowhere"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestOptionsFromConfig_UnknownTemplate(t *testing.T) {
	sc := studio(t)
	cfg := config.Default()
	cfg.Templates = []string{"A", "Ghost"}

	_, _, err := OptionsFromConfig(cfg, sc)
	assert.ErrorIs(t, err, scene.ErrNotFound)
	assert.ErrorContains(t, err, "Ghost")
}

func TestSetup_UnknownTemplateLeavesSceneUntouched(t *testing.T) {
	sc := studio(t)
	front, err := sc.Camera("Front")
	require.NoError(t, err)

	opts := Options{
		Templates: []string{"A", "Ghost"},
		Cameras:   []CameraSpec{{Camera: front}},
		Scale:     1,
	}
	err = New(&SceneHost{Scene: sc}, nil, opts, logging.Discard()).Setup()
	assert.ErrorIs(t, err, scene.ErrNotFound)
	assert.Empty(t, sc.Instances())
}

// viewRecorder notes which camera the renderer would use for each capture.
type viewRecorder struct {
	sc    *scene.Scene
	views []string
}

func (v *viewRecorder) Capture(_ context.Context, name string, _ int) *capture.Pending {
	view := "none"
	if c := v.sc.ActiveCamera(); c != nil {
		view = c.Name()
	}
	v.views = append(v.views, name+" from "+view)
	return capture.Resolved(capture.Result{Path: name, Visible: true})
}

func TestRun_UnlistedSceneCameraDoesNotRender(t *testing.T) {
	sc := studio(t)
	cfg := config.Default()
	cfg.Templates = []string{"A"}
	cfg.Cameras = []config.CameraConfig{{Name: "Front"}, {Name: "Side"}}
	cfg.Settle = 0

	opts, host, err := OptionsFromConfig(cfg, sc)
	require.NoError(t, err)

	rec := &viewRecorder{sc: sc}
	_, err = New(host, rec, opts, logging.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A__Front.png from Front", "A__Side.png from Side"}, rec.views)
	main, err := sc.Camera("Main")
	require.NoError(t, err)
	assert.False(t, main.ActiveSelf())
}

func TestRun_PrimaryOnlyUsesPrimaryView(t *testing.T) {
	sc := studio(t)
	sc.SetPrimaryCamera("Side")
	cfg := config.Default()
	cfg.Templates = []string{"A"}
	cfg.UseOnlyPrimaryCamera = true
	cfg.Settle = 0

	opts, host, err := OptionsFromConfig(cfg, sc)
	require.NoError(t, err)

	rec := &viewRecorder{sc: sc}
	_, err = New(host, rec, opts, logging.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A__Side.png from Side"}, rec.views)
}

func TestSceneHost_NoPrimaryCamera(t *testing.T) {
	host := &SceneHost{Scene: scene.New()}
	c, err := host.PrimaryCamera()
	assert.ErrorIs(t, err, scene.ErrNotFound)
	assert.Nil(t, c)
}

func TestRun_WritesScreenshots(t *testing.T) {
	sc := studio(t)
	cfg := config.Default()
	cfg.Templates = []string{"A", "B"}
	cfg.Lights = []string{"Key"}
	cfg.Cameras = []config.CameraConfig{{Name: "Front"}, {Name: "Side"}}
	cfg.AllLookAtTarget = true
	cfg.Target = "Pedestal"
	cfg.Settle = 0

	opts, host, err := OptionsFromConfig(cfg, sc)
	require.NoError(t, err)

	writer, err := capture.NewWriter(renderer.New(sc, 64, 48), t.TempDir(), logging.Discard())
	require.NoError(t, err)

	report, err := New(host, writer, opts, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	assert.Empty(t, report.Failed())
	for _, name := range []string{"A_Key_Front.png", "A_Key_Side.png", "B_Key_Front.png", "B_Key_Side.png"} {
		info, err := os.Stat(filepath.Join(writer.Dir(), name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size())
	}

	for _, inst := range sc.Instances() {
		assert.False(t, inst.ActiveSelf(), inst.Name())
	}
}
