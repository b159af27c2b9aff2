package engine

import (
	"errors"
	"fmt"

	"github.com/ivlev/shotmaker/internal/config"
	"github.com/ivlev/shotmaker/internal/scene"
)

// SceneHost drives a scene.Scene.
type SceneHost struct {
	Scene *scene.Scene
	// Parent is the node instances are attached to: the target's parent.
	Parent *scene.Node
}

func (h *SceneHost) Instantiate(template string, pos scene.Vec3) (Toggler, error) {
	t, err := h.Scene.Template(template)
	if err != nil {
		return nil, err
	}
	return h.Scene.Instantiate(t, pos, h.Parent), nil
}

func (h *SceneHost) HasTemplate(template string) error {
	_, err := h.Scene.Template(template)
	return err
}

func (h *SceneHost) PrimaryCamera() (Camera, error) {
	c, err := h.Scene.PrimaryCamera()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (h *SceneHost) Cameras() []Camera {
	cams := make([]Camera, 0, len(h.Scene.Cameras()))
	for _, c := range h.Scene.Cameras() {
		cams = append(cams, c)
	}
	return cams
}

func (h *SceneHost) PlaceholderLight() Toggler {
	return h.Scene.AddPlaceholderLight()
}

// OptionsFromConfig resolves the names in a run file against the scene.
// All unknown names are reported together.
func OptionsFromConfig(cfg *config.Config, sc *scene.Scene) (Options, *SceneHost, error) {
	var errs []error
	host := &SceneHost{Scene: sc}

	target := Target{Position: scene.Origin, Offset: cfg.TargetOffset}
	if cfg.Target != "" {
		n, err := sc.Object(cfg.Target)
		if err != nil {
			errs = append(errs, fmt.Errorf("target: %w", err))
		} else {
			target.Position = n.Position
			host.Parent = n.Parent()
		}
	}

	for _, name := range cfg.Templates {
		if err := host.HasTemplate(name); err != nil {
			errs = append(errs, err)
		}
	}

	light := func(name string) Toggler {
		l, err := sc.Light(name)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return l
	}

	groups := make([][]Toggler, 0, len(cfg.LightGroups))
	for _, names := range cfg.LightGroups {
		g := make([]Toggler, 0, len(names))
		for _, name := range names {
			if l := light(name); l != nil {
				g = append(g, l)
			}
		}
		groups = append(groups, g)
	}

	var flat []Toggler
	for _, name := range cfg.Lights {
		if l := light(name); l != nil {
			flat = append(flat, l)
		}
	}

	var cams []CameraSpec
	for _, cc := range cfg.Cameras {
		c, err := sc.Camera(cc.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cams = append(cams, CameraSpec{Camera: c, LookAtTarget: cc.LookAtTarget})
	}

	if err := errors.Join(errs...); err != nil {
		return Options{}, nil, err
	}

	return Options{
		Templates:            cfg.Templates,
		LightGroups:          groups,
		Lights:               flat,
		Cameras:              cams,
		UseOnlyPrimaryCamera: cfg.UseOnlyPrimaryCamera,
		AllLookAtTarget:      cfg.AllLookAtTarget,
		Target:               target,
		Scale:                cfg.Scale,
		Settle:               cfg.Settle,
		Retries:              cfg.Retries,
	}, host, nil
}
