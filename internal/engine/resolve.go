package engine

import (
	"errors"
	"fmt"

	"github.com/ivlev/shotmaker/internal/scene"
)

func validateTemplates(host Host, templates []string) error {
	if len(templates) == 0 {
		return ErrNoTemplates
	}
	seen := make(map[string]bool, len(templates))
	for i, name := range templates {
		if name == "" {
			return fmt.Errorf("templates[%d]: %w", i, ErrNilTemplate)
		}
		// subject names end up in file names
		if seen[name] {
			return fmt.Errorf("template %q: %w", name, ErrDuplicateName)
		}
		seen[name] = true
	}

	var errs []error
	for _, name := range templates {
		if err := host.HasTemplate(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildPool instantiates one subject per template at pos, in template order,
// and switches every instance off.
func buildPool(host Host, templates []string, pos scene.Vec3, state *ActivationState) ([]Subject, error) {
	pool := make([]Subject, 0, len(templates))
	for _, name := range templates {
		h, err := host.Instantiate(name, pos)
		if err != nil {
			return nil, fmt.Errorf("instantiate %q: %w", name, err)
		}
		state.Deactivate(h)
		pool = append(pool, Subject{Name: name, Handle: h})
	}
	return pool, nil
}

// resolveLights turns groups and single lights into light configurations:
// groups first, then one configuration per single light. needPlaceholder
// reports that neither was given.
func resolveLights(groups [][]Toggler, flat []Toggler) (configs []LightConfiguration, needPlaceholder bool, err error) {
	for i, g := range groups {
		if len(g) == 0 {
			return nil, false, fmt.Errorf("light_groups[%d]: %w", i, ErrEmptyLightGroup)
		}
		for j, l := range g {
			if l == nil {
				return nil, false, fmt.Errorf("light_groups[%d][%d]: %w", i, j, ErrNilLight)
			}
		}
		configs = append(configs, LightConfiguration{Name: g[0].Name(), Lights: g})
	}
	for i, l := range flat {
		if l == nil {
			return nil, false, fmt.Errorf("lights[%d]: %w", i, ErrNilLight)
		}
		configs = append(configs, LightConfiguration{Name: l.Name(), Lights: []Toggler{l}})
	}

	seen := make(map[string]bool, len(configs))
	for _, c := range configs {
		if seen[c.Name] {
			return nil, false, fmt.Errorf("light configuration %q: %w", c.Name, ErrDuplicateName)
		}
		seen[c.Name] = true
	}
	return configs, len(configs) == 0, nil
}

// cameraPlan is the outcome of camera resolution before anything is toggled.
type cameraPlan struct {
	configs []CameraConfiguration
	// collapsed is set when the run falls back to the primary camera.
	collapsed bool
	// dropped holds every known camera that takes no part in the run.
	dropped []Camera
}

func resolveCameras(specs []CameraSpec, host Host, primaryOnly, lookAll bool, target Target) (*cameraPlan, error) {
	track := func(on bool) Tracking {
		if on {
			return Tracking{Mode: TrackPoint, Point: target.LookPoint()}
		}
		return Tracking{Mode: TrackOff}
	}

	seen := make(map[string]bool, len(specs))
	for i, sp := range specs {
		if sp.Camera == nil {
			return nil, fmt.Errorf("cameras[%d]: %w", i, ErrNilCamera)
		}
		if seen[sp.Camera.Name()] {
			return nil, fmt.Errorf("camera %q: %w", sp.Camera.Name(), ErrDuplicateName)
		}
		seen[sp.Camera.Name()] = true
	}

	plan := &cameraPlan{}
	if len(specs) > 0 && !primaryOnly {
		for _, sp := range specs {
			plan.configs = append(plan.configs, CameraConfiguration{
				Camera:   sp.Camera,
				Tracking: track(sp.LookAtTarget || lookAll),
			})
		}
	} else {
		primary, err := host.PrimaryCamera()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoPrimaryCamera, err)
		}
		if primary == nil {
			return nil, ErrNoPrimaryCamera
		}
		plan.configs = []CameraConfiguration{{Camera: primary, Tracking: track(lookAll)}}
		plan.collapsed = true
	}

	// only cameras taking part in the run may stay enabled
	used := make(map[Camera]bool, len(plan.configs))
	for _, cc := range plan.configs {
		used[cc.Camera] = true
	}
	others := make([]Camera, 0, len(specs))
	for _, sp := range specs {
		others = append(others, sp.Camera)
	}
	for _, c := range append(others, host.Cameras()...) {
		if !used[c] {
			used[c] = true
			plan.dropped = append(plan.dropped, c)
		}
	}
	return plan, nil
}

// applyCameras sets the activation state every job relies on: a single
// camera stays on for the whole run, several cameras all start off.
func applyCameras(plan *cameraPlan, state *ActivationState) {
	for _, c := range plan.dropped {
		state.Deactivate(c)
	}
	if len(plan.configs) == 1 {
		state.Activate(plan.configs[0].Camera)
		return
	}
	for _, cc := range plan.configs {
		state.Deactivate(cc.Camera)
	}
}

// orient points every tracking camera at its target once.
func orient(configs []CameraConfiguration) {
	for _, cc := range configs {
		if cc.Tracking.Mode == TrackPoint {
			cc.Camera.LookAt(cc.Tracking.Point)
		}
	}
}
