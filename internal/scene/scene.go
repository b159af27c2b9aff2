package scene

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("scene object not found")

// PlaceholderLightName is left empty so that shots taken without extra
// lighting get an empty light segment in their file name.
const PlaceholderLightName = ""

// Scene holds everything the renderer needs for one frame.
// It is not safe for concurrent mutation: the capture sequencer is the only writer.
type Scene struct {
	Ambient    RGB
	Background RGB

	templates map[string]*Template
	objects   map[string]*Node
	lights    []*Light
	cameras   []*Camera
	instances []*Instance
	primary   string
}

func New() *Scene {
	return &Scene{
		Ambient:    RGB{0.25, 0.25, 0.25},
		Background: RGB{0.12, 0.12, 0.14},
		templates:  make(map[string]*Template),
		objects:    make(map[string]*Node),
	}
}

func (s *Scene) AddTemplate(t *Template) error {
	if _, dup := s.templates[t.Name]; dup {
		return fmt.Errorf("duplicate template %q", t.Name)
	}
	s.templates[t.Name] = t
	return nil
}

func (s *Scene) AddObject(n *Node) error {
	if _, dup := s.objects[n.Name()]; dup {
		return fmt.Errorf("duplicate object %q", n.Name())
	}
	s.objects[n.Name()] = n
	return nil
}

func (s *Scene) AddLight(l *Light) error {
	if _, err := s.Light(l.Name()); err == nil {
		return fmt.Errorf("duplicate light %q", l.Name())
	}
	s.lights = append(s.lights, l)
	return nil
}

func (s *Scene) AddCamera(c *Camera) error {
	if _, err := s.Camera(c.Name()); err == nil {
		return fmt.Errorf("duplicate camera %q", c.Name())
	}
	s.cameras = append(s.cameras, c)
	return nil
}

// SetPrimaryCamera marks the camera used when a run lists no cameras.
func (s *Scene) SetPrimaryCamera(name string) { s.primary = name }

func (s *Scene) Template(name string) (*Template, error) {
	if t, ok := s.templates[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
}

func (s *Scene) Object(name string) (*Node, error) {
	if n, ok := s.objects[name]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("object %q: %w", name, ErrNotFound)
}

func (s *Scene) Light(name string) (*Light, error) {
	for _, l := range s.lights {
		if l.Name() == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("light %q: %w", name, ErrNotFound)
}

func (s *Scene) Camera(name string) (*Camera, error) {
	for _, c := range s.cameras {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("camera %q: %w", name, ErrNotFound)
}

// PrimaryCamera returns the designated primary camera. Without an explicit
// designation a camera named "Main" is used, then the only camera in the scene.
func (s *Scene) PrimaryCamera() (*Camera, error) {
	if s.primary != "" {
		return s.Camera(s.primary)
	}
	if c, err := s.Camera("Main"); err == nil {
		return c, nil
	}
	if len(s.cameras) == 1 {
		return s.cameras[0], nil
	}
	return nil, fmt.Errorf("primary camera: %w", ErrNotFound)
}

// ActiveCamera returns the active camera with the highest depth, or nil.
func (s *Scene) ActiveCamera() *Camera {
	var best *Camera
	for _, c := range s.cameras {
		if !c.ActiveInHierarchy() {
			continue
		}
		if best == nil || c.Depth > best.Depth {
			best = c
		}
	}
	return best
}

func (s *Scene) Lights() []*Light { return s.lights }

func (s *Scene) Cameras() []*Camera { return s.cameras }

func (s *Scene) Instances() []*Instance { return s.instances }

// Instantiate places a copy of t at pos under parent. The copy starts active,
// like a freshly spawned object; callers that pool instances switch it off.
func (s *Scene) Instantiate(t *Template, pos Vec3, parent *Node) *Instance {
	inst := &Instance{
		Node:     Node{name: t.Name, Position: pos, parent: parent, active: true},
		Template: t,
	}
	s.instances = append(s.instances, inst)
	return inst
}

// AddPlaceholderLight adds a disabled light with no intensity or range.
func (s *Scene) AddPlaceholderLight() *Light {
	l := &Light{Node: Node{name: PlaceholderLightName}, Color: White}
	s.lights = append(s.lights, l)
	return l
}
