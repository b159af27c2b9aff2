package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/shotmaker/internal/source"
)

// File is the on-disk description of a scene.
type File struct {
	Ambient       *RGB           `yaml:"ambient"`
	Background    *RGB           `yaml:"background"`
	PrimaryCamera string         `yaml:"primary_camera"`
	Objects       []ObjectFile   `yaml:"objects"`
	Templates     []TemplateFile `yaml:"templates"`
	Lights        []LightFile    `yaml:"lights"`
	Cameras       []CameraFile   `yaml:"cameras"`
}

type ObjectFile struct {
	Name     string `yaml:"name"`
	Position Vec3   `yaml:"position"`
	Parent   string `yaml:"parent"`
	Inactive bool   `yaml:"inactive"`
}

type TemplateFile struct {
	Name   string  `yaml:"name"`
	Sprite string  `yaml:"sprite"` // image, sprite directory or PDF catalog
	Page   int     `yaml:"page"`
	DPI    int     `yaml:"dpi"`
	Size   float64 `yaml:"size"`
	Tint   *RGB    `yaml:"tint"`
}

type LightFile struct {
	Name      string  `yaml:"name"`
	Position  Vec3    `yaml:"position"`
	Parent    string  `yaml:"parent"`
	Color     *RGB    `yaml:"color"`
	Intensity float64 `yaml:"intensity"`
	Range     float64 `yaml:"range"`
}

type CameraFile struct {
	Name     string  `yaml:"name"`
	Position Vec3    `yaml:"position"`
	Parent   string  `yaml:"parent"`
	LookAt   *Vec3   `yaml:"look_at"`
	FOV      float64 `yaml:"fov"`
	Depth    int     `yaml:"depth"`
	Inactive bool    `yaml:"inactive"`
}

// solidSpriteSize is the edge of the sprite generated for templates without one.
const solidSpriteSize = 64

// Load reads a scene file. Sprite paths are relative to the scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return Build(&f, filepath.Dir(path))
}

// Build assembles a scene from its file description. Objects are added in
// file order, so a parent has to be declared before its children.
func Build(f *File, baseDir string) (*Scene, error) {
	s := New()
	if f.Ambient != nil {
		s.Ambient = *f.Ambient
	}
	if f.Background != nil {
		s.Background = *f.Background
	}
	s.SetPrimaryCamera(f.PrimaryCamera)

	parent := func(name string) (*Node, error) {
		if name == "" {
			return nil, nil
		}
		return s.Object(name)
	}

	for _, o := range f.Objects {
		if o.Name == "" {
			return nil, fmt.Errorf("object without name")
		}
		p, err := parent(o.Parent)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", o.Name, err)
		}
		n := NewNode(o.Name, o.Position, p)
		n.SetActive(!o.Inactive)
		if err := s.AddObject(n); err != nil {
			return nil, err
		}
	}

	for _, tf := range f.Templates {
		t, err := buildTemplate(tf, baseDir)
		if err != nil {
			return nil, err
		}
		if err := s.AddTemplate(t); err != nil {
			return nil, err
		}
	}

	for _, lf := range f.Lights {
		if lf.Name == "" {
			return nil, fmt.Errorf("light without name")
		}
		p, err := parent(lf.Parent)
		if err != nil {
			return nil, fmt.Errorf("light %q: %w", lf.Name, err)
		}
		l := &Light{
			Node:      Node{name: lf.Name, Position: lf.Position, parent: p, active: true},
			Color:     White,
			Intensity: lf.Intensity,
			Range:     lf.Range,
		}
		if lf.Color != nil {
			l.Color = *lf.Color
		}
		if err := s.AddLight(l); err != nil {
			return nil, err
		}
	}

	for _, cf := range f.Cameras {
		if cf.Name == "" {
			return nil, fmt.Errorf("camera without name")
		}
		p, err := parent(cf.Parent)
		if err != nil {
			return nil, fmt.Errorf("camera %q: %w", cf.Name, err)
		}
		c := &Camera{
			Node:    Node{name: cf.Name, Position: cf.Position, parent: p, active: !cf.Inactive},
			Forward: DefaultForward,
			FOV:     cf.FOV,
			Depth:   cf.Depth,
		}
		if c.FOV <= 0 {
			c.FOV = 60
		}
		if cf.LookAt != nil {
			c.LookAt(*cf.LookAt)
		}
		if err := s.AddCamera(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func buildTemplate(tf TemplateFile, baseDir string) (*Template, error) {
	if tf.Name == "" {
		return nil, fmt.Errorf("template without name")
	}
	t := &Template{Name: tf.Name, Size: tf.Size, Tint: White}
	if t.Size <= 0 {
		t.Size = 1
	}
	if tf.Tint != nil {
		t.Tint = *tf.Tint
	}

	if tf.Sprite == "" {
		t.Sprite = solidSprite()
		return t, nil
	}

	path := tf.Sprite
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	img, err := source.Sprite(path, tf.Page, tf.DPI)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", tf.Name, err)
	}
	t.Sprite = img
	return t, nil
}

func solidSprite() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, solidSpriteSize, solidSpriteSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}
