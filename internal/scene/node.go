package scene

import (
	"image"
)

// Node is anything placed in the scene that can be switched on and off.
// A node is visible only when it and all its parents are active.
type Node struct {
	name     string
	Position Vec3
	parent   *Node
	active   bool
}

func NewNode(name string, pos Vec3, parent *Node) *Node {
	return &Node{name: name, Position: pos, parent: parent, active: true}
}

func (n *Node) Name() string { return n.name }

func (n *Node) SetActive(active bool) { n.active = active }

// ActiveSelf reports the node's own flag, ignoring its parents.
func (n *Node) ActiveSelf() bool { return n.active }

func (n *Node) ActiveInHierarchy() bool {
	for p := n; p != nil; p = p.parent {
		if !p.active {
			return false
		}
	}
	return true
}

func (n *Node) Parent() *Node { return n.parent }

// Light is a point light. A light with zero intensity or zero range
// contributes nothing to a frame.
type Light struct {
	Node
	Color     RGB
	Intensity float64
	Range     float64
}

// Contribution returns the light added at point p, or black when the light
// is switched off or out of range.
func (l *Light) Contribution(p Vec3) RGB {
	if !l.ActiveInHierarchy() || l.Intensity <= 0 || l.Range <= 0 {
		return RGB{}
	}
	d := p.Sub(l.Position).Len()
	if d > l.Range {
		return RGB{}
	}
	k := d / l.Range
	return l.Color.Scale(l.Intensity / (1 + 4*k*k))
}

// Camera renders the scene with a perspective projection.
// Among several active cameras the one with the highest Depth wins.
type Camera struct {
	Node
	Forward Vec3
	FOV     float64 // vertical, degrees
	Depth   int
}

// LookAt rotates the camera so it faces p. A target at the camera position
// leaves the orientation unchanged.
func (c *Camera) LookAt(p Vec3) {
	dir := p.Sub(c.Position).Normalize()
	if dir == (Vec3{}) {
		return
	}
	c.Forward = dir
}

// Template is the source a subject is instantiated from.
type Template struct {
	Name   string
	Sprite image.Image
	Size   float64 // world units, sprite height
	Tint   RGB
}

// Instance is one copy of a template placed in the scene.
type Instance struct {
	Node
	Template *Template
}
