package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"golang.org/x/image/draw"

	"github.com/ivlev/shotmaker/internal/scene"
	"github.com/ivlev/shotmaker/internal/system"
)

// MaxSide bounds either frame dimension after magnification.
const MaxSide = 16384

var (
	ErrNoCamera      = errors.New("no active camera")
	ErrFrameTooLarge = errors.New("frame too large")
)

// Renderer rasterises the active part of a scene: every active instance is
// drawn as a camera-facing sprite, lit by the ambient colour and the active lights.
type Renderer struct {
	Scene  *scene.Scene
	Width  int
	Height int
}

func New(s *scene.Scene, width, height int) *Renderer {
	return &Renderer{Scene: s, Width: width, Height: height}
}

// FrameSize is the base frame size multiplied by scale on both axes.
func (r *Renderer) FrameSize(scale int) (image.Rectangle, error) {
	if scale < 1 {
		return image.Rectangle{}, fmt.Errorf("scale %d: %w", scale, ErrFrameTooLarge)
	}
	w, h := r.Width*scale, r.Height*scale
	if w > MaxSide || h > MaxSide || w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("%dx%d at scale %d: %w", r.Width, r.Height, scale, ErrFrameTooLarge)
	}
	return image.Rect(0, 0, w, h), nil
}

type drawable struct {
	inst  *scene.Instance
	x, y  float64
	depth float64
}

// Frame renders the scene as it is right now. The returned frame belongs
// to the caller until it is passed to Release.
func (r *Renderer) Frame(scale int) (*image.RGBA, error) {
	bounds, err := r.FrameSize(scale)
	if err != nil {
		return nil, err
	}
	cam := r.Scene.ActiveCamera()
	if cam == nil {
		return nil, ErrNoCamera
	}

	frame := system.GetImage(bounds)
	bg := r.Scene.Background
	draw.Draw(frame, bounds, image.NewUniform(color.RGBA{R: bg.Byte(0), G: bg.Byte(1), B: bg.Byte(2), A: 255}), image.Point{}, draw.Src)

	v := newView(cam, bounds.Dx(), bounds.Dy())

	var items []drawable
	for _, inst := range r.Scene.Instances() {
		if !inst.ActiveInHierarchy() || inst.Template == nil || inst.Template.Sprite == nil {
			continue
		}
		x, y, depth, ok := v.project(inst.Position)
		if !ok {
			continue
		}
		items = append(items, drawable{inst: inst, x: x, y: y, depth: depth})
	}
	// far to near
	sort.SliceStable(items, func(i, j int) bool { return items[i].depth > items[j].depth })

	for _, it := range items {
		r.drawSprite(frame, v, it)
	}
	return frame, nil
}

// Release returns a frame obtained from Frame to the buffer pool.
func (r *Renderer) Release(img *image.RGBA) {
	system.PutImage(img)
}

func (r *Renderer) drawSprite(dst *image.RGBA, v view, it drawable) {
	tpl := it.inst.Template
	sb := tpl.Sprite.Bounds()
	if sb.Empty() {
		return
	}

	h := tpl.Size * v.focal / it.depth
	w := h * float64(sb.Dx()) / float64(sb.Dy())
	rect := image.Rect(int(it.x-w/2), int(it.y-h/2), int(it.x+w/2), int(it.y+h/2))
	if rect.Empty() || !rect.Overlaps(dst.Bounds()) {
		return
	}

	light := r.lightAt(it.inst.Position)
	shaded := shade(tpl.Sprite, tpl.Tint.Mul(light))
	draw.CatmullRom.Scale(dst, rect, shaded, shaded.Bounds(), draw.Over, nil)
}

func (r *Renderer) lightAt(p scene.Vec3) scene.RGB {
	total := r.Scene.Ambient
	for _, l := range r.Scene.Lights() {
		total = total.Add(l.Contribution(p))
	}
	return total
}

// shade multiplies the sprite colour by k. Channels are clamped to alpha
// so the result stays valid premultiplied RGBA.
func shade(src image.Image, k scene.RGB) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)

	for i := 0; i < len(out.Pix); i += 4 {
		a := float64(out.Pix[i+3])
		for c := 0; c < 3; c++ {
			x := float64(out.Pix[i+c]) * k[c]
			if x > a {
				x = a
			}
			out.Pix[i+c] = uint8(x + 0.5)
		}
	}
	return out
}
