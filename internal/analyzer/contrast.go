package analyzer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ContrastDetector finds subjects with Sobel edges, dilation and connected
// components. Frames are analysed on a downscaled grayscale copy.
type ContrastDetector struct {
	MinBlockArea  int     // in analysed (downscaled) pixels
	EdgeThreshold float64 // gradient magnitude
	MaxSide       int     // longest side of the analysed copy
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  64,
		EdgeThreshold: 30.0,
		MaxSide:       320,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	gray, factor := d.downscale(img)

	edges := sobel(gray, d.EdgeThreshold)
	dilated := dilate(edges, 5, 2)

	origin := img.Bounds().Min
	var blocks []Block
	for _, rect := range findComponents(dilated) {
		if rect.Dx()*rect.Dy() < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{
			Rect: image.Rect(
				origin.X+int(float64(rect.Min.X)*factor),
				origin.Y+int(float64(rect.Min.Y)*factor),
				origin.X+int(math.Ceil(float64(rect.Max.X)*factor)),
				origin.Y+int(math.Ceil(float64(rect.Max.Y)*factor)),
			),
			Confidence: 0.7,
		})
	}
	return blocks, nil
}

// downscale converts img to grayscale with its longest side at most MaxSide.
// factor maps analysed pixels back to frame pixels.
func (d *ContrastDetector) downscale(img image.Image) (*image.Gray, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	factor := 1.0
	if long := max(w, h); d.MaxSide > 0 && long > d.MaxSide {
		factor = float64(long) / float64(d.MaxSide)
		w = max(1, int(float64(w)/factor))
		h = max(1, int(float64(h)/factor))
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	return gray, factor
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

func sobel(gray *image.Gray, threshold float64) *image.Gray {
	b := gray.Bounds()
	edges := image.NewGray(b)

	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := float64(gray.GrayAt(x+kx, y+ky).Y)
					gx += p * sobelX[ky+1][kx+1]
					gy += p * sobelY[ky+1][kx+1]
				}
			}
			if math.Hypot(gx, gy) > threshold {
				edges.Pix[edges.PixOffset(x, y)] = 255
			}
		}
	}
	return edges
}

// dilate grows white regions so the outline of one subject becomes one component.
func dilate(img *image.Gray, kernelSize, iterations int) *image.Gray {
	b := img.Bounds()
	half := kernelSize / 2
	result := img

	for iter := 0; iter < iterations; iter++ {
		next := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if hasWhiteNeighbour(result, x, y, half) {
					next.Pix[next.PixOffset(x, y)] = 255
				}
			}
		}
		result = next
	}
	return result
}

func hasWhiteNeighbour(img *image.Gray, x, y, half int) bool {
	b := img.Bounds()
	for ky := max(b.Min.Y, y-half); ky <= min(b.Max.Y-1, y+half); ky++ {
		for kx := max(b.Min.X, x-half); kx <= min(b.Max.X-1, x+half); kx++ {
			if img.Pix[img.PixOffset(kx, ky)] > 128 {
				return true
			}
		}
	}
	return false
}

// findComponents returns the bounding box of every 4-connected white region.
func findComponents(img *image.Gray) []image.Rectangle {
	b := img.Bounds()
	visited := make([]bool, b.Dx()*b.Dy())
	idx := func(x, y int) int { return (y-b.Min.Y)*b.Dx() + (x - b.Min.X) }

	var rects []image.Rectangle
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if visited[idx(x, y)] || img.GrayAt(x, y).Y <= 128 {
				continue
			}
			rects = append(rects, flood(img, visited, idx, image.Pt(x, y)))
		}
	}
	return rects
}

func flood(img *image.Gray, visited []bool, idx func(x, y int) int, start image.Point) image.Rectangle {
	b := img.Bounds()
	box := image.Rectangle{Min: start, Max: start.Add(image.Pt(1, 1))}
	stack := []image.Point{start}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !p.In(b) || visited[idx(p.X, p.Y)] || img.GrayAt(p.X, p.Y).Y <= 128 {
			continue
		}
		visited[idx(p.X, p.Y)] = true
		box = box.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})

		stack = append(stack,
			image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y),
			image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1),
		)
	}
	return box
}
