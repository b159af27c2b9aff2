package analyzer

import "image"

// Block is a region of a captured frame that stands out from the background.
// Rect is in frame coordinates.
type Block struct {
	Rect       image.Rectangle
	Confidence float64 // 0.0-1.0
}

// Detector finds subjects in a captured frame.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}
