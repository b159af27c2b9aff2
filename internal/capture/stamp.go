package capture

import (
	"image"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

const minStampSize = 64

func stampQR(frame *image.RGBA, content string) error {
	b := frame.Bounds()
	size := min(b.Dx(), b.Dy()) / 6
	if size < minStampSize {
		size = minStampSize
	}
	if size > b.Dx() || size > b.Dy() {
		return nil
	}

	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return err
	}
	code := q.Image(size)

	at := image.Rect(b.Max.X-size, b.Max.Y-size, b.Max.X, b.Max.Y)
	draw.Draw(frame, at, code, code.Bounds().Min, draw.Src)
	return nil
}
