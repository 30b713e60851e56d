package image

import (
	"image"

	"golang.org/x/image/draw"
)

// DefaultThumbnailEdge is the longest edge of a sampling thumbnail.
const DefaultThumbnailEdge = 96

// Thumbnail scales img so its longest edge is at most edge pixels, keeping
// the aspect ratio. Images already within bounds are returned as-is.
func Thumbnail(img image.Image, edge int) image.Image {
	if edge <= 0 {
		edge = DefaultThumbnailEdge
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= edge && h <= edge {
		return img
	}

	var tw, th int
	if w >= h {
		tw = edge
		th = max(1, h*edge/w)
	} else {
		th = edge
		tw = max(1, w*edge/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
