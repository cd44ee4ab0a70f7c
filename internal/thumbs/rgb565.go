package thumbs

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// decodeRGB565 expands a 16-bit RGB565 pixel to 8-bit channels.
func decodeRGB565(pixel uint16) color.NRGBA {
	r := uint8((pixel >> 11 & 0x1F) * 255 / 31)
	g := uint8((pixel >> 5 & 0x3F) * 255 / 63)
	b := uint8((pixel & 0x1F) * 255 / 31)
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
}

// decodeImage builds an image from raw RGB565 pixel data.
func decodeImage(data []byte, width, height int, order binary.ByteOrder) (*image.NRGBA, error) {
	need := width * height * 2
	if len(data) < need {
		return nil, fmt.Errorf("preview data truncated: need %d bytes, have %d", need, len(data))
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 2
			img.SetNRGBA(x, y, decodeRGB565(order.Uint16(data[i:i+2])))
		}
	}
	return img, nil
}

// quality scores an image for offset alignment: spatial coherence of
// adjacent pixels minus the color discontinuity between the left and right
// edges. Misaligned RGB565 data scores low on both counts.
func quality(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 2 || height == 0 {
		return 0
	}

	var edgeDiff, edgeSamples float64
	for y := 0; y < height; y += 5 {
		left := img.NRGBAAt(0, y)
		right := img.NRGBAAt(width-1, y)
		edgeDiff += channelDiff(left, right)
		edgeSamples++
	}
	if edgeSamples > 0 {
		edgeDiff /= edgeSamples
	}

	var coherent, checks float64
	for y := 0; y < height; y += 10 {
		for x := 0; x < width-1; x += 10 {
			if channelDiff(img.NRGBAAt(x, y), img.NRGBAAt(x+1, y)) < 50 {
				coherent++
			}
			checks++
		}
	}
	coherence := 0.0
	if checks > 0 {
		coherence = coherent / checks
	}

	return coherence*100 - edgeDiff/10
}

func channelDiff(a, b color.NRGBA) float64 {
	return absDiff(a.R, b.R) + absDiff(a.G, b.G) + absDiff(a.B, b.B)
}

func absDiff(a, b uint8) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}

// detectRotation reports 270 when the image content hugs the vertical
// edges, meaning the preview was stored landscape and reads better rotated
// a quarter turn counter-clockwise.
func detectRotation(img *image.NRGBA) int {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	var top, bottom, left, right float64
	for x := 0; x < width; x++ {
		top += brightness(img.NRGBAAt(x, 0))
		bottom += brightness(img.NRGBAAt(x, height-1))
	}
	for y := 0; y < height; y++ {
		left += brightness(img.NRGBAAt(0, y))
		right += brightness(img.NRGBAAt(width-1, y))
	}
	vertical := (left/float64(height) + right/float64(height)) / 2
	horizontal := (top/float64(width) + bottom/float64(width)) / 2

	if vertical > horizontal*1.1 {
		return 270
	}
	return 0
}

func brightness(c color.NRGBA) float64 {
	return float64(c.R) + float64(c.G) + float64(c.B)
}

// rotate returns a copy turned by the given angle; 0, 90, 180 and 270 are
// the clockwise angles the slicers use, everything else is identity.
func rotate(img *image.NRGBA, angle int) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch angle {
	case 90:
		out := image.NewNRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetNRGBA(h-1-y, x, img.NRGBAAt(x, y))
			}
		}
		return out
	case 180:
		out := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetNRGBA(w-1-x, h-1-y, img.NRGBAAt(x, y))
			}
		}
		return out
	case 270:
		out := image.NewNRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetNRGBA(y, w-1-x, img.NRGBAAt(x, y))
			}
		}
		return out
	default:
		return img
	}
}
