package thumbs

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
)

// The .goo header preceding the preview images: version (4) + software
// info (32) + software version (24) + file time (24) + printer name (32) +
// printer type (32) + profile name (32) + three u16 levels (6), plus the
// 8-byte adjustment GOO 3.0 introduced.
const (
	gooHeaderSize       = 4 + 32 + 24 + 24 + 32 + 32 + 32 + 6
	gooOffsetAdjustment = 8
	gooPreviewOffset    = gooHeaderSize + gooOffsetAdjustment

	gooSmallEdge = 116
	gooBigEdge   = 290

	gooSmallBytes = gooSmallEdge * gooSmallEdge * 2
	gooBigBytes   = gooBigEdge * gooBigEdge * 2

	// Candidates within this many bytes of the fixed offset are tried when
	// the fixed offset decodes to garbage.
	gooSearchRange = 100

	// Fixed-offset decodes scoring below this run the offset search.
	gooQualityFloor = 40.0
)

// extractGoo reads the small and big previews of an Elegoo .goo file and
// returns them as a pair.
func extractGoo(path string) (previewPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return previewPair{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	// One bounded read covers the fixed offset, the search window and both
	// previews; model files run to hundreds of megabytes.
	window := make([]byte, gooPreviewOffset+gooSearchRange+gooSmallBytes+gooBigBytes)
	n, err := io.ReadFull(f, window)
	if err != nil && err != io.ErrUnexpectedEOF {
		return previewPair{}, fmt.Errorf("read %s: %w", path, err)
	}
	window = window[:n]

	offset := gooPreviewOffset
	order := binary.ByteOrder(binary.BigEndian)

	big, err := decodeWindow(window, offset+gooSmallBytes, gooBigEdge, gooBigEdge, order)
	if err != nil || quality(big) < gooQualityFloor {
		bestOffset, bestOrder, ok := searchGooOffset(window)
		if !ok {
			if err != nil {
				return previewPair{}, fmt.Errorf("goo preview at fixed offset: %w", err)
			}
			// Keep the fixed-offset decode; nothing better was found.
		} else {
			offset, order = bestOffset, bestOrder
		}
	}

	small, err := decodeWindow(window, offset, gooSmallEdge, gooSmallEdge, order)
	if err != nil {
		return previewPair{}, fmt.Errorf("goo small preview: %w", err)
	}
	big, err = decodeWindow(window, offset+gooSmallBytes, gooBigEdge, gooBigEdge, order)
	if err != nil {
		return previewPair{}, fmt.Errorf("goo big preview: %w", err)
	}
	return previewPair{small: small, big: big}, nil
}

// searchGooOffset scans around the fixed preview offset in 2-byte steps,
// both endians, and returns the candidate whose big preview scores best.
func searchGooOffset(window []byte) (offset int, order binary.ByteOrder, ok bool) {
	best := -1e9
	for adj := -gooSearchRange; adj <= gooSearchRange; adj += 2 {
		candidate := gooPreviewOffset + adj
		if candidate < 0 {
			continue
		}
		for _, tryOrder := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
			img, err := decodeWindow(window, candidate+gooSmallBytes, gooBigEdge, gooBigEdge, tryOrder)
			if err != nil {
				continue
			}
			if score := quality(img); score > best {
				best = score
				offset = candidate
				order = tryOrder
				ok = true
			}
		}
	}
	return offset, order, ok
}

func decodeWindow(window []byte, offset, width, height int, order binary.ByteOrder) (*image.NRGBA, error) {
	if offset < 0 || offset > len(window) {
		return nil, fmt.Errorf("preview offset %d outside file", offset)
	}
	return decodeImage(window[offset:], width, height, order)
}
