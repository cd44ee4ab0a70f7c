package thumbs

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"
)

// Sanity caps for CTB preview block headers; anything beyond these means a
// corrupt or misread file, not a real preview.
const (
	ctbMaxEdge     = 4096
	ctbHeaderBytes = 16
	ctbBlockHeader = 12
)

// extractCTB reads the small and large previews of a Chitubox .ctb file.
// The header stores u32 magic and version followed by the two preview
// block offsets; blocks are width, height, data size then RGB565 pixels,
// all little-endian.
func extractCTB(path string) (previewPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return previewPair{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, ctbHeaderBytes)
	if _, err := f.ReadAt(header, 0); err != nil {
		return previewPair{}, fmt.Errorf("read ctb header: %w", err)
	}
	smallOffset := binary.LittleEndian.Uint32(header[8:12])
	largeOffset := binary.LittleEndian.Uint32(header[12:16])

	small, err := readCTBPreview(f, int64(smallOffset))
	if err != nil {
		return previewPair{}, fmt.Errorf("ctb small preview: %w", err)
	}
	big, err := readCTBPreview(f, int64(largeOffset))
	if err != nil {
		return previewPair{}, fmt.Errorf("ctb large preview: %w", err)
	}
	return previewPair{small: small, big: big}, nil
}

func readCTBPreview(f *os.File, offset int64) (*image.NRGBA, error) {
	if offset <= 0 {
		return nil, fmt.Errorf("preview offset %d invalid", offset)
	}
	block := make([]byte, ctbBlockHeader)
	if _, err := f.ReadAt(block, offset); err != nil {
		return nil, fmt.Errorf("read preview header at %d: %w", offset, err)
	}
	width := int(binary.LittleEndian.Uint32(block[0:4]))
	height := int(binary.LittleEndian.Uint32(block[4:8]))
	dataSize := int(binary.LittleEndian.Uint32(block[8:12]))

	if width <= 0 || height <= 0 || width > ctbMaxEdge || height > ctbMaxEdge {
		return nil, fmt.Errorf("preview dimensions %dx%d invalid", width, height)
	}
	if dataSize < width*height*2 {
		return nil, fmt.Errorf("preview data size %d too small for %dx%d", dataSize, width, height)
	}

	data := make([]byte, width*height*2)
	if _, err := f.ReadAt(data, offset+ctbBlockHeader); err != nil {
		return nil, fmt.Errorf("read preview data at %d: %w", offset, err)
	}
	return decodeImage(data, width, height, binary.LittleEndian)
}
