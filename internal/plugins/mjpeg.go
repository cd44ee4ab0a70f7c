package plugins

import (
	"fmt"
	"io"
	"mime/multipart"
)

// MJPEGStream reads JPEG frames off a multipart/x-mixed-replace body.
type MJPEGStream struct {
	body  io.ReadCloser
	parts *multipart.Reader
}

func newMJPEGStream(body io.ReadCloser, boundary string) *MJPEGStream {
	return &MJPEGStream{
		body:  body,
		parts: multipart.NewReader(body, boundary),
	}
}

// NextFrame blocks until the server pushes the next frame and returns its
// JPEG bytes. io.EOF means the server ended the stream; cancelling the
// context passed to OpenStream surfaces here as a read error.
func (s *MJPEGStream) NextFrame() ([]byte, error) {
	part, err := s.parts.NextPart()
	if err != nil {
		return nil, err
	}
	defer func() { _ = part.Close() }()

	frame, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame, nil
}

// Close tears down the underlying connection.
func (s *MJPEGStream) Close() error {
	return s.body.Close()
}
