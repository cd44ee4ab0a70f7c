package plugins

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"

	"github.com/fennle/chitview/internal/chitui"
)

const ipCameraPrefix = "/plugin/ip_camera"

// Camera is one configured camera with its live state.
type Camera struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Protocol string `json:"protocol"`
	Active   bool   `json:"active"`
}

// CameraConfig is the stored definition of a camera. Protocol is "rtsp",
// "http" or "mjpeg"; anything else makes the server auto-detect.
type CameraConfig struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Protocol string `json:"protocol"`
}

// cameraReply is the plugin's uniform response envelope. Failures come
// back as 200 with ok=false and a message.
type cameraReply struct {
	OK      bool     `json:"ok"`
	Msg     string   `json:"msg"`
	Cameras []Camera `json:"cameras"`
}

// IPCamera is a client for the ip_camera plugin.
type IPCamera struct {
	api *chitui.Client
}

// NewIPCamera wraps the server client with the camera plugin routes.
func NewIPCamera(api *chitui.Client) *IPCamera {
	return &IPCamera{api: api}
}

// Cameras lists the configured cameras and whether each is streaming.
func (c *IPCamera) Cameras(ctx context.Context) ([]Camera, error) {
	var reply cameraReply
	if err := c.api.GetJSON(ctx, ipCameraPrefix+"/cameras", &reply); err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	if !reply.OK {
		return nil, replyError("list cameras", reply.Msg)
	}
	return reply.Cameras, nil
}

// Start begins capturing from one camera so its MJPEG stream becomes
// available. The server needs a few seconds to negotiate RTSP.
func (c *IPCamera) Start(ctx context.Context, cameraID string) error {
	return c.action(ctx, fmt.Sprintf("%s/camera/%s/start", ipCameraPrefix, url.PathEscape(cameraID)), nil)
}

// Stop ends a camera's capture.
func (c *IPCamera) Stop(ctx context.Context, cameraID string) error {
	return c.action(ctx, fmt.Sprintf("%s/camera/%s/stop", ipCameraPrefix, url.PathEscape(cameraID)), nil)
}

// Test checks that a camera URL is reachable without starting a stream.
// It returns the server's diagnostic message, which includes the detected
// resolution on success.
func (c *IPCamera) Test(ctx context.Context, cameraURL, protocol string) (string, error) {
	body := map[string]string{"url": cameraURL, "protocol": protocol}
	var reply cameraReply
	if err := c.api.PostJSON(ctx, ipCameraPrefix+"/test", body, &reply); err != nil {
		return "", fmt.Errorf("test camera: %w", err)
	}
	if !reply.OK {
		return "", replyError("test camera", reply.Msg)
	}
	return reply.Msg, nil
}

// Config lists the stored camera definitions.
func (c *IPCamera) Config(ctx context.Context) ([]CameraConfig, error) {
	var reply struct {
		OK      bool           `json:"ok"`
		Msg     string         `json:"msg"`
		Cameras []CameraConfig `json:"cameras"`
	}
	if err := c.api.GetJSON(ctx, ipCameraPrefix+"/config", &reply); err != nil {
		return nil, fmt.Errorf("camera config: %w", err)
	}
	if !reply.OK {
		return nil, replyError("camera config", reply.Msg)
	}
	return reply.Cameras, nil
}

// AddCamera appends a camera definition.
func (c *IPCamera) AddCamera(ctx context.Context, config CameraConfig) error {
	body := map[string]any{
		"action":   "add",
		"name":     config.Name,
		"url":      config.URL,
		"protocol": config.Protocol,
	}
	return c.action(ctx, ipCameraPrefix+"/config", body)
}

// UpdateCamera replaces the definition at the given index.
func (c *IPCamera) UpdateCamera(ctx context.Context, index int, config CameraConfig) error {
	body := map[string]any{
		"action":   "update",
		"index":    index,
		"name":     config.Name,
		"url":      config.URL,
		"protocol": config.Protocol,
	}
	return c.action(ctx, ipCameraPrefix+"/config", body)
}

// RemoveCamera deletes the definition at the given index, stopping its
// stream first when one is running.
func (c *IPCamera) RemoveCamera(ctx context.Context, index int) error {
	body := map[string]any{
		"action": "delete",
		"index":  index,
	}
	return c.action(ctx, ipCameraPrefix+"/config", body)
}

// StreamPath returns the server path of a camera's MJPEG stream.
func StreamPath(cameraID string) string {
	return fmt.Sprintf("%s/camera/%s/video", ipCameraPrefix, url.PathEscape(cameraID))
}

// OpenStream connects to a camera's MJPEG stream. The camera must have
// been started first. The caller owns the returned stream and must close
// it.
func (c *IPCamera) OpenStream(ctx context.Context, cameraID string) (*MJPEGStream, error) {
	resp, err := c.api.OpenStream(ctx, StreamPath(cameraID))
	if err != nil {
		return nil, fmt.Errorf("open camera stream: %w", err)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] == "" {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("camera stream has content type %q, want multipart/x-mixed-replace", resp.Header.Get("Content-Type"))
	}
	return newMJPEGStream(resp.Body, params["boundary"]), nil
}

func (c *IPCamera) action(ctx context.Context, path string, body any) error {
	var reply cameraReply
	if err := c.api.PostJSON(ctx, path, body, &reply); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !reply.OK {
		return replyError(path, reply.Msg)
	}
	return nil
}

func replyError(op, msg string) error {
	if msg == "" {
		return errors.New(op + ": server refused")
	}
	return fmt.Errorf("%s: %s", op, msg)
}
