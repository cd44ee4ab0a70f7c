// Package plugins holds typed clients for the server's optional plugin
// routes. Each plugin mounts its API under /plugin/<id>/ on the same
// server and session as the core API, so every client here wraps the
// core chitui.Client rather than carrying its own connection.
//
// Three plugins are covered:
//
//	gpio_relay_control  up to four relays on Raspberry Pi GPIO pins
//	rpi_stats           host system information and live statistics
//	ip_camera           RTSP/HTTP camera streams re-served as MJPEG
//
// Plugins are optional server-side; a request against a plugin that is
// not installed or not enabled fails with a 404 StatusError, which
// callers treat as "feature absent" rather than a fault.
package plugins
