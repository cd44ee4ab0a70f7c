// Package config handles loading and parsing the chitview configuration file.
//
// # Overview
//
// This package reads chitview's TOML configuration to discover the ChitUI
// server endpoint, optional auto-login password, thumbnail cache directory
// and REST polling cadence.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/chitview/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/chitview/config.toml
//   - Server: 127.0.0.1:8080
//   - Thumbnail cache: ~/.cache/chitview/thumbnails
//   - Poll interval: 5 seconds
//
// # TOML Format
//
// Example config.toml:
//
//	server_url = "pi.local:8080"
//	password = "secret"
//	thumbnail_cache_dir = "~/.cache/chitview/thumbnails"
//	poll_interval_seconds = 5
//
// All fields are optional. Tilde expansion is performed automatically for
// paths.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//
// Missing config files are NOT an error - defaults are used instead. This
// allows chitview to work out-of-the-box against a server on localhost.
package config
