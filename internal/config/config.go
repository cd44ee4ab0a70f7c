package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything chitview needs to reach a ChitUI server.
type Config struct {
	ServerURL         string
	Password          string
	ThumbnailCacheDir string
	PollSeconds       int
}

const (
	defaultConfigPath = "~/.config/chitview/config.toml"
	defaultCacheDir   = "~/.cache/chitview/thumbnails"
	defaultServerURL  = "127.0.0.1:8080"
	defaultPollEvery  = 5
)

// Load locates and parses the chitview config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServerURL:         defaultServerURL,
		ThumbnailCacheDir: mustExpand(defaultCacheDir),
		PollSeconds:       defaultPollEvery,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL         string `toml:"server_url"`
		Password          string `toml:"password"`
		ThumbnailCacheDir string `toml:"thumbnail_cache_dir"`
		PollSeconds       int    `toml:"poll_interval_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if url := strings.TrimSpace(raw.ServerURL); url != "" {
		cfg.ServerURL = url
	}
	cfg.Password = raw.Password
	if dir := strings.TrimSpace(raw.ThumbnailCacheDir); dir != "" {
		cfg.ThumbnailCacheDir = mustExpand(dir)
	}
	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
