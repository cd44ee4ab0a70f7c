package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/fennle/chitview/internal/chitui"
)

const rpiStatsPrefix = "/plugin/rpi_stats"

// OptFloat is a numeric field the server replaces with the string "N/A"
// when the value is unknown.
type OptFloat struct {
	Value float64
	OK    bool
}

func (f *OptFloat) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")) {
		*f = OptFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.OK = true
	return nil
}

// SystemInfo describes the host the server runs on.
type SystemInfo struct {
	Hostname      string   `json:"hostname"`
	IsRaspberryPi bool     `json:"is_raspberry_pi"`
	Model         string   `json:"model"`
	OS            string   `json:"os"`
	CPUCores      OptFloat `json:"cpu_cores"`
	CPUThreads    OptFloat `json:"cpu_threads"`
	TotalMemoryGB OptFloat `json:"total_memory_gb"`
	Uptime        string   `json:"uptime"`
}

// UsageGauge is a percentage plus the absolute used/total pair behind it.
type UsageGauge struct {
	Percent float64 `json:"percent"`
	UsedGB  float64 `json:"used_gb"`
	TotalGB float64 `json:"total_gb"`
}

// Stats is one sample of live host statistics.
type Stats struct {
	CPU struct {
		Percent      float64   `json:"percent"`
		FrequencyMHz float64   `json:"frequency_mhz"`
		PerCore      []float64 `json:"per_core"`
	} `json:"cpu"`
	Memory UsageGauge `json:"memory"`
	Disk   UsageGauge `json:"disk"`
	// Temperature is nil when the host exposes no thermal sensor.
	Temperature *float64 `json:"temperature"`
	Network     struct {
		SentMB float64 `json:"sent_mb"`
		RecvMB float64 `json:"recv_mb"`
	} `json:"network"`
}

// RPiStats is a client for the rpi_stats plugin.
type RPiStats struct {
	api *chitui.Client
}

// NewRPiStats wraps the server client with the host statistics routes.
func NewRPiStats(api *chitui.Client) *RPiStats {
	return &RPiStats{api: api}
}

// SystemInfo reads the static host description.
func (r *RPiStats) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := r.api.GetJSON(ctx, rpiStatsPrefix+"/system-info", &info); err != nil {
		return SystemInfo{}, fmt.Errorf("system info: %w", err)
	}
	return info, nil
}

// Stats reads a live statistics sample.
func (r *RPiStats) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := r.api.GetJSON(ctx, rpiStatsPrefix+"/stats", &stats); err != nil {
		return Stats{}, fmt.Errorf("host stats: %w", err)
	}
	return stats, nil
}
