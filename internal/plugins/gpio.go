package plugins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fennle/chitview/internal/chitui"
)

const gpioPrefix = "/plugin/gpio_relay_control"

// RelayCount is the number of relay channels the plugin drives.
const RelayCount = 4

// RelayState is one relay's slice of the plugin's status response.
type RelayState struct {
	Name    string `json:"name"`
	Pin     int    `json:"pin"`
	State   bool   `json:"state"`
	Enabled bool   `json:"enabled"`
}

// RelayStatus is the full status response, keyed relay1..relay4 on the
// wire.
type RelayStatus struct {
	Relay1        RelayState `json:"relay1"`
	Relay2        RelayState `json:"relay2"`
	Relay3        RelayState `json:"relay3"`
	Relay4        RelayState `json:"relay4"`
	GPIOAvailable bool       `json:"gpio_available"`
}

// Relays returns the four relay states in order.
func (s RelayStatus) Relays() [RelayCount]RelayState {
	return [RelayCount]RelayState{s.Relay1, s.Relay2, s.Relay3, s.Relay4}
}

// RelayConfig is the per-relay part of the plugin configuration. Type is
// "NO" (normally open) or "NC" (normally closed); Pin uses BCM numbering.
type RelayConfig struct {
	Pin       int
	Name      string
	Type      string
	Icon      string
	State     bool
	Enabled   bool
	ShowLabel bool
}

// GPIOConfig is the plugin configuration. The wire format is a flat
// object with relay1_pin, relay1_name and so on; the flattening lives in
// the JSON methods below.
type GPIOConfig struct {
	Relays   [RelayCount]RelayConfig
	ShowText bool
}

func (c GPIOConfig) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, RelayCount*7+1)
	for i, relay := range c.Relays {
		n := i + 1
		flat[fmt.Sprintf("relay%d_pin", n)] = relay.Pin
		flat[fmt.Sprintf("relay%d_name", n)] = relay.Name
		flat[fmt.Sprintf("relay%d_type", n)] = relay.Type
		flat[fmt.Sprintf("relay%d_icon", n)] = relay.Icon
		flat[fmt.Sprintf("relay%d_state", n)] = relay.State
		flat[fmt.Sprintf("relay%d_enabled", n)] = relay.Enabled
		flat[fmt.Sprintf("relay%d_show_label", n)] = relay.ShowLabel
	}
	flat["show_text"] = c.ShowText
	return json.Marshal(flat)
}

func (c *GPIOConfig) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	read := func(key string, dest any) error {
		raw, ok := flat[key]
		if !ok {
			return nil
		}
		return json.Unmarshal(raw, dest)
	}
	for i := range c.Relays {
		n := i + 1
		relay := &c.Relays[i]
		if err := read(fmt.Sprintf("relay%d_pin", n), &relay.Pin); err != nil {
			return err
		}
		if err := read(fmt.Sprintf("relay%d_name", n), &relay.Name); err != nil {
			return err
		}
		if err := read(fmt.Sprintf("relay%d_type", n), &relay.Type); err != nil {
			return err
		}
		if err := read(fmt.Sprintf("relay%d_icon", n), &relay.Icon); err != nil {
			return err
		}
		if err := read(fmt.Sprintf("relay%d_state", n), &relay.State); err != nil {
			return err
		}
		if err := read(fmt.Sprintf("relay%d_enabled", n), &relay.Enabled); err != nil {
			return err
		}
		if err := read(fmt.Sprintf("relay%d_show_label", n), &relay.ShowLabel); err != nil {
			return err
		}
	}
	return read("show_text", &c.ShowText)
}

// ConfigUpdate is the server's answer to a configuration change. Pin
// changes only take effect after a server restart.
type ConfigUpdate struct {
	Success         bool       `json:"success"`
	Config          GPIOConfig `json:"config"`
	RestartRequired bool       `json:"restart_required"`
	Message         string     `json:"message"`
}

// GPIO is a client for the gpio_relay_control plugin.
type GPIO struct {
	api *chitui.Client
}

// NewGPIO wraps the server client with the relay plugin routes.
func NewGPIO(api *chitui.Client) *GPIO {
	return &GPIO{api: api}
}

// Status reads the state of all relays.
func (g *GPIO) Status(ctx context.Context) (RelayStatus, error) {
	var status RelayStatus
	if err := g.api.GetJSON(ctx, gpioPrefix+"/status", &status); err != nil {
		return RelayStatus{}, fmt.Errorf("relay status: %w", err)
	}
	return status, nil
}

// Toggle flips one relay and returns the resulting state. Relays are
// numbered 1 through 4.
func (g *GPIO) Toggle(ctx context.Context, relay int) (bool, error) {
	if err := checkRelay(relay); err != nil {
		return false, err
	}
	var result struct {
		Success bool `json:"success"`
		State   bool `json:"state"`
	}
	path := fmt.Sprintf("%s/relay/%d/toggle", gpioPrefix, relay)
	if err := g.api.PostJSON(ctx, path, nil, &result); err != nil {
		return false, fmt.Errorf("toggle relay %d: %w", relay, err)
	}
	return result.State, nil
}

// Set drives one relay to an explicit state.
func (g *GPIO) Set(ctx context.Context, relay int, on bool) error {
	if err := checkRelay(relay); err != nil {
		return err
	}
	body := map[string]bool{"state": on}
	path := fmt.Sprintf("%s/relay/%d/set", gpioPrefix, relay)
	if err := g.api.PostJSON(ctx, path, body, nil); err != nil {
		return fmt.Errorf("set relay %d: %w", relay, err)
	}
	return nil
}

// Config reads the plugin configuration.
func (g *GPIO) Config(ctx context.Context) (GPIOConfig, error) {
	var config GPIOConfig
	if err := g.api.GetJSON(ctx, gpioPrefix+"/config", &config); err != nil {
		return GPIOConfig{}, fmt.Errorf("relay config: %w", err)
	}
	return config, nil
}

// UpdateConfig writes the plugin configuration. The server validates pins
// (BCM 2 through 27, no duplicates among enabled relays) and flags when a
// restart is needed for a pin change to apply.
func (g *GPIO) UpdateConfig(ctx context.Context, config GPIOConfig) (ConfigUpdate, error) {
	var result ConfigUpdate
	if err := g.api.PostJSON(ctx, gpioPrefix+"/config", config, &result); err != nil {
		return ConfigUpdate{}, fmt.Errorf("update relay config: %w", err)
	}
	return result, nil
}

func checkRelay(relay int) error {
	if relay < 1 || relay > RelayCount {
		return fmt.Errorf("relay %d out of range 1-%d", relay, RelayCount)
	}
	return nil
}
