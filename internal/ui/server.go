package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/plugins"
)

// serverExtras holds the slow-changing server view data fetched over REST:
// plugin registry, relay board state, host stats and camera list. A nil
// pointer means the plugin is absent or unreachable.
type serverExtras struct {
	plugins   []chitui.PluginInfo
	info      *plugins.SystemInfo
	stats     *plugins.Stats
	relays    *plugins.RelayStatus
	cameras   []plugins.Camera
	fetchedAt time.Time
}

type serverExtrasMsg serverExtras

func (s *serverExtras) apply(msg serverExtrasMsg) {
	*s = serverExtras(msg)
}

// fetchServerExtrasCmd fetches plugin data for the server view. Plugin
// endpoints that 404 are simply absent; other errors leave the previous
// data in place by reporting nil.
func fetchServerExtrasCmd(ctx context.Context, client *chitui.Client) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		msg := serverExtrasMsg{fetchedAt: time.Now()}

		if list, err := client.Plugins(fetchCtx); err == nil {
			msg.plugins = list
		}

		stats := plugins.NewRPiStats(client)
		if info, err := stats.SystemInfo(fetchCtx); err == nil {
			msg.info = &info
		}
		if s, err := stats.Stats(fetchCtx); err == nil {
			msg.stats = &s
		}

		gpio := plugins.NewGPIO(client)
		if status, err := gpio.Status(fetchCtx); err == nil {
			msg.relays = &status
		}

		cams := plugins.NewIPCamera(client)
		if list, err := cams.Cameras(fetchCtx); err == nil {
			msg.cameras = list
		}

		return msg
	}
}

// renderServer renders the server status view.
func (m Model) renderServer() string {
	styles := m.theme.Styles()
	width := m.width

	var b strings.Builder
	section := func(title string) {
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		b.WriteString("\n")
	}
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(styles.MutedText.Render(padRight(label, 16)))
		b.WriteString(styles.Text.Render(truncate(value, maxInt(width-17, 10))))
		b.WriteString("\n")
	}

	section("Server")
	if m.snapshot.HasServerStatus {
		st := m.snapshot.ServerStatus
		line("Upload folder", st.UploadFolder)
		line("Data folder", st.DataFolder)
		line("Camera support", ternary(st.CameraSupport, "yes", "no"))
		line("USB gadget", ternary(st.USBGadget.Enabled, "enabled", "disabled"))
		line("Gadget path", st.USBGadget.Path)
		if st.USBGadget.Error != "" {
			b.WriteString(styles.DangerText.Render("Gadget error: " + st.USBGadget.Error))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(styles.MutedText.Render("Waiting for first status poll"))
		b.WriteString("\n")
	}

	if m.snapshot.HasStorage && m.snapshot.Storage.Available {
		st := m.snapshot.Storage
		b.WriteString("\n")
		section("USB storage")
		b.WriteString(m.progress.ViewAs(st.Percent / 100))
		b.WriteString("\n")
		line("Used", fmt.Sprintf("%s of %s (%.0f%%)", formatBytes(st.Used), formatBytes(st.Total), st.Percent))
		line("Free", formatBytes(st.Free))
	}

	if len(m.server.plugins) > 0 {
		b.WriteString("\n")
		section("Plugins")
		for _, p := range m.server.plugins {
			dot := ternary(p.Enabled && p.Loaded, "●", "○")
			dotStyle := styles.FaintText
			if p.Enabled && p.Loaded {
				dotStyle = styles.SuccessText
			}
			b.WriteString(styles.Text.Render("  "))
			b.WriteString(dotStyle.Render(dot))
			b.WriteString(styles.Text.Render(" " + p.Name))
			b.WriteString(styles.FaintText.Render(" " + p.Version))
			b.WriteString("\n")
		}
	}

	if m.server.relays != nil {
		b.WriteString("\n")
		section("Relays")
		for i, r := range m.server.relays.Relays() {
			if !r.Enabled {
				continue
			}
			name := r.Name
			if name == "" {
				name = fmt.Sprintf("Relay %d", i+1)
			}
			stateStyle := styles.FaintText
			if r.State {
				stateStyle = styles.SuccessText
			}
			b.WriteString(styles.Text.Render("  " + padRight(name, 20)))
			b.WriteString(stateStyle.Render(ternary(r.State, "ON", "OFF")))
			b.WriteString("\n")
		}
		if !m.server.relays.GPIOAvailable {
			b.WriteString(styles.MutedText.Render("  GPIO unavailable on this host"))
			b.WriteString("\n")
		}
	}

	if m.server.info != nil || m.server.stats != nil {
		b.WriteString("\n")
		section("Host")
		if info := m.server.info; info != nil {
			line("Hostname", info.Hostname)
			line("Model", info.Model)
			line("OS", info.OS)
			line("Uptime", info.Uptime)
		}
		if stats := m.server.stats; stats != nil {
			line("CPU", fmt.Sprintf("%.0f%%", stats.CPU.Percent))
			line("Memory", fmt.Sprintf("%.1f / %.1f GiB", stats.Memory.UsedGB, stats.Memory.TotalGB))
			line("Disk", fmt.Sprintf("%.0f%%", stats.Disk.Percent))
			if stats.Temperature != nil {
				line("Temperature", fmt.Sprintf("%.1f°C", *stats.Temperature))
			}
		}
	}

	if len(m.server.cameras) > 0 {
		b.WriteString("\n")
		section("Cameras")
		for _, c := range m.server.cameras {
			dotStyle := styles.FaintText
			if c.Active {
				dotStyle = styles.SuccessText
			}
			b.WriteString(styles.Text.Render("  "))
			b.WriteString(dotStyle.Render("●"))
			b.WriteString(styles.Text.Render(" " + c.Name))
			b.WriteString(styles.FaintText.Render(" (" + c.Protocol + ")"))
			b.WriteString("\n")
		}
	}

	content := b.String()
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.contentHeight()).
		Padding(0, 1).
		Render(content)
}
