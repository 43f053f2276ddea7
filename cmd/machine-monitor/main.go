// machine-api: Additive Manufacturing Device Control Service
// Copyright (C) 2026  The Machine API Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"

	"github.com/kittycad/machine-api/internal/config"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/discovery"
)

var configPath = flag.String("config", "machine-api.toml", "path to the machines TOML config file")

// pollInterval matches C10's own sensor poll cadence, so the TUI never
// shows a reading staler than what the metrics exporter would report.
const pollInterval = 5 * time.Second

func main() {
	flag.Parse()

	data, err := os.ReadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read config %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	var file config.File
	if err := toml.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "parse config %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	if err := file.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	ids := make([]string, 0, len(file.Machines))
	for id := range file.Machines {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	devices := make(map[string]control.Control, len(ids))
	for _, id := range ids {
		driver, err := discovery.ConnectOne(file.Machines[id])
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect %s: %v (will show as unreachable)\n", id, err)
			continue
		}
		devices[id] = driver
	}

	model := newModel(ids, devices)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "machine-monitor: %v\n", err)
		os.Exit(1)
	}
}

// row is one device's last-polled snapshot.
type row struct {
	id       string
	reachable bool
	info     control.MachineInfo
	state    control.State
	progress float64
	hasProgress bool
	sensors  map[string]control.SensorReading
	err      error
}

type model struct {
	ids     []string
	devices map[string]control.Control
	rows    map[string]row
	width   int
}

func newModel(ids []string, devices map[string]control.Control) model {
	return model{
		ids:     ids,
		devices: devices,
		rows:    make(map[string]row, len(ids)),
		width:   80,
	}
}

type tickMsg time.Time

type pollResultMsg struct {
	id  string
	row row
}

func (m model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.ids)+1)
	for _, id := range m.ids {
		cmds = append(cmds, pollCmd(id, m.devices[id]))
	}
	cmds = append(cmds, tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) }))
	return tea.Batch(cmds...)
}

func pollCmd(id string, driver control.Control) tea.Cmd {
	return func() tea.Msg {
		if driver == nil {
			return pollResultMsg{id: id, row: row{id: id, reachable: false}}
		}

		ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
		defer cancel()

		r := row{id: id, reachable: true}
		var err error
		if r.info, err = driver.MachineInfo(ctx); err != nil {
			return pollResultMsg{id: id, row: row{id: id, reachable: false, err: err}}
		}
		if r.state, err = driver.State(ctx); err != nil {
			return pollResultMsg{id: id, row: row{id: id, reachable: false, err: err}}
		}
		r.progress, r.hasProgress, _ = driver.Progress(ctx)
		r.sensors, _ = driver.PollSensors(ctx)
		return pollResultMsg{id: id, row: r}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case pollResultMsg:
		m.rows[msg.id] = msg.row
		return m, nil

	case tickMsg:
		cmds := make([]tea.Cmd, 0, len(m.ids)+1)
		for _, id := range m.ids {
			cmds = append(cmds, pollCmd(id, m.devices[id]))
		}
		cmds = append(cmds, tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) }))
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	unreachableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("machine-api monitor") + "\n")
	b.WriteString(fmt.Sprintf("%-16s %-14s %-10s %-8s %s\n", "device", "model", "state", "progress", "sensors"))

	for _, id := range m.ids {
		r, known := m.rows[id]
		if !known {
			fmt.Fprintf(&b, "%-16s %s\n", id, "polling...")
			continue
		}
		if !r.reachable {
			fmt.Fprintf(&b, "%-16s %s\n", id, unreachableStyle.Render("unreachable"))
			continue
		}

		progress := "-"
		if r.hasProgress {
			progress = fmt.Sprintf("%.0f%%", r.progress*100)
		}

		state := r.state.String()
		if r.state == control.Running {
			state = runningStyle.Render(state)
		}

		fmt.Fprintf(&b, "%-16s %-14s %-10s %-8s %s\n",
			id, r.info.MakeModel.Model, state, progress, formatSensors(r.sensors))
	}

	b.WriteString("\nq to quit\n")
	return b.String()
}

func formatSensors(sensors map[string]control.SensorReading) string {
	ids := make([]string, 0, len(sensors))
	for id := range sensors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		reading := sensors[id]
		if reading.HasTarget {
			parts = append(parts, fmt.Sprintf("%s=%.0f/%.0f°C", id, reading.TemperatureC, reading.TargetC))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%.0f°C", id, reading.TemperatureC))
		}
	}
	return strings.Join(parts, " ")
}
