// Package config persists DelayUnit setups as YAML documents and moves
// them between files and a live board.
package config

import (
	"fmt"
	"time"

	"github.com/HWS-XMS/DelayUnit/pkg/delayunit"
	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
	"github.com/HWS-XMS/DelayUnit/pkg/timing"
)

// Setup is one complete device configuration in human units. Time
// fields are strings such as "500ns" or "8930ps"; empty fields are left
// untouched when applying.
type Setup struct {
	Generation       string    `yaml:"generation,omitempty"`
	Delay            string    `yaml:"delay,omitempty"`
	Width            string    `yaml:"width,omitempty"`
	SoftTriggerWidth string    `yaml:"soft_trigger_width,omitempty"`
	Edge             string    `yaml:"edge,omitempty"`
	TriggerMode      string    `yaml:"trigger_mode,omitempty"`
	ArmedMode        string    `yaml:"armed_mode,omitempty"`
	CounterMode      string    `yaml:"counter_mode,omitempty"`
	EdgeCountTarget  uint32    `yaml:"edge_count_target,omitempty"`
	Timestamp        time.Time `yaml:"timestamp,omitempty"`
}

// Validate checks every populated field without touching a device
func Validate(s *Setup) error {
	if s.Generation != "" {
		if _, err := protocol.ProfileByName(s.Generation); err != nil {
			return err
		}
	}
	for _, f := range []struct{ name, value string }{
		{"delay", s.Delay},
		{"width", s.Width},
		{"soft_trigger_width", s.SoftTriggerWidth},
	} {
		if f.value == "" {
			continue
		}
		t, err := timing.ParseTime(f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if t.Sign() < 0 {
			return fmt.Errorf("%s: %w", f.name, delayunit.ErrNegativeTime)
		}
	}
	if s.Edge != "" {
		if _, err := protocol.ParseEdgeType(s.Edge); err != nil {
			return err
		}
	}
	if s.TriggerMode != "" {
		if _, err := protocol.ParseTriggerMode(s.TriggerMode); err != nil {
			return err
		}
	}
	if s.ArmedMode != "" {
		if _, err := protocol.ParseArmedMode(s.ArmedMode); err != nil {
			return err
		}
	}
	if s.CounterMode != "" {
		if _, err := protocol.ParseCounterMode(s.CounterMode); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes every populated field of the setup to the device. Timing
// fields go first so a setup never arms counting modes against stale
// delays.
func Apply(dev *delayunit.Device, s *Setup) error {
	if err := Validate(s); err != nil {
		return err
	}

	if s.Delay != "" {
		t, _ := timing.ParseTime(s.Delay)
		if err := dev.SetDelay(t); err != nil {
			return fmt.Errorf("failed to set delay: %w", err)
		}
	}
	if s.Width != "" {
		t, _ := timing.ParseTime(s.Width)
		if err := dev.SetWidth(t); err != nil {
			return fmt.Errorf("failed to set width: %w", err)
		}
	}
	if s.SoftTriggerWidth != "" {
		t, _ := timing.ParseTime(s.SoftTriggerWidth)
		if err := dev.SetSoftTriggerWidth(t); err != nil {
			return fmt.Errorf("failed to set soft trigger width: %w", err)
		}
	}
	if s.Edge != "" {
		e, _ := protocol.ParseEdgeType(s.Edge)
		if err := dev.SetEdge(e); err != nil {
			return fmt.Errorf("failed to set edge type: %w", err)
		}
	}
	if s.TriggerMode != "" {
		m, _ := protocol.ParseTriggerMode(s.TriggerMode)
		if err := dev.SetTriggerMode(m); err != nil {
			return fmt.Errorf("failed to set trigger mode: %w", err)
		}
	}
	if s.ArmedMode != "" {
		m, _ := protocol.ParseArmedMode(s.ArmedMode)
		if err := dev.SetArmedMode(m); err != nil {
			return fmt.Errorf("failed to set armed mode: %w", err)
		}
	}
	if s.CounterMode != "" {
		m, _ := protocol.ParseCounterMode(s.CounterMode)
		if err := dev.SetCounterMode(m); err != nil {
			return fmt.Errorf("failed to set counter mode: %w", err)
		}
	}
	if s.EdgeCountTarget != 0 {
		if err := dev.SetEdgeCountTarget(s.EdgeCountTarget); err != nil {
			return fmt.Errorf("failed to set edge count target: %w", err)
		}
	}
	return nil
}

// Dump reads the full configuration from a device into a setup document
func Dump(dev *delayunit.Device) (*Setup, error) {
	s := &Setup{
		Generation: dev.Profile().Name,
		Timestamp:  time.Now(),
	}

	delay, err := dev.Delay()
	if err != nil {
		return nil, fmt.Errorf("failed to read delay: %w", err)
	}
	s.Delay = timing.FormatTime(delay)

	if dev.Profile().Width != nil {
		width, err := dev.Width()
		if err != nil {
			return nil, fmt.Errorf("failed to read width: %w", err)
		}
		s.Width = timing.FormatTime(width)
	}

	if dev.Profile().Supports(protocol.CmdGetSoftTriggerWidth) {
		w, err := dev.SoftTriggerWidth()
		if err != nil {
			return nil, fmt.Errorf("failed to read soft trigger width: %w", err)
		}
		s.SoftTriggerWidth = timing.FormatTime(w)
	}

	edge, err := dev.Edge()
	if err != nil {
		return nil, fmt.Errorf("failed to read edge type: %w", err)
	}
	s.Edge = edge.String()

	if dev.Profile().Supports(protocol.CmdGetTriggerMode) {
		m, err := dev.TriggerMode()
		if err != nil {
			return nil, fmt.Errorf("failed to read trigger mode: %w", err)
		}
		s.TriggerMode = m.String()
	}
	if dev.Profile().Supports(protocol.CmdGetArmedMode) {
		m, err := dev.ArmedMode()
		if err != nil {
			return nil, fmt.Errorf("failed to read armed mode: %w", err)
		}
		s.ArmedMode = m.String()
	}
	if dev.Profile().Supports(protocol.CmdGetCounterMode) {
		m, err := dev.CounterMode()
		if err != nil {
			return nil, fmt.Errorf("failed to read counter mode: %w", err)
		}
		s.CounterMode = m.String()
	}
	if dev.Profile().Supports(protocol.CmdGetEdgeCountTarget) {
		n, err := dev.EdgeCountTarget()
		if err != nil {
			return nil, fmt.Errorf("failed to read edge count target: %w", err)
		}
		s.EdgeCountTarget = n
	}

	return s, nil
}
