// Package trigger models the arm/disarm and Nth-edge counting state
// machine that runs on the DelayUnit FPGA. The model is the contract the
// firmware must satisfy: the same transitions drive the software
// stand-in used in tests and the expected-behavior checks used in
// diagnostics against real hardware.
package trigger

import "github.com/HWS-XMS/DelayUnit/pkg/protocol"

// Transition is one input signal transition
type Transition uint8

const (
	Rising Transition = iota
	Falling
)

// Machine is the trigger state machine. The zero value is not ready;
// use New. Edges are invisible while disarmed: neither counter advances.
type Machine struct {
	armed        bool
	edgeType     protocol.EdgeType
	triggerMode  protocol.TriggerMode
	armedMode    protocol.ArmedMode
	counterMode  protocol.CounterMode
	target       uint32
	edgeCount    uint32
	triggerCount uint32
}

// New returns a machine in the power-up state: disarmed, rising-edge
// external triggering, SINGLE armed mode, counting disabled, target 1.
func New() *Machine {
	return &Machine{
		edgeType:    protocol.EdgeRising,
		triggerMode: protocol.TriggerExternal,
		armedMode:   protocol.ArmedSingle,
		counterMode: protocol.CounterDisabled,
		target:      1,
	}
}

// Arm enables edge processing. Idempotent, no trigger side effect.
func (m *Machine) Arm() { m.armed = true }

// Disarm disables edge processing. Idempotent; resets no counters.
func (m *Machine) Disarm() { m.armed = false }

// Armed reports whether the machine is armed
func (m *Machine) Armed() bool { return m.armed }

// SetEdgeType selects which transitions qualify as edges
func (m *Machine) SetEdgeType(e protocol.EdgeType) { m.edgeType = e }

// EdgeType returns the configured edge qualification
func (m *Machine) EdgeType() protocol.EdgeType { return m.edgeType }

// SetTriggerMode selects the edge source (external pin or internal pulse)
func (m *Machine) SetTriggerMode(t protocol.TriggerMode) { m.triggerMode = t }

// TriggerMode returns the configured edge source
func (m *Machine) TriggerMode() protocol.TriggerMode { return m.triggerMode }

// SetArmedMode takes effect on the next qualifying edge
func (m *Machine) SetArmedMode(a protocol.ArmedMode) { m.armedMode = a }

// ArmedMode returns the configured armed mode
func (m *Machine) ArmedMode() protocol.ArmedMode { return m.armedMode }

// SetCounterMode takes effect on the next qualifying edge; the edge
// counter already accumulated is untouched
func (m *Machine) SetCounterMode(c protocol.CounterMode) { m.counterMode = c }

// CounterMode returns the configured counter mode
func (m *Machine) CounterMode() protocol.CounterMode { return m.counterMode }

// SetEdgeCountTarget sets the Nth-edge target for counting mode
func (m *Machine) SetEdgeCountTarget(n uint32) { m.target = n }

// EdgeCountTarget returns the Nth-edge target
func (m *Machine) EdgeCountTarget() uint32 { return m.target }

// EdgeCount returns qualifying edges seen since the last reset or fire
func (m *Machine) EdgeCount() uint32 { return m.edgeCount }

// TriggerCount returns triggers fired since the last RESET_COUNT
func (m *Machine) TriggerCount() uint32 { return m.triggerCount }

// ResetEdgeCount zeroes the edge counter unconditionally; armed state
// and trigger counter are untouched
func (m *Machine) ResetEdgeCount() { m.edgeCount = 0 }

// ResetTriggerCount zeroes the trigger counter unconditionally; armed
// state and edge counter are untouched
func (m *Machine) ResetTriggerCount() { m.triggerCount = 0 }

// qualifies applies the edge-type filter
func (m *Machine) qualifies(t Transition) bool {
	switch m.edgeType {
	case protocol.EdgeRising:
		return t == Rising
	case protocol.EdgeFalling:
		return t == Falling
	case protocol.EdgeBoth:
		return true
	}
	return false
}

// Input feeds one transition to the machine and reports whether a
// trigger fired. The source of the transition (external pin or internal
// pulse) is the caller's concern; the machine treats both identically.
func (m *Machine) Input(t Transition) bool {
	if !m.armed || !m.qualifies(t) {
		return false
	}

	if m.counterMode == protocol.CounterEnabled {
		m.edgeCount++
		if m.edgeCount < m.target {
			return false
		}
		m.edgeCount = 0
	}

	m.triggerCount++
	if m.armedMode == protocol.ArmedSingle {
		m.armed = false
	}
	return true
}

// Pulse feeds one full internal pulse (rising then falling transition)
// and returns how many triggers fired. This is how SOFT_TRIGGER reaches
// the machine.
func (m *Machine) Pulse() int {
	fired := 0
	if m.Input(Rising) {
		fired++
	}
	if m.Input(Falling) {
		fired++
	}
	return fired
}

// Snapshot is an immutable read-out of the machine state
type Snapshot struct {
	Armed           bool
	EdgeType        protocol.EdgeType
	TriggerMode     protocol.TriggerMode
	ArmedMode       protocol.ArmedMode
	CounterMode     protocol.CounterMode
	EdgeCountTarget uint32
	EdgeCount       uint32
	TriggerCount    uint32
}

// Snapshot captures the current state atomically with respect to the
// machine's single-threaded use
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Armed:           m.armed,
		EdgeType:        m.edgeType,
		TriggerMode:     m.triggerMode,
		ArmedMode:       m.armedMode,
		CounterMode:     m.counterMode,
		EdgeCountTarget: m.target,
		EdgeCount:       m.edgeCount,
		TriggerCount:    m.triggerCount,
	}
}
