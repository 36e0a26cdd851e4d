// Package protocol defines the UART command protocol spoken by the
// DelayUnit FPGA across its device generations: the command set, the
// little-endian payload formats, and the status block layouts.
package protocol

import "fmt"

// Command identifies a protocol operation independent of its wire opcode.
// The same operation may carry a different opcode byte (or not exist at
// all) in a given device generation; the active Profile maps commands to
// the wire table for that generation.
type Command uint8

const (
	CmdSetCoarse Command = iota
	CmdGetCoarse
	CmdSetEdge
	CmdGetEdge
	CmdGetStatus
	CmdResetCount
	CmdSoftTrigger
	CmdSetCoarseWidth
	CmdGetCoarseWidth
	CmdSetTriggerMode
	CmdGetTriggerMode
	CmdSetSoftTriggerWidth
	CmdGetSoftTriggerWidth
	CmdSetCounterMode
	CmdGetCounterMode
	CmdSetEdgeCountTarget
	CmdGetEdgeCountTarget
	CmdResetEdgeCount
	CmdArm
	CmdDisarm
	CmdSetArmedMode
	CmdGetArmedMode
	CmdGetArmed
	CmdSetFineOffset
	CmdGetFineOffset
	CmdSetFineWidth
	CmdGetFineWidth

	numCommands
)

var commandNames = map[Command]string{
	CmdSetCoarse:           "SET_COARSE",
	CmdGetCoarse:           "GET_COARSE",
	CmdSetEdge:             "SET_EDGE",
	CmdGetEdge:             "GET_EDGE",
	CmdGetStatus:           "GET_STATUS",
	CmdResetCount:          "RESET_COUNT",
	CmdSoftTrigger:         "SOFT_TRIGGER",
	CmdSetCoarseWidth:      "SET_OUTPUT_TRIGGER_WIDTH",
	CmdGetCoarseWidth:      "GET_OUTPUT_TRIGGER_WIDTH",
	CmdSetTriggerMode:      "SET_TRIGGER_MODE",
	CmdGetTriggerMode:      "GET_TRIGGER_MODE",
	CmdSetSoftTriggerWidth: "SET_SOFT_TRIGGER_WIDTH",
	CmdGetSoftTriggerWidth: "GET_SOFT_TRIGGER_WIDTH",
	CmdSetCounterMode:      "SET_COUNTER_MODE",
	CmdGetCounterMode:      "GET_COUNTER_MODE",
	CmdSetEdgeCountTarget:  "SET_EDGE_COUNT_TARGET",
	CmdGetEdgeCountTarget:  "GET_EDGE_COUNT_TARGET",
	CmdResetEdgeCount:      "RESET_EDGE_COUNT",
	CmdArm:                 "ARM",
	CmdDisarm:              "DISARM",
	CmdSetArmedMode:        "SET_ARMED_MODE",
	CmdGetArmedMode:        "GET_ARMED_MODE",
	CmdGetArmed:            "GET_ARMED",
	CmdSetFineOffset:       "SET_FINE_OFFSET",
	CmdGetFineOffset:       "GET_FINE_OFFSET",
	CmdSetFineWidth:        "SET_FINE_WIDTH",
	CmdGetFineWidth:        "GET_FINE_WIDTH",
}

// String returns the protocol name of the command
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("COMMAND(0x%02X)", uint8(c))
}

// PayloadKind describes the wire format of a command argument or response
type PayloadKind uint8

const (
	PayloadNone PayloadKind = iota
	PayloadU8
	PayloadU16
	PayloadU32
	PayloadI32
)

// Width returns the number of bytes the payload occupies on the wire
func (k PayloadKind) Width() int {
	switch k {
	case PayloadU8:
		return 1
	case PayloadU16:
		return 2
	case PayloadU32, PayloadI32:
		return 4
	}
	return 0
}

// EdgeType selects which input transitions qualify as trigger edges
type EdgeType uint8

const (
	EdgeNone    EdgeType = 0x00
	EdgeRising  EdgeType = 0x01
	EdgeFalling EdgeType = 0x02
	EdgeBoth    EdgeType = 0x03
)

// String returns a human-readable name for the edge type
func (e EdgeType) String() string {
	switch e {
	case EdgeNone:
		return "NONE"
	case EdgeRising:
		return "RISING"
	case EdgeFalling:
		return "FALLING"
	case EdgeBoth:
		return "BOTH"
	}
	return fmt.Sprintf("EDGE(0x%02X)", uint8(e))
}

// ParseEdgeType converts a name ("rising", "falling", "both", "none")
// into an EdgeType
func ParseEdgeType(s string) (EdgeType, error) {
	switch s {
	case "none", "NONE":
		return EdgeNone, nil
	case "rising", "RISING":
		return EdgeRising, nil
	case "falling", "FALLING":
		return EdgeFalling, nil
	case "both", "BOTH":
		return EdgeBoth, nil
	}
	return 0, fmt.Errorf("%w: edge type %q", ErrInvalidEnum, s)
}

// TriggerMode selects the edge source
type TriggerMode uint8

const (
	TriggerExternal TriggerMode = 0x00
	TriggerInternal TriggerMode = 0x01
)

// String returns a human-readable name for the trigger mode
func (m TriggerMode) String() string {
	switch m {
	case TriggerExternal:
		return "EXTERNAL"
	case TriggerInternal:
		return "INTERNAL"
	}
	return fmt.Sprintf("TRIGGER_MODE(0x%02X)", uint8(m))
}

// ParseTriggerMode converts a name ("external", "internal") into a TriggerMode
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch s {
	case "external", "EXTERNAL":
		return TriggerExternal, nil
	case "internal", "INTERNAL":
		return TriggerInternal, nil
	}
	return 0, fmt.Errorf("%w: trigger mode %q", ErrInvalidEnum, s)
}

// ArmedMode governs auto-disarm behavior after a trigger fires
type ArmedMode uint8

const (
	ArmedSingle ArmedMode = 0x00
	ArmedRepeat ArmedMode = 0x01
)

// String returns a human-readable name for the armed mode
func (m ArmedMode) String() string {
	switch m {
	case ArmedSingle:
		return "SINGLE"
	case ArmedRepeat:
		return "REPEAT"
	}
	return fmt.Sprintf("ARMED_MODE(0x%02X)", uint8(m))
}

// ParseArmedMode converts a name ("single", "repeat") into an ArmedMode
func ParseArmedMode(s string) (ArmedMode, error) {
	switch s {
	case "single", "SINGLE":
		return ArmedSingle, nil
	case "repeat", "REPEAT":
		return ArmedRepeat, nil
	}
	return 0, fmt.Errorf("%w: armed mode %q", ErrInvalidEnum, s)
}

// CounterMode governs whether every qualifying edge fires a trigger or
// only the Nth edge since the last reset/fire
type CounterMode uint8

const (
	CounterDisabled CounterMode = 0x00
	CounterEnabled  CounterMode = 0x01
)

// String returns a human-readable name for the counter mode
func (m CounterMode) String() string {
	switch m {
	case CounterDisabled:
		return "DISABLED"
	case CounterEnabled:
		return "ENABLED"
	}
	return fmt.Sprintf("COUNTER_MODE(0x%02X)", uint8(m))
}

// ParseCounterMode converts a name ("disabled", "enabled") into a CounterMode
func ParseCounterMode(s string) (CounterMode, error) {
	switch s {
	case "disabled", "DISABLED":
		return CounterDisabled, nil
	case "enabled", "ENABLED":
		return CounterEnabled, nil
	}
	return 0, fmt.Errorf("%w: counter mode %q", ErrInvalidEnum, s)
}
