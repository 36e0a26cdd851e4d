package protocol

import (
	"fmt"

	"github.com/HWS-XMS/DelayUnit/pkg/timing"
)

// CommandSpec describes one entry of a generation's opcode table
type CommandSpec struct {
	// Code is the opcode byte sent on the wire
	Code uint8
	// Arg is the wire format of the payload following the opcode
	Arg PayloadKind
	// Resp is the wire format of the fixed-width response, PayloadNone
	// for fire-and-forget commands
	Resp PayloadKind
}

// StatusField identifies one field of the status block
type StatusField uint8

const (
	FieldTriggerCount StatusField = iota
	FieldCoarseDelay
	FieldFineOffset
	FieldCoarseWidth
	FieldFineWidth
	FieldArmed
	FieldTriggerMode
	FieldArmedMode
	FieldCounterMode
	FieldMMCMLocked
	FieldPhaseShiftReady
	FieldEdgeType
	FieldReserved
)

// StatusEntry pairs a status field with its wire format. A profile's
// status layout is the flat concatenation of its entries, in order,
// with no padding.
type StatusEntry struct {
	Field StatusField
	Kind  PayloadKind
}

// Profile is the tagged configuration of one device generation: its
// opcode table, payload widths, status block layout, timing resolution
// constants, and transport parameters. Codec and quantizer behavior are
// pure functions of (profile, input); no generation detail is hard-coded
// elsewhere.
type Profile struct {
	Name        string
	Description string

	// USB identification for port discovery
	VendorID  uint16
	ProductID uint16

	// Serial line rate
	Baud int

	Commands map[Command]CommandSpec
	Status   []StatusEntry

	// Delay is the quantizer configuration for the trigger delay path
	Delay timing.Resolution
	// Width is the quantizer configuration for the output pulse width,
	// nil in generations without width control
	Width *timing.Resolution
}

// Supports reports whether the generation implements the command
func (p *Profile) Supports(cmd Command) bool {
	_, ok := p.Commands[cmd]
	return ok
}

// HasFineDelay reports whether the generation has a fine delay stage
func (p *Profile) HasFineDelay() bool {
	return p.Supports(CmdSetFineOffset)
}

// StatusWidth returns the exact byte width of the status block
func (p *Profile) StatusWidth() int {
	w := 0
	for _, e := range p.Status {
		w += e.Kind.Width()
	}
	return w
}

// LookupCode resolves a wire opcode byte back to its command, used by
// device-side consumers of the protocol (simulators, diagnostics)
func (p *Profile) LookupCode(code uint8) (Command, CommandSpec, bool) {
	for cmd, spec := range p.Commands {
		if spec.Code == code {
			return cmd, spec, true
		}
	}
	return 0, CommandSpec{}, false
}

// setGetPairs lists the SET commands and their read-back counterparts
var setGetPairs = [][2]Command{
	{CmdSetCoarse, CmdGetCoarse},
	{CmdSetEdge, CmdGetEdge},
	{CmdSetCoarseWidth, CmdGetCoarseWidth},
	{CmdSetTriggerMode, CmdGetTriggerMode},
	{CmdSetSoftTriggerWidth, CmdGetSoftTriggerWidth},
	{CmdSetCounterMode, CmdGetCounterMode},
	{CmdSetEdgeCountTarget, CmdGetEdgeCountTarget},
	{CmdSetArmedMode, CmdGetArmedMode},
	{CmdSetFineOffset, CmdGetFineOffset},
	{CmdSetFineWidth, CmdGetFineWidth},
}

// actionCommands are stateless commands that carry no payload and
// produce no response
var actionCommands = []Command{
	CmdResetCount, CmdSoftTrigger, CmdResetEdgeCount, CmdArm, CmdDisarm,
}

// Validate checks the structural invariants of the opcode table: every
// SET has a GET with identical field width, action commands carry no
// payload, and opcode bytes are unique.
func (p *Profile) Validate() error {
	seen := make(map[uint8]Command, len(p.Commands))
	for cmd, spec := range p.Commands {
		if prev, dup := seen[spec.Code]; dup {
			return fmt.Errorf("profile %s: opcode 0x%02X assigned to both %s and %s",
				p.Name, spec.Code, prev, cmd)
		}
		seen[spec.Code] = cmd
	}

	for _, pair := range setGetPairs {
		set, get := pair[0], pair[1]
		setSpec, haveSet := p.Commands[set]
		getSpec, haveGet := p.Commands[get]
		if haveSet != haveGet {
			return fmt.Errorf("profile %s: %s and %s must be paired", p.Name, set, get)
		}
		if !haveSet {
			continue
		}
		if setSpec.Arg.Width() != getSpec.Resp.Width() {
			return fmt.Errorf("profile %s: %s payload width %d != %s response width %d",
				p.Name, set, setSpec.Arg.Width(), get, getSpec.Resp.Width())
		}
		if setSpec.Resp != PayloadNone {
			return fmt.Errorf("profile %s: %s must not produce a response", p.Name, set)
		}
	}

	for _, cmd := range actionCommands {
		spec, ok := p.Commands[cmd]
		if !ok {
			continue
		}
		if spec.Arg != PayloadNone || spec.Resp != PayloadNone {
			return fmt.Errorf("profile %s: action %s must carry no payload", p.Name, cmd)
		}
	}

	if p.Supports(CmdGetStatus) && len(p.Status) == 0 {
		return fmt.Errorf("profile %s: GET_STATUS present but no status layout", p.Name)
	}

	return nil
}
