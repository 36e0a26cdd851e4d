// Package sim provides a software stand-in for the DelayUnit FPGA. It
// speaks the same byte protocol as the firmware, drives the same trigger
// state machine contract, and plugs into the controller as its
// transport, so the property tests that run against it are the ones a
// real board has to pass.
package sim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
	"github.com/HWS-XMS/DelayUnit/pkg/trigger"
)

// ErrClosed indicates I/O on a closed simulated device
var ErrClosed = errors.New("sim: device closed")

// Device is a simulated DelayUnit. It implements io.ReadWriteCloser:
// Write feeds it command frames, Read drains queued responses. An empty
// Read returns (0, nil), matching a serial port read timeout, so the
// controller's short-read handling is exercised for real.
type Device struct {
	profile *protocol.Profile
	machine *trigger.Machine

	coarseDelay uint32
	fineOffset  int32
	coarseWidth uint32
	fineWidth   int32
	softWidth   uint32

	mmcmLocked      bool
	phaseShiftReady bool

	pending []byte
	out     bytes.Buffer
	closed  bool

	// dropReplies discards the next N queued responses to provoke
	// short reads on the host side
	dropReplies int
}

// New returns a powered-up simulated device for the given generation
func New(p *protocol.Profile) *Device {
	return &Device{
		profile:         p,
		machine:         trigger.New(),
		coarseWidth:     1,
		softWidth:       1,
		mmcmLocked:      true,
		phaseShiftReady: true,
	}
}

// Machine exposes the underlying state machine for test assertions
func (d *Device) Machine() *trigger.Machine { return d.machine }

// DropNextReply makes the device swallow its next response, so the host
// observes a read timeout
func (d *Device) DropNextReply() { d.dropReplies++ }

// InjectEdge feeds an external input transition to the device. Ignored
// unless the trigger source is EXTERNAL, mirroring the input mux in the
// firmware.
func (d *Device) InjectEdge(t trigger.Transition) bool {
	if d.machine.TriggerMode() != protocol.TriggerExternal {
		return false
	}
	return d.machine.Input(t)
}

// Write consumes command frames. Partial frames are buffered until the
// payload is complete, like a UART receiver.
func (d *Device) Write(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	d.pending = append(d.pending, p...)

	for len(d.pending) > 0 {
		cmd, spec, ok := d.profile.LookupCode(d.pending[0])
		if !ok {
			// Unknown opcode: the firmware discards the byte
			d.pending = d.pending[1:]
			continue
		}
		need := 1 + spec.Arg.Width()
		if len(d.pending) < need {
			break
		}
		arg := parseField(spec.Arg, d.pending[1:need])
		d.pending = d.pending[need:]
		d.apply(cmd, arg)
	}

	return len(p), nil
}

func parseField(kind protocol.PayloadKind, raw []byte) int64 {
	switch kind {
	case protocol.PayloadU8:
		return int64(raw[0])
	case protocol.PayloadU16:
		return int64(binary.LittleEndian.Uint16(raw))
	case protocol.PayloadU32:
		return int64(binary.LittleEndian.Uint32(raw))
	case protocol.PayloadI32:
		return int64(int32(binary.LittleEndian.Uint32(raw)))
	}
	return 0
}

// Read drains queued response bytes; empty queue reads as a timeout
func (d *Device) Read(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if d.out.Len() == 0 {
		return 0, nil
	}
	return d.out.Read(p)
}

// Close marks the device unusable
func (d *Device) Close() error {
	d.closed = true
	return nil
}

func (d *Device) reply(raw []byte) {
	if d.dropReplies > 0 {
		d.dropReplies--
		return
	}
	d.out.Write(raw)
}

func (d *Device) replyValue(kind protocol.PayloadKind, v int64) {
	d.reply(appendField(nil, kind, v))
}

func boolByte(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (d *Device) apply(cmd protocol.Command, arg int64) {
	spec := d.profile.Commands[cmd]
	m := d.machine

	switch cmd {
	case protocol.CmdSetCoarse:
		d.coarseDelay = uint32(arg)
	case protocol.CmdGetCoarse:
		d.replyValue(spec.Resp, int64(d.coarseDelay))
	case protocol.CmdSetFineOffset:
		d.fineOffset = int32(arg)
	case protocol.CmdGetFineOffset:
		d.replyValue(spec.Resp, int64(d.fineOffset))
	case protocol.CmdSetCoarseWidth:
		d.coarseWidth = uint32(arg)
	case protocol.CmdGetCoarseWidth:
		d.replyValue(spec.Resp, int64(d.coarseWidth))
	case protocol.CmdSetFineWidth:
		d.fineWidth = int32(arg)
	case protocol.CmdGetFineWidth:
		d.replyValue(spec.Resp, int64(d.fineWidth))
	case protocol.CmdSetSoftTriggerWidth:
		d.softWidth = uint32(arg)
	case protocol.CmdGetSoftTriggerWidth:
		d.replyValue(spec.Resp, int64(d.softWidth))

	case protocol.CmdSetEdge:
		m.SetEdgeType(protocol.EdgeType(arg))
	case protocol.CmdGetEdge:
		d.replyValue(spec.Resp, int64(m.EdgeType()))
	case protocol.CmdSetTriggerMode:
		m.SetTriggerMode(protocol.TriggerMode(arg))
	case protocol.CmdGetTriggerMode:
		d.replyValue(spec.Resp, int64(m.TriggerMode()))
	case protocol.CmdSetArmedMode:
		m.SetArmedMode(protocol.ArmedMode(arg))
	case protocol.CmdGetArmedMode:
		d.replyValue(spec.Resp, int64(m.ArmedMode()))
	case protocol.CmdSetCounterMode:
		m.SetCounterMode(protocol.CounterMode(arg))
	case protocol.CmdGetCounterMode:
		d.replyValue(spec.Resp, int64(m.CounterMode()))
	case protocol.CmdSetEdgeCountTarget:
		m.SetEdgeCountTarget(uint32(arg))
	case protocol.CmdGetEdgeCountTarget:
		d.replyValue(spec.Resp, int64(m.EdgeCountTarget()))

	case protocol.CmdArm:
		m.Arm()
	case protocol.CmdDisarm:
		m.Disarm()
	case protocol.CmdGetArmed:
		d.replyValue(spec.Resp, boolByte(m.Armed()))
	case protocol.CmdSoftTrigger:
		if m.TriggerMode() == protocol.TriggerInternal {
			m.Pulse()
		}
	case protocol.CmdResetCount:
		m.ResetTriggerCount()
	case protocol.CmdResetEdgeCount:
		m.ResetEdgeCount()

	case protocol.CmdGetStatus:
		d.reply(d.statusBlock())
	}
}

// statusBlock serializes the status snapshot per the profile's layout
func (d *Device) statusBlock() []byte {
	m := d.machine
	raw := make([]byte, 0, d.profile.StatusWidth())
	for _, e := range d.profile.Status {
		var v int64
		switch e.Field {
		case protocol.FieldTriggerCount:
			v = int64(uint16(m.TriggerCount()))
		case protocol.FieldCoarseDelay:
			v = int64(d.coarseDelay)
		case protocol.FieldFineOffset:
			v = int64(d.fineOffset)
		case protocol.FieldCoarseWidth:
			v = int64(d.coarseWidth)
		case protocol.FieldFineWidth:
			v = int64(d.fineWidth)
		case protocol.FieldArmed:
			v = boolByte(m.Armed())
		case protocol.FieldTriggerMode:
			v = int64(m.TriggerMode())
		case protocol.FieldArmedMode:
			v = int64(m.ArmedMode())
		case protocol.FieldCounterMode:
			v = int64(m.CounterMode())
		case protocol.FieldMMCMLocked:
			v = boolByte(d.mmcmLocked)
		case protocol.FieldPhaseShiftReady:
			v = boolByte(d.phaseShiftReady)
		case protocol.FieldEdgeType:
			v = int64(m.EdgeType())
		case protocol.FieldReserved:
			v = 0
		}
		raw = appendField(raw, e.Kind, v)
	}
	return raw
}

func appendField(raw []byte, kind protocol.PayloadKind, v int64) []byte {
	switch kind {
	case protocol.PayloadU8:
		return append(raw, byte(v))
	case protocol.PayloadU16:
		return append(raw, byte(v), byte(v>>8))
	case protocol.PayloadU32, protocol.PayloadI32:
		return append(raw, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return raw
}

var _ io.ReadWriteCloser = (*Device)(nil)
