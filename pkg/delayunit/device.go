// Package delayunit is the host-side controller for the FPGA trigger
// delay instrument. It owns one serial transport exclusively, issues
// strictly sequential command/response exchanges, and exposes the device
// in human units: exact seconds for timing, named enums for modes.
package delayunit

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
	"github.com/HWS-XMS/DelayUnit/pkg/timing"
)

// Device is a controller bound to one DelayUnit board. It is not safe
// for concurrent use: the wire protocol has no framing, so interleaved
// commands from two goroutines would corrupt each other's responses.
type Device struct {
	port     io.ReadWriteCloser
	profile  *protocol.Profile
	log      *logrus.Logger
	portName string
	closed   bool
}

// Option adjusts controller construction
type Option func(*Device)

// WithLogger replaces the default logrus standard logger
func WithLogger(l *logrus.Logger) Option {
	return func(d *Device) { d.log = l }
}

// New wraps an already-open transport, typically a software stand-in or
// a custom port. The controller takes ownership and closes it.
func New(rw io.ReadWriteCloser, profile *protocol.Profile, opts ...Option) *Device {
	d := &Device{
		port:    rw,
		profile: profile,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open opens the named serial port at the generation's line rate
func Open(portName string, profile *protocol.Profile, opts ...Option) (*Device, error) {
	port, err := openSerialPort(portName, profile.Baud)
	if err != nil {
		return nil, err
	}
	time.Sleep(settleDelay)
	d := New(port, profile, opts...)
	d.portName = portName
	return d, nil
}

// OpenFirst discovers and opens the first connected board matching the
// generation's USB identifiers
func OpenFirst(profile *protocol.Profile, opts ...Option) (*Device, error) {
	ports, err := FindPorts(profile)
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("%w (VID:PID %04X:%04X)", ErrNoBoardFound,
			profile.VendorID, profile.ProductID)
	}
	return Open(ports[0].Path, profile, opts...)
}

// Close releases the transport
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.port.Close()
}

// Profile returns the active generation profile
func (d *Device) Profile() *protocol.Profile { return d.profile }

// String returns a human-readable description of the controller
func (d *Device) String() string {
	if d.portName != "" {
		return fmt.Sprintf("DelayUnit %s on %s", d.profile.Name, d.portName)
	}
	return fmt.Sprintf("DelayUnit %s", d.profile.Name)
}

// send encodes and writes one command with no response
func (d *Device) send(cmd protocol.Command, value int64) error {
	if d.closed {
		return ErrClosed
	}
	frame, err := protocol.EncodeCommand(d.profile, cmd, value)
	if err != nil {
		return err
	}
	return d.writeFrame(frame)
}

// query issues a GET and reads back the exact expected response width
func (d *Device) query(cmd protocol.Command) (int64, error) {
	if d.closed {
		return 0, ErrClosed
	}
	frame, err := protocol.EncodeCommand(d.profile, cmd, 0)
	if err != nil {
		return 0, err
	}
	width, err := protocol.ResponseWidth(d.profile, cmd)
	if err != nil {
		return 0, err
	}
	if err := d.writeFrame(frame); err != nil {
		return 0, err
	}
	raw, err := d.readExact(width)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}
	return protocol.DecodeResponse(d.profile, cmd, raw)
}

// ---------------------------------------------------------------------
// Timing
// ---------------------------------------------------------------------

// SetDelay programs the trigger delay. The requested time is quantized
// onto the generation's coarse/fine grid; a clamp to the hardware
// minimum is logged as a warning, never an error.
func (d *Device) SetDelay(seconds *big.Rat) error {
	return d.setSplit(seconds, d.profile.Delay, "delay",
		protocol.CmdSetCoarse, protocol.CmdSetFineOffset)
}

// Delay reads back the programmed trigger delay in exact seconds
func (d *Device) Delay() (*big.Rat, error) {
	return d.getSplit(d.profile.Delay, protocol.CmdGetCoarse, protocol.CmdGetFineOffset)
}

// SetWidth programs the output pulse width
func (d *Device) SetWidth(seconds *big.Rat) error {
	if d.profile.Width == nil {
		return fmt.Errorf("%w: %s (profile %s)", protocol.ErrUnsupportedOpcode,
			protocol.CmdSetCoarseWidth, d.profile.Name)
	}
	return d.setSplit(seconds, *d.profile.Width, "width",
		protocol.CmdSetCoarseWidth, protocol.CmdSetFineWidth)
}

// Width reads back the programmed output pulse width in exact seconds
func (d *Device) Width() (*big.Rat, error) {
	if d.profile.Width == nil {
		return nil, fmt.Errorf("%w: %s (profile %s)", protocol.ErrUnsupportedOpcode,
			protocol.CmdGetCoarseWidth, d.profile.Name)
	}
	return d.getSplit(*d.profile.Width, protocol.CmdGetCoarseWidth, protocol.CmdGetFineWidth)
}

func (d *Device) setSplit(seconds *big.Rat, res timing.Resolution, what string,
	coarseCmd, fineCmd protocol.Command) error {
	if seconds == nil || seconds.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTime, what)
	}

	tv, clamped := res.Split(seconds)
	if clamped {
		d.log.WithFields(logrus.Fields{
			"field":     what,
			"requested": timing.FormatTime(seconds),
			"coarse":    tv.Coarse,
		}).Warn("coarse cycle count clamped to hardware limit")
	}

	if err := d.send(coarseCmd, int64(tv.Coarse)); err != nil {
		return err
	}
	if d.profile.Supports(fineCmd) {
		if err := d.send(fineCmd, int64(tv.Fine)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) getSplit(res timing.Resolution, coarseCmd, fineCmd protocol.Command) (*big.Rat, error) {
	coarse, err := d.query(coarseCmd)
	if err != nil {
		return nil, err
	}
	fine := int64(0)
	if d.profile.Supports(fineCmd) {
		fine, err = d.query(fineCmd)
		if err != nil {
			return nil, err
		}
	}
	return res.Combine(timing.TimeValue{Coarse: uint32(coarse), Fine: int32(fine)}), nil
}

// SetSoftTriggerWidth programs the internally generated pulse width,
// which is coarse-valued in every generation that has it
func (d *Device) SetSoftTriggerWidth(seconds *big.Rat) error {
	if seconds == nil || seconds.Sign() < 0 {
		return fmt.Errorf("%w: soft trigger width", ErrNegativeTime)
	}
	coarse, clamped := d.profile.Delay.SplitCoarse(seconds)
	if clamped {
		d.log.WithFields(logrus.Fields{
			"field":     "soft_trigger_width",
			"requested": timing.FormatTime(seconds),
			"coarse":    coarse,
		}).Warn("coarse cycle count clamped to hardware limit")
	}
	return d.send(protocol.CmdSetSoftTriggerWidth, int64(coarse))
}

// SoftTriggerWidth reads back the internally generated pulse width
func (d *Device) SoftTriggerWidth() (*big.Rat, error) {
	coarse, err := d.query(protocol.CmdGetSoftTriggerWidth)
	if err != nil {
		return nil, err
	}
	return d.profile.Delay.CombineCoarse(uint32(coarse)), nil
}

// ---------------------------------------------------------------------
// Trigger configuration
// ---------------------------------------------------------------------

// SetEdge selects which input transitions qualify as trigger edges
func (d *Device) SetEdge(e protocol.EdgeType) error {
	return d.send(protocol.CmdSetEdge, int64(e))
}

// Edge reads back the edge qualification
func (d *Device) Edge() (protocol.EdgeType, error) {
	v, err := d.query(protocol.CmdGetEdge)
	return protocol.EdgeType(v), err
}

// SetTriggerMode selects the edge source (external pin or internal pulse)
func (d *Device) SetTriggerMode(m protocol.TriggerMode) error {
	return d.send(protocol.CmdSetTriggerMode, int64(m))
}

// TriggerMode reads back the edge source
func (d *Device) TriggerMode() (protocol.TriggerMode, error) {
	v, err := d.query(protocol.CmdGetTriggerMode)
	return protocol.TriggerMode(v), err
}

// SetArmedMode selects SINGLE (auto-disarm after fire) or REPEAT
func (d *Device) SetArmedMode(m protocol.ArmedMode) error {
	return d.send(protocol.CmdSetArmedMode, int64(m))
}

// ArmedMode reads back the armed mode
func (d *Device) ArmedMode() (protocol.ArmedMode, error) {
	v, err := d.query(protocol.CmdGetArmedMode)
	return protocol.ArmedMode(v), err
}

// SetCounterMode enables or disables Nth-edge counting
func (d *Device) SetCounterMode(m protocol.CounterMode) error {
	return d.send(protocol.CmdSetCounterMode, int64(m))
}

// CounterMode reads back the counter mode
func (d *Device) CounterMode() (protocol.CounterMode, error) {
	v, err := d.query(protocol.CmdGetCounterMode)
	return protocol.CounterMode(v), err
}

// SetEdgeCountTarget sets N for Nth-edge counting; zero is rejected
// before any byte is written
func (d *Device) SetEdgeCountTarget(n uint32) error {
	if n == 0 {
		return ErrZeroTarget
	}
	return d.send(protocol.CmdSetEdgeCountTarget, int64(n))
}

// EdgeCountTarget reads back the Nth-edge target
func (d *Device) EdgeCountTarget() (uint32, error) {
	v, err := d.query(protocol.CmdGetEdgeCountTarget)
	return uint32(v), err
}

// Armed reads back the armed state
func (d *Device) Armed() (bool, error) {
	v, err := d.query(protocol.CmdGetArmed)
	return v != 0, err
}

// ---------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------

// Arm enables trigger processing. Idempotent on the device.
func (d *Device) Arm() error {
	return d.send(protocol.CmdArm, 0)
}

// Disarm disables trigger processing without resetting any counter
func (d *Device) Disarm() error {
	return d.send(protocol.CmdDisarm, 0)
}

// SoftTrigger generates one internal pulse
func (d *Device) SoftTrigger() error {
	if err := d.send(protocol.CmdSoftTrigger, 0); err != nil {
		return err
	}
	// The pulse is generated asynchronously; give it a beat before the
	// caller reads counters back.
	time.Sleep(time.Millisecond)
	return nil
}

// ResetCounter zeroes the trigger counter
func (d *Device) ResetCounter() error {
	return d.send(protocol.CmdResetCount, 0)
}

// ResetEdgeCount zeroes the edge counter used for Nth-edge counting
func (d *Device) ResetEdgeCount() error {
	return d.send(protocol.CmdResetEdgeCount, 0)
}

// ---------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------

// Status is one atomic read-out of the device, with timing fields
// recombined into exact seconds where the generation reports them
type Status struct {
	Raw protocol.RawStatus

	// Delay and Width are nil when the generation's status block does
	// not carry the corresponding fields
	Delay *big.Rat
	Width *big.Rat
}

// Status captures a snapshot of the full device state in one query
func (d *Device) Status() (*Status, error) {
	if d.closed {
		return nil, ErrClosed
	}
	frame, err := protocol.EncodeCommand(d.profile, protocol.CmdGetStatus, 0)
	if err != nil {
		return nil, err
	}
	width, err := protocol.ResponseWidth(d.profile, protocol.CmdGetStatus)
	if err != nil {
		return nil, err
	}
	if err := d.writeFrame(frame); err != nil {
		return nil, err
	}
	raw, err := d.readExact(width)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", protocol.CmdGetStatus, err)
	}
	rs, err := protocol.DecodeStatus(d.profile, raw)
	if err != nil {
		return nil, err
	}

	st := &Status{Raw: *rs}
	if rs.Has(protocol.FieldCoarseDelay) {
		tv := timing.TimeValue{Coarse: rs.CoarseDelay}
		if rs.Has(protocol.FieldFineOffset) {
			tv.Fine = rs.FineOffset
		}
		st.Delay = d.profile.Delay.Combine(tv)
	}
	if d.profile.Width != nil && rs.Has(protocol.FieldCoarseWidth) {
		tv := timing.TimeValue{Coarse: rs.CoarseWidth}
		if rs.Has(protocol.FieldFineWidth) {
			tv.Fine = rs.FineWidth
		}
		st.Width = d.profile.Width.Combine(tv)
	}
	return st, nil
}
