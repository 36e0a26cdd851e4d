package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeCommand serializes a command frame: the opcode byte immediately
// followed by its little-endian payload, with no length prefix, checksum,
// or terminator. value is ignored for commands without a payload.
func EncodeCommand(p *Profile, cmd Command, value int64) ([]byte, error) {
	spec, ok := p.Commands[cmd]
	if !ok {
		return nil, fmt.Errorf("%w: %s (profile %s)", ErrUnsupportedOpcode, cmd, p.Name)
	}

	buf := make([]byte, 1+spec.Arg.Width())
	buf[0] = spec.Code

	switch spec.Arg {
	case PayloadNone:
	case PayloadU8:
		if value < 0 || value > math.MaxUint8 {
			return nil, fmt.Errorf("%w: %s value %d", ErrPayloadRange, cmd, value)
		}
		buf[1] = uint8(value)
	case PayloadU16:
		if value < 0 || value > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %s value %d", ErrPayloadRange, cmd, value)
		}
		binary.LittleEndian.PutUint16(buf[1:], uint16(value))
	case PayloadU32:
		if value < 0 || value > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %s value %d", ErrPayloadRange, cmd, value)
		}
		binary.LittleEndian.PutUint32(buf[1:], uint32(value))
	case PayloadI32:
		if value < math.MinInt32 || value > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %s value %d", ErrPayloadRange, cmd, value)
		}
		binary.LittleEndian.PutUint32(buf[1:], uint32(int32(value)))
	}

	return buf, nil
}

// ResponseWidth returns the exact number of bytes the device replies
// with after the given command, 0 for fire-and-forget commands.
func ResponseWidth(p *Profile, cmd Command) (int, error) {
	spec, ok := p.Commands[cmd]
	if !ok {
		return 0, fmt.Errorf("%w: %s (profile %s)", ErrUnsupportedOpcode, cmd, p.Name)
	}
	if cmd == CmdGetStatus {
		if len(p.Status) == 0 {
			return 0, fmt.Errorf("%w (profile %s)", ErrNoStatusLayout, p.Name)
		}
		return p.StatusWidth(), nil
	}
	return spec.Resp.Width(), nil
}

// DecodeResponse deserializes a single-value response payload. Fewer
// bytes than expected is a short read (transport timeout, reported to the
// caller); more is a framing mismatch between host and firmware.
func DecodeResponse(p *Profile, cmd Command, raw []byte) (int64, error) {
	spec, ok := p.Commands[cmd]
	if !ok {
		return 0, fmt.Errorf("%w: %s (profile %s)", ErrUnsupportedOpcode, cmd, p.Name)
	}
	want := spec.Resp.Width()
	if want == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoResponse, cmd)
	}
	if len(raw) < want {
		return 0, fmt.Errorf("%w: %s: got %d of %d bytes", ErrShortRead, cmd, len(raw), want)
	}
	if len(raw) > want {
		return 0, fmt.Errorf("%w: %s: got %d, expected %d bytes", ErrResponseLength, cmd, len(raw), want)
	}
	return decodeField(spec.Resp, raw), nil
}

func decodeField(kind PayloadKind, raw []byte) int64 {
	switch kind {
	case PayloadU8:
		return int64(raw[0])
	case PayloadU16:
		return int64(binary.LittleEndian.Uint16(raw))
	case PayloadU32:
		return int64(binary.LittleEndian.Uint32(raw))
	case PayloadI32:
		return int64(int32(binary.LittleEndian.Uint32(raw)))
	}
	return 0
}

// RawStatus is the device-unit snapshot decoded from one status block.
// Only fields present in the generation's layout are populated; Has
// reports presence.
type RawStatus struct {
	TriggerCount    uint16
	CoarseDelay     uint32
	FineOffset      int32
	CoarseWidth     uint32
	FineWidth       int32
	Armed           bool
	TriggerMode     TriggerMode
	ArmedMode       ArmedMode
	CounterMode     CounterMode
	MMCMLocked      bool
	PhaseShiftReady bool
	EdgeType        EdgeType

	present uint32
}

// Has reports whether the field was present in the decoded layout
func (s *RawStatus) Has(f StatusField) bool {
	return s.present&(1<<uint(f)) != 0
}

// DecodeStatus deserializes a status block according to the profile's
// declared field list, in order, with no padding.
func DecodeStatus(p *Profile, raw []byte) (*RawStatus, error) {
	if len(p.Status) == 0 {
		return nil, fmt.Errorf("%w (profile %s)", ErrNoStatusLayout, p.Name)
	}
	want := p.StatusWidth()
	if len(raw) < want {
		return nil, fmt.Errorf("%w: status: got %d of %d bytes", ErrShortRead, len(raw), want)
	}
	if len(raw) > want {
		return nil, fmt.Errorf("%w: status: got %d, expected %d bytes", ErrResponseLength, len(raw), want)
	}

	s := &RawStatus{}
	off := 0
	for _, e := range p.Status {
		w := e.Kind.Width()
		v := decodeField(e.Kind, raw[off:off+w])
		off += w

		switch e.Field {
		case FieldTriggerCount:
			s.TriggerCount = uint16(v)
		case FieldCoarseDelay:
			s.CoarseDelay = uint32(v)
		case FieldFineOffset:
			s.FineOffset = int32(v)
		case FieldCoarseWidth:
			s.CoarseWidth = uint32(v)
		case FieldFineWidth:
			s.FineWidth = int32(v)
		case FieldArmed:
			s.Armed = v != 0
		case FieldTriggerMode:
			s.TriggerMode = TriggerMode(v)
		case FieldArmedMode:
			s.ArmedMode = ArmedMode(v)
		case FieldCounterMode:
			s.CounterMode = CounterMode(v)
		case FieldMMCMLocked:
			s.MMCMLocked = v != 0
		case FieldPhaseShiftReady:
			s.PhaseShiftReady = v != 0
		case FieldEdgeType:
			s.EdgeType = EdgeType(v)
		case FieldReserved:
			continue
		}
		s.present |= 1 << uint(e.Field)
	}

	return s, nil
}
