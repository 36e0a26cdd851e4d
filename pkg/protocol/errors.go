package protocol

import "errors"

// Protocol errors
var (
	// ErrUnsupportedOpcode indicates the command is not in the active
	// generation's opcode table
	ErrUnsupportedOpcode = errors.New("command not supported by this device generation")

	// ErrShortRead indicates the transport returned fewer bytes than the
	// expected response width (typically a read timeout)
	ErrShortRead = errors.New("short read")

	// ErrResponseLength indicates a response longer than the expected
	// width, i.e. a codec/generation mismatch
	ErrResponseLength = errors.New("response length mismatch")

	// ErrNoResponse indicates a decode was attempted for a command that
	// produces no response
	ErrNoResponse = errors.New("command has no response")

	// ErrPayloadRange indicates a payload value outside the range of its
	// wire field
	ErrPayloadRange = errors.New("payload value out of range")

	// ErrInvalidEnum indicates an enum name or wire value outside the
	// defined set
	ErrInvalidEnum = errors.New("invalid enum value")

	// ErrNoStatusLayout indicates the profile declares no status block
	ErrNoStatusLayout = errors.New("profile has no status layout")

	// ErrUnknownProfile indicates an unknown generation name
	ErrUnknownProfile = errors.New("unknown device generation")
)
