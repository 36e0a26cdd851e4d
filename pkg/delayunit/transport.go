package delayunit

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
)

// ReadTimeout bounds every response read. The firmware answers well
// under a millisecond; a full second of silence means the response is
// not coming.
const ReadTimeout = 1 * time.Second

// settleDelay gives the UART bridge time to flush stale state after the
// port opens
const settleDelay = 100 * time.Millisecond

// openSerialPort opens the UART at the generation's line rate with the
// bounded read timeout. 8N1 framing is the device's only mode.
func openSerialPort(path string, baud int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}
	return port, nil
}

// readExact reads exactly n response bytes. A zero-length read is how
// the serial layer reports a timeout; whatever arrived by then is a
// short read, surfaced to the caller and never retried.
func (d *Device) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		r, err := d.port.Read(buf[got:])
		if err != nil {
			return nil, fmt.Errorf("read failed after %d of %d bytes: %w", got, n, err)
		}
		if r == 0 {
			return nil, fmt.Errorf("%w: got %d of %d bytes", protocol.ErrShortRead, got, n)
		}
		got += r
	}
	return buf, nil
}

// writeFrame writes one command frame. SET commands are fire-and-forget:
// there is no acknowledgment, and the device applies the change
// asynchronously to the UART.
func (d *Device) writeFrame(frame []byte) error {
	n, err := d.port.Write(frame)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(frame))
	}
	return nil
}
