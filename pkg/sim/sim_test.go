package sim

import (
	"testing"

	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
	"github.com/HWS-XMS/DelayUnit/pkg/trigger"
)

func TestPartialFrames(t *testing.T) {
	d := New(protocol.Gen3)

	// SET_COARSE 1000, delivered one byte at a time like a slow UART
	for _, b := range []byte{0x01, 0xE8, 0x03, 0x00, 0x00} {
		if _, err := d.Write([]byte{b}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	// GET_COARSE reads the value back
	if _, err := d.Write([]byte{0x02}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 4)
	n, err := d.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if got := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24; got != 1000 {
		t.Fatalf("got coarse %d, want 1000", got)
	}
}

func TestUnknownOpcodeDiscarded(t *testing.T) {
	d := New(protocol.Gen2)

	// 0xEE is not a gen2 opcode; the following frame must still apply
	if _, err := d.Write([]byte{0xEE, 0x03, 0x02}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := d.Machine().EdgeType(); got != protocol.EdgeFalling {
		t.Fatalf("got edge %s, want FALLING", got)
	}
}

func TestEmptyReadIsTimeout(t *testing.T) {
	d := New(protocol.Gen3)
	n, err := d.Read(make([]byte, 8))
	if n != 0 || err != nil {
		t.Fatalf("got n=%d err=%v, want (0, nil)", n, err)
	}
}

func TestDropNextReply(t *testing.T) {
	d := New(protocol.Gen3)
	d.DropNextReply()

	if _, err := d.Write([]byte{0x02}); err != nil { // GET_COARSE
		t.Fatalf("Write: %v", err)
	}
	if n, _ := d.Read(make([]byte, 4)); n != 0 {
		t.Fatalf("dropped reply still delivered %d bytes", n)
	}

	// Only one reply is swallowed
	if _, err := d.Write([]byte{0x02}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n, _ := d.Read(make([]byte, 4)); n != 4 {
		t.Fatalf("got %d bytes, want 4", n)
	}
}

func TestSoftTriggerRequiresInternalMode(t *testing.T) {
	d := New(protocol.Gen3)
	m := d.Machine()
	m.SetArmedMode(protocol.ArmedRepeat)
	m.Arm()

	// Power-up source is EXTERNAL: SOFT_TRIGGER is a no-op
	if _, err := d.Write([]byte{0x07}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.TriggerCount() != 0 {
		t.Fatal("soft trigger fired in EXTERNAL mode")
	}

	// Switch to INTERNAL: now it pulses the machine
	if _, err := d.Write([]byte{0x0A, 0x01, 0x07}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.TriggerCount() != 1 {
		t.Fatalf("trigger count %d, want 1", m.TriggerCount())
	}
}

func TestInjectEdgeRequiresExternalMode(t *testing.T) {
	d := New(protocol.Gen3)
	m := d.Machine()
	m.SetArmedMode(protocol.ArmedRepeat)
	m.Arm()

	if !d.InjectEdge(trigger.Rising) {
		t.Fatal("external edge did not fire")
	}

	m.SetTriggerMode(protocol.TriggerInternal)
	if d.InjectEdge(trigger.Rising) {
		t.Fatal("external edge fired in INTERNAL mode")
	}
	if m.TriggerCount() != 1 {
		t.Fatalf("trigger count %d, want 1", m.TriggerCount())
	}
}

func TestStatusBlockWidth(t *testing.T) {
	for _, p := range protocol.Profiles {
		d := New(p)
		if _, err := d.Write([]byte{0x05}); err != nil { // GET_STATUS
			t.Fatalf("%s: Write: %v", p.Name, err)
		}
		buf := make([]byte, 64)
		n, err := d.Read(buf)
		if err != nil {
			t.Fatalf("%s: Read: %v", p.Name, err)
		}
		if n != p.StatusWidth() {
			t.Fatalf("%s: status block %d bytes, want %d", p.Name, n, p.StatusWidth())
		}
	}
}

func TestClosed(t *testing.T) {
	d := New(protocol.Gen3)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := d.Write([]byte{0x05}); err != ErrClosed {
		t.Fatalf("Write after close: %v", err)
	}
	if _, err := d.Read(make([]byte, 1)); err != ErrClosed {
		t.Fatalf("Read after close: %v", err)
	}
}
