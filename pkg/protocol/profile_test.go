package protocol

import (
	"errors"
	"testing"
)

func TestValidate_AllGenerations(t *testing.T) {
	for _, p := range Profiles {
		if err := p.Validate(); err != nil {
			t.Fatalf("%s: %v", p.Name, err)
		}
	}
}

func TestValidate_DuplicateOpcode(t *testing.T) {
	p := &Profile{
		Name: "broken",
		Commands: map[Command]CommandSpec{
			CmdSetCoarse: {Code: 0x01, Arg: PayloadU32},
			CmdGetCoarse: {Code: 0x01, Resp: PayloadU32},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected duplicate opcode to fail validation")
	}
}

func TestValidate_UnpairedSet(t *testing.T) {
	p := &Profile{
		Name: "broken",
		Commands: map[Command]CommandSpec{
			CmdSetCoarse: {Code: 0x01, Arg: PayloadU32},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected unpaired SET to fail validation")
	}
}

func TestValidate_WidthMismatch(t *testing.T) {
	p := &Profile{
		Name: "broken",
		Commands: map[Command]CommandSpec{
			CmdSetCoarse: {Code: 0x01, Arg: PayloadU32},
			CmdGetCoarse: {Code: 0x02, Resp: PayloadU16},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected payload width mismatch to fail validation")
	}
}

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("gen1")
	if err != nil {
		t.Fatalf("ProfileByName: %v", err)
	}
	if p != Gen1 {
		t.Fatal("got wrong profile for gen1")
	}

	// Case-insensitive, and "current" aliases the shipping generation
	if p, _ := ProfileByName("GEN2"); p != Gen2 {
		t.Fatal("got wrong profile for GEN2")
	}
	if p, _ := ProfileByName("current"); p != Current {
		t.Fatal("got wrong profile for current")
	}

	if _, err := ProfileByName("gen9"); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("got %v, want ErrUnknownProfile", err)
	}
}

func TestLookupCode(t *testing.T) {
	cmd, spec, ok := Gen3.LookupCode(0x01)
	if !ok || cmd != CmdSetCoarse || spec.Arg != PayloadU32 {
		t.Fatalf("got %s ok=%t", cmd, ok)
	}

	// 0x07 means SET_FINE in gen1 but SOFT_TRIGGER in gen3
	cmd, _, ok = Gen1.LookupCode(0x07)
	if !ok || cmd != CmdSetFineOffset {
		t.Fatalf("gen1 0x07: got %s ok=%t", cmd, ok)
	}
	cmd, _, ok = Gen3.LookupCode(0x07)
	if !ok || cmd != CmdSoftTrigger {
		t.Fatalf("gen3 0x07: got %s ok=%t", cmd, ok)
	}

	if _, _, ok := Gen2.LookupCode(0xEE); ok {
		t.Fatal("unknown opcode must not resolve")
	}
}

func TestSupports(t *testing.T) {
	if Gen1.Supports(CmdArm) {
		t.Fatal("gen1 must not support ARM")
	}
	if !Gen3.Supports(CmdArm) {
		t.Fatal("gen3 must support ARM")
	}
	if Gen2.HasFineDelay() {
		t.Fatal("gen2 has no fine stage")
	}
	if !Gen1.HasFineDelay() || !Gen3.HasFineDelay() {
		t.Fatal("gen1 and gen3 have fine stages")
	}
}

func TestParseEnums(t *testing.T) {
	if e, err := ParseEdgeType("falling"); err != nil || e != EdgeFalling {
		t.Fatalf("got %v, %v", e, err)
	}
	if m, err := ParseTriggerMode("INTERNAL"); err != nil || m != TriggerInternal {
		t.Fatalf("got %v, %v", m, err)
	}
	if m, err := ParseArmedMode("repeat"); err != nil || m != ArmedRepeat {
		t.Fatalf("got %v, %v", m, err)
	}
	if m, err := ParseCounterMode("enabled"); err != nil || m != CounterEnabled {
		t.Fatalf("got %v, %v", m, err)
	}
	if _, err := ParseEdgeType("sideways"); !errors.Is(err, ErrInvalidEnum) {
		t.Fatalf("got %v, want ErrInvalidEnum", err)
	}
}
