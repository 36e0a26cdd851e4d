package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/HWS-XMS/DelayUnit/pkg/delayunit"
	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
	"github.com/HWS-XMS/DelayUnit/pkg/sim"
	"github.com/HWS-XMS/DelayUnit/pkg/timing"
)

func newTestDevice(t *testing.T, p *protocol.Profile) *delayunit.Device {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	d := delayunit.New(sim.New(p), p, delayunit.WithLogger(log))
	t.Cleanup(func() { d.Close() })
	return d
}

func TestValidate(t *testing.T) {
	good := &Setup{
		Generation:  "gen3",
		Delay:       "500ns",
		Width:       "25ns",
		Edge:        "rising",
		TriggerMode: "internal",
		ArmedMode:   "repeat",
		CounterMode: "enabled",
	}
	if err := Validate(good); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Empty setup is valid: nothing to apply
	if err := Validate(&Setup{}); err != nil {
		t.Fatalf("Validate empty: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name  string
		setup Setup
	}{
		{"bad generation", Setup{Generation: "gen9"}},
		{"bad delay", Setup{Delay: "fast"}},
		{"negative delay", Setup{Delay: "-5ns"}},
		{"bad edge", Setup{Edge: "sideways"}},
		{"bad trigger mode", Setup{TriggerMode: "telepathic"}},
		{"bad armed mode", Setup{ArmedMode: "sometimes"}},
		{"bad counter mode", Setup{CounterMode: "maybe"}},
	}
	for _, c := range cases {
		if err := Validate(&c.setup); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}

func TestApplyAndDump(t *testing.T) {
	d := newTestDevice(t, protocol.Gen3)

	setup := &Setup{
		Delay:           "500ns",
		Width:           "25ns",
		Edge:            "falling",
		TriggerMode:     "internal",
		ArmedMode:       "repeat",
		CounterMode:     "enabled",
		EdgeCountTarget: 10,
	}
	if err := Apply(d, setup); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	dumped, err := Dump(d)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if dumped.Generation != "gen3" {
		t.Fatalf("generation %q", dumped.Generation)
	}
	if dumped.Delay != "500ns" || dumped.Width != "25ns" {
		t.Fatalf("timing %q / %q", dumped.Delay, dumped.Width)
	}
	if dumped.Edge != "FALLING" || dumped.TriggerMode != "INTERNAL" {
		t.Fatalf("modes %q / %q", dumped.Edge, dumped.TriggerMode)
	}
	if dumped.ArmedMode != "REPEAT" || dumped.CounterMode != "ENABLED" {
		t.Fatalf("modes %q / %q", dumped.ArmedMode, dumped.CounterMode)
	}
	if dumped.EdgeCountTarget != 10 {
		t.Fatalf("target %d", dumped.EdgeCountTarget)
	}
	if dumped.Timestamp.IsZero() {
		t.Fatal("dump did not record a timestamp")
	}
}

func TestApply_PartialSetup(t *testing.T) {
	d := newTestDevice(t, protocol.Gen3)

	if err := d.SetDelay(timing.Nanoseconds(100)); err != nil {
		t.Fatalf("SetDelay: %v", err)
	}

	// A setup that only touches the edge must leave the delay alone
	if err := Apply(d, &Setup{Edge: "both"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	delay, err := d.Delay()
	if err != nil {
		t.Fatalf("Delay: %v", err)
	}
	if delay.Cmp(timing.Nanoseconds(100)) != 0 {
		t.Fatalf("delay changed to %s", timing.FormatTime(delay))
	}
	if e, _ := d.Edge(); e != protocol.EdgeBoth {
		t.Fatalf("edge %s", e)
	}
}

func TestApply_UnsupportedField(t *testing.T) {
	d := newTestDevice(t, protocol.Gen2)

	// gen2 has no width control
	err := Apply(d, &Setup{Width: "10ns"})
	if !errors.Is(err, protocol.ErrUnsupportedOpcode) {
		t.Fatalf("got %v, want ErrUnsupportedOpcode", err)
	}
}

func TestDump_Gen2(t *testing.T) {
	d := newTestDevice(t, protocol.Gen2)

	dumped, err := Dump(d)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if dumped.Generation != "gen2" {
		t.Fatalf("generation %q", dumped.Generation)
	}
	// Fields the generation cannot report stay empty
	if dumped.Width != "" || dumped.TriggerMode != "" || dumped.ArmedMode != "" {
		t.Fatalf("gen2 dump carried unsupported fields: %+v", dumped)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setups", "bench.yaml")

	setup := &Setup{
		Generation:      "gen3",
		Delay:           "500ns",
		Edge:            "rising",
		CounterMode:     "enabled",
		EdgeCountTarget: 4,
	}
	if err := SaveToFile(setup, path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Generation != setup.Generation || loaded.Delay != setup.Delay {
		t.Fatalf("loaded %+v", loaded)
	}
	if loaded.Edge != setup.Edge || loaded.EdgeCountTarget != setup.EdgeCountTarget {
		t.Fatalf("loaded %+v", loaded)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	// Well-formed YAML with a field no device accepts
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("edge: sideways\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFromFile(bad); !errors.Is(err, protocol.ErrInvalidEnum) {
		t.Fatalf("got %v, want ErrInvalidEnum", err)
	}

	// Not YAML at all
	garbage := filepath.Join(dir, "garbage.yaml")
	if err := os.WriteFile(garbage, []byte("{{{"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFromFile(garbage); err == nil {
		t.Fatal("expected unmarshal error")
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
