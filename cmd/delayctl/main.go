// delayctl: Configure and drive a DelayUnit board
//
// This tool exposes the full controller surface on the command line:
// delay and width programming in human time units, trigger
// configuration, arming, soft triggering, and status read-out.
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/HWS-XMS/DelayUnit/pkg/delayunit"
	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
	"github.com/HWS-XMS/DelayUnit/pkg/timing"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [args]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, `
Commands:
  get                      Read the programmed trigger delay
  set <time>               Set the trigger delay (e.g. 500ns, 8930ps, 1.5us)
  width [<time>]           Read or set the output pulse width
  soft-width [<time>]      Read or set the soft trigger pulse width
  edge [<type>]            Read or set edge type (rising, falling, both, none)
  trigger-mode [<mode>]    Read or set trigger source (external, internal)
  armed-mode [<mode>]      Read or set armed mode (single, repeat)
  counter-mode [<mode>]    Read or set counter mode (disabled, enabled)
  target [<n>]             Read or set the edge count target
  arm                      Enable trigger processing
  disarm                   Disable trigger processing
  soft                     Fire one internal trigger pulse
  reset                    Zero the trigger counter
  reset-edges              Zero the edge counter
  status                   Print a full status snapshot
  sweep <start> <stop> <step>
                           Step the delay across a range, printing the
                           quantized value programmed at each point

Options:
`)
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	selector := flag.String("d", "", delayunit.SelectorUsage())
	generation := flag.String("gen", "current", "Device generation (gen1, gen2, gen3, current)")
	verbose := flag.Bool("v", false, "Verbose output (debug logging)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	profile, err := protocol.ProfileByName(*generation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path, err := delayunit.Select(profile, delayunit.DeviceSelector(*selector))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	device, err := delayunit.Open(path, profile, delayunit.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer device.Close()

	if *verbose {
		fmt.Printf("Connected to: %s\n", device)
	}

	if err := run(device, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(device *delayunit.Device, verb string, args []string) error {
	switch verb {
	case "get":
		delay, err := device.Delay()
		if err != nil {
			return err
		}
		fmt.Println(timing.FormatTime(delay))
		return nil

	case "set":
		if len(args) != 1 {
			return fmt.Errorf("set takes exactly one time argument")
		}
		t, err := timing.ParseTime(args[0])
		if err != nil {
			return err
		}
		if err := device.SetDelay(t); err != nil {
			return err
		}
		return echoTime(device.Delay)

	case "width":
		if len(args) == 0 {
			return echoTime(device.Width)
		}
		t, err := timing.ParseTime(args[0])
		if err != nil {
			return err
		}
		if err := device.SetWidth(t); err != nil {
			return err
		}
		return echoTime(device.Width)

	case "soft-width":
		if len(args) == 0 {
			return echoTime(device.SoftTriggerWidth)
		}
		t, err := timing.ParseTime(args[0])
		if err != nil {
			return err
		}
		if err := device.SetSoftTriggerWidth(t); err != nil {
			return err
		}
		return echoTime(device.SoftTriggerWidth)

	case "edge":
		if len(args) == 0 {
			e, err := device.Edge()
			if err != nil {
				return err
			}
			fmt.Println(e)
			return nil
		}
		e, err := protocol.ParseEdgeType(args[0])
		if err != nil {
			return err
		}
		return device.SetEdge(e)

	case "trigger-mode":
		if len(args) == 0 {
			m, err := device.TriggerMode()
			if err != nil {
				return err
			}
			fmt.Println(m)
			return nil
		}
		m, err := protocol.ParseTriggerMode(args[0])
		if err != nil {
			return err
		}
		return device.SetTriggerMode(m)

	case "armed-mode":
		if len(args) == 0 {
			m, err := device.ArmedMode()
			if err != nil {
				return err
			}
			fmt.Println(m)
			return nil
		}
		m, err := protocol.ParseArmedMode(args[0])
		if err != nil {
			return err
		}
		return device.SetArmedMode(m)

	case "counter-mode":
		if len(args) == 0 {
			m, err := device.CounterMode()
			if err != nil {
				return err
			}
			fmt.Println(m)
			return nil
		}
		m, err := protocol.ParseCounterMode(args[0])
		if err != nil {
			return err
		}
		return device.SetCounterMode(m)

	case "target":
		if len(args) == 0 {
			n, err := device.EdgeCountTarget()
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		}
		n, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", args[0], err)
		}
		return device.SetEdgeCountTarget(uint32(n))

	case "arm":
		return device.Arm()
	case "disarm":
		return device.Disarm()
	case "soft":
		return device.SoftTrigger()
	case "reset":
		return device.ResetCounter()
	case "reset-edges":
		return device.ResetEdgeCount()

	case "status":
		return printStatus(device)

	case "sweep":
		if len(args) != 3 {
			return fmt.Errorf("sweep takes <start> <stop> <step>")
		}
		return sweep(device, args[0], args[1], args[2])
	}

	return fmt.Errorf("unknown command %q", verb)
}

// echoTime prints the value read back from the device, which is the
// requested time after quantization onto the generation's grid
func echoTime(read func() (*big.Rat, error)) error {
	t, err := read()
	if err != nil {
		return err
	}
	fmt.Println(timing.FormatTime(t))
	return nil
}

func printStatus(device *delayunit.Device) error {
	st, err := device.Status()
	if err != nil {
		return err
	}
	raw := st.Raw

	fmt.Printf("Generation:     %s\n", device.Profile().Name)
	fmt.Printf("Trigger count:  %d\n", raw.TriggerCount)
	if st.Delay != nil {
		fmt.Printf("Delay:          %s (coarse %d", timing.FormatTime(st.Delay), raw.CoarseDelay)
		if raw.Has(protocol.FieldFineOffset) {
			fmt.Printf(", fine %d", raw.FineOffset)
		}
		fmt.Println(")")
	}
	if st.Width != nil {
		fmt.Printf("Width:          %s (coarse %d", timing.FormatTime(st.Width), raw.CoarseWidth)
		if raw.Has(protocol.FieldFineWidth) {
			fmt.Printf(", fine %d", raw.FineWidth)
		}
		fmt.Println(")")
	}
	if raw.Has(protocol.FieldEdgeType) {
		fmt.Printf("Edge:           %s\n", raw.EdgeType)
	}
	if raw.Has(protocol.FieldArmed) {
		fmt.Printf("Armed:          %t (%s)\n", raw.Armed, raw.ArmedMode)
	}
	if raw.Has(protocol.FieldTriggerMode) {
		fmt.Printf("Trigger source: %s\n", raw.TriggerMode)
	}
	if raw.Has(protocol.FieldCounterMode) {
		fmt.Printf("Counter mode:   %s\n", raw.CounterMode)
	}
	if raw.Has(protocol.FieldMMCMLocked) {
		fmt.Printf("MMCM locked:    %t\n", raw.MMCMLocked)
	}
	if raw.Has(protocol.FieldPhaseShiftReady) {
		fmt.Printf("Phase ready:    %t\n", raw.PhaseShiftReady)
	}
	return nil
}

// sweep programs the delay at each point of an inclusive range and
// prints what the hardware actually got after quantization
func sweep(device *delayunit.Device, startArg, stopArg, stepArg string) error {
	start, err := timing.ParseTime(startArg)
	if err != nil {
		return err
	}
	stop, err := timing.ParseTime(stopArg)
	if err != nil {
		return err
	}
	step, err := timing.ParseTime(stepArg)
	if err != nil {
		return err
	}
	if step.Sign() <= 0 {
		return fmt.Errorf("sweep step must be positive")
	}

	for t := new(big.Rat).Set(start); t.Cmp(stop) <= 0; t.Add(t, step) {
		if err := device.SetDelay(t); err != nil {
			return err
		}
		actual, err := device.Delay()
		if err != nil {
			return err
		}
		fmt.Printf("%-12s -> %s\n", timing.FormatTime(t), timing.FormatTime(actual))
	}
	return nil
}
