// delay-load-setup: Load a setup to a DelayUnit board from a YAML file
//
// This tool reads a previously saved setup file and applies it to a
// connected board. Fields left empty in the file are not touched.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/HWS-XMS/DelayUnit/pkg/config"
	"github.com/HWS-XMS/DelayUnit/pkg/delayunit"
	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
)

func main() {
	selector := flag.String("d", "", delayunit.SelectorUsage())
	generation := flag.String("gen", "", "Device generation (defaults to the setup's generation field)")
	verbose := flag.Bool("v", false, "Verbose output")
	verify := flag.Bool("verify", false, "Read the setup back after writing and compare")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <setup-file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s etc/setups/bench.yaml\n", os.Args[0])
		os.Exit(1)
	}

	setupPath := args[0]

	if *verbose {
		fmt.Printf("Loading setup from: %s\n", setupPath)
	}

	setup, err := config.LoadFromFile(setupPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load setup: %v\n", err)
		os.Exit(1)
	}

	// Command line generation wins over the file's generation field
	generationName := setup.Generation
	if *generation != "" {
		generationName = *generation
	}
	if generationName == "" {
		generationName = "current"
	}

	profile, err := protocol.ProfileByName(generationName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path, err := delayunit.Select(profile, delayunit.DeviceSelector(*selector))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	device, err := delayunit.Open(path, profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer device.Close()

	if *verbose {
		fmt.Printf("Connected to: %s\n", device)
		fmt.Println("Applying setup...")
	}

	if err := config.Apply(device, setup); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to apply setup: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Setup applied successfully")

	if *verify {
		readBack, err := config.Dump(device)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to read back setup for verification: %v\n", err)
			return
		}
		mismatches := verifySetup(setup, readBack)
		if len(mismatches) > 0 {
			fmt.Fprintf(os.Stderr, "Verification failed with %d mismatch(es):\n", len(mismatches))
			for _, m := range mismatches {
				fmt.Fprintf(os.Stderr, "  - %s\n", m)
			}
			os.Exit(1)
		}
		fmt.Println("Verification: OK")
	}
}

// verifySetup compares populated fields of the requested setup against
// the read-back. Timing fields are skipped: quantization means the
// read-back legitimately differs from the request. Mode fields must
// match exactly.
func verifySetup(expected, actual *config.Setup) []string {
	var mismatches []string

	check := func(name, want, got string) {
		if want == "" {
			return
		}
		if !strings.EqualFold(want, got) {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %s, got %s", name, want, got))
		}
	}

	check("edge", expected.Edge, actual.Edge)
	check("trigger_mode", expected.TriggerMode, actual.TriggerMode)
	check("armed_mode", expected.ArmedMode, actual.ArmedMode)
	check("counter_mode", expected.CounterMode, actual.CounterMode)

	if expected.EdgeCountTarget != 0 && expected.EdgeCountTarget != actual.EdgeCountTarget {
		mismatches = append(mismatches, fmt.Sprintf("edge_count_target: expected %d, got %d",
			expected.EdgeCountTarget, actual.EdgeCountTarget))
	}

	return mismatches
}
