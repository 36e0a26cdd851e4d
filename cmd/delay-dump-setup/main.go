// delay-dump-setup: Save the current setup of a DelayUnit board
//
// This tool reads the full configuration from a connected board and
// writes it as a YAML setup file, or to stdout when no output path is
// given. The file can later be applied with delay-load-setup.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HWS-XMS/DelayUnit/pkg/config"
	"github.com/HWS-XMS/DelayUnit/pkg/delayunit"
	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
)

func main() {
	selector := flag.String("d", "", delayunit.SelectorUsage())
	generation := flag.String("gen", "current", "Device generation (gen1, gen2, gen3, current)")
	output := flag.String("o", "", "Output file path (default: stdout)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

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

	device, err := delayunit.Open(path, profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer device.Close()

	if *verbose {
		fmt.Printf("Connected to: %s\n", device)
		fmt.Println("Reading setup...")
	}

	setup, err := config.Dump(device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read setup: %v\n", err)
		os.Exit(1)
	}

	if *output == "" {
		data, err := yaml.Marshal(setup)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to marshal setup: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	if err := config.SaveToFile(setup, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to save setup: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Setup saved to %s\n", *output)
}
