// lsdelay: List all connected DelayUnit boards
//
// This tool enumerates DelayUnit boards twice: once at the USB level,
// which sees boards even when their serial port is held open by another
// process, and once at the serial port level, which shows the port path
// other tools will actually open.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gousb"

	"github.com/HWS-XMS/DelayUnit/pkg/delayunit"
	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
)

func main() {
	generation := flag.String("gen", "current", "Device generation (gen1, gen2, gen3, current)")
	verbose := flag.Bool("v", false, "Verbose output (show USB descriptor details)")
	flag.Parse()

	profile, err := protocol.ProfileByName(*generation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Serial port view: what the other tools will open
	ports, err := delayunit.FindPorts(profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to enumerate serial ports: %v\n", err)
		os.Exit(1)
	}

	if len(ports) == 0 {
		fmt.Printf("No DelayUnit boards found (VID:PID %04X:%04X)\n",
			profile.VendorID, profile.ProductID)
	} else {
		fmt.Printf("Found %d DelayUnit board(s):\n\n", len(ports))
		for i, p := range ports {
			fmt.Printf("  #%d  %s  %s\n", i, p.Path, p.Serial)
		}
	}

	if *verbose {
		// USB descriptor view: sees boards whose port is busy
		context := gousb.NewContext()
		defer context.Close()

		infos, err := delayunit.ListUSB(context, profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to enumerate USB devices: %v\n", err)
			os.Exit(1)
		}

		fmt.Println()
		fmt.Printf("USB descriptors (%d):\n", len(infos))
		for _, info := range infos {
			fmt.Printf("  Bus:Address:  %d:%d\n", info.Bus, info.Address)
			fmt.Printf("  Serial:       %s\n", info.Serial)
			fmt.Printf("  Manufacturer: %s\n", info.Manufacturer)
			fmt.Printf("  Product:      %s\n", info.Product)
			fmt.Println()
		}
	}

	if !*verbose && len(ports) > 0 {
		fmt.Println()
		fmt.Println("Use -d flag with other tools to select a board:")
		fmt.Println("  -d \"#0\"         Select by index")
		fmt.Println("  -d \"/dev/...\"   Select by port path")
		fmt.Println("  -d \"A50285BI\"   Select by serial (if unique)")
	}
}
