package delayunit

import (
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
)

// PortInfo describes one serial port belonging to a DelayUnit board
type PortInfo struct {
	Path   string
	Serial string
}

// FindPorts lists the serial ports whose USB vendor/product identifiers
// match the generation's board
func FindPorts(profile *protocol.Profile) ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	want := fmt.Sprintf("%04X:%04X", profile.VendorID, profile.ProductID)
	var matches []PortInfo
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		got := fmt.Sprintf("%s:%s", strings.ToUpper(p.VID), strings.ToUpper(p.PID))
		if got != want {
			continue
		}
		matches = append(matches, PortInfo{Path: p.Name, Serial: p.SerialNumber})
	}
	return matches, nil
}

// DeviceSelector specifies how to identify a board when several are
// connected. Supported formats:
//   - ""           : first available board
//   - "#N"         : Nth board, 0-indexed (e.g. "#0", "#1")
//   - "/dev/..."   : explicit port path (also "COMn" on Windows)
//   - "serial"     : match by USB serial number
type DeviceSelector string

// Select resolves a selector to a serial port path
func Select(profile *protocol.Profile, selector DeviceSelector) (string, error) {
	sel := string(selector)

	// Explicit path bypasses discovery entirely
	if strings.HasPrefix(sel, "/dev/") || strings.HasPrefix(strings.ToUpper(sel), "COM") {
		return sel, nil
	}

	ports, err := FindPorts(profile)
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("%w (VID:PID %04X:%04X)", ErrNoBoardFound,
			profile.VendorID, profile.ProductID)
	}

	if sel == "" {
		return ports[0].Path, nil
	}

	if strings.HasPrefix(sel, "#") {
		index, err := strconv.Atoi(sel[1:])
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidSelector, sel)
		}
		if index < 0 || index >= len(ports) {
			return "", fmt.Errorf("%w: index %d out of range (found %d boards)",
				ErrInvalidSelector, index, len(ports))
		}
		return ports[index].Path, nil
	}

	var matches []PortInfo
	for _, p := range ports {
		if p.Serial == sel {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w with serial %s", ErrNoBoardFound, sel)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("%w: %d boards share serial %s; use #N or an explicit path",
			ErrInvalidSelector, len(matches), sel)
	}
	return matches[0].Path, nil
}

// SelectorUsage is the -d flag help text shared by the command line tools
func SelectorUsage() string {
	return `Device selector. Formats:
    ""          - Use first available board
    "#N"        - Use Nth board, 0-indexed (e.g. "#0", "#1")
    "/dev/..."  - Explicit serial port path
    "serial"    - Match by USB serial number`
}
