package delayunit

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/HWS-XMS/DelayUnit/pkg/protocol"
)

// USBInfo describes one matching board at the USB level, independent of
// which serial port its UART bridge landed on
type USBInfo struct {
	Bus          int
	Address      int
	Serial       string
	Manufacturer string
	Product      string
}

// String returns a human-readable description of the board
func (u USBInfo) String() string {
	return fmt.Sprintf("%s %s (Serial: %s)", u.Manufacturer, u.Product, u.Serial)
}

// ListUSB enumerates connected boards matching the generation's
// vendor/product identifiers and reads their string descriptors. Used by
// lsdelay to show what is plugged in even when a port is held open by
// another process.
func ListUSB(ctx *gousb.Context, profile *protocol.Profile) ([]USBInfo, error) {
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(profile.VendorID) &&
			desc.Product == gousb.ID(profile.ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	var infos []USBInfo
	for _, dev := range devices {
		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()
		serial, _ := dev.SerialNumber()
		infos = append(infos, USBInfo{
			Bus:          dev.Desc.Bus,
			Address:      dev.Desc.Address,
			Serial:       serial,
			Manufacturer: manufacturer,
			Product:      product,
		})
		dev.Close()
	}
	return infos, nil
}
