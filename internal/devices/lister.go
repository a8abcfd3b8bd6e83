// Package devices discovers connected iOS simulators and physical devices
// and retrieves bounded log captures from them.
package devices

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/xcwatch/xcwatch/internal/utils/logger"
	"github.com/xcwatch/xcwatch/internal/utils/runner"
)

// Descriptor describes one discovered device. The engine treats these as
// opaque apart from UDID, which addresses device-scoped capture commands.
type Descriptor struct {
	Name      string `json:"name"`
	UDID      string `json:"udid"`
	State     string `json:"state"`
	Kind      string `json:"type"` // "simulator" or "physical_device"
	Runtime   string `json:"runtime"`
	ProductID string `json:"product_id"`
}

const (
	KindSimulator = "simulator"
	KindPhysical  = "physical_device"
)

// probeTimeout bounds each discovery probe independently.
const probeTimeout = 10 * time.Second

// appleVendorID identifies Apple devices on the USB topology.
const appleVendorID = "0x05ac"

// iosProductIDs are USB product IDs of known iOS hardware.
var iosProductIDs = []string{
	"0x12a8", "0x12ab", "0x1281", "0x1227", "0x1290", "0x1291", "0x1292", "0x1293",
	"0x12a9", "0x12aa", "0x12ac", "0x12ad", "0x12ae", "0x12af", "0x12b0", "0x12b1",
}

// Lister discovers devices by concatenating three independent probes:
// the simulator registry, the devicectl CLI, and the USB topology. Results
// are concatenated, not deduplicated: a physical device visible to both
// devicectl and the USB probe appears twice, which downstream consumers
// rely on for probe attribution.
type Lister struct {
	run runner.Runner
}

// NewLister returns a Lister backed by the given runner.
func NewLister(run runner.Runner) *Lister {
	return &Lister{run: run}
}

// List runs all probes. Each probe fails soft: a missing tool or timeout
// contributes nothing rather than failing the listing.
func (l *Lister) List(ctx context.Context) []Descriptor {
	log := logger.Get(ctx)
	var all []Descriptor

	if devs, err := l.listSimulators(ctx); err != nil {
		log.Debugf("simctl probe failed: %v", err)
	} else {
		all = append(all, devs...)
	}

	if devs, err := l.listDevicectl(ctx); err != nil {
		log.Debugf("devicectl probe failed: %v", err)
	} else {
		all = append(all, devs...)
	}

	if devs, err := l.listUSB(ctx); err != nil {
		log.Debugf("system_profiler probe failed: %v", err)
	} else {
		all = append(all, devs...)
	}

	return all
}

type simctlList struct {
	Devices map[string][]struct {
		Name        string `json:"name"`
		UDID        string `json:"udid"`
		State       string `json:"state"`
		ProductType string `json:"productType"`
	} `json:"devices"`
}

func (l *Lister) listSimulators(ctx context.Context) ([]Descriptor, error) {
	cctx, cancel := runner.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := l.run.Output(cctx, []string{"xcrun", "simctl", "list", "devices", "--json"})
	if err != nil {
		return nil, err
	}

	var parsed simctlList
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, err
	}

	var devs []Descriptor
	for rt, list := range parsed.Devices {
		if !strings.Contains(rt, "iOS") && !strings.Contains(rt, "iPadOS") {
			continue
		}
		for _, d := range list {
			name := d.Name
			if name == "" {
				name = "Unknown Device"
			}
			state := d.State
			if state == "" {
				state = "Unknown"
			}
			devs = append(devs, Descriptor{
				Name:      name,
				UDID:      d.UDID,
				State:     state,
				Kind:      KindSimulator,
				Runtime:   rt,
				ProductID: d.ProductType,
			})
		}
	}
	return devs, nil
}

func (l *Lister) listDevicectl(ctx context.Context) ([]Descriptor, error) {
	cctx, cancel := runner.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := l.run.Output(cctx, []string{"xcrun", "devicectl", "list", "devices"})
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return nil, nil
	}

	var devs []Descriptor
	for _, line := range lines[1:] { // skip header
		parts := strings.Fields(line)
		if len(parts) < 5 {
			continue
		}
		name := parts[0]
		udid := parts[2]
		state := parts[3]
		model := strings.Join(parts[4:], " ")

		if !isAppleMobileName(model) && !isAppleMobileName(name) {
			continue
		}
		devs = append(devs, Descriptor{
			Name:      name,
			UDID:      udid,
			State:     state,
			Kind:      KindPhysical,
			Runtime:   "Physical Device",
			ProductID: model,
		})
	}
	return devs, nil
}

type usbItem struct {
	Name      string    `json:"_name"`
	VendorID  string    `json:"vendor_id"`
	ProductID string    `json:"product_id"`
	Items     []usbItem `json:"_items"`
}

type usbReport struct {
	SPUSBDataType []usbItem `json:"SPUSBDataType"`
}

func (l *Lister) listUSB(ctx context.Context) ([]Descriptor, error) {
	cctx, cancel := runner.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := l.run.Output(cctx, []string{"system_profiler", "SPUSBDataType", "-json"})
	if err != nil {
		return nil, err
	}

	var report usbReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		return nil, err
	}
	return collectUSBDevices(report.SPUSBDataType), nil
}

func collectUSBDevices(items []usbItem) []Descriptor {
	var devs []Descriptor
	for _, item := range items {
		if item.VendorID == appleVendorID && (hasIOSProductID(item.ProductID) || isAppleMobileName(item.Name)) {
			name := item.Name
			if name == "" {
				name = "Unknown iOS Device"
			}
			devs = append(devs, Descriptor{
				Name:      name,
				State:     "connected",
				Kind:      KindPhysical,
				Runtime:   "Physical Device",
				ProductID: item.ProductID,
				// The USB topology does not expose a UDID.
			})
		}
		devs = append(devs, collectUSBDevices(item.Items)...)
	}
	return devs
}

func hasIOSProductID(productID string) bool {
	for _, id := range iosProductIDs {
		if strings.Contains(productID, id) {
			return true
		}
	}
	return false
}

func isAppleMobileName(s string) bool {
	return strings.Contains(s, "iPhone") || strings.Contains(s, "iPad") || strings.Contains(s, "iPod")
}
