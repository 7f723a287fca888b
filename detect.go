package epos

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes one serial port of the machine.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// DetectPorts lists the serial ports of the machine with USB metadata,
// USB ports first. Drives usually show up behind a USB to serial bridge,
// so the USB entries are the candidates to probe.
func DetectPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("epos: could not enumerate serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	sort.SliceStable(ports, func(i, j int) bool {
		return ports[i].IsUSB && !ports[j].IsUSB
	})
	return ports, nil
}
