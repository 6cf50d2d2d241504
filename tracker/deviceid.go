package tracker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Device IDs are short tokens like "T9EF0": a fixed prefix plus four hex
// characters taken from the radio hardware UUID, so the same board always
// comes up with the same ID. An operator override replaces the derived ID
// entirely (used for named beacons and test rigs).

const (
	deviceIDPrefix    = "T"
	deviceIDHexChars  = 4
	maxOverrideLength = 8
)

// NewHardwareUUID generates a hardware identity for simulated radios.
// Real hardware supplies its own stable UUID instead.
func NewHardwareUUID() string {
	return uuid.New().String()
}

// DeriveDeviceID returns the device identity for this process: the operator
// override when set, otherwise an ID derived from the hardware UUID.
// The result is non-empty and stable for the process lifetime.
func DeriveDeviceID(hardwareUUID, override string) (string, error) {
	if override != "" {
		id := strings.ToUpper(strings.TrimSpace(override))
		if id == "" {
			return "", fmt.Errorf("device id override is blank")
		}
		if len(id) > maxOverrideLength {
			return "", fmt.Errorf("device id override %q exceeds %d characters", id, maxOverrideLength)
		}
		return id, nil
	}

	hex := strings.ToUpper(strings.ReplaceAll(hardwareUUID, "-", ""))
	if len(hex) < deviceIDHexChars {
		return "", fmt.Errorf("hardware uuid %q too short to derive a device id", hardwareUUID)
	}
	return deviceIDPrefix + hex[len(hex)-deviceIDHexChars:], nil
}
