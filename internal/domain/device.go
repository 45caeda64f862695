package domain

import (
	"regexp"
	"strings"
)

// DeviceID is an adb serial: either an opaque USB serial or an
// ip:port address for a device connected over the network. The
// address shape is the only thing that distinguishes the two.
type DeviceID string

var networkAddrPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}:\d+$`)

// IsNetwork reports whether the identifier has the ip:port shape.
func (d DeviceID) IsNetwork() bool {
	return networkAddrPattern.MatchString(string(d))
}

// FilenameSafe returns the identifier in a form usable inside a
// filename. Network serials drop the port so the name carries just
// the IP; USB serials pass through unchanged.
func (d DeviceID) FilenameSafe() string {
	if d.IsNetwork() {
		return strings.SplitN(string(d), ":", 2)[0]
	}
	return string(d)
}

type Transport int

const (
	TransportUSB Transport = iota
	TransportNetwork
)

func (t Transport) String() string {
	if t == TransportNetwork {
		return "network"
	}
	return "usb"
}

// Matches reports whether a device identifier belongs to this transport.
func (t Transport) Matches(id DeviceID) bool {
	return id.IsNetwork() == (t == TransportNetwork)
}

// DeviceStatus is the connection state adb reports for a serial.
// It is derived fresh on every probe and never cached.
type DeviceStatus int

const (
	StatusUnknown DeviceStatus = iota
	StatusAuthorized
	StatusUnauthorized
	StatusOffline
)

// ParseDeviceStatus maps the status column of `adb devices` output.
// Anything adb may print that we do not track (recovery, sideload,
// bootloader, ...) comes back as StatusUnknown.
func ParseDeviceStatus(s string) DeviceStatus {
	switch s {
	case "device":
		return StatusAuthorized
	case "unauthorized":
		return StatusUnauthorized
	case "offline":
		return StatusOffline
	default:
		return StatusUnknown
	}
}

func (s DeviceStatus) String() string {
	switch s {
	case StatusAuthorized:
		return "authorized"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// ProbeReport is the result of one device probe for one transport.
type ProbeReport struct {
	Transport    Transport
	OK           bool
	Summary      string
	Authorized   []DeviceID
	Unauthorized []DeviceID
	Offline      []DeviceID
}
