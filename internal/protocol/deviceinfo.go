// internal/protocol/deviceinfo.go
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// DeviceInfo is the identity block returned by Marstek.GetDevice.
// Every member is optional.
type DeviceInfo struct {
	Device   string
	Version  string
	WifiName string
	WifiMAC  string
	BleMAC   string
	IP       string
}

// DecodeDeviceInfo parses a GetDevice reply.
// Some firmwares send several JSON objects back to back in one datagram;
// the first object carrying a result wins.
func DecodeDeviceInfo(raw []byte) (DeviceInfo, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	var firstErr error
	for {
		var env replyEnvelope
		err := dec.Decode(&env)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if firstErr == nil {
				firstErr = &DecodeError{Reason: "malformed json", Err: err}
			}
			break
		}

		res, err := env.result()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return deviceInfoFrom(res), nil
	}

	if firstErr == nil {
		firstErr = &DecodeError{Reason: "empty reply"}
	}
	return DeviceInfo{}, firstErr
}

func deviceInfoFrom(r Result) DeviceInfo {
	var info DeviceInfo
	info.Device, _ = r.Text("device")
	info.Version, _ = r.Text("ver")
	info.WifiName, _ = r.Text("wifi_name")
	info.WifiMAC, _ = r.Text("wifi_mac")
	info.BleMAC, _ = r.Text("ble_mac")
	info.IP, _ = r.Text("ip")
	return info
}

// UniqueID picks the most stable identifier available.
func (d DeviceInfo) UniqueID() string {
	switch {
	case d.WifiMAC != "":
		return d.WifiMAC
	case d.BleMAC != "":
		return d.BleMAC
	default:
		return d.IP
	}
}
