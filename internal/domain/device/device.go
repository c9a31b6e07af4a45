// Package device models the operator's enrollment devices and the selection
// policy that decides which device an enrollment action targets.
package device

// Device is a physical scanning device registered by the operator. ID is
// generated locally; DeviceID is the hardware identifier the upstream
// enrollment API expects. Uniqueness beyond the generated ID is not enforced.
type Device struct {
	ID           string `json:"id"`
	SerialNumber string `json:"serial_number"`
	DeviceID     string `json:"device_id"`
	Name         string `json:"name,omitempty"`
}

// Hints are the persisted selection hints. Either may reference a device
// that no longer exists; Resolve treats stale hints as absent.
type Hints struct {
	DefaultID  string
	LastUsedID string
}

// Resolve picks the device an action should target: the default device if
// still present, else the last-used device if still present, else the first
// device in the collection, else nil.
func Resolve(devices []Device, hints Hints) *Device {
	if d := byID(devices, hints.DefaultID); d != nil {
		return d
	}
	if d := byID(devices, hints.LastUsedID); d != nil {
		return d
	}
	if len(devices) > 0 {
		return &devices[0]
	}
	return nil
}

// Label renders a device for display: serial number (falling back to the
// hardware id) plus the optional friendly name.
func Label(d Device) string {
	label := d.SerialNumber
	if label == "" {
		label = d.DeviceID
	}
	if label == "" {
		label = "Device"
	}
	if d.Name != "" {
		label += " (" + d.Name + ")"
	}
	return label
}

func byID(devices []Device, id string) *Device {
	if id == "" {
		return nil
	}
	for i := range devices {
		if devices[i].ID == id {
			return &devices[i]
		}
	}
	return nil
}
