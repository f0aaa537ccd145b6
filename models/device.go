package models

// DeviceInfo hardware details reported by an installed client. The server reduces it to a fingerprint.
type DeviceInfo struct {
	CPUID         string `json:"cpu_id" validate:"max=255"`
	MotherboardSN string `json:"motherboard_sn" validate:"max=255"`
	MACAddress    string `json:"mac_address" validate:"max=255"`
	DiskSerial    string `json:"disk_serial" validate:"max=255"`
	MachineID     string `json:"machine_id" validate:"max=255"`
	Hostname      string `json:"hostname" validate:"max=255"`
}

// IsEmpty reports whether none of the fingerprint inputs are set. Hostname is informational only.
func (d *DeviceInfo) IsEmpty() bool {
	return d == nil || (d.CPUID == "" && d.MotherboardSN == "" && d.MACAddress == "" &&
		d.DiskSerial == "" && d.MachineID == "")
}
