//go:build unix

package crypto

import (
	"os"

	"golang.org/x/sys/unix"
)

var machineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// hostFingerprint reads the machine id and uname fields.
func hostFingerprint() []string {
	var parts []string
	for _, p := range machineIDPaths {
		if data, err := os.ReadFile(p); err == nil {
			parts = append(parts, string(data))
			break
		}
	}

	var u unix.Utsname
	if err := unix.Uname(&u); err == nil {
		parts = append(parts,
			unix.ByteSliceToString(u.Sysname[:]),
			unix.ByteSliceToString(u.Nodename[:]),
			unix.ByteSliceToString(u.Machine[:]),
		)
	}
	return parts
}
