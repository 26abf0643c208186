//go:build windows

package crypto

import (
	"golang.org/x/sys/windows/registry"
)

// hostFingerprint reads the MachineGuid set at Windows install time.
func hostFingerprint() []string {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Cryptography`, registry.QUERY_VALUE|registry.WOW64_64KEY)
	if err != nil {
		return nil
	}
	defer k.Close()

	guid, _, err := k.GetStringValue("MachineGuid")
	if err != nil {
		return nil
	}
	return []string{guid}
}
