package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// DeviceID returns a stable identifier for this machine, the SHA-256 of
// host characteristics. It survives restarts but differs between hosts.
func DeviceID() (string, error) {
	parts := hostFingerprint()
	if host, err := os.Hostname(); err == nil && host != "" {
		parts = append(parts, host)
	}

	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return "", fmt.Errorf("%w: no host characteristics available", ErrDeviceDerivation)
	}

	sum := sha256.Sum256([]byte(strings.Join(nonEmpty, "\n")))
	return hex.EncodeToString(sum[:]), nil
}
