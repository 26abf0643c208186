//go:build !unix && !windows

package crypto

// hostFingerprint has nothing beyond the hostname on this platform.
func hostFingerprint() []string {
	return nil
}
