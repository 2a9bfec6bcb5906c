package plux

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// macPattern matches six colon-separated hex octets after normalization.
var macPattern = regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`)

// Normalize canonicalizes a device address to uppercase colon-separated
// form. Dash separators and the Windows BTH prefix are accepted on
// input, so an address copied from any platform's pairing UI works.
func Normalize(addr string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(addr))
	s = strings.TrimPrefix(s, "BTH")
	s = strings.ReplaceAll(s, "-", ":")
	if !macPattern.MatchString(s) {
		return "", fmt.Errorf("invalid device address %q", addr)
	}
	return s, nil
}

// PlatformAddr renders a canonical address the way the vendor SDK
// expects it on the given OS: Windows wants a BTH prefix, macOS and
// Linux want dash separators.
func PlatformAddr(canonical, goos string) string {
	if goos == "windows" {
		return "BTH" + canonical
	}
	return strings.ReplaceAll(canonical, ":", "-")
}

// FormatAddr normalizes addr and renders it for the running platform.
func FormatAddr(addr string) (string, error) {
	canonical, err := Normalize(addr)
	if err != nil {
		return "", err
	}
	return PlatformAddr(canonical, runtime.GOOS), nil
}
