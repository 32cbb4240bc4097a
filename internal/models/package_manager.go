package models

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// PackageManager identifies the JavaScript package manager that invoked the CLI.
type PackageManager string

const (
	PackageManagerNPM  PackageManager = "npm"
	PackageManagerPNPM PackageManager = "pnpm"
	PackageManagerYarn PackageManager = "yarn"
	PackageManagerBun  PackageManager = "bun"
)

// MinimumNodeVersion is the oldest Node.js release the templates support.
const MinimumNodeVersion = "v18.0.0"

// ParsePackageManager parses a package manager name.
func ParsePackageManager(s string) (PackageManager, error) {
	switch PackageManager(strings.ToLower(strings.TrimSpace(s))) {
	case PackageManagerNPM:
		return PackageManagerNPM, nil
	case PackageManagerPNPM:
		return PackageManagerPNPM, nil
	case PackageManagerYarn:
		return PackageManagerYarn, nil
	case PackageManagerBun:
		return PackageManagerBun, nil
	default:
		return "", fmt.Errorf("unknown package manager: %s", s)
	}
}

// DetectPackageManager infers the package manager from the npm_config_user_agent
// value, e.g. "pnpm/9.1.0 npm/? node/v20.11.0 darwin arm64". Falls back to npm.
func DetectPackageManager(userAgent string) PackageManager {
	fields := strings.Fields(userAgent)
	if len(fields) == 0 {
		return PackageManagerNPM
	}

	name, _, _ := strings.Cut(fields[0], "/")
	pm, err := ParsePackageManager(name)
	if err != nil {
		return PackageManagerNPM
	}
	return pm
}

// NodeVersion extracts the node version ("v20.11.0") from a user agent string.
// Returns "" when the user agent does not carry one.
func NodeVersion(userAgent string) string {
	for _, field := range strings.Fields(userAgent) {
		name, version, ok := strings.Cut(field, "/")
		if !ok || name != "node" {
			continue
		}
		if !strings.HasPrefix(version, "v") {
			version = "v" + version
		}
		if semver.IsValid(version) {
			return version
		}
	}
	return ""
}

// CheckNodeVersion reports an error when the user agent names a node version
// older than MinimumNodeVersion. Unknown versions pass.
func CheckNodeVersion(userAgent string) error {
	version := NodeVersion(userAgent)
	if version == "" {
		return nil
	}
	if semver.Compare(version, MinimumNodeVersion) < 0 {
		return fmt.Errorf("node %s is not supported, please upgrade to %s or newer", version, MinimumNodeVersion)
	}
	return nil
}

// InstallArgs returns the argv that installs dependencies.
func (pm PackageManager) InstallArgs() []string {
	switch pm {
	case PackageManagerYarn:
		return []string{"yarn"}
	case "":
		return []string{string(PackageManagerNPM), "install"}
	default:
		return []string{string(pm), "install"}
	}
}

// RunArgs returns the argv that runs a package.json script.
func (pm PackageManager) RunArgs(script string) []string {
	switch pm {
	case PackageManagerYarn, PackageManagerBun, PackageManagerPNPM:
		return []string{string(pm), "run", script}
	default:
		return []string{string(PackageManagerNPM), "run", script}
	}
}

// String returns the package manager name.
func (pm PackageManager) String() string {
	if pm == "" {
		return string(PackageManagerNPM)
	}
	return string(pm)
}
