package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DetectProfile picks a device-profile YAML filename from host identity.
// It looks for a file named after the hostname, falling back to a
// GOOS-based profile, then "default.yaml". Returns "" if profilesDir does
// not exist. This mirrors the original implementation's hostname-tag
// lookup, generalized to GOOS since this module targets more than one
// platform.
func DetectProfile(profilesDir string) string {
	if profilesDir == "" {
		return ""
	}
	if _, err := os.Stat(profilesDir); err != nil {
		return ""
	}

	candidates := []string{}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		candidates = append(candidates, hostname+".yaml")
	}
	candidates = append(candidates, runtime.GOOS+".yaml", "default.yaml")

	for _, c := range candidates {
		path := filepath.Join(profilesDir, c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
