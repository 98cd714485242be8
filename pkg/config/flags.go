package config

import "github.com/spf13/pflag"

// Flags holds the handful of CLI overrides the agent binary accepts.
type Flags struct {
	ConfigPath  string
	ProfilesDir string
	Profile     string
	DryRun      bool
}

// ParseFlags registers and parses the CLI surface described for cmd/agent.
// Callers pass an explicit *pflag.FlagSet (rather than the package-level
// pflag.CommandLine) so tests can parse arbitrary argv without mutating
// global flag state.
func ParseFlags(fs *pflag.FlagSet, args []string) (Flags, error) {
	var f Flags
	fs.StringVar(&f.ConfigPath, "config", "config/base.yaml", "Path to the base YAML config file.")
	fs.StringVar(&f.ProfilesDir, "profiles-dir", "config/profiles", "Directory of device-profile YAML overlays.")
	fs.StringVar(&f.Profile, "profile", "", "Explicit device-profile filename, overriding auto-detection.")
	fs.BoolVar(&f.DryRun, "dry-run", false, "Load and validate configuration, then exit without starting the pipeline.")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// ResolveProfilePath returns the explicit --profile path if one was given,
// otherwise the auto-detected device profile under ProfilesDir.
func (f Flags) ResolveProfilePath() string {
	if f.Profile != "" {
		return f.ProfilesDir + "/" + f.Profile
	}
	return DetectProfile(f.ProfilesDir)
}
