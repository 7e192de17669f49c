package config

// SafetyConfig holds the fixed deny and allow lists used by the safety
// classifier. It is constructed once at startup; the classifier copies the
// slices so later mutation of a Config value cannot change verdicts.
type SafetyConfig struct {
	// DangerousFragments flag a command as dangerous whenever any of them
	// appears anywhere in the command text, case-insensitively.
	DangerousFragments []string `yaml:"dangerous_fragments"`

	// SafeDiagnosticCommands are first tokens that mark a command as a
	// read-only diagnostic, exempt from the confirmation escalation.
	SafeDiagnosticCommands []string `yaml:"safe_diagnostic_commands"`
}

// DefaultSafetyConfig returns the built-in deny and allow lists.
func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		DangerousFragments: []string{
			"rm -rf", "deltree", "format", "dd if=", "mkfs",
			"del /", "rd /s", "rmdir /s", ":(){:|:&};:",
		},
		SafeDiagnosticCommands: []string{
			"wmic", "systeminfo", "ipconfig", "netstat", "tasklist",
			"sfc", "dism", "chkdsk", "dir", "powercfg", "msinfo32",
			"driverquery", "where", "regsvr32", "mdsched.exe",
		},
	}
}
