package config

import (
	"runtime"
	"time"
)

// DefaultSchedule matches the twenty day interval of the automatic cleaner.
const DefaultSchedule = "@every 480h"

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		MinFileSize:    "1MB", // files of 1 MiB or less are not worth reporting as cache
		ExtraFolders:   []string{},
		ProtectedPaths: defaultProtectedPaths(runtime.GOOS),
		Vendors: []VendorConfig{
			{
				Name: "Seewo",
				Apps: []string{"EasiCare", "EasiCamera", "PPTChecker", "SeewoLink"},
				TempApps: []string{
					"EasiNote5",
					"PPTService",
					"SeewoService",
					"SeewoAdminService",
					"SeewoLink",
				},
				LauncherConfig: "swenlauncher/launcherConfig.ini",
				RegistryKey:    `SOFTWARE\Seewo`,
			},
		},
		Commands: CommandsConfig{
			Enabled:      runtime.GOOS == "windows",
			List:         []string{},
			PurgeFolders: []string{},
			Timeout:      5 * time.Minute,
		},
		DryRun:   false,
		Verbose:  false,
		LogLevel: "info",
		Daemon: &DaemonConfig{
			Enabled:  false,
			Schedule: DefaultSchedule,
		},
	}
}

func defaultProtectedPaths(goos string) []string {
	if goos == "windows" {
		return []string{
			`C:\`,
			`C:\Windows`,
			`C:\Windows\System32`,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\Users`,
		}
	}
	return []string{
		"/",
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/lib",
		"/proc",
		"/root",
		"/sbin",
		"/sys",
		"/usr",
		"/System",
		"/Applications",
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# cleancache configuration
# Location: <user config dir>/cleancache/config.yaml

# Files at or below this size are left alone
min_file_size: 1MB

# ini file remembering the folders resolved on the previous run
# state_file: C:\Users\me\AppData\Roaming\cleancache\User.ini

# Additional folders to clean on every run
extra_folders: []

# Folders that are never used as cleanup roots
# protected_paths:
#   - D:\Data

# Vendors with side-by-side versioned installs. The folder of the version in
# use is never cleaned.
vendors:
  - name: Seewo
    apps: [EasiCare, EasiCamera, PPTChecker, SeewoLink]
    temp_apps: [EasiNote5, PPTService, SeewoService, SeewoAdminService, SeewoLink]
    launcher_config: swenlauncher/launcherConfig.ini
    registry_key: SOFTWARE\Seewo

# OS cache commands run in parallel with file deletion
commands:
  enabled: true
  list: []          # empty uses the platform defaults (ipconfig /flushdns on Windows)
  purge_folders: [] # empty uses the platform defaults (%WINDIR%\Installer\$PatchCache$)
  timeout: 5m

dry_run: false
log_level: info
# log_file: C:\Users\me\AppData\Roaming\cleancache\Log\Error.txt

daemon:
  enabled: false
  schedule: "@every 480h"
  # history_file: C:\Users\me\AppData\Roaming\cleancache\Log\output.txt
`
}
