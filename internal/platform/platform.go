package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	Windows Platform = "windows"
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains the per-user and per-machine locations the cleaner works with
type Info struct {
	OS              Platform
	HomeDir         string
	Username        string
	WinDir          string
	SystemDrive     string
	LocalAppData    string
	RoamingAppData  string
	ProgramFiles    string
	ProgramFilesX86 string
	TempDir         string
}

// Detect returns the current platform
func Detect() Platform {
	return parsePlatform(runtime.GOOS)
}

func parsePlatform(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform information for the current process
func GetInfo() (*Info, error) {
	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}
	return GetInfoFrom(runtime.GOOS, os.Getenv, currentUser.HomeDir, currentUser.Username), nil
}

// GetInfoFrom builds Info from an environment lookup so callers and tests
// can describe a machine other than the one they run on
func GetInfoFrom(goos string, getenv func(string) string, homeDir, username string) *Info {
	info := &Info{
		OS:       parsePlatform(goos),
		HomeDir:  homeDir,
		Username: username,
	}

	if info.OS != Windows {
		info.TempDir = firstNonEmpty(getenv("TMPDIR"), "/tmp")
		info.LocalAppData = firstNonEmpty(getenv("XDG_CACHE_HOME"), filepath.Join(homeDir, ".cache"))
		info.RoamingAppData = firstNonEmpty(getenv("XDG_CONFIG_HOME"), filepath.Join(homeDir, ".config"))
		return info
	}

	info.SystemDrive = firstNonEmpty(getenv("SYSTEMDRIVE"), "C:")
	root := info.SystemDrive + `\`
	info.WinDir = firstNonEmpty(getenv("WINDIR"), getenv("SystemRoot"), root+"Windows")
	info.ProgramFiles = firstNonEmpty(getenv("ProgramFiles"), root+"Program Files")
	info.ProgramFilesX86 = firstNonEmpty(getenv("ProgramFiles(x86)"), root+"Program Files (x86)")

	profile := firstNonEmpty(getenv("USERPROFILE"), homeDir)
	info.LocalAppData = firstNonEmpty(getenv("LOCALAPPDATA"), join(goos, profile, "AppData", "Local"))
	info.RoamingAppData = firstNonEmpty(getenv("APPDATA"), join(goos, profile, "AppData", "Roaming"))
	info.TempDir = firstNonEmpty(getenv("TEMP"), getenv("TMP"), join(goos, info.LocalAppData, "Temp"))

	return info
}

// PresetFolders returns the fixed OS-level cache and temp folders
func (i *Info) PresetFolders() []string {
	goos := string(i.OS)
	if i.OS != Windows {
		return []string{
			i.TempDir,
			"/var/tmp",
			filepath.Join(i.LocalAppData, "thumbnails"),
		}
	}

	return []string{
		join(goos, i.WinDir, "winsxs", "Backup"),
		join(goos, i.WinDir, "SoftwareDistribution", "Download"),
		join(goos, i.WinDir, "Prefetch"),
		join(goos, i.WinDir, "assembly", "temp"),
		join(goos, i.WinDir, "Temp"),
		join(goos, i.WinDir, "Help"),
		join(goos, i.WinDir, "System32", "LogFiles"),
		join(goos, i.LocalAppData, "Temp"),
	}
}

// AppTempFolders returns <RoamingAppData>/<vendor>/<app>/Temp for each app
func (i *Info) AppTempFolders(vendor string, apps []string) []string {
	folders := make([]string, 0, len(apps))
	for _, app := range apps {
		folders = append(folders, join(string(i.OS), i.RoamingAppData, vendor, app, "Temp"))
	}
	return folders
}

// VendorRoots returns the install roots a vendor's applications may live under
func (i *Info) VendorRoots(vendor string) []string {
	if i.OS != Windows {
		return []string{filepath.Join("/opt", vendor)}
	}
	return []string{
		join(string(i.OS), i.ProgramFiles, vendor),
		join(string(i.OS), i.ProgramFilesX86, vendor),
	}
}

// join builds a path using the separator of goos rather than the host's
func join(goos string, elem ...string) string {
	if goos != "windows" {
		return filepath.Join(elem...)
	}
	out := ""
	for _, e := range elem {
		if e == "" {
			continue
		}
		if out == "" {
			out = e
			continue
		}
		if out[len(out)-1] != '\\' {
			out += `\`
		}
		out += e
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
