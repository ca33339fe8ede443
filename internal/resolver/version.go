package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fenilsonani/cleancache/internal/config"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// versionFolderPattern matches side-by-side install folders such as
// EasiCare_1.0.2.3344
var versionFolderPattern = regexp.MustCompile(`^.*_\d+(\.\d+)*$`)

// VersionSource reports the folder of the version an application is
// currently running from. An empty result means the source has no answer.
type VersionSource interface {
	ActiveVersionPath(appDir, app string) (string, error)
}

// SourceFactory builds the version source for one vendor
type SourceFactory func(vendor config.VendorConfig) VersionSource

// DefaultSources asks the launcher ini first and falls back to the registry
func DefaultSources(fsys afero.Fs) SourceFactory {
	return func(v config.VendorConfig) VersionSource {
		return ChainSource{
			LauncherIniSource{Fs: fsys, RelPath: v.LauncherConfig},
			RegistryVersionSource{Key: v.RegistryKey},
		}
	}
}

// LauncherIniSource reads [Version] ActualExePath from the launcher config
// kept inside the application folder
type LauncherIniSource struct {
	Fs      afero.Fs
	RelPath string
}

// ActiveVersionPath returns <appDir>/<first path segment of ActualExePath
// below appDir>
func (s LauncherIniSource) ActiveVersionPath(appDir, app string) (string, error) {
	if s.RelPath == "" {
		return "", nil
	}
	iniPath := filepath.Join(appDir, filepath.FromSlash(s.RelPath))

	data, err := afero.ReadFile(s.Fs, iniPath)
	if err != nil {
		return "", err
	}
	cfg, err := ini.Load(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", iniPath, err)
	}

	exe := strings.TrimSpace(cfg.Section("Version").Key("ActualExePath").String())
	if exe == "" {
		return "", nil
	}

	segment := firstSegmentBelow(appDir, exe)
	if segment == "" {
		return "", fmt.Errorf("ActualExePath %q is not below %s", exe, appDir)
	}
	return filepath.Join(appDir, segment), nil
}

// ChainSource returns the first non-empty answer
type ChainSource []VersionSource

// ActiveVersionPath implements VersionSource
func (c ChainSource) ActiveVersionPath(appDir, app string) (string, error) {
	var errs []error
	for _, src := range c {
		path, err := src.ActiveVersionPath(appDir, app)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if path != "" {
			return path, nil
		}
	}
	return "", errors.Join(errs...)
}

// VersionFolders lists the version folders directly under appDir, leaving
// out the active one. An empty active excludes nothing.
func VersionFolders(fsys afero.Fs, appDir, active string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, appDir)
	if err != nil {
		return nil, err
	}

	activeKey := normalize(active)
	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() || !versionFolderPattern.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(appDir, entry.Name())
		if activeKey != "" && isSameOrParent(normalize(path), activeKey) {
			continue
		}
		folders = append(folders, path)
	}
	sort.Strings(folders)
	return folders, nil
}

// firstSegmentBelow returns the first path component of target below dir,
// comparing case-insensitively and across separator styles
func firstSegmentBelow(dir, target string) string {
	prefix := normalize(dir) + "/"
	t := strings.ReplaceAll(target, `\`, "/")
	if !strings.HasPrefix(strings.ToLower(t), prefix) {
		return ""
	}
	rest := t[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func isSameOrParent(path, active string) bool {
	return path == active || strings.HasPrefix(active, path+"/")
}

func normalize(path string) string {
	p := strings.TrimRight(strings.ReplaceAll(path, `\`, "/"), "/")
	return strings.ToLower(p)
}
