//go:build windows

package resolver

import (
	"golang.org/x/sys/windows/registry"
)

// RegistryVersionSource reads HKLM\<Key>\<app> value VersionPath
type RegistryVersionSource struct {
	Key string
}

// ActiveVersionPath implements VersionSource
func (s RegistryVersionSource) ActiveVersionPath(appDir, app string) (string, error) {
	if s.Key == "" {
		return "", nil
	}

	k, err := registry.OpenKey(registry.LOCAL_MACHINE, s.Key+`\`+app, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()

	path, _, err := k.GetStringValue("VersionPath")
	if err != nil {
		return "", err
	}
	return path, nil
}
