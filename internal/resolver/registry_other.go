//go:build !windows

package resolver

// RegistryVersionSource has no registry to read outside Windows
type RegistryVersionSource struct {
	Key string
}

// ActiveVersionPath always returns an empty answer
func (s RegistryVersionSource) ActiveVersionPath(appDir, app string) (string, error) {
	return "", nil
}
