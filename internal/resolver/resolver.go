// Package resolver builds the ordered list of folders a cleanup run scans.
package resolver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fenilsonani/cleancache/internal/config"
	"github.com/fenilsonani/cleancache/internal/platform"
	"github.com/fenilsonani/cleancache/internal/security"
	"github.com/fenilsonani/cleancache/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Resolver combines the persisted folder list with the built-in presets,
// vendor temp folders and stale versioned installs. Every source is optional:
// one that fails is logged and skipped.
type Resolver struct {
	fs        afero.Fs
	store     store.FolderStore
	info      *platform.Info
	vendors   []config.VendorConfig
	extra     []string
	sources   SourceFactory
	validator *security.PathValidator
	logger    zerolog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithFs sets the filesystem used for existence checks and version lookups
func WithFs(fsys afero.Fs) Option {
	return func(r *Resolver) { r.fs = fsys }
}

// WithVendors sets the vendors whose installs and temp folders are resolved
func WithVendors(vendors []config.VendorConfig) Option {
	return func(r *Resolver) { r.vendors = vendors }
}

// WithExtraFolders appends user-configured folders to the presets
func WithExtraFolders(folders []string) Option {
	return func(r *Resolver) { r.extra = folders }
}

// WithVersionSources replaces the active-version lookup
func WithVersionSources(f SourceFactory) Option {
	return func(r *Resolver) { r.sources = f }
}

// WithValidator sets the protected-path check
func WithValidator(pv *security.PathValidator) Option {
	return func(r *Resolver) { r.validator = pv }
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// New creates a Resolver persisting to st
func New(st store.FolderStore, info *platform.Info, opts ...Option) *Resolver {
	r := &Resolver{
		store:  st,
		info:   info,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.sources == nil {
		r.sources = DefaultSources(r.fs)
	}
	if r.validator == nil {
		r.validator = security.NewPathValidator()
	}
	return r
}

// FromConfig creates a Resolver from the application config
func FromConfig(cfg *config.Config, st store.FolderStore, info *platform.Info, logger zerolog.Logger) *Resolver {
	return New(st, info,
		WithVendors(cfg.Vendors),
		WithExtraFolders(cfg.ExtraFolders),
		WithValidator(security.NewPathValidator(cfg.ProtectedPaths...)),
		WithLogger(logger),
	)
}

// Resolve returns the unique, existing candidate folders in emission order:
// persisted folders first, then presets. The result is saved back to the
// store. A failed save is returned alongside the list, which is still valid.
func (r *Resolver) Resolve(ctx context.Context) ([]string, error) {
	var candidates []string

	persisted, err := r.store.Load()
	if err != nil {
		r.logger.Warn().Err(err).Msg("ignoring unreadable folder store")
	}
	candidates = append(candidates, persisted...)

	presets := r.Presets(ctx)
	candidates = append(candidates, presets...)

	if err := ctx.Err(); err != nil {
		return r.filter(candidates), err
	}

	folders := r.filter(candidates)

	if err := r.store.Save(folders); err != nil {
		return folders, fmt.Errorf("failed to persist folders: %w", err)
	}
	if err := r.store.SavePresets(presets); err != nil {
		return folders, fmt.Errorf("failed to persist presets: %w", err)
	}

	r.logger.Debug().Int("folders", len(folders)).Msg("resolved candidate folders")
	return folders, nil
}

// Presets returns the built-in folders whether or not they exist: OS
// presets, extra folders, vendor temp folders and stale version folders
func (r *Resolver) Presets(ctx context.Context) []string {
	var presets []string
	if r.info != nil {
		presets = append(presets, r.info.PresetFolders()...)
	}
	presets = append(presets, r.extra...)

	for _, v := range r.vendors {
		if r.info != nil {
			presets = append(presets, r.info.AppTempFolders(v.Name, v.TempApps)...)
		}
	}

	for _, v := range r.vendors {
		if ctx.Err() != nil {
			break
		}
		presets = append(presets, r.staleVersions(v)...)
	}

	return presets
}

// staleVersions lists version folders of every app of v except the one in use
func (r *Resolver) staleVersions(v config.VendorConfig) []string {
	src := r.sources(v)

	var folders []string
	for _, root := range r.vendorRoots(v) {
		for _, app := range v.Apps {
			appDir := filepath.Join(root, app)
			if ok, _ := afero.DirExists(r.fs, appDir); !ok {
				continue
			}

			active, err := src.ActiveVersionPath(appDir, app)
			if err != nil {
				r.logger.Debug().Str("app", app).Err(err).Msg("active version unknown, keeping all versions as candidates")
			}

			versions, err := VersionFolders(r.fs, appDir, active)
			if err != nil {
				r.logger.Warn().Str("dir", appDir).Err(err).Msg("cannot list version folders")
				continue
			}
			folders = append(folders, versions...)
		}
	}
	return folders
}

func (r *Resolver) vendorRoots(v config.VendorConfig) []string {
	if v.InstallRoot != "" {
		return []string{v.InstallRoot}
	}
	if r.info == nil {
		return nil
	}
	return r.info.VendorRoots(v.Name)
}

// filter keeps the first occurrence of each existing, unprotected folder
func (r *Resolver) filter(candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	folders := make([]string, 0, len(candidates))

	for _, path := range candidates {
		if path == "" {
			continue
		}
		key := r.validator.Key(path)
		if seen[key] {
			continue
		}
		seen[key] = true

		if err := r.validator.ValidateRoot(path); err != nil {
			r.logger.Warn().Str("path", path).Err(err).Msg("skipping folder")
			continue
		}
		if ok, _ := afero.DirExists(r.fs, path); !ok {
			continue
		}
		folders = append(folders, path)
	}
	return folders
}

// Static resolves to a fixed folder list, for runs limited to folders named
// on the command line
type Static []string

// Resolve returns the list unchanged
func (s Static) Resolve(ctx context.Context) ([]string, error) {
	return append([]string(nil), s...), ctx.Err()
}
