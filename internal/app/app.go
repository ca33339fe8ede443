// Package app assembles the cleanup pipeline from configuration. Both the
// command line tool and the scheduler build their runs through it.
package app

import (
	"fmt"
	"runtime"

	"github.com/fenilsonani/cleancache/internal/cleaner"
	"github.com/fenilsonani/cleancache/internal/commands"
	"github.com/fenilsonani/cleancache/internal/config"
	"github.com/fenilsonani/cleancache/internal/logging"
	"github.com/fenilsonani/cleancache/internal/orchestrator"
	"github.com/fenilsonani/cleancache/internal/platform"
	"github.com/fenilsonani/cleancache/internal/progress"
	"github.com/fenilsonani/cleancache/internal/relocate"
	"github.com/fenilsonani/cleancache/internal/resolver"
	"github.com/fenilsonani/cleancache/internal/scanner"
	"github.com/fenilsonani/cleancache/internal/security"
	"github.com/fenilsonani/cleancache/internal/store"
	"github.com/spf13/afero"
)

// App holds the components shared by every run
type App struct {
	Config    *config.Config
	Info      *platform.Info
	Store     *store.IniStore
	Resolver  *resolver.Resolver
	Walker    *scanner.Walker
	Deleter   *cleaner.Deleter
	Validator *security.PathValidator
	MinSize   int64
}

// RunOptions adjusts a single run without touching the config
type RunOptions struct {
	DryRun     bool
	NoCommands bool
}

// New builds the components described by cfg on the real filesystem
func New(cfg *config.Config) (*App, error) {
	info, err := platform.GetInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get platform info: %w", err)
	}
	return NewWith(cfg, info, afero.NewOsFs())
}

// NewWith builds the components for a given machine description and filesystem
func NewWith(cfg *config.Config, info *platform.Info, fsys afero.Fs) (*App, error) {
	minSize, err := cfg.MinFileSizeBytes()
	if err != nil {
		return nil, fmt.Errorf("invalid min_file_size: %w", err)
	}

	statePath, err := cfg.StatePath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate state file: %w", err)
	}

	validator := security.NewPathValidator(cfg.ProtectedPaths...)
	st := store.NewIniStore(fsys, statePath)

	return &App{
		Config:    cfg,
		Info:      info,
		Store:     st,
		Validator: validator,
		MinSize:   minSize,
		Resolver: resolver.New(st, info,
			resolver.WithFs(fsys),
			resolver.WithVendors(cfg.Vendors),
			resolver.WithExtraFolders(cfg.ExtraFolders),
			resolver.WithValidator(validator),
			resolver.WithLogger(logging.Component("resolver")),
		),
		Walker: scanner.New(fsys,
			scanner.WithValidator(validator),
			scanner.WithLogger(logging.Component("walker")),
		),
		Deleter: cleaner.New(logging.Component("deleter")),
	}, nil
}

// Commands returns the command channel configured for this machine, or nil
// when commands are disabled
func (a *App) Commands() *commands.Channel {
	cc := a.Config.Commands
	if !cc.Enabled {
		return nil
	}

	list := cc.List
	if len(list) == 0 {
		list = commands.DefaultCommands(runtime.GOOS)
	}
	purge := cc.PurgeFolders
	if len(purge) == 0 {
		purge = commands.DefaultPurgeFolders(a.Info)
	}

	return commands.NewChannel(
		commands.ShellRunner{GOOS: runtime.GOOS},
		a.Deleter,
		list,
		purge,
		cc.Timeout,
		logging.Component("commands"),
	)
}

// Orchestrator builds an orchestrator for one or more runs
func (a *App) Orchestrator(opts RunOptions) *orchestrator.Orchestrator {
	orchOpts := []orchestrator.Option{
		orchestrator.WithMinSize(a.MinSize),
		orchestrator.WithDryRun(opts.DryRun || a.Config.DryRun),
		orchestrator.WithReporter(progress.NewReporter()),
		orchestrator.WithLogger(logging.Component("orchestrator")),
	}
	if !opts.NoCommands {
		if ch := a.Commands(); ch != nil {
			orchOpts = append(orchOpts, orchestrator.WithCommands(ch))
		}
	}
	return orchestrator.New(a.Resolver, a.Walker, a.Deleter, orchOpts...)
}

// Relocator builds a relocator reporting to reporter
func (a *App) Relocator(reporter *progress.Reporter) *relocate.Relocator {
	return relocate.New(a.Deleter, a.Walker, nil, reporter, logging.Component("relocate"))
}
