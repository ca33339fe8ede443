// Package commands runs the OS-level cache commands that accompany file
// deletion, such as flushing the DNS resolver cache.
package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/fenilsonani/cleancache/internal/platform"
	"github.com/rs/zerolog"
)

// Runner executes one shell command line
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ShellRunner runs commands through the platform shell
type ShellRunner struct {
	GOOS string
}

// Run executes command with "cmd /C" on Windows and "sh -c" elsewhere and
// returns its combined output
func (r ShellRunner) Run(ctx context.Context, command string) (string, error) {
	goos := r.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	var cmd *exec.Cmd
	if goos == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	// Children of the shell may hold the output pipe after it is killed
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() != nil {
		err = fmt.Errorf("%s: %w", command, ctx.Err())
	}
	return strings.TrimSpace(out.String()), err
}

// TreeRemover deletes a folder tree, reporting every failure
type TreeRemover interface {
	RemoveTree(root string) []error
}

// Result is the outcome of one command or folder purge
type Result struct {
	Command  string
	Output   string
	Err      error
	Duration time.Duration
}

// OK reports whether the command succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// DefaultCommands returns the built-in commands for goos
func DefaultCommands(goos string) []string {
	if goos == "windows" {
		return []string{"ipconfig /flushdns"}
	}
	return []string{}
}

// DefaultPurgeFolders returns folders that are removed wholesale, contents
// and folder alike, as part of the command channel
func DefaultPurgeFolders(info *platform.Info) []string {
	if info == nil || info.OS != platform.Windows || info.WinDir == "" {
		return []string{}
	}
	return []string{strings.TrimRight(info.WinDir, `\`) + `\Installer\$PatchCache$`}
}

// Channel runs the configured commands and purges one after another. It
// is meant to run alongside file deletion; failures are recorded in the
// results and never stop the remaining commands.
type Channel struct {
	runner   Runner
	remover  TreeRemover
	commands []string
	purge    []string
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewChannel creates a command channel
func NewChannel(runner Runner, remover TreeRemover, commands, purge []string, timeout time.Duration, logger zerolog.Logger) *Channel {
	return &Channel{
		runner:   runner,
		remover:  remover,
		commands: commands,
		purge:    purge,
		timeout:  timeout,
		logger:   logger,
	}
}

// Len returns the number of steps the channel will run
func (c *Channel) Len() int {
	if c == nil {
		return 0
	}
	return len(c.commands) + len(c.purge)
}

// Run executes every command, then every purge. Cancelling ctx skips the
// steps not yet started.
func (c *Channel) Run(ctx context.Context) []Result {
	results := make([]Result, 0, c.Len())

	for _, command := range c.commands {
		if ctx.Err() != nil {
			break
		}
		results = append(results, c.runCommand(ctx, command))
	}

	for _, folder := range c.purge {
		if ctx.Err() != nil || c.remover == nil {
			break
		}
		start := time.Now()
		errs := c.remover.RemoveTree(folder)
		res := Result{Command: "purge " + folder, Err: errors.Join(errs...), Duration: time.Since(start)}
		if res.Err != nil {
			c.logger.Warn().Str("folder", folder).Int("errors", len(errs)).Msg("purge incomplete")
		}
		results = append(results, res)
	}

	return results
}

func (c *Channel) runCommand(ctx context.Context, command string) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.runner.Run(ctx, command)
	res := Result{Command: command, Output: out, Err: err, Duration: time.Since(start)}

	if err != nil {
		c.logger.Warn().Str("command", command).Err(err).Msg("command failed")
	} else {
		c.logger.Debug().Str("command", command).Dur("took", res.Duration).Msg("command finished")
	}
	return res
}
