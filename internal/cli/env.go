// Package cli holds what the subcommands share: global flags, config and
// logger bootstrap, and the interactive config wizard.
package cli

import (
	"io"
	"os"
	"strings"

	"faq_scrap/internal/config"
	"faq_scrap/internal/logger"
)

// ExitError carries a process exit code alongside the error.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "error"
}

func (e ExitError) Unwrap() error { return e.Err }

// Env is the state bound to the root command's persistent flags.
type Env struct {
	ConfigPath string
	LogLevel   string
	Stdout     io.Writer
	Stderr     io.Writer
}

func NewEnv(stdout, stderr io.Writer) *Env {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Env{Stdout: stdout, Stderr: stderr}
}

// ResolveConfigPath returns the --config value, or the first config.json
// found in the search directories.
func (e *Env) ResolveConfigPath() string {
	if p := strings.TrimSpace(e.ConfigPath); p != "" {
		return p
	}
	return config.Discover()
}

// Load reads the configuration and builds the logger. A configuration that
// cannot be read is logged and replaced by defaults; only a logger that
// cannot be built is an error.
func (e *Env) Load() (config.Config, logger.Logger, error) {
	return e.LoadPath(e.ResolveConfigPath())
}

func (e *Env) LoadPath(path string) (config.Config, logger.Logger, error) {
	cfg, loadErr := config.Load(path)
	if lvl := strings.TrimSpace(e.LogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return cfg, nil, err
	}
	if loadErr != nil {
		log.Warn("Config load failed, using defaults",
			logger.String("path", path),
			logger.Error(loadErr),
		)
	}
	return cfg, log, nil
}
