//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/config"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/elfinfo"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/libc"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// Functions the library must export to be worth preloading.
var hooks = libc.Names

type runOptions struct {
	configPath string
	library    string
	logLevel   string
	logFormat  string
	logFile    string
	noCheck    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Run a command with the monitor preloaded",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, &opts, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&opts.library, "lib", "", "path to liblnm.so")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "library log level (debug, info)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "library log format (json, console)")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "library log destination (default stderr)")
	cmd.Flags().BoolVar(&opts.noCheck, "no-check", false, "skip checking the library exports")
	return cmd
}

// resolveConfig layers the config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command, opts *runOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("lib") {
		cfg.Library = opts.library
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	cfg = cfg.Normalize()

	// The child may change directory before the loader reads LD_PRELOAD.
	lib, err := filepath.Abs(cfg.Library)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve library path: %w", err)
	}
	cfg.Library = lib
	return cfg, nil
}

func runCommand(cmd *cobra.Command, opts *runOptions, args []string) error {
	level := config.LevelInfo
	if verbose {
		level = config.LevelDebug
	}
	log.Init(config.Config{LogLevel: level, LogFormat: config.FormatConsole})

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	if !opts.noCheck {
		info, err := elfinfo.Inspect(cfg.Library)
		if err != nil {
			return fmt.Errorf("inspect library: %w", err)
		}
		if err := info.CheckPreloadable(hooks...); err != nil {
			return err
		}
	}

	path, err := exec.LookPath(args[0])
	if err != nil {
		return err
	}

	child := exec.Command(path, args[1:]...)
	child.Args[0] = args[0]
	child.Env = cfg.Environ(os.Environ())
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	log.L.Debug("launch",
		zap.String("path", path),
		zap.Strings("args", args[1:]),
		zap.String("library", cfg.Library),
		zap.String("logLevel", cfg.LogLevel),
		zap.String("logFormat", cfg.LogFormat),
		zap.String("logFile", cfg.LogFile),
	)

	if err := child.Start(); err != nil {
		return err
	}

	signals := make(chan os.Signal, 8)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(signals)
	go func() {
		for sig := range signals {
			_ = child.Process.Signal(sig)
		}
	}()

	err = child.Wait()
	code := exitCode(child.ProcessState, err)
	log.L.Debug("exited", zap.Int("childPid", child.Process.Pid), zap.Int("code", code))
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// exitCode maps the child's fate onto a shell-style exit status.
func exitCode(state *os.ProcessState, err error) int {
	if state == nil {
		if err != nil {
			return 1
		}
		return 0
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return state.ExitCode()
}
