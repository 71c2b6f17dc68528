//go:build cgo && linux

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/config"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/trace"
)

var (
	libDir   string
	buildLib = sync.OnceValues(func() (string, error) {
		goBin, err := exec.LookPath("go")
		if err != nil {
			return "", err
		}
		dir, err := os.MkdirTemp("", "liblnm")
		if err != nil {
			return "", err
		}
		libDir = dir
		out := filepath.Join(dir, config.DefaultLibrary)
		cmd := exec.Command(goBin, "build", "-buildmode=c-shared", "-tags", "netgo", "-o", out, "../liblnm")
		if output, err := cmd.CombinedOutput(); err != nil {
			return "", fmt.Errorf("build liblnm: %w\n%s", err, output)
		}
		return out, nil
	})
)

func TestMain(m *testing.M) {
	code := m.Run()
	if libDir != "" {
		os.RemoveAll(libDir)
	}
	os.Exit(code)
}

// library returns the path of a freshly built liblnm.so.
func library(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the preload library")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("no go toolchain")
	}
	lib, err := buildLib()
	require.NoError(t, err)
	return lib
}

func bash(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("no bash")
	}
	return path
}

// runPreloaded runs script under bash with the library preloaded, logging
// JSON at debug level to logFile.
func runPreloaded(t *testing.T, lib, logFile, script string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Config{Library: lib, LogLevel: config.LevelDebug, LogFile: logFile}.Normalize()
	cmd := exec.CommandContext(ctx, bash(t), "-c", script)
	cmd.Env = cfg.Environ(os.Environ())
	cmd.WaitDelay = 5 * time.Second

	out, err := cmd.CombinedOutput()
	require.NoError(t, ctx.Err(), "bash hung under the preload library: %s", out)
	require.NoError(t, err, "%s", out)
	return string(out)
}

func readEvents(t *testing.T, logFile string) []*trace.Event {
	t.Helper()
	f, err := os.Open(logFile)
	require.NoError(t, err)
	defer f.Close()

	r := trace.NewReader(f, trace.DefaultEnricher)
	var events []*trace.Event
	for e := range r.All() {
		events = append(events, e)
	}
	require.NoError(t, r.Err())
	return events
}

// Command substitution makes bash fork a child that closes pipe descriptors
// before exec. That child must not enter the Go runtime.
func TestPreloadedShellForks(t *testing.T) {
	lib := library(t)
	logFile := filepath.Join(t.TempDir(), "net.log")

	out := runPreloaded(t, lib, logFile,
		`for i in $(seq 1 20); do x=$(echo hi); done; echo "done $x"`)
	assert.Contains(t, out, "done hi")

	var bootstrap bool
	for _, e := range readEvents(t, logFile) {
		if e.Name == "bootstrap" {
			bootstrap = true
		}
		assert.NotEqual(t, "bootstrapFailed", e.Name)
	}
	assert.True(t, bootstrap)
}

func TestPreloadedSocketLifecycle(t *testing.T) {
	lib := library(t)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port
	target := fmt.Sprintf("127.0.0.1:%d", port)

	logFile := filepath.Join(t.TempDir(), "net.log")
	runPreloaded(t, lib, logFile, fmt.Sprintf(`exec 3<>/dev/tcp/127.0.0.1/%d && exec 3<&-`, port))

	events := readEvents(t, logFile)

	connectAt := -1
	var spanID string
	for i, e := range events {
		if e.Name == "connectDone" && e.Annotations.Get("addr") == target {
			connectAt, spanID = i, e.Annotations.Get("spanID")
			break
		}
	}
	require.GreaterOrEqual(t, connectAt, 0, "no connectDone for %s", target)
	require.NotEmpty(t, spanID)

	socketAt := -1
	for i, e := range events[:connectAt] {
		if e.Name == "socketDone" && e.Annotations.Get("spanID") == spanID {
			socketAt = i
		}
	}
	require.GreaterOrEqual(t, socketAt, 0, "no socketDone for span %s", spanID)
	assert.Equal(t, "true", events[socketAt].Annotations.Get("tracked"))

	var closed *trace.Event
	for _, e := range events[connectAt+1:] {
		if e.Name == "closeDone" && e.Annotations.Get("spanID") == spanID {
			closed = e
			break
		}
	}
	require.NotNil(t, closed, "no closeDone for span %s", spanID)
	assert.Equal(t, target, closed.Annotations.Get("addr"))
	assert.Equal(t, events[socketAt].Annotations.Get("fd"), closed.Annotations.Get("fd"))
}

func TestRunPropagatesExitStatus(t *testing.T) {
	lib := library(t)
	sh := bash(t)
	logFile := filepath.Join(t.TempDir(), "net.log")

	root := newRootCmd()
	root.SetArgs([]string{"run", "--lib", lib, "--log-file", logFile, "--", sh, "-c", "exit 7"})

	err := root.Execute()
	var exit *exitError
	require.True(t, errors.As(err, &exit), "got %v", err)
	assert.Equal(t, 7, exit.code)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "bootstrapFailed"))
}
