package daemon

// The parent's only job is to hand off to a detached child and exit 0.
// Nothing that happens during the hand-off is allowed to fail the parent.

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/psantana5/gpu-keepalive/pkg/logging"
)

// MarkerEnv is set in the environment of the detached child.
// Its presence on startup means detachment already happened.
const MarkerEnv = "GPU_KEEPALIVE_DETACHED"

// Spawner launches a detached copy of the program
type Spawner interface {
	Spawn(path string, args []string, env []string) (pid int, err error)
}

// Options describes one program launch
type Options struct {
	// Detached is true when this process is the detached instance, or the
	// caller asked to run in the foreground. No child is spawned then.
	Detached bool

	// Executable is the program to re-exec (defaults to os.Executable)
	Executable string

	// Args are forwarded verbatim to the child, excluding argv[0]
	Args []string

	// Env is the base environment for the child (defaults to os.Environ)
	Env []string

	Spawner Spawner
	Logger  *logging.Logger
}

// Outcome reports what Start did
type Outcome struct {
	// Spawned is true when this invocation handed off to a child and
	// should now exit
	Spawned bool
	PID     int
	Err     error
}

// IsDetached reports whether the marker is set in env, whatever its value
func IsDetached(env []string) bool {
	prefix := MarkerEnv + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}
	return false
}

// Start runs the startup protocol. When opts.Detached is set it returns
// immediately with Spawned false and the caller proceeds to the loop.
// Otherwise it spawns the detached child and returns Spawned true; a spawn
// failure is recorded in Outcome.Err and logged, never returned.
func Start(opts Options) Outcome {
	if opts.Detached {
		return Outcome{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.INFO, false)
	}

	exe := opts.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			logger.Warn("Cannot resolve own executable, not detaching", map[string]interface{}{"error": err.Error()})
			return Outcome{Spawned: true, Err: err}
		}
	}

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	spawner := opts.Spawner
	if spawner == nil {
		spawner = SessionSpawner{}
	}

	pid, err := spawner.Spawn(exe, opts.Args, ChildEnv(env))
	if err != nil {
		logger.Warn("Failed to spawn detached keepalive", map[string]interface{}{"error": err.Error()})
		return Outcome{Spawned: true, Err: err}
	}

	logger.Debug("Spawned detached keepalive", map[string]interface{}{"pid": pid})
	return Outcome{Spawned: true, PID: pid}
}

// ChildEnv returns env with the marker set, replacing any earlier value
func ChildEnv(env []string) []string {
	prefix := MarkerEnv + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, MarkerEnv+"=1")
}

// SessionSpawner starts the child as the leader of a new session with
// stdin, stdout and stderr bound to the null device
type SessionSpawner struct{}

// Spawn starts the child and releases it without waiting
func (SessionSpawner) Spawn(path string, args []string, env []string) (int, error) {
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(path, args...)
	cmd.Env = env
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // new session, no controlling terminal
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start: %w", err)
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release pid %d: %w", pid, err)
	}

	return pid, nil
}
