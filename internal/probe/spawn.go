package probe

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/wiredtiger/wttrace/internal/selection"
)

// Spec describes one probe launch. Symbols is copied at spawn time; later
// matrix edits do not reach a running probe.
type Spec struct {
	Metric  selection.Metric
	Command []string
	Lib     string
	Host    string
	Port    int
	Symbols []string
}

// BuildArgs returns the full argument vector for a probe:
//
//	<command...> --lib <path> --host <addr> --port <port> --metric <name> -- <symbol>...
//
// Each symbol is its own argv entry so names never pass through a shell.
func BuildArgs(spec Spec) []string {
	args := make([]string, 0, len(spec.Command)+10+len(spec.Symbols))
	args = append(args, spec.Command...)
	args = append(args,
		"--lib", spec.Lib,
		"--host", spec.Host,
		"--port", strconv.Itoa(spec.Port),
		"--metric", spec.Metric.String(),
		"--",
	)
	return append(args, spec.Symbols...)
}

// Process is a handle on a started probe.
type Process interface {
	Pid() int
	// Terminate asks the probe and everything it started to exit. It does
	// not wait.
	Terminate() error
	// Wait blocks until the process exits and releases its resources.
	Wait() error
}

// Spawner starts probe processes.
type Spawner interface {
	Spawn(spec Spec) (Process, error)
}

// ExecSpawner starts probes with os/exec. Each probe leads its own process
// group so that Terminate reaches helpers it forks. Stdout and Stderr are
// discarded when nil.
type ExecSpawner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func (s ExecSpawner) Spawn(spec Spec) (Process, error) {
	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("no probe command for %s", spec.Metric)
	}
	argv := BuildArgs(spec)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = s.Dir
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Terminate sends SIGTERM to the probe's process group. A group that is
// already gone is not an error.
func (p *execProcess) Terminate() error {
	err := unix.Kill(-p.cmd.Process.Pid, unix.SIGTERM)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}
