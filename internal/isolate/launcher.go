package isolate

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Launcher starts the process that compiles one page definition.
type Launcher interface {
	Launch(ctx context.Context, definitionPath string) (Process, error)
}

// Process is a started child. Wait blocks until it ends and reports its exit
// code; err is set only when the code could not be obtained.
type Process interface {
	Wait() (exitCode int, err error)
}

// ExecLauncher runs Command with the definition path appended as the last
// argument. Killing the process through ctx is how builds are cancelled.
type ExecLauncher struct {
	Command []string
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
}

// DefaultCommand re-executes the running binary in isolated compile mode.
func DefaultCommand() ([]string, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return []string{self, "compile", "--isolated", "--definition"}, nil
}

// NewExecLauncher returns a launcher for command, or for DefaultCommand when
// command is empty.
func NewExecLauncher(dir string, command []string) (*ExecLauncher, error) {
	if len(command) == 0 {
		var err error
		if command, err = DefaultCommand(); err != nil {
			return nil, err
		}
	}
	return &ExecLauncher{Command: command, Dir: dir, Stdout: os.Stdout, Stderr: os.Stderr}, nil
}

func (l *ExecLauncher) Launch(ctx context.Context, definitionPath string) (Process, error) {
	if len(l.Command) == 0 {
		return nil, errors.New("no build command configured")
	}
	args := append(append([]string{}, l.Command[1:]...), definitionPath)
	cmd := exec.CommandContext(ctx, l.Command[0], args...) //nolint:gosec // command comes from the project manifest or our own binary
	cmd.Dir = l.Dir
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
