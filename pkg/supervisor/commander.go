package supervisor

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"

	goerrors "errors"

	"github.com/awim-deck/awimd/pkg/bridge"
	"github.com/awim-deck/awimd/pkg/errors"
	"github.com/awim-deck/awimd/pkg/logging"
	"github.com/awim-deck/awimd/pkg/process"
)

// ExitStatus describes how a bridge process ended.
type ExitStatus struct {
	Code int
	Err  error
}

// Handle is the supervisor's view of one launched bridge process.
// Wait blocks until the process exits and may be called once.
type Handle interface {
	PID() int
	Stdout() io.ReadCloser
	Stderr() io.ReadCloser
	Wait() ExitStatus
	Terminate() error
	Kill() error
}

// Commander launches the bridge binary with a given configuration.
// It is an interface so tests can drive the supervisor without real
// processes.
type Commander interface {
	Start(ctx context.Context, config bridge.Config) (Handle, error)
}

// ExecCommanderOptions configures the production commander.
type ExecCommanderOptions struct {
	// BinaryPaths are candidate executable paths, first existing wins.
	BinaryPaths []string
}

// ExecCommander launches the real bridge binary via os/exec.
type ExecCommander struct {
	options ExecCommanderOptions
	logger  logging.Logger
}

func NewExecCommander(options ExecCommanderOptions, logger logging.Logger) *ExecCommander {
	return &ExecCommander{
		options: options,
		logger:  logger,
	}
}

// Start resolves the binary, builds the argument vector from the
// configuration and spawns the process with captured output pipes.
// The bridge only reads its configuration from argv, so a configuration
// change never affects an already running process.
func (c *ExecCommander) Start(ctx context.Context, config bridge.Config) (Handle, error) {
	path, err := process.ResolveExecutable(c.options.BinaryPaths)
	if err != nil {
		return nil, err
	}

	args := []string{"--ip", config.Address, "--port", strconv.Itoa(config.Port)}
	if config.TCPMode {
		args = append(args, "--tcp")
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = filepath.Dir(path)
	cmd.Env = buildBridgeEnv()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.NewProcessError("failed to create stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.NewProcessError("failed to create stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.NewProcessError("failed to start bridge process", err).
			WithContext("path", path)
	}

	if ctx.Err() != nil {
		c.logger.Infof("Context cancelled during bridge startup, cleaning up PID %d", cmd.Process.Pid)
		cmd.Process.Kill()
		return nil, errors.NewProcessError("bridge startup cancelled", ctx.Err())
	}

	c.logger.Infof("Bridge process started, path: %s, args: %v, PID: %d", path, args, cmd.Process.Pid)

	return &execHandle{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

type execHandle struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (h *execHandle) PID() int {
	return h.cmd.Process.Pid
}

func (h *execHandle) Stdout() io.ReadCloser {
	return h.stdout
}

func (h *execHandle) Stderr() io.ReadCloser {
	return h.stderr
}

func (h *execHandle) Wait() ExitStatus {
	err := h.cmd.Wait()

	code := -1
	if h.cmd.ProcessState != nil {
		code = h.cmd.ProcessState.ExitCode()
	}

	if err != nil {
		// A non-zero exit is already captured in the code; only report
		// genuine wait failures as errors.
		var exitErr *exec.ExitError
		if !goerrors.As(err, &exitErr) {
			return ExitStatus{Code: code, Err: err}
		}
	}
	return ExitStatus{Code: code}
}

func (h *execHandle) Terminate() error {
	return process.SendTerminationSignal(h.cmd.Process.Pid)
}

func (h *execHandle) Kill() error {
	return process.Kill(h.cmd.Process.Pid)
}
