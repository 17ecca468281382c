// Package supervisor owns the lifecycle of the external audio-bridge
// process: it validates configuration updates, launches and terminates the
// bridge, watches for process exit and exposes a pollable snapshot to the
// control API.
package supervisor

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/awim-deck/awimd/pkg/bridge"
	"github.com/awim-deck/awimd/pkg/errors"
	"github.com/awim-deck/awimd/pkg/logging"
)

// LaunchFailureCode is recorded as the error code when the bridge binary
// could not be spawned at all, as opposed to a real process exit code.
const LaunchFailureCode = -1

// DefaultGracefulTimeout bounds how long a disable waits for the bridge to
// exit after the termination signal before force-killing it.
const DefaultGracefulTimeout = 3 * time.Second

// Snapshot is the immutable point-in-time read of the supervision record
// returned to callers. PID is 0 when no process is owned.
type Snapshot struct {
	Config         bridge.Config
	DesiredEnabled bool
	State          LifecycleState
	PID            int
	LaunchAttempt  uint64
	LastErrorCode  *int
}

// Running reports whether a bridge process is currently owned.
func (s Snapshot) Running() bool {
	return s.State.Running()
}

// Options configures a Supervisor.
type Options struct {
	// InitialConfig must have passed validation (the settings store
	// guarantees this).
	InitialConfig bridge.Config

	// GracefulTimeout bounds the wait between the termination signal and
	// the force kill. Zero selects DefaultGracefulTimeout.
	GracefulTimeout time.Duration
}

// Supervisor holds the supervision record. All mutation happens under one
// mutex: command handlers and the watcher's exit report go through the same
// exclusive path, so ordering races between a user disable and an in-flight
// exit notification are resolved by the launch-attempt tag, not by timing.
type Supervisor struct {
	commander Commander
	liveness  LivenessMonitor
	store     *bridge.Store
	logger    logging.Logger

	gracefulTimeout time.Duration

	mu             sync.Mutex
	config         bridge.Config
	desiredEnabled bool
	state          LifecycleState
	handle         Handle
	done           chan ExitStatus
	pid            int
	launchAttempt  uint64
	lastErrorCode  *int
}

// New creates a supervisor in the Stopped state. store may be nil when
// settings persistence is not wanted (tests).
func New(commander Commander, liveness LivenessMonitor, store *bridge.Store, options Options, logger logging.Logger) *Supervisor {
	gracefulTimeout := options.GracefulTimeout
	if gracefulTimeout <= 0 {
		gracefulTimeout = DefaultGracefulTimeout
	}

	config := options.InitialConfig
	if config == (bridge.Config{}) {
		config = bridge.DefaultConfig()
	}

	return &Supervisor{
		commander:       commander,
		liveness:        liveness,
		store:           store,
		logger:          logger,
		gracefulTimeout: gracefulTimeout,
		config:          config,
		state:           LifecycleStopped,
	}
}

// Snapshot returns the current supervision record. It never blocks on the
// child process.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UpdateConfig validates and stores a new bridge endpoint. On validation
// failure nothing is mutated and the current snapshot is returned alongside
// the error. A running bridge is unaffected: the bridge only reads argv at
// launch, so the new configuration takes effect on the next start.
func (s *Supervisor) UpdateConfig(address string, port int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !bridge.ValidAddress(address) {
		return s.snapshotLocked(), errors.NewValidationError(
			"address must be a valid IPv4 or IPv6 literal", nil).
			WithContext("address", address)
	}
	if !bridge.ValidPort(port) {
		return s.snapshotLocked(), errors.NewValidationError(
			"port must be in range 1024-65535", nil).
			WithContext("port", port)
	}

	s.config.Address = address
	s.config.Port = port
	s.persistLocked()

	if s.state.Running() {
		s.logger.Infof("Configuration updated to %s:%d, takes effect on next launch", address, port)
	} else {
		s.logger.Infof("Configuration updated to %s:%d", address, port)
	}

	return s.snapshotLocked(), nil
}

// SetTransportMode flips the TCP transport flag. Same deferred-effect rule
// as UpdateConfig.
func (s *Supervisor) SetTransportMode(enabled bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.TCPMode = enabled
	s.persistLocked()
	s.logger.Infof("Transport mode set, tcp: %t", enabled)

	return s.snapshotLocked()
}

// SetEnabled drives the lifecycle: it is the only operation that launches
// or terminates the bridge. Enabling while already running is a no-op that
// still returns a fresh snapshot. The launch path returns immediately with
// the Starting snapshot; the terminate path waits up to one graceful
// timeout before force-killing.
func (s *Supervisor) SetEnabled(ctx context.Context, enabled bool) Snapshot {
	s.mu.Lock()

	if enabled {
		snapshot := s.enableLocked(ctx)
		s.mu.Unlock()
		return snapshot
	}

	handle, done := s.disableLocked()
	s.mu.Unlock()

	if handle != nil {
		s.terminate(ctx, handle, done)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close terminates any owned bridge process. Called on daemon shutdown.
func (s *Supervisor) Close(ctx context.Context) {
	s.logger.Infof("Supervisor shutting down")
	s.SetEnabled(ctx, false)
}

func (s *Supervisor) enableLocked(ctx context.Context) Snapshot {
	s.desiredEnabled = true

	if s.state.Running() {
		s.logger.Debugf("Enable requested while already %s, no-op", s.state)
		return s.snapshotLocked()
	}
	if s.handle != nil {
		// A handle without a running state should not exist; refuse to
		// double-launch.
		s.logger.Errorf("Enable refused: a bridge process handle is still owned")
		return s.snapshotLocked()
	}

	s.launchAttempt++
	attempt := s.launchAttempt

	s.transitionLocked(LifecycleStarting, "enable")

	handle, err := s.commander.Start(ctx, s.config)
	if err != nil {
		s.logger.Errorf("Failed to launch bridge process, attempt %d: %v", attempt, err)
		s.transitionLocked(LifecycleError, "launch")
		code := LaunchFailureCode
		s.lastErrorCode = &code
		return s.snapshotLocked()
	}

	done := make(chan ExitStatus, 1)
	s.handle = handle
	s.done = done
	s.pid = handle.PID()
	s.lastErrorCode = nil

	go s.watch(attempt, handle, done)
	go s.liveness.Watch(handle.Stdout(), func(signal Signal) {
		s.applyLiveness(attempt, signal)
	})
	go s.consumeStderr(handle.Stderr())

	return s.snapshotLocked()
}

// disableLocked moves the record to Stopped and releases ownership of the
// handle. The returned handle (if any) must be terminated outside the lock.
func (s *Supervisor) disableLocked() (Handle, chan ExitStatus) {
	s.desiredEnabled = false

	switch {
	case s.state == LifecycleStopped:
		s.logger.Debugf("Disable requested while already stopped, no-op")
		return nil, nil
	case s.state == LifecycleError:
		s.transitionLocked(LifecycleStopped, "disable")
		s.lastErrorCode = nil
		return nil, nil
	}

	handle := s.handle
	done := s.done

	// Transition before terminating: once the state is Stopped, the
	// watcher's exit report for this attempt is treated as the expected
	// consequence of the disable, not as a failure.
	s.transitionLocked(LifecycleStopped, "disable")
	s.handle = nil
	s.done = nil
	s.pid = 0

	return handle, done
}

// terminate sends the graceful stop signal, waits up to the graceful
// timeout for the watcher to observe the exit, then escalates to a kill.
func (s *Supervisor) terminate(ctx context.Context, handle Handle, done chan ExitStatus) {
	pid := handle.PID()

	s.logger.Infof("Terminating bridge process, PID %d", pid)
	if err := handle.Terminate(); err != nil {
		s.logger.Warnf("Failed to send termination signal to PID %d: %v", pid, err)
	}

	select {
	case status := <-done:
		s.logger.Infof("Bridge process PID %d stopped gracefully, code %d", pid, status.Code)
		return
	case <-time.After(s.gracefulTimeout):
		s.logger.Warnf("Bridge process PID %d did not stop within %v, killing", pid, s.gracefulTimeout)
	case <-ctx.Done():
		s.logger.Warnf("Context cancelled while waiting for PID %d, killing", pid)
	}

	if err := handle.Kill(); err != nil {
		s.logger.Warnf("Failed to kill bridge process PID %d: %v", pid, err)
	}

	select {
	case status := <-done:
		s.logger.Infof("Bridge process PID %d force stopped, code %d", pid, status.Code)
	case <-time.After(s.gracefulTimeout):
		s.logger.Errorf("Bridge process PID %d did not exit even after kill", pid)
	}
}

// watch blocks until the process exits, then reports the exit tagged with
// the launch attempt that spawned it. One watcher exists per launch; a
// report from a superseded launch is discarded by applyExit.
func (s *Supervisor) watch(attempt uint64, handle Handle, done chan<- ExitStatus) {
	status := handle.Wait()
	done <- status
	s.applyExit(attempt, status)
}

func (s *Supervisor) applyExit(attempt uint64, status ExitStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.launchAttempt {
		s.logger.Debugf("Discarding stale exit report from attempt %d (current %d)", attempt, s.launchAttempt)
		return
	}
	if !s.state.Running() {
		// Deliberate termination: the disable path already moved us to
		// Stopped before the process went down.
		s.logger.Debugf("Bridge exit observed after stop, code %d", status.Code)
		return
	}

	if status.Err != nil {
		s.logger.Errorf("Bridge process exited unexpectedly, attempt %d, code %d: %v", attempt, status.Code, status.Err)
	} else {
		s.logger.Errorf("Bridge process exited unexpectedly, attempt %d, code %d", attempt, status.Code)
	}

	s.transitionLocked(LifecycleError, "exit")
	code := status.Code
	s.lastErrorCode = &code
	s.handle = nil
	s.done = nil
	s.pid = 0
}

// applyLiveness advances Starting -> Waiting -> Connected monotonically for
// the current launch attempt. Signals from superseded attempts or
// out-of-order signals are discarded.
func (s *Supervisor) applyLiveness(attempt uint64, signal Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.launchAttempt {
		s.logger.Debugf("Discarding stale liveness signal from attempt %d", attempt)
		return
	}

	switch {
	case s.state == LifecycleStarting:
		s.transitionLocked(LifecycleWaiting, "liveness")
	case s.state == LifecycleWaiting && signal == SignalConnected:
		s.transitionLocked(LifecycleConnected, "liveness")
	}
}

func (s *Supervisor) transitionLocked(to LifecycleState, operation string) {
	from := s.state
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		s.logger.Errorf("Invalid lifecycle transition %s->%s, operation: %s", from, to, operation)
		return
	}
	s.state = to
	s.logger.Infof("Lifecycle transition %s->%s, operation: %s, attempt: %d", from, to, operation, s.launchAttempt)
}

func (s *Supervisor) persistLocked() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.config); err != nil {
		s.logger.Warnf("Failed to persist bridge settings: %v", err)
	}
}

func (s *Supervisor) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Config:         s.config,
		DesiredEnabled: s.desiredEnabled,
		State:          s.state,
		PID:            s.pid,
		LaunchAttempt:  s.launchAttempt,
	}
	if s.lastErrorCode != nil {
		code := *s.lastErrorCode
		snapshot.LastErrorCode = &code
	}
	return snapshot
}

func (s *Supervisor) consumeStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			s.logger.Errorf("bridge stderr: %s", line)
		}
	}
}
