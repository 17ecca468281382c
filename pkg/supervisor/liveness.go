package supervisor

import (
	"bufio"
	"io"
	"strings"

	"github.com/awim-deck/awimd/pkg/logging"
)

// Signal is an abstract indication that a spawned bridge process has
// progressed from merely running to actively serving.
type Signal int

const (
	// SignalServing means the bridge is up and waiting for a peer
	SignalServing Signal = iota

	// SignalConnected means a peer is actively using the bridge
	SignalConnected
)

// LivenessMonitor observes a launched bridge process and reports liveness
// signals. The detection technique is deliberately isolated here so the
// supervisor's state machine stays independent of it.
type LivenessMonitor interface {
	// Watch consumes stdout until EOF, invoking report for each detected
	// signal. It is run on a goroutine owned by the supervisor.
	Watch(stdout io.Reader, report func(Signal))
}

// LogLivenessMonitor detects liveness by scanning the bridge's stdout for
// marker substrings. Every line is also forwarded to the daemon log.
type LogLivenessMonitor struct {
	servingMarker   string
	connectedMarker string
	logger          logging.Logger
}

func NewLogLivenessMonitor(servingMarker, connectedMarker string, logger logging.Logger) *LogLivenessMonitor {
	return &LogLivenessMonitor{
		servingMarker:   strings.ToLower(servingMarker),
		connectedMarker: strings.ToLower(connectedMarker),
		logger:          logger,
	}
}

func (m *LogLivenessMonitor) Watch(stdout io.Reader, report func(Signal)) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m.logger.Infof("bridge stdout: %s", line)

		lower := strings.ToLower(line)
		switch {
		case m.connectedMarker != "" && strings.Contains(lower, m.connectedMarker):
			report(SignalConnected)
		case m.servingMarker != "" && strings.Contains(lower, m.servingMarker):
			report(SignalServing)
		}
	}
	if err := scanner.Err(); err != nil {
		m.logger.Debugf("bridge stdout closed: %v", err)
	}
}
