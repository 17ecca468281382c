package control

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/awim-deck/awimd/pkg/bridge"
	"github.com/awim-deck/awimd/pkg/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockLogger is a mock implementation of logging.Logger for testing
type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) LogLevelf(level int, format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *mockLogger) Debugf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *mockLogger) Infof(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *mockLogger) Warnf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *mockLogger) Errorf(format string, args ...interface{}) {
	m.Called(format, args)
}

func newTestLogger() *mockLogger {
	logger := &mockLogger{}
	logger.On("Debugf", mock.Anything, mock.Anything).Maybe()
	logger.On("Infof", mock.Anything, mock.Anything).Maybe()
	logger.On("Warnf", mock.Anything, mock.Anything).Maybe()
	logger.On("Errorf", mock.Anything, mock.Anything).Maybe()
	return logger
}

type fakeHandle struct {
	pid    int
	exitCh chan supervisor.ExitStatus
	once   sync.Once
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{
		pid:    pid,
		exitCh: make(chan supervisor.ExitStatus, 1),
	}
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) Stdout() io.ReadCloser {
	return io.NopCloser(strings.NewReader(""))
}

func (h *fakeHandle) Stderr() io.ReadCloser {
	return io.NopCloser(strings.NewReader(""))
}

func (h *fakeHandle) Wait() supervisor.ExitStatus {
	return <-h.exitCh
}

func (h *fakeHandle) Terminate() error {
	h.once.Do(func() { h.exitCh <- supervisor.ExitStatus{Code: 0} })
	return nil
}

func (h *fakeHandle) Kill() error {
	h.once.Do(func() { h.exitCh <- supervisor.ExitStatus{Code: 137} })
	return nil
}

type fakeCommander struct{}

func (fakeCommander) Start(_ context.Context, _ bridge.Config) (supervisor.Handle, error) {
	return newFakeHandle(4321), nil
}

type noopLiveness struct{}

func (noopLiveness) Watch(_ io.Reader, _ func(supervisor.Signal)) {}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := newTestLogger()
	sup := supervisor.New(fakeCommander{}, noopLiveness{}, nil, supervisor.Options{
		InitialConfig:   bridge.DefaultConfig(),
		GracefulTimeout: 20 * time.Millisecond,
	}, logger)
	return NewRouter(NewHandler(sup, logger))
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var state StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	return state
}

func TestGetState(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/state", "")

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, "127.0.0.1", state.Address)
	assert.Equal(t, 1242, state.Port)
	assert.False(t, state.TCPMode)
	assert.False(t, state.Running)
	assert.Nil(t, state.PID)
	assert.Equal(t, "stopped", state.Status)
	assert.Nil(t, state.LastErrorCode)
}

func TestValidateAddress(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		address string
		valid   bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"localhost", false},
		{"256.1.1.1", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.address, func(t *testing.T) {
			body, _ := json.Marshal(ValidateAddressRequest{Address: tc.address})
			rec := doRequest(t, router, http.MethodPost, "/v1/validate/address", string(body))

			require.Equal(t, http.StatusOK, rec.Code)
			var resp ValidateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.valid, resp.Valid)
		})
	}
}

func TestValidatePort(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		port  int
		valid bool
	}{
		{1023, false},
		{1024, true},
		{65535, true},
		{65536, false},
	}
	for _, tc := range cases {
		body, _ := json.Marshal(ValidatePortRequest{Port: tc.port})
		rec := doRequest(t, router, http.MethodPost, "/v1/validate/port", string(body))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ValidateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tc.valid, resp.Valid, "port %d", tc.port)
	}
}

func TestUpdateConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/v1/config",
			`{"address":"10.0.0.7","port":4242}`)

		require.Equal(t, http.StatusOK, rec.Code)
		state := decodeState(t, rec)
		assert.Equal(t, "10.0.0.7", state.Address)
		assert.Equal(t, 4242, state.Port)
	})

	t.Run("invalid_address_rejected_without_mutation", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/v1/config",
			`{"address":"not-an-ip","port":4242}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doRequest(t, router, http.MethodGet, "/v1/state", "")
		state := decodeState(t, rec)
		assert.Equal(t, "127.0.0.1", state.Address)
		assert.Equal(t, 1242, state.Port)
	})

	t.Run("invalid_port_rejected", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/v1/config",
			`{"address":"10.0.0.7","port":80}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed_json", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/v1/config", `{"address":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown_field", func(t *testing.T) {
		router := newTestRouter(t)

		rec := doRequest(t, router, http.MethodPost, "/v1/config",
			`{"address":"10.0.0.7","port":4242,"bogus":true}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSetTCPMode(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/tcp-mode", `{"enabled":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.True(t, state.TCPMode)
}

func TestSetEnabled(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/enabled", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.True(t, state.Running)
	assert.Equal(t, "starting", state.Status)
	require.NotNil(t, state.PID)
	assert.Equal(t, 4321, *state.PID)
	assert.Equal(t, uint64(1), state.LaunchAttempt)

	rec = doRequest(t, router, http.MethodPost, "/v1/enabled", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decodeState(t, rec)
	assert.False(t, state.Running)
	assert.Equal(t, "stopped", state.Status)
	assert.Nil(t, state.PID)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/state", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
